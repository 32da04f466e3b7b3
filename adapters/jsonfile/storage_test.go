package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStorePersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	total, err := store.AddXP(context.Background(), "alice", 50)
	if err != nil || total != 50 {
		t.Fatalf("add xp: total=%d err=%v", total, err)
	}

	if _, err := store.RecordOrder(context.Background(), "alice"); err != nil {
		t.Fatalf("record order: %v", err)
	}
	if err := store.SetLevel(context.Background(), "alice", 2); err != nil {
		t.Fatalf("set level: %v", err)
	}

	// ensure file written
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s", path)
	}

	// reload
	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	state, err := reloaded.GetState(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.XP != 50 {
		t.Fatalf("expected xp 50, got %d", state.XP)
	}
	if state.Orders != 1 {
		t.Fatalf("expected 1 order, got %d", state.Orders)
	}
	if state.Level != 2 {
		t.Fatalf("expected level 2, got %d", state.Level)
	}
}
