package memory

import (
	"context"
	"testing"

	"loyaltykit/core"
)

func TestMemoryStore(t *testing.T) {
	s := New()
	total, err := s.AddXP(context.Background(), core.UserID("u"), 5)
	if err != nil || total != 5 {
		t.Fatalf("got %v %v", total, err)
	}
	orders, err := s.RecordOrder(context.Background(), core.UserID("u"))
	if err != nil || orders != 1 {
		t.Fatalf("got %v %v", orders, err)
	}
	if err := s.SetLevel(context.Background(), core.UserID("u"), 2); err != nil {
		t.Fatal(err)
	}
	st, _ := s.GetState(context.Background(), core.UserID("u"))
	if st.XP != 5 || st.Orders != 1 || st.Level != 2 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestMemoryStoreCloneIsolation(t *testing.T) {
	s := New()
	_, _ = s.AddXP(context.Background(), "u", 10)
	st, _ := s.GetState(context.Background(), "u")
	st.XP = 999
	again, _ := s.GetState(context.Background(), "u")
	if again.XP != 10 {
		t.Fatal("state snapshot should be isolated")
	}
}
