package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"loyaltykit/core"
)

// Store persists entire state to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[core.UserID]core.UserState
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.UserID]core.UserState{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]core.UserState
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		s.data[core.UserID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]core.UserState, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) get(user core.UserID) core.UserState {
	if st, ok := s.data[user]; ok {
		return st
	}
	st := core.UserState{UserID: user, Updated: time.Now().UTC()}
	s.data[user] = st
	return st
}

func (s *Store) AddXP(_ context.Context, user core.UserID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(user)
	next, err := core.AddSafe(st.XP, delta)
	if err != nil {
		return 0, err
	}
	st.XP = next
	st.Updated = time.Now().UTC()
	s.data[user] = st
	if err := s.persist(); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Store) RecordOrder(_ context.Context, user core.UserID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(user)
	st.Orders++
	st.Updated = time.Now().UTC()
	s.data[user] = st
	if err := s.persist(); err != nil {
		return 0, err
	}
	return st.Orders, nil
}

func (s *Store) GetState(_ context.Context, user core.UserID) (core.UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(user)
	return st.Clone(), nil
}

func (s *Store) SetLevel(_ context.Context, user core.UserID, level int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.get(user)
	st.Level = level
	st.Updated = time.Now().UTC()
	s.data[user] = st
	return s.persist()
}
