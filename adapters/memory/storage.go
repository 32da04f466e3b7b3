package memory

import (
	"context"
	"sync"
	"time"

	"loyaltykit/core"
)

// Store is a concurrent in-memory Storage implementation.
type Store struct {
	users sync.Map // map[core.UserID]*userRecord
}

type userRecord struct {
	mu    sync.Mutex
	state core.UserState
}

func New() *Store { return &Store{} }

func (s *Store) getOrCreate(user core.UserID) *userRecord {
	if v, ok := s.users.Load(user); ok {
		return v.(*userRecord)
	}
	rec := &userRecord{state: core.UserState{
		UserID:  user,
		Updated: time.Now().UTC(),
	}}
	actual, _ := s.users.LoadOrStore(user, rec)
	return actual.(*userRecord)
}

func (s *Store) AddXP(_ context.Context, user core.UserID, delta int64) (int64, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	next, err := core.AddSafe(rec.state.XP, delta)
	if err != nil {
		return 0, err
	}
	rec.state.XP = next
	rec.state.Updated = time.Now().UTC()
	return next, nil
}

func (s *Store) RecordOrder(_ context.Context, user core.UserID) (int64, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.state.Orders++
	rec.state.Updated = time.Now().UTC()
	return rec.state.Orders, nil
}

func (s *Store) GetState(_ context.Context, user core.UserID) (core.UserState, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state.Clone(), nil
}

func (s *Store) SetLevel(_ context.Context, user core.UserID, level int64) error {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.state.Level = level
	rec.state.Updated = time.Now().UTC()
	return nil
}

var _ interface {
	AddXP(context.Context, core.UserID, int64) (int64, error)
	RecordOrder(context.Context, core.UserID) (int64, error)
	GetState(context.Context, core.UserID) (core.UserState, error)
	SetLevel(context.Context, core.UserID, int64) error
} = (*Store)(nil)
