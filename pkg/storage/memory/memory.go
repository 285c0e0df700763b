// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mohamed-ali0/remmie/pkg/core/state"
)

// Store is an in-memory implementation of ConversationStore. Suitable for
// tests and single-process development; bindings do not survive a restart.
type Store struct {
	mu       sync.RWMutex
	bindings map[string]*state.Binding
	searches map[string][]*state.FlightSearch
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		bindings: make(map[string]*state.Binding),
		searches: make(map[string][]*state.FlightSearch),
	}
}

// GetBinding retrieves the conversation binding for a user
func (s *Store) GetBinding(ctx context.Context, userID string) (*state.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	binding, exists := s.bindings[userID]
	if !exists {
		return nil, state.ErrNotFound
	}

	copied := *binding
	return &copied, nil
}

// SaveBinding stores a binding, replacing any previous one for the user
func (s *Store) SaveBinding(ctx context.Context, binding *state.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *binding
	s.bindings[binding.UserID] = &copied
	return nil
}

// SaveFlightSearch records one flight search for a user
func (s *Store) SaveFlightSearch(ctx context.Context, search *state.FlightSearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *search
	s.searches[search.UserID] = append(s.searches[search.UserID], &copied)
	return nil
}

// ListFlightSearches returns a user's recorded searches, newest first
func (s *Store) ListFlightSearches(ctx context.Context, userID string) ([]*state.FlightSearch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searches := make([]*state.FlightSearch, 0, len(s.searches[userID]))
	for _, search := range s.searches[userID] {
		copied := *search
		searches = append(searches, &copied)
	}

	sort.SliceStable(searches, func(i, j int) bool {
		return searches[i].CreatedAt.After(searches[j].CreatedAt)
	})
	return searches, nil
}
