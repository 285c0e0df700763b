// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by store lookups when no record exists for the
// given key. Callers classify it with errors.Is.
var ErrNotFound = errors.New("not found")

// ConversationStore persists the mapping between end users and their
// remote conversations, plus the flight searches recorded as a side effect
// of tool dispatch.
type ConversationStore interface {
	// GetBinding returns the stored conversation binding for a user, or
	// ErrNotFound when the user has never been bound.
	GetBinding(ctx context.Context, userID string) (*Binding, error)

	// SaveBinding stores a binding, overwriting any previous binding for
	// the same user. A user tracks at most one conversation.
	SaveBinding(ctx context.Context, binding *Binding) error

	// SaveFlightSearch records the parameters of a flight search performed
	// on behalf of a user.
	SaveFlightSearch(ctx context.Context, search *FlightSearch) error

	// ListFlightSearches returns a user's recorded searches, newest first.
	ListFlightSearches(ctx context.Context, userID string) ([]*FlightSearch, error)
}

// Binding maps an end user to the remote conversation that carries their
// dialogue history.
type Binding struct {
	UserID         string
	ConversationID string
	CreatedAt      time.Time
}

// FlightSearch is one recorded flight-offer search request.
type FlightSearch struct {
	ID        string
	UserID    string
	Params    json.RawMessage
	CreatedAt time.Time
}
