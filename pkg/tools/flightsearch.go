// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohamed-ali0/remmie/pkg/core/state"
	"github.com/mohamed-ali0/remmie/pkg/flights"
	"github.com/mohamed-ali0/remmie/pkg/observability/logging"
)

// FlightSearchToolName is the capability name the assistant is configured
// to request for flight lookups.
const FlightSearchToolName = "search_flight_offers"

// FlightSearcher is the slice of the Amadeus client the tool needs.
// Implemented by *flights.Client.
type FlightSearcher interface {
	SearchOffers(ctx context.Context, params flights.SearchParams) (*flights.OffersResponse, error)
}

// RegisterFlightSearch wires the flight-offers search into the registry.
// After a successful search the request parameters are recorded against the
// user; that write is best effort and never alters the tool result.
func RegisterFlightSearch(r *Registry, searcher FlightSearcher, store state.ConversationStore, logger *logging.Logger) {
	if logger == nil {
		logger = logging.Discard()
	}

	r.Register(FlightSearchToolName, func(ctx context.Context, userID string, args json.RawMessage) (string, error) {
		var params flights.SearchParams
		if err := json.Unmarshal(args, &params); err != nil {
			return "", fmt.Errorf("invalid flight search arguments: %w", err)
		}

		offers, err := searcher.SearchOffers(ctx, params)
		if err != nil {
			return "", err
		}

		if store != nil {
			search := &state.FlightSearch{
				ID:        searchID(),
				UserID:    userID,
				Params:    append(json.RawMessage(nil), args...),
				CreatedAt: time.Now(),
			}
			if err := store.SaveFlightSearch(ctx, search); err != nil {
				logger.Warn("could not save flight search", "user_id", userID, "error", err)
			}
		}

		return flights.FormatOffers(offers), nil
	})
}

func searchID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return "fs_" + hex.EncodeToString(b)
}
