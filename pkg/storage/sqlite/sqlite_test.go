// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohamed-ali0/remmie/pkg/core/state"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "remmie.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNew_AppliesConnectionPragmas(t *testing.T) {
	store := newTestStore(t)

	var mode string
	if err := store.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout int
	if err := store.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("read busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestBinding_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetBinding(ctx, "user-1"); !errors.Is(err, state.ErrNotFound) {
		t.Errorf("expected ErrNotFound before save, got %v", err)
	}

	binding := &state.Binding{
		UserID:         "user-1",
		ConversationID: "thread_abc",
		CreatedAt:      time.Now().UTC(),
	}
	if err := store.SaveBinding(ctx, binding); err != nil {
		t.Fatalf("SaveBinding: %v", err)
	}

	got, err := store.GetBinding(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetBinding: %v", err)
	}
	if got.ConversationID != "thread_abc" {
		t.Errorf("expected thread_abc, got %q", got.ConversationID)
	}
}

func TestSaveBinding_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, conv := range []string{"thread_old", "thread_new"} {
		err := store.SaveBinding(ctx, &state.Binding{
			UserID:         "user-1",
			ConversationID: conv,
			CreatedAt:      time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("SaveBinding: %v", err)
		}
	}

	got, err := store.GetBinding(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetBinding: %v", err)
	}
	if got.ConversationID != "thread_new" {
		t.Errorf("expected upserted binding, got %q", got.ConversationID)
	}
}

func TestFlightSearches_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"fs_1", "fs_2", "fs_3"} {
		err := store.SaveFlightSearch(ctx, &state.FlightSearch{
			ID:        id,
			UserID:    "user-1",
			Params:    json.RawMessage(`{"originLocationCode":"JFK","destinationLocationCode":"LIS"}`),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("SaveFlightSearch: %v", err)
		}
	}

	searches, err := store.ListFlightSearches(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListFlightSearches: %v", err)
	}
	if len(searches) != 3 {
		t.Fatalf("expected 3 searches, got %d", len(searches))
	}
	for i, want := range []string{"fs_3", "fs_2", "fs_1"} {
		if searches[i].ID != want {
			t.Errorf("search[%d] = %q, want %q", i, searches[i].ID, want)
		}
	}
	var params map[string]string
	if err := json.Unmarshal(searches[0].Params, &params); err != nil {
		t.Fatalf("params round trip: %v", err)
	}
	if params["originLocationCode"] != "JFK" {
		t.Errorf("unexpected params: %v", params)
	}
}

func TestFlightSearches_NilParamsStoredAsEmptyObject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SaveFlightSearch(ctx, &state.FlightSearch{
		ID:        "fs_1",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("SaveFlightSearch: %v", err)
	}

	searches, err := store.ListFlightSearches(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListFlightSearches: %v", err)
	}
	if len(searches) != 1 || string(searches[0].Params) != "{}" {
		t.Errorf("expected empty object params, got %+v", searches)
	}
}
