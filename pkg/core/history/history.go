// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

// Package history converts externally-sourced chat history records into the
// canonical message sequence used to seed a new conversation. Callers
// (web chat, WhatsApp webhook, legacy exports) each ship their own record
// shape; every record is decoded as exactly one known variant or dropped.
package history

import (
	"fmt"

	"github.com/mohamed-ali0/remmie/pkg/assistant"
)

// Record is one raw history entry as received from a caller.
type Record map[string]any

// variant identifies which known record shape a Record matches. Shapes are
// checked in priority order; the first match wins.
type variant int

const (
	variantQueryResponse variant = iota // {"query": ..., "response": ...}
	variantRoleMessage                  // {"message": ..., "role": ...}
	variantSenderText                   // {"text": ..., "sender": ...}
	variantUnrecognized
)

// Normalize converts records into ordered messages, oldest first. Records
// matching no known shape are dropped; that is deliberate policy, not an
// error, so a caller with a few malformed rows still gets the rest of its
// history. Output order follows input order, with query/response pairs
// expanding into two contiguous messages.
func Normalize(records []Record) []assistant.Message {
	var messages []assistant.Message
	for _, r := range records {
		messages = append(messages, decode(r)...)
	}
	return messages
}

func classify(r Record) variant {
	switch {
	case has(r, "query") && has(r, "response"):
		return variantQueryResponse
	case has(r, "message") && has(r, "role"):
		return variantRoleMessage
	case has(r, "text") && has(r, "sender"):
		return variantSenderText
	default:
		return variantUnrecognized
	}
}

func decode(r Record) []assistant.Message {
	switch classify(r) {
	case variantQueryResponse:
		return []assistant.Message{
			{Role: "user", Content: stringField(r, "query")},
			{Role: "assistant", Content: stringField(r, "response")},
		}
	case variantRoleMessage:
		return []assistant.Message{
			{Role: stringField(r, "role"), Content: stringField(r, "message")},
		}
	case variantSenderText:
		role := "user"
		if stringField(r, "sender") == "bot" {
			role = "assistant"
		}
		return []assistant.Message{
			{Role: role, Content: stringField(r, "text")},
		}
	case variantUnrecognized:
		return nil
	default:
		return nil
	}
}

func has(r Record, key string) bool {
	_, ok := r[key]
	return ok
}

// stringField renders a field as text. Callers send numbers and booleans in
// these payloads often enough that rejecting non-strings would drop
// otherwise usable records.
func stringField(r Record, key string) string {
	v := r[key]
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
