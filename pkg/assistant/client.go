// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

// Package assistant models the hosted execution engine that advances the
// travel assistant's reasoning. The orchestrator depends only on the Client
// interface; the OpenAI Assistants API implementation lives in openai.go.
package assistant

import (
	"context"
	"errors"
)

// RunStatus is the remote engine's view of a run's lifecycle.
type RunStatus string

const (
	StatusQueued         RunStatus = "queued"
	StatusInProgress     RunStatus = "in_progress"
	StatusRequiresAction RunStatus = "requires_action"
	StatusCompleted      RunStatus = "completed"
	StatusFailed         RunStatus = "failed"
)

// Terminal reports whether a run in this status will never advance again.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Run is one supervised execution of the assistant against a conversation.
// PendingToolCalls is non-empty only in StatusRequiresAction.
type Run struct {
	ID               string
	Status           RunStatus
	PendingToolCalls []ToolCallRequest
}

// ToolCallRequest asks the orchestrator to invoke a named capability and
// feed the result back before reasoning continues.
type ToolCallRequest struct {
	CallID    string
	Name      string
	Arguments string // JSON payload, opaque to the engine
}

// ToolOutput answers one ToolCallRequest. CallID must match the request.
type ToolOutput struct {
	CallID string
	Output string
}

// Message is one turn of dialogue.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ErrConversationNotFound marks a conversation ID the remote engine no
// longer recognizes. The binder recovers by creating a fresh conversation.
var ErrConversationNotFound = errors.New("conversation not found")

// IsNotFound reports whether err is the "stale conversation" class of
// failure, the only one recovered locally.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound)
}

// Client is the minimal contract the orchestrator needs from the remote
// execution engine. List operations return newest first.
type Client interface {
	CreateConversation(ctx context.Context, seed []Message) (string, error)
	FetchConversation(ctx context.Context, conversationID string) error
	AppendMessage(ctx context.Context, conversationID, role, content string) error
	StartRun(ctx context.Context, conversationID, assistantID string) (*Run, error)
	GetRun(ctx context.Context, conversationID, runID string) (*Run, error)
	ListRuns(ctx context.Context, conversationID string) ([]*Run, error)
	SubmitToolOutputs(ctx context.Context, conversationID, runID string, outputs []ToolOutput) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}
