// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client against the OpenAI Assistants API using
// the official Go SDK. Conversations map to threads; the engine assigns
// their identifiers.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a new Assistants API client. baseURL is optional
// and allows pointing at an API-compatible backend.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
	}
}

// CreateConversation creates a thread seeded with prior history and returns
// the engine-assigned identifier.
func (c *OpenAIClient) CreateConversation(ctx context.Context, seed []Message) (string, error) {
	params := openai.BetaThreadNewParams{}
	for _, m := range seed {
		params.Messages = append(params.Messages, openai.BetaThreadNewParamsMessage{
			Role: m.Role,
			Content: openai.BetaThreadNewParamsMessageContentUnion{
				OfString: openai.String(m.Content),
			},
		})
	}

	thread, err := c.client.Beta.Threads.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", wrapNotFound(err))
	}
	return thread.ID, nil
}

// FetchConversation verifies the thread still exists on the remote engine.
func (c *OpenAIClient) FetchConversation(ctx context.Context, conversationID string) error {
	if _, err := c.client.Beta.Threads.Get(ctx, conversationID); err != nil {
		return fmt.Errorf("retrieve thread %s: %w", conversationID, wrapNotFound(err))
	}
	return nil
}

// AppendMessage adds one message to the thread.
func (c *OpenAIClient) AppendMessage(ctx context.Context, conversationID, role, content string) error {
	_, err := c.client.Beta.Threads.Messages.New(ctx, conversationID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRole(role),
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(content),
		},
	})
	if err != nil {
		return fmt.Errorf("append message: %w", wrapNotFound(err))
	}
	return nil
}

// StartRun starts a new run of the given assistant against the thread.
func (c *OpenAIClient) StartRun(ctx context.Context, conversationID, assistantID string) (*Run, error) {
	run, err := c.client.Beta.Threads.Runs.New(ctx, conversationID, openai.BetaThreadRunNewParams{
		AssistantID: assistantID,
	})
	if err != nil {
		return nil, fmt.Errorf("start run: %w", wrapNotFound(err))
	}
	return convertRun(run), nil
}

// GetRun fetches the current state of a run.
func (c *OpenAIClient) GetRun(ctx context.Context, conversationID, runID string) (*Run, error) {
	run, err := c.client.Beta.Threads.Runs.Get(ctx, conversationID, runID)
	if err != nil {
		return nil, fmt.Errorf("retrieve run %s: %w", runID, wrapNotFound(err))
	}
	return convertRun(run), nil
}

// ListRuns returns the thread's runs, newest first.
func (c *OpenAIClient) ListRuns(ctx context.Context, conversationID string) ([]*Run, error) {
	page, err := c.client.Beta.Threads.Runs.List(ctx, conversationID, openai.BetaThreadRunListParams{
		Order: openai.BetaThreadRunListParamsOrderDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", wrapNotFound(err))
	}

	runs := make([]*Run, 0, len(page.Data))
	for i := range page.Data {
		runs = append(runs, convertRun(&page.Data[i]))
	}
	return runs, nil
}

// SubmitToolOutputs submits one batch of tool results for a run blocked in
// requires_action.
func (c *OpenAIClient) SubmitToolOutputs(ctx context.Context, conversationID, runID string, outputs []ToolOutput) error {
	params := openai.BetaThreadRunSubmitToolOutputsParams{}
	for _, o := range outputs {
		params.ToolOutputs = append(params.ToolOutputs, openai.BetaThreadRunSubmitToolOutputsParamsToolOutput{
			ToolCallID: openai.String(o.CallID),
			Output:     openai.String(o.Output),
		})
	}

	if _, err := c.client.Beta.Threads.Runs.SubmitToolOutputs(ctx, conversationID, runID, params); err != nil {
		return fmt.Errorf("submit tool outputs: %w", wrapNotFound(err))
	}
	return nil
}

// ListMessages returns the thread's messages, newest first. Non-text
// content parts are skipped.
func (c *OpenAIClient) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	page, err := c.client.Beta.Threads.Messages.List(ctx, conversationID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", wrapNotFound(err))
	}

	messages := make([]Message, 0, len(page.Data))
	for _, m := range page.Data {
		content := ""
		for _, part := range m.Content {
			if part.Type == "text" {
				content += part.Text.Value
			}
		}
		messages = append(messages, Message{
			Role:    string(m.Role),
			Content: content,
		})
	}
	return messages, nil
}

func convertRun(run *openai.Run) *Run {
	r := &Run{
		ID:     run.ID,
		Status: RunStatus(run.Status),
	}
	for _, tc := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
		r.PendingToolCalls = append(r.PendingToolCalls, ToolCallRequest{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return r
}

// wrapNotFound maps API 404s onto ErrConversationNotFound so callers can
// classify stale conversations without importing the SDK.
func wrapNotFound(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) && apierr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, apierr.Error())
	}
	return err
}
