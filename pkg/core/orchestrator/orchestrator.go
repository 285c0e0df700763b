// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator runs one conversational turn end to end: bind the
// user to a remote conversation, supervise a run of the assistant against
// it, dispatch any tool calls the run requests, and extract the reply.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohamed-ali0/remmie/pkg/assistant"
	"github.com/mohamed-ali0/remmie/pkg/core/config"
	"github.com/mohamed-ali0/remmie/pkg/core/history"
	"github.com/mohamed-ali0/remmie/pkg/core/state"
	"github.com/mohamed-ali0/remmie/pkg/observability/logging"
	"github.com/mohamed-ali0/remmie/pkg/tools"
)

// errRunFailed marks a run that the remote engine moved to failed status.
var errRunFailed = errors.New("run ended in failed status")

// Orchestrator owns the conversation-run state machine. One instance
// serves all users; per-turn state lives on the stack.
type Orchestrator struct {
	client         assistant.Client
	store          state.ConversationStore
	tools          *tools.Registry
	logger         *logging.Logger
	assistantID    string
	pollInterval   time.Duration
	maxWait        time.Duration
	failureMessage string
}

// New creates a new Orchestrator.
func New(cfg *config.AssistantConfig, client assistant.Client, store state.ConversationStore, registry *tools.Registry, logger *logging.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if client == nil {
		return nil, fmt.Errorf("assistant client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("conversation store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if cfg.AssistantID == "" {
		return nil, fmt.Errorf("assistant ID is required (set ASSISTANT_ID)")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = 2 * time.Minute
	}
	failureMessage := cfg.FailureMessage
	if failureMessage == "" {
		failureMessage = config.DefaultFailureMessage
	}

	return &Orchestrator{
		client:         client,
		store:          store,
		tools:          registry,
		logger:         logger,
		assistantID:    cfg.AssistantID,
		pollInterval:   pollInterval,
		maxWait:        maxWait,
		failureMessage: failureMessage,
	}, nil
}

// Handle processes one turn and always returns text: the assistant's reply,
// or the fixed failure message when anything goes wrong. Errors never
// propagate past this boundary; their detail goes to the log.
func (o *Orchestrator) Handle(ctx context.Context, userID, query string, records []history.Record) string {
	reply, err := o.respond(ctx, userID, query, records)
	if err != nil {
		o.logger.Error("turn failed", "user_id", userID, "error", err)
		return o.failureMessage
	}
	return reply
}

// respond drives the state machine for one turn. The whole turn shares one
// wait budget, so a stuck remote run cannot block the caller forever.
func (o *Orchestrator) respond(ctx context.Context, userID, query string, records []history.Record) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.maxWait)
	defer cancel()

	// 1. Resolve a live conversation for the user
	conversationID, err := o.bindConversation(ctx, userID, records)
	if err != nil {
		return "", fmt.Errorf("bind conversation: %w", err)
	}

	// 2. One run at a time per conversation: a second run started while an
	// earlier one is still moving would interleave the message history
	if err := o.waitForActiveRun(ctx, conversationID); err != nil {
		return "", fmt.Errorf("wait for active run: %w", err)
	}

	// 3. Append the user's message and start a fresh run
	if err := o.client.AppendMessage(ctx, conversationID, "user", query); err != nil {
		return "", fmt.Errorf("append user message: %w", err)
	}

	run, err := o.client.StartRun(ctx, conversationID, o.assistantID)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	o.logger.Info("run started", "user_id", userID, "conversation_id", conversationID, "run_id", run.ID)

	// 4. Poll to a terminal status, dispatching tool calls along the way
	if err := o.superviseRun(ctx, userID, conversationID, run); err != nil {
		return "", err
	}

	// 5. The newest assistant message is the reply
	return o.extractReply(ctx, conversationID)
}

// bindConversation resolves userID to a usable conversation ID. A stored
// binding whose remote copy has vanished is discarded and replaced; any
// other remote error surfaces to the caller.
func (o *Orchestrator) bindConversation(ctx context.Context, userID string, records []history.Record) (string, error) {
	binding, err := o.store.GetBinding(ctx, userID)
	switch {
	case err == nil:
		ferr := o.client.FetchConversation(ctx, binding.ConversationID)
		if ferr == nil {
			return binding.ConversationID, nil
		}
		if !assistant.IsNotFound(ferr) {
			return "", ferr
		}
		o.logger.Info("stored conversation no longer exists, recreating",
			"user_id", userID, "conversation_id", binding.ConversationID)
	case errors.Is(err, state.ErrNotFound):
		// first turn for this user
	default:
		return "", fmt.Errorf("load binding: %w", err)
	}

	conversationID, err := o.client.CreateConversation(ctx, history.Normalize(records))
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	if err := o.store.SaveBinding(ctx, &state.Binding{
		UserID:         userID,
		ConversationID: conversationID,
		CreatedAt:      time.Now(),
	}); err != nil {
		return "", fmt.Errorf("save binding: %w", err)
	}

	o.logger.Info("conversation created", "user_id", userID, "conversation_id", conversationID)
	return conversationID, nil
}

// waitForActiveRun blocks until the conversation's most recent run, if any,
// reaches a terminal status. The remote engine's run state is the source of
// truth; there is no local lock.
func (o *Orchestrator) waitForActiveRun(ctx context.Context, conversationID string) error {
	runs, err := o.client.ListRuns(ctx, conversationID)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}

	run := runs[0]
	for !run.Status.Terminal() {
		o.logger.Info("waiting for active run to finish", "run_id", run.ID, "status", run.Status)
		if err := o.sleep(ctx); err != nil {
			return err
		}
		run, err = o.client.GetRun(ctx, conversationID, run.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// superviseRun polls the run at a fixed cadence until it ends. A
// requires_action status means the engine is blocked on us: every pending
// call is dispatched and the results submitted as one batch before polling
// resumes. A submission failure abandons the run in place; there is no
// retry.
func (o *Orchestrator) superviseRun(ctx context.Context, userID, conversationID string, run *assistant.Run) error {
	for {
		if run.Status == assistant.StatusRequiresAction && len(run.PendingToolCalls) > 0 {
			o.logger.Info("run requires action",
				"run_id", run.ID, "pending_calls", len(run.PendingToolCalls))

			outputs := o.tools.Dispatch(ctx, userID, run.PendingToolCalls)
			if err := o.client.SubmitToolOutputs(ctx, conversationID, run.ID, outputs); err != nil {
				return fmt.Errorf("submit tool outputs: %w", err)
			}
		}

		switch run.Status {
		case assistant.StatusCompleted:
			return nil
		case assistant.StatusFailed:
			return fmt.Errorf("run %s: %w", run.ID, errRunFailed)
		}

		if err := o.sleep(ctx); err != nil {
			return err
		}

		var err error
		run, err = o.client.GetRun(ctx, conversationID, run.ID)
		if err != nil {
			return fmt.Errorf("poll run: %w", err)
		}
	}
}

// extractReply returns the text of the newest assistant message.
func (o *Orchestrator) extractReply(ctx context.Context, conversationID string) (string, error) {
	messages, err := o.client.ListMessages(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	for _, m := range messages {
		if m.Role != "assistant" {
			continue
		}
		if m.Content == "" {
			return "", fmt.Errorf("assistant message has no text content")
		}
		return m.Content, nil
	}
	return "", fmt.Errorf("conversation has no assistant reply")
}

// sleep waits one poll interval or returns early when the turn's wait
// budget runs out.
func (o *Orchestrator) sleep(ctx context.Context) error {
	timer := time.NewTimer(o.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
