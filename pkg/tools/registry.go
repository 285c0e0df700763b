// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

// Package tools maps the capability names the assistant may request onto
// local implementations, and dispatches requires_action batches under the
// contract the run supervisor depends on: every request gets exactly one
// result, failures included.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mohamed-ali0/remmie/pkg/assistant"
	"github.com/mohamed-ali0/remmie/pkg/observability/logging"
)

// Func executes one tool call. args is the raw JSON argument payload from
// the engine; userID identifies the end user the run belongs to, for tools
// with per-user side effects. The returned string is the success payload.
type Func func(ctx context.Context, userID string, args json.RawMessage) (string, error)

// Registry is a thread-safe map of tool name to implementation.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Func
	logger *logging.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		tools:  make(map[string]Func),
		logger: logger,
	}
}

// Register adds a named tool. Panics if the name is already registered
// (catches duplicate wiring at startup).
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		panic(fmt.Sprintf("tools: %q already registered", name))
	}
	r.tools[name] = fn
}

// Dispatch invokes every pending tool call in order and returns exactly one
// output per request, CallID matching, in request order. A lookup or
// invocation failure is contained in that call's output as an error object;
// it never aborts the batch and never reaches the caller as an error, since
// a partially-answered batch would stall the run permanently.
func (r *Registry) Dispatch(ctx context.Context, userID string, calls []assistant.ToolCallRequest) []assistant.ToolOutput {
	outputs := make([]assistant.ToolOutput, 0, len(calls))
	for _, call := range calls {
		outputs = append(outputs, assistant.ToolOutput{
			CallID: call.CallID,
			Output: r.invoke(ctx, userID, call),
		})
	}
	return outputs
}

func (r *Registry) invoke(ctx context.Context, userID string, call assistant.ToolCallRequest) string {
	r.mu.RLock()
	fn, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("unknown tool requested", "tool", call.Name, "call_id", call.CallID)
		return errorPayload(fmt.Sprintf("Unknown function: %s", call.Name))
	}

	result, err := fn(ctx, userID, json.RawMessage(call.Arguments))
	if err != nil {
		r.logger.Error("tool invocation failed", "tool", call.Name, "call_id", call.CallID, "error", err)
		return errorPayload(err.Error())
	}

	payload, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("tool result encoding failed", "tool", call.Name, "call_id", call.CallID, "error", err)
		return errorPayload(err.Error())
	}
	return string(payload)
}

func errorPayload(message string) string {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		// map[string]string cannot fail to marshal; keep the contract anyway
		return `{"error":"internal error"}`
	}
	return string(payload)
}
