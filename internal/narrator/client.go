// Package narrator drives the conversation with the LLM dungeon master:
// one long-lived assistant thread, a polling run loop per turn, and the
// dispatch of tool calls against the inventory ledger.
package narrator

import (
	"context"

	"github.com/hw112/lldm/internal/narrator/tools"
	"github.com/hw112/lldm/pkg/chat"
)

// RunStatus mirrors the external run lifecycle. The five terminal-path
// statuses named here are the contract the orchestrator is built against.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusExpired        RunStatus = "expired"
)

// ToolCallRequest is one structured function call the model wants executed
// before it can finish the turn. Arguments is raw JSON text.
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments string
}

// ToolOutput is the result payload for one tool call, tagged with the
// original request id.
type ToolOutput struct {
	CallID string
	Output string
}

// RunState is a point-in-time view of an in-flight run. ToolCalls is
// populated only when Status is requires_action.
type RunState struct {
	Status    RunStatus
	ToolCalls []ToolCallRequest
}

// Client is the narrow boundary to the LLM turn API. Implemented by the
// OpenAI Assistants client and by MockClient in tests.
type Client interface {
	// CreateNarrator provisions the assistant with its instructions and
	// declared tools. Must be called before any thread work.
	CreateNarrator(ctx context.Context, instructions string, defs []tools.Definition) error

	// CreateThread opens a new conversation and returns its id.
	CreateThread(ctx context.Context) (string, error)

	// AddUserMessage appends a player message to the conversation.
	AddUserMessage(ctx context.Context, threadID, content string) error

	// CreateRun submits the conversation for processing, returning a run id.
	CreateRun(ctx context.Context, threadID string) (string, error)

	// RetrieveRun polls the current state of a run.
	RetrieveRun(ctx context.Context, threadID, runID string) (RunState, error)

	// SubmitToolOutputs returns executed tool results to a waiting run.
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error

	// ListMessages returns the full transcript, newest message first.
	ListMessages(ctx context.Context, threadID string) ([]chat.ChatMessage, error)
}
