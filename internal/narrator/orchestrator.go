package narrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hw112/lldm/pkg/chat"
)

// errRunPending signals the poll loop to wait and query again.
var errRunPending = errors.New("run still in progress")

// orchestrator drives one conversational turn to completion: submit the
// user message, poll the run, execute tool calls when the run asks for
// them, and collect the transcript on success.
type orchestrator struct {
	client       Client
	dispatcher   *dispatcher
	pollInterval time.Duration
	maxPolls     uint64
	logger       *slog.Logger
}

// RunTurn executes a full turn on the given thread. Terminal failure
// states (cancelled, failed, expired) surface as *TurnError and are not
// retried; tool outputs already submitted are not rolled back.
func (o *orchestrator) RunTurn(ctx context.Context, threadID, message string) ([]chat.ChatMessage, error) {
	if err := o.client.AddUserMessage(ctx, threadID, message); err != nil {
		return nil, fmt.Errorf("failed to submit user message: %w", err)
	}

	runID, err := o.client.CreateRun(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	poll := func() error {
		state, err := o.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to poll run status: %w", err))
		}

		switch state.Status {
		case RunStatusCompleted:
			return nil

		case RunStatusRequiresAction:
			o.logger.Debug("run requires action", "run_id", runID, "tool_calls", len(state.ToolCalls))
			outputs, err := o.dispatcher.Dispatch(ctx, state.ToolCalls)
			if err != nil {
				return backoff.Permanent(err)
			}
			if err := o.client.SubmitToolOutputs(ctx, threadID, runID, outputs); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to submit tool outputs: %w", err))
			}
			return errRunPending

		case RunStatusCancelled, RunStatusFailed, RunStatusExpired:
			o.logger.Warn("run ended in terminal failure state", "run_id", runID, "status", state.Status)
			return backoff.Permanent(&TurnError{Status: state.Status})

		default:
			// queued, in_progress, cancelling
			return errRunPending
		}
	}

	wait := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.pollInterval), o.maxPolls), ctx)
	if err := backoff.Retry(poll, wait); err != nil {
		if errors.Is(err, errRunPending) {
			return nil, fmt.Errorf("%w after %d polls", ErrTurnExhausted, o.maxPolls)
		}
		return nil, err
	}

	return o.client.ListMessages(ctx, threadID)
}
