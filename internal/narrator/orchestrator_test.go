package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/hw112/lldm/internal/ledger"
	"github.com/hw112/lldm/internal/narrator/tools"
	"github.com/hw112/lldm/pkg/chat"
)

var testScope = ledger.Scope{CampaignID: 0, CharacterID: 0}

func newTestStore(t *testing.T) *ledger.Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.DB().Exec(`
		INSERT INTO WORLD_ITEMS (Item_ID, Weapon_Name, Weapon_Description) VALUES
		(3, 'Shadow Lance of Storm', 'A lance crackling with storm energy'),
		(7, 'Shadowfang Dagger', 'A curved dagger of blackened steel')`)
	require.NoError(t, err)

	return store
}

func newTestOrchestrator(t *testing.T, client Client, store *ledger.Store) *orchestrator {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &orchestrator{
		client: client,
		dispatcher: &dispatcher{
			registry: tools.NewRegistry(store, testScope),
			logger:   logger,
			tracer:   otel.Tracer("narrator-test"),
		},
		pollInterval: time.Millisecond,
		maxPolls:     10,
		logger:       logger,
	}
}

func TestRunTurn_CompletesWithoutToolCalls(t *testing.T) {
	store := newTestStore(t)
	mock := NewMockClient()
	mock.ListMessagesFunc = func(ctx context.Context, threadID string) ([]chat.ChatMessage, error) {
		return []chat.ChatMessage{
			{Role: chat.ChatRoleAssistant, Content: "You push open the tavern door."},
			{Role: chat.ChatRoleUser, Content: "I enter the tavern."},
		}, nil
	}

	orch := newTestOrchestrator(t, mock, store)
	transcript, err := orch.RunTurn(context.Background(), "thread-1", "I enter the tavern.")
	require.NoError(t, err)

	require.Len(t, transcript, 2)
	assert.Equal(t, chat.ChatRoleAssistant, transcript[0].Role)

	require.Len(t, mock.AddUserMessageCalls, 1)
	assert.Equal(t, "I enter the tavern.", mock.AddUserMessageCalls[0].Content)
	assert.Empty(t, mock.SubmitToolOutputsCalls)
}

func TestRunTurn_ExecutesToolCallsAndSubmitsOutputs(t *testing.T) {
	store := newTestStore(t)
	mock := NewMockClient()
	polls := 0
	mock.RetrieveRunFunc = func(ctx context.Context, threadID, runID string) (RunState, error) {
		polls++
		if polls == 1 {
			return RunState{
				Status: RunStatusRequiresAction,
				ToolCalls: []ToolCallRequest{
					{ID: "call-1", Name: "get_obtained_item", Arguments: `{"item_name":"Shadowfang","quantity":2}`},
				},
			}, nil
		}
		return RunState{Status: RunStatusCompleted}, nil
	}

	orch := newTestOrchestrator(t, mock, store)
	_, err := orch.RunTurn(context.Background(), "thread-1", "I pick up the dagger.")
	require.NoError(t, err)

	require.Len(t, mock.SubmitToolOutputsCalls, 1)
	outputs := mock.SubmitToolOutputsCalls[0].Outputs
	require.Len(t, outputs, 1)
	assert.Equal(t, "call-1", outputs[0].CallID)

	var outcome tools.Outcome
	require.NoError(t, json.Unmarshal([]byte(outputs[0].Output), &outcome))
	assert.True(t, outcome.Success)

	rows, err := store.Snapshot(context.Background(), testScope)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].ItemID)
	assert.Equal(t, int64(2), rows[0].Quantity)
}

func TestRunTurn_TerminalFailureSurfacesAsTurnError(t *testing.T) {
	store := newTestStore(t)
	mock := NewMockClient()
	mock.RetrieveRunFunc = func(ctx context.Context, threadID, runID string) (RunState, error) {
		return RunState{Status: RunStatusExpired}, nil
	}

	orch := newTestOrchestrator(t, mock, store)
	_, err := orch.RunTurn(context.Background(), "thread-1", "hello")
	require.Error(t, err)

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, RunStatusExpired, turnErr.Status)

	rows, err := store.Snapshot(context.Background(), testScope)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunTurn_UnknownToolAbortsTurn(t *testing.T) {
	store := newTestStore(t)
	mock := NewMockClient()
	mock.RetrieveRunFunc = func(ctx context.Context, threadID, runID string) (RunState, error) {
		return RunState{
			Status: RunStatusRequiresAction,
			ToolCalls: []ToolCallRequest{
				{ID: "call-1", Name: "get_world_state", Arguments: `{}`},
			},
		}, nil
	}

	orch := newTestOrchestrator(t, mock, store)
	_, err := orch.RunTurn(context.Background(), "thread-1", "hello")
	require.ErrorIs(t, err, ErrUnknownTool)
	assert.Empty(t, mock.SubmitToolOutputsCalls)
}

func TestRunTurn_MalformedArgumentsBecomeFailureOutput(t *testing.T) {
	store := newTestStore(t)
	mock := NewMockClient()
	polls := 0
	mock.RetrieveRunFunc = func(ctx context.Context, threadID, runID string) (RunState, error) {
		polls++
		if polls == 1 {
			return RunState{
				Status: RunStatusRequiresAction,
				ToolCalls: []ToolCallRequest{
					{ID: "call-1", Name: "get_obtained_item", Arguments: `{"item_name": truncated`},
				},
			}, nil
		}
		return RunState{Status: RunStatusCompleted}, nil
	}

	orch := newTestOrchestrator(t, mock, store)
	_, err := orch.RunTurn(context.Background(), "thread-1", "hello")
	require.NoError(t, err)

	require.Len(t, mock.SubmitToolOutputsCalls, 1)
	outputs := mock.SubmitToolOutputsCalls[0].Outputs
	require.Len(t, outputs, 1)

	var outcome tools.Outcome
	require.NoError(t, json.Unmarshal([]byte(outputs[0].Output), &outcome))
	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.Message)
}

func TestRunTurn_PollingBudgetExhausted(t *testing.T) {
	store := newTestStore(t)
	mock := NewMockClient()
	mock.RetrieveRunFunc = func(ctx context.Context, threadID, runID string) (RunState, error) {
		return RunState{Status: RunStatusInProgress}, nil
	}

	orch := newTestOrchestrator(t, mock, store)
	orch.maxPolls = 3

	_, err := orch.RunTurn(context.Background(), "thread-1", "hello")
	require.ErrorIs(t, err, ErrTurnExhausted)
	assert.LessOrEqual(t, mock.RetrieveRunCount(), 4)
}

func TestRunTurn_PollErrorIsNotRetried(t *testing.T) {
	store := newTestStore(t)
	mock := NewMockClient()
	pollErr := errors.New("upstream unavailable")
	mock.RetrieveRunFunc = func(ctx context.Context, threadID, runID string) (RunState, error) {
		return RunState{}, pollErr
	}

	orch := newTestOrchestrator(t, mock, store)
	_, err := orch.RunTurn(context.Background(), "thread-1", "hello")
	require.ErrorIs(t, err, pollErr)
	assert.Equal(t, 1, mock.RetrieveRunCount())
}
