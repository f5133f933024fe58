package narrator

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, mock *MockClient) *Session {
	t.Helper()

	store := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session, err := NewSession(context.Background(), mock, store, Config{
		PollInterval: time.Millisecond,
		MaxPolls:     10,
		Scope:        testScope,
	}, logger)
	require.NoError(t, err)
	return session
}

func TestNewSession_ProvisionsNarratorAndThread(t *testing.T) {
	mock := NewMockClient()
	session := newTestSession(t, mock)

	require.Len(t, mock.CreateNarratorCalls, 1)
	call := mock.CreateNarratorCalls[0]
	assert.Contains(t, call.Instructions, "You are a DnD DM")
	assert.Contains(t, call.Instructions, "Elara Windrider")
	require.Len(t, call.Defs, 3)
	assert.Equal(t, "get_obtained_item", call.Defs[0].Name)

	assert.Equal(t, 1, mock.CreateThreadCalls)
	assert.Equal(t, "thread-mock", session.threadID)
}

func TestSession_NarratorChatReturnsTranscript(t *testing.T) {
	mock := NewMockClient()
	session := newTestSession(t, mock)

	transcript, err := session.NarratorChat(context.Background(), "I look around.")
	require.NoError(t, err)
	require.NotEmpty(t, transcript)
	assert.Equal(t, "thread-mock", mock.AddUserMessageCalls[0].ThreadID)
}

func TestSession_InventorySnapshotStartsEmpty(t *testing.T) {
	mock := NewMockClient()
	session := newTestSession(t, mock)

	rows, err := session.InventorySnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSession_CloseReleasesLedger(t *testing.T) {
	mock := NewMockClient()
	session := newTestSession(t, mock)

	require.NoError(t, session.Ping(context.Background()))
	require.NoError(t, session.Close())

	assert.Error(t, session.Ping(context.Background()))
}

func TestInstructions_ComposesSectionsInOrder(t *testing.T) {
	text := Instructions()

	role := strings.Index(text, "You are a DnD DM")
	character := strings.Index(text, "Elara Windrider")
	plot := strings.Index(text, "The Dragon's Flagon")
	continuity := strings.Index(text, "maintaining a realistic continuity")

	require.NotEqual(t, -1, role)
	assert.Less(t, role, character)
	assert.Less(t, character, plot)
	assert.Less(t, plot, continuity)
}

func TestPromptBuilder_CustomSection(t *testing.T) {
	text := NewPromptBuilder().
		WithRole().
		WithSection("Speak only in riddles.").
		Build()

	assert.Contains(t, text, "Speak only in riddles.")
	assert.True(t, strings.HasPrefix(text, "You are a DnD DM"))
}
