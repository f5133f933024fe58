package narrator

import (
	"context"
	"sync"

	"github.com/hw112/lldm/internal/narrator/tools"
	"github.com/hw112/lldm/pkg/chat"
)

// MockClient is a mock implementation of Client for testing
type MockClient struct {
	CreateNarratorFunc    func(ctx context.Context, instructions string, defs []tools.Definition) error
	CreateThreadFunc      func(ctx context.Context) (string, error)
	AddUserMessageFunc    func(ctx context.Context, threadID, content string) error
	CreateRunFunc         func(ctx context.Context, threadID string) (string, error)
	RetrieveRunFunc       func(ctx context.Context, threadID, runID string) (RunState, error)
	SubmitToolOutputsFunc func(ctx context.Context, threadID, runID string, outputs []ToolOutput) error
	ListMessagesFunc      func(ctx context.Context, threadID string) ([]chat.ChatMessage, error)

	// Track calls for testing
	CreateNarratorCalls    []CreateNarratorCall
	CreateThreadCalls      int
	AddUserMessageCalls    []AddUserMessageCall
	CreateRunCalls         []string
	RetrieveRunCalls       []string
	SubmitToolOutputsCalls []SubmitToolOutputsCall
	ListMessagesCalls      []string

	mu sync.Mutex // protects all fields above
}

type CreateNarratorCall struct {
	Instructions string
	Defs         []tools.Definition
}

type AddUserMessageCall struct {
	ThreadID string
	Content  string
}

type SubmitToolOutputsCall struct {
	ThreadID string
	RunID    string
	Outputs  []ToolOutput
}

// NewMockClient creates a new mock narrator client
func NewMockClient() *MockClient {
	return &MockClient{
		CreateNarratorCalls:    make([]CreateNarratorCall, 0),
		AddUserMessageCalls:    make([]AddUserMessageCall, 0),
		CreateRunCalls:         make([]string, 0),
		RetrieveRunCalls:       make([]string, 0),
		SubmitToolOutputsCalls: make([]SubmitToolOutputsCall, 0),
		ListMessagesCalls:      make([]string, 0),
	}
}

func (m *MockClient) CreateNarrator(ctx context.Context, instructions string, defs []tools.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateNarratorCalls = append(m.CreateNarratorCalls, CreateNarratorCall{
		Instructions: instructions,
		Defs:         defs,
	})

	if m.CreateNarratorFunc != nil {
		return m.CreateNarratorFunc(ctx, instructions, defs)
	}
	return nil
}

func (m *MockClient) CreateThread(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateThreadCalls++

	if m.CreateThreadFunc != nil {
		return m.CreateThreadFunc(ctx)
	}
	return "thread-mock", nil
}

func (m *MockClient) AddUserMessage(ctx context.Context, threadID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AddUserMessageCalls = append(m.AddUserMessageCalls, AddUserMessageCall{
		ThreadID: threadID,
		Content:  content,
	})

	if m.AddUserMessageFunc != nil {
		return m.AddUserMessageFunc(ctx, threadID, content)
	}
	return nil
}

func (m *MockClient) CreateRun(ctx context.Context, threadID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateRunCalls = append(m.CreateRunCalls, threadID)

	if m.CreateRunFunc != nil {
		return m.CreateRunFunc(ctx, threadID)
	}
	return "run-mock", nil
}

func (m *MockClient) RetrieveRun(ctx context.Context, threadID, runID string) (RunState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RetrieveRunCalls = append(m.RetrieveRunCalls, runID)

	if m.RetrieveRunFunc != nil {
		return m.RetrieveRunFunc(ctx, threadID, runID)
	}
	return RunState{Status: RunStatusCompleted}, nil
}

func (m *MockClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SubmitToolOutputsCalls = append(m.SubmitToolOutputsCalls, SubmitToolOutputsCall{
		ThreadID: threadID,
		RunID:    runID,
		Outputs:  outputs,
	})

	if m.SubmitToolOutputsFunc != nil {
		return m.SubmitToolOutputsFunc(ctx, threadID, runID, outputs)
	}
	return nil
}

func (m *MockClient) ListMessages(ctx context.Context, threadID string) ([]chat.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListMessagesCalls = append(m.ListMessagesCalls, threadID)

	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, threadID)
	}
	return []chat.ChatMessage{
		{Role: chat.ChatRoleAssistant, Content: "The tavern falls quiet as you enter."},
	}, nil
}

// RetrieveRunCount returns the number of RetrieveRun calls made so far.
func (m *MockClient) RetrieveRunCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RetrieveRunCalls)
}
