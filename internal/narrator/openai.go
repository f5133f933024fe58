package narrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hw112/lldm/internal/narrator/tools"
	"github.com/hw112/lldm/pkg/chat"
)

// OpenAIClient implements Client on the Assistants API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	logger      *slog.Logger
	assistantID string
}

// NewOpenAIClient creates a client for the given API key and model.
func NewOpenAIClient(apiKey, model string, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// CreateNarrator provisions the assistant and remembers its id for runs.
func (c *OpenAIClient) CreateNarrator(ctx context.Context, instructions string, defs []tools.Definition) error {
	name := "narrator"
	assistantTools := make([]openai.AssistantTool, 0, len(defs))
	for _, def := range defs {
		def := def
		assistantTools = append(assistantTools, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}

	assistant, err := c.client.CreateAssistant(ctx, openai.AssistantRequest{
		Name:         &name,
		Instructions: &instructions,
		Model:        c.model,
		Tools:        assistantTools,
	})
	if err != nil {
		return fmt.Errorf("assistant creation failed: %w", err)
	}

	c.assistantID = assistant.ID
	c.logger.Info("narrator assistant created", "assistant_id", assistant.ID, "model", c.model)
	return nil
}

func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("thread creation failed: %w", err)
	}
	return thread.ID, nil
}

func (c *OpenAIClient) AddUserMessage(ctx context.Context, threadID, content string) error {
	_, err := c.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("message creation failed: %w", err)
	}
	return nil
}

func (c *OpenAIClient) CreateRun(ctx context.Context, threadID string) (string, error) {
	run, err := c.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: c.assistantID,
	})
	if err != nil {
		return "", fmt.Errorf("run creation failed: %w", err)
	}
	return run.ID, nil
}

func (c *OpenAIClient) RetrieveRun(ctx context.Context, threadID, runID string) (RunState, error) {
	run, err := c.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return RunState{}, fmt.Errorf("run retrieval failed: %w", err)
	}

	state := RunState{Status: RunStatus(run.Status)}
	if run.RequiredAction != nil && run.RequiredAction.SubmitToolOutputs != nil {
		for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			state.ToolCalls = append(state.ToolCalls, ToolCallRequest{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
		}
	}
	return state, nil
}

func (c *OpenAIClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error {
	converted := make([]openai.ToolOutput, 0, len(outputs))
	for _, out := range outputs {
		converted = append(converted, openai.ToolOutput{
			ToolCallID: out.CallID,
			Output:     out.Output,
		})
	}

	_, err := c.client.SubmitToolOutputs(ctx, threadID, runID, openai.SubmitToolOutputsRequest{
		ToolOutputs: converted,
	})
	if err != nil {
		return fmt.Errorf("tool output submission failed: %w", err)
	}
	return nil
}

// ListMessages returns the transcript newest-first, flattening the text
// parts of each message.
func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string) ([]chat.ChatMessage, error) {
	list, err := c.client.ListMessage(ctx, threadID, nil, nil, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("message listing failed: %w", err)
	}

	transcript := make([]chat.ChatMessage, 0, len(list.Messages))
	for _, msg := range list.Messages {
		var parts []string
		for _, content := range msg.Content {
			if content.Text != nil {
				parts = append(parts, content.Text.Value)
			}
		}
		transcript = append(transcript, chat.ChatMessage{
			Role:    msg.Role,
			Content: strings.Join(parts, "\n"),
		})
	}
	return transcript, nil
}
