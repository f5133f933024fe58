package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hw112/lldm/internal/narrator/tools"
)

const msgMalformedArguments = "That action could not be understood. Please prompt the user to restate it."

// dispatcher executes a batch of tool-call requests against the registry
// and packages the outcomes for return to the model.
type dispatcher struct {
	registry *tools.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Dispatch maps each request to its handler by name and executes it.
// Every request id yields exactly one output. Malformed arguments become a
// synthesized failure outcome so the conversation can recover; an unknown
// tool name aborts the whole batch.
func (d *dispatcher) Dispatch(ctx context.Context, calls []ToolCallRequest) ([]ToolOutput, error) {
	ctx, span := d.tracer.Start(ctx, "narrator.dispatch_tool_calls",
		trace.WithAttributes(attribute.Int("call_count", len(calls))))
	defer span.End()

	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		_, callSpan := d.tracer.Start(ctx, "narrator.execute_tool",
			trace.WithAttributes(attribute.String("tool_name", call.Name)))

		tool, ok := d.registry.Get(call.Name)
		if !ok {
			callSpan.SetAttributes(attribute.String("error_type", "unknown_tool"))
			callSpan.End()
			d.logger.Error("model requested a tool outside the registry",
				"tool", call.Name, "call_id", call.ID)
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
		}

		outcome := d.execute(ctx, tool, call)
		if !outcome.Success {
			callSpan.SetAttributes(attribute.String("failure_message", outcome.Message))
		}
		callSpan.SetAttributes(attribute.Bool("success", outcome.Success))
		callSpan.End()

		payload, err := json.Marshal(outcome)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool outcome: %w", err)
		}
		outputs = append(outputs, ToolOutput{CallID: call.ID, Output: string(payload)})
	}
	return outputs, nil
}

func (d *dispatcher) execute(ctx context.Context, tool tools.Tool, call ToolCallRequest) tools.Outcome {
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || args == nil {
		d.logger.Warn("malformed tool arguments", "tool", call.Name, "call_id", call.ID)
		return tools.Outcome{Success: false, Message: msgMalformedArguments}
	}

	if err := tool.Validate(args); err != nil {
		return tools.Outcome{Success: false, Message: tools.ValidationMessage(err)}
	}

	return tool.Execute(ctx, args)
}
