package tools

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/hw112/lldm/internal/ledger"
)

// ObtainTool records items the character has acquired in the story.
type ObtainTool struct {
	store *ledger.Store
	scope ledger.Scope
}

func NewObtainTool(store *ledger.Store, scope ledger.Scope) *ObtainTool {
	return &ObtainTool{store: store, scope: scope}
}

func (t *ObtainTool) Name() string {
	return "get_obtained_item"
}

func (t *ObtainTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Extract the item that the user has obtained in some manner (such as picked up, purchased, etc.)",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"item_name": {
					Type:        jsonschema.String,
					Description: "The name of the obtained item.",
				},
				"quantity": {
					Type:        jsonschema.Integer,
					Description: "The number of said items obtained. If a number is not specified, try and infer based on the surrounding context.",
				},
			},
			Required: []string{"item_name", "quantity"},
		},
	}
}

func (t *ObtainTool) Validate(args map[string]any) error {
	if _, err := itemNameArg(args); err != nil {
		return err
	}
	if _, err := quantityArg(args); err != nil {
		return err
	}
	return nil
}

func (t *ObtainTool) Execute(ctx context.Context, args map[string]any) Outcome {
	name, err := itemNameArg(args)
	if err != nil {
		return Outcome{Success: false, Message: ValidationMessage(err)}
	}
	qty, err := quantityArg(args)
	if err != nil {
		return Outcome{Success: false, Message: ValidationMessage(err)}
	}

	itemID, err := t.store.ResolveItem(ctx, name)
	if errors.Is(err, ledger.ErrItemNotFound) {
		return Outcome{Success: false, Message: msgItemNotFound}
	}
	if err != nil {
		return Outcome{Success: false, Message: msgQueryFailed}
	}

	if err := t.store.ApplyDelta(ctx, t.scope, itemID, qty); err != nil {
		return Outcome{Success: false, Message: msgQueryFailed}
	}
	return Outcome{Success: true, Message: msgObtained}
}
