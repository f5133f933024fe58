package tools

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/hw112/lldm/internal/ledger"
)

// DiscardTool records items the character has given up, consumed or broken.
type DiscardTool struct {
	store *ledger.Store
	scope ledger.Scope
}

func NewDiscardTool(store *ledger.Store, scope ledger.Scope) *DiscardTool {
	return &DiscardTool{store: store, scope: scope}
}

func (t *DiscardTool) Name() string {
	return "get_discarded_item"
}

func (t *DiscardTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Extract the item that the user has discarded in some manner (such as thrown away, consumed, broken, etc.)",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"item_name": {
					Type:        jsonschema.String,
					Description: "The name of the discarded item.",
				},
				"quantity": {
					Type:        jsonschema.Integer,
					Description: "The number of said items discarded. If a number is not specified, try and infer based on the surrounding context.",
				},
			},
			Required: []string{"item_name", "quantity"},
		},
	}
}

func (t *DiscardTool) Validate(args map[string]any) error {
	if _, err := itemNameArg(args); err != nil {
		return err
	}
	if _, err := quantityArg(args); err != nil {
		return err
	}
	return nil
}

func (t *DiscardTool) Execute(ctx context.Context, args map[string]any) Outcome {
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

	err = t.store.DiscardItem(ctx, t.scope, itemID, qty)
	if errors.Is(err, ledger.ErrItemNotPossessed) {
		return Outcome{Success: false, Message: msgNotPossessed}
	}
	if err != nil {
		return Outcome{Success: false, Message: msgQueryFailed}
	}
	return Outcome{Success: true, Message: msgDiscarded}
}
