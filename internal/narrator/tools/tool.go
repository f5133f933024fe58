// Package tools holds the three inventory actions the narrator model may
// call during a turn. Tool names and parameter shapes are a wire contract
// with the model and must not change without versioning.
package tools

import (
	"context"
	"errors"
	"math"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Outcome is the structured result of a tool execution. Failures are
// conversational: the message is written for the model so the story can
// continue from it.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Definition describes a callable function to the model.
type Definition struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

// Tool is one callable inventory action. Validate inspects parsed
// arguments and returns a conversational error on bad input; Execute never
// returns an error, only an Outcome.
type Tool interface {
	Name() string
	Definition() Definition
	Validate(args map[string]any) error
	Execute(ctx context.Context, args map[string]any) Outcome
}

// Outcome messages. Wording matches what the narrator model was tuned
// against; change with care.
const (
	msgObtained     = "The item(s) were successfully obtained. Please continue the story."
	msgDiscarded    = "The item(s) were successfully discarded. Please continue the story."
	msgItemNotFound = "Item does not exist. Please prompt user to specify further or provide another action."
	msgNotPossessed = "Item is not in character's possession. Please prompt user to specify further or provide another action."
	msgQueryFailed  = "Something went wrong, please prompt the user for another action"
	msgBadQuantity  = "The quantity must be a positive whole number. Please prompt the user to clarify how many."
	msgBadItemName  = "The item name could not be understood. Please prompt the user to name the item plainly."
	msgMissingArg   = "A required detail was missing from that action. Please prompt the user to restate it."
)

// argError carries a conversational validation message.
type argError struct {
	message string
}

func (e *argError) Error() string { return e.message }

// ValidationMessage returns the conversational text for a Validate error.
func ValidationMessage(err error) string {
	var ae *argError
	if errors.As(err, &ae) {
		return ae.message
	}
	return msgMissingArg
}

// itemNameArg extracts and screens the item_name argument. Names are
// pre-checked with libinjection before they reach any lookup SQL.
func itemNameArg(args map[string]any) (string, error) {
	name, ok := args["item_name"].(string)
	if !ok || name == "" {
		return "", &argError{message: msgMissingArg}
	}
	if sqli, _ := libinjection.IsSQLi(name); sqli {
		return "", &argError{message: msgBadItemName}
	}
	return name, nil
}

// quantityArg extracts the quantity argument. JSON numbers arrive as
// float64; anything non-integral or non-positive is rejected.
func quantityArg(args map[string]any) (int64, error) {
	raw, ok := args["quantity"]
	if !ok {
		return 0, &argError{message: msgMissingArg}
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) || f <= 0 {
		return 0, &argError{message: msgBadQuantity}
	}
	return int64(f), nil
}
