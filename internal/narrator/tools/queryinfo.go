package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/hw112/lldm/internal/ledger"
)

const queryInfoDescription = `Generate a SQL query to help extract the information that the user is asking for with regards to the items in their character's inventory. Use the following view to help generate the query:

CREATE TABLE IF NOT EXISTS CHARACTER_INVENTORY_DETAILS (
    Quantity int,
    Weapon_Name text,
    Weapon_Description text
)

Ignore the ID columns when generating the query.
Only return the SQL query without any preamble or post text, as well as without any quotes. Do not add a semicolon at the end of the query.
Only create SELECT queries and do not create any queries that will modify the table in any way.`

// QueryInfoTool answers inventory questions by running a model-generated
// SELECT through the ledger's guarded, read-only query path. Failures of
// any kind collapse into one generic message; the rejected SQL and the
// underlying error never reach the model.
type QueryInfoTool struct {
	store *ledger.Store
	scope ledger.Scope
}

func NewQueryInfoTool(store *ledger.Store, scope ledger.Scope) *QueryInfoTool {
	return &QueryInfoTool{store: store, scope: scope}
}

func (t *QueryInfoTool) Name() string {
	return "get_item_info"
}

func (t *QueryInfoTool) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: queryInfoDescription,
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"sql_query": {
					Type:        jsonschema.String,
					Description: "The generated SQL query that would extract the information related to the character inventory requested by the user",
				},
			},
			Required: []string{"sql_query"},
		},
	}
}

func (t *QueryInfoTool) Validate(args map[string]any) error {
	if q, ok := args["sql_query"].(string); !ok || q == "" {
		return &argError{message: msgMissingArg}
	}
	return nil
}

func (t *QueryInfoTool) Execute(ctx context.Context, args map[string]any) Outcome {
	query, ok := args["sql_query"].(string)
	if !ok || query == "" {
		return Outcome{Success: false, Message: msgMissingArg}
	}

	rows, err := t.store.ScopedQuery(ctx, query, t.scope)
	if err != nil {
		return Outcome{Success: false, Message: msgQueryFailed}
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return Outcome{Success: false, Message: msgQueryFailed}
	}

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("The result of the user's request in JSON format is %s. Please use this to answer the user's question or honor the user's request.", payload),
	}
}
