package subgraph

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	executor "github.com/nexusgraph/federation-gateway/internal/executor"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func marshalJSON(v any) ([]byte, error) { return jsonAPI.Marshal(v) }

// requestBody is the JSON shape of a GraphQL-over-HTTP POST body.
type requestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// wireResponse mirrors the `{ data, errors }` envelope every subgraph
// response carries (§4.5.1 "Response ingestion").
type wireResponse struct {
	Data   map[string]any `json:"data"`
	Errors []wireError    `json:"errors"`
}

type wireError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path"`
	Extensions map[string]any `json:"extensions"`
}

// decodeResponse turns a subgraph's raw JSON body into a SubgraphResult.
// isEntity selects whether data's single key is unwrapped from `_entities`
// into SubgraphResult.Entities, or passed through as RootData directly.
func decodeResponse(body []byte, isEntity bool) (*executor.SubgraphResult, error) {
	var wire wireResponse
	if err := jsonAPI.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("subgraph: unparseable response body: %w", err)
	}

	result := &executor.SubgraphResult{}
	for _, e := range wire.Errors {
		result.Errors = append(result.Errors, executor.SubgraphGraphQLError{
			Message:    e.Message,
			Path:       e.Path,
			Extensions: e.Extensions,
		})
	}

	if !isEntity {
		result.RootData = wire.Data
		return result, nil
	}

	raw, _ := wire.Data["_entities"].([]any)
	result.Entities = raw
	return result, nil
}

// decodeExtensionData decodes an ExtensionRuntime's raw JSON data payload
// (§4.5.3), which carries no error envelope of its own — a resolution
// failure instead comes back as ExtensionResult.Err, handled by the caller
// before decodeExtensionData is ever reached.
func decodeExtensionData(data []byte, isEntity bool) (*executor.SubgraphResult, error) {
	if !isEntity {
		var obj map[string]any
		if err := jsonAPI.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("subgraph: unparseable extension data: %w", err)
		}
		return &executor.SubgraphResult{RootData: obj}, nil
	}
	var entities []any
	if err := jsonAPI.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("subgraph: unparseable extension entity data: %w", err)
	}
	return &executor.SubgraphResult{Entities: entities}, nil
}
