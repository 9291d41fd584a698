package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode round-trips a tool call's loosely typed argument map through JSON
// into the request struct for T, so handlers never type-assert raw values.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("decode arguments: %w", err)
	}
	return result, nil
}
