package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}

// jsonResult pretty-prints v as the tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("encoding result: %v", err), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(out)},
		},
	}, nil
}

// reportResult returns a check report as the tool result. A finding is
// not a tool error: a report with violations comes back with IsError
// unset. Only a harness fault marks the result as an error, and the
// partial report still rides along so the caller keeps what was
// observed before the abort.
func reportResult(v any, runErr error) (*mcp.CallToolResult, error) {
	res, err := jsonResult(v)
	if err != nil {
		return res, err
	}
	if runErr != nil {
		res.Content = append(res.Content, &mcp.TextContent{
			Text: fmt.Sprintf("check aborted: %v", runErr),
		})
		res.IsError = true
	}
	return res, nil
}
