// Package mcp starts remote scraping jobs through an MCP server reached over SSE.
package mcp

import "encoding/json"

const (
	jsonRPCVersion    = "2.0"
	methodToolsCall   = "tools/call"
	requestIDPrefix   = "chatprop-"
	eventEndpoint     = "endpoint"
	eventMessage      = "message"
	sessionIDMarker   = "sessionId="
	runInfoPrefix     = "Actor finished with run information: "
	contentTypeText   = "text"
	contentTypeJSON   = "application/json"
	acceptEventStream = "text/event-stream"
)

// Request is a JSON-RPC 2.0 call posted to the session's message endpoint.
type Request struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      string         `json:"id"`
	Method  string         `json:"method"`
	Params  ToolCallParams `json:"params"`
}

type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Response is a JSON-RPC message delivered on the event stream. ID is kept raw
// because other sessions' notifications may carry numeric or null ids.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MatchesID reports whether the response answers the request with the given id.
func (r Response) MatchesID(id string) bool {
	var got string
	if err := json.Unmarshal(r.ID, &got); err != nil {
		return false
	}
	return got == id
}
