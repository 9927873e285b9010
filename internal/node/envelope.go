package node

import (
	"encoding/json"
	"fmt"
)

const jsonrpcVersion = "2.0"

// Request is the envelope sent to the remote node.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Response is the envelope the remote node answers with. Exactly one of
// Result and Error is expected to be set. ID is nil when the node answered
// with "id": null, which JSON-RPC allows on error responses.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is an error reported by the remote node in the response's error field.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("json-rpc error %d", e.Code)
	}
	return e.Message
}

// ErrorCode returns the JSON-RPC error code.
func (e *Error) ErrorCode() int {
	return e.Code
}

// ErrorData returns the optional data attached to the error.
func (e *Error) ErrorData() interface{} {
	return e.Data
}

func newRequest(id uint64, method string, params []interface{}) *Request {
	if params == nil {
		params = []interface{}{}
	}
	return &Request{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

func (r *Response) idString() string {
	if r.ID == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *r.ID)
}

// hasResult reports whether raw carries a value other than null.
func hasResult(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
