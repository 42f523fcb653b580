package rpc

import "encoding/json"

// Request is the wire envelope for one call: the dispatch command and an
// opaque JSON payload.
type Request struct {
	Cmd     string          `json:"cmd"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response carries either the raw handler result or a structured error.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
