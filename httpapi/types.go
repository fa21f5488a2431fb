package httpapi

import "github.com/rrifaldi/yuzu/compare"

// ErrorResponse is an OpenAI style error body.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

const (
	errTypeInvalidRequest = "invalid_request_error"
	errTypeServer         = "server_error"
	errTypeUpstream       = "upstream_error"
)

type TextCompareRequest struct {
	A         compare.TextInput `json:"a"`
	B         compare.TextInput `json:"b"`
	Reference compare.Side      `json:"reference"`
}

type ModelInfo struct {
	ID     string       `json:"id"`
	Object string       `json:"object"`
	Side   compare.Side `json:"side"`
}

type ModelsResponse struct {
	Object    string       `json:"object"`
	Data      []ModelInfo  `json:"data"`
	Reference compare.Side `json:"reference"`
}
