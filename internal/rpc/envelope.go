// Package rpc implements the request/response bridge to the spreadsheet-style
// remote procedure service. A call names a function, passes positional
// parameters and resolves to exactly one result or one error.
//
// The envelope follows the Apps Script execution API:
//
//	request:  {"function": "saveDocument", "parameters": [...]}
//	success:  {"done": true, "response": {"result": ...}}
//	failure:  {"done": true, "error": {"code": 3, "message": "...", "details": [{"errorMessage": "...", "errorType": "..."}]}}
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrTransport marks failures to reach the remote side or to decode its reply.
var ErrTransport = errors.New("rpc transport failure")

// Well-known errorType values.
const (
	ErrorTypeNotFound        = "NotFound"
	ErrorTypeInvalidArgument = "InvalidArgument"
	ErrorTypeUnknownFunction = "UnknownFunction"
	ErrorTypeScript          = "ScriptError"
)

type Request struct {
	Function   string            `json:"function"`
	Parameters []json.RawMessage `json:"parameters,omitempty"`
}

type Response struct {
	Done     bool    `json:"done"`
	Response *Result `json:"response,omitempty"`
	Error    *Status `json:"error,omitempty"`
}

type Result struct {
	Result json.RawMessage `json:"result"`
}

type Status struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorType    string `json:"errorType"`
}

// RemoteError is a failure reported by the remote procedure itself.
type RemoteError struct {
	Code    int
	Type    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Type == "" {
		return "remote error: " + e.Message
	}
	return fmt.Sprintf("remote error (%s): %s", e.Type, e.Message)
}

// NewRequest encodes positional parameters into a request envelope.
func NewRequest(function string, params ...any) (Request, error) {
	req := Request{Function: function}
	for i, p := range params {
		b, err := json.Marshal(p)
		if err != nil {
			return Request{}, fmt.Errorf("encode parameter %d of %s: %w", i, function, err)
		}
		req.Parameters = append(req.Parameters, b)
	}
	return req, nil
}

// Success wraps a procedure result.
func Success(result any) (Response, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return Response{}, fmt.Errorf("encode result: %w", err)
	}
	return Response{Done: true, Response: &Result{Result: b}}, nil
}

// Failure converts err into an error envelope. A *RemoteError keeps its type.
func Failure(err error) Response {
	re := &RemoteError{Code: 3, Type: ErrorTypeScript, Message: err.Error()}
	var target *RemoteError
	if errors.As(err, &target) {
		re = target
	}
	return Response{Done: true, Error: &Status{
		Code:    re.Code,
		Message: re.Message,
		Details: []ErrorDetail{{ErrorMessage: re.Message, ErrorType: re.Type}},
	}}
}

// Outcome resolves a decoded response into its result or error.
func (r Response) Outcome() (json.RawMessage, error) {
	if r.Error != nil {
		re := &RemoteError{Code: r.Error.Code, Message: r.Error.Message}
		if len(r.Error.Details) > 0 {
			re.Type = r.Error.Details[0].ErrorType
			if r.Error.Details[0].ErrorMessage != "" {
				re.Message = r.Error.Details[0].ErrorMessage
			}
		}
		return nil, re
	}
	if !r.Done || r.Response == nil {
		return nil, fmt.Errorf("%w: response carries neither result nor error", ErrTransport)
	}
	return r.Response.Result, nil
}

// DecodeResponse parses a raw reply body and resolves it.
func DecodeResponse(data []byte) (json.RawMessage, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrTransport, err)
	}
	return resp.Outcome()
}
