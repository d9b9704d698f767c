// Package protocol defines the newline-delimited JSON wire format: one request
// object per line in, one response object per line out.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type Code string

const (
	CodeProtocolError      Code = "PROTOCOL_ERROR"
	CodeUnknownCommand     Code = "UNKNOWN_COMMAND"
	CodeAuthRequired       Code = "AUTHENTICATION_REQUIRED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInsufficientStock  Code = "INSUFFICIENT_STOCK"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeStorageFailure     Code = "STORAGE_FAILURE"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeServerBusy         Code = "SERVER_BUSY"
)

// Request is a parsed request line. Payload holds the whole original object so
// handlers can decode their own fields from it.
type Request struct {
	Action  string
	Payload json.RawMessage
}

var ErrEmptyAction = errors.New("missing action")

// ParseRequest decodes one line. The line must be a JSON object with a string
// "action" field.
func ParseRequest(line []byte) (Request, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return Request{}, errors.New("request must be a JSON object")
	}
	var head struct {
		Action *string `json:"action"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return Request{}, err
	}
	if head.Action == nil || strings.TrimSpace(*head.Action) == "" {
		return Request{}, ErrEmptyAction
	}
	return Request{
		Action:  strings.ToLower(strings.TrimSpace(*head.Action)),
		Payload: json.RawMessage(line),
	}, nil
}

type Response struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Code      Code            `json:"code,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func OK(message string, data any) Response {
	r := Response{Success: true, Message: message, Timestamp: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Fail(CodeInternal, "Internal server error")
		}
		r.Data = raw
	}
	return r
}

func Fail(code Code, message string) Response {
	return Response{Success: false, Message: message, Code: code, Timestamp: time.Now().UTC()}
}

// Encode renders the response as a single line including the trailing newline.
func Encode(r Response) []byte {
	raw, err := json.Marshal(r)
	if err != nil {
		raw, _ = json.Marshal(Fail(CodeInternal, "Internal server error"))
	}
	return append(raw, '\n')
}
