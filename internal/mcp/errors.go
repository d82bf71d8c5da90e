// Package mcp exposes the workspace index over the Model Context
// Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	scouterrors "github.com/scoutmcp/scoutmcp/internal/errors"
)

// MCP protocol error codes.
const (
	// ErrCodeWorkspaceUnavailable indicates the workspace cannot be read.
	ErrCodeWorkspaceUnavailable = -32001

	// ErrCodeStoreUnavailable indicates the chunk store cannot be used.
	ErrCodeStoreUnavailable = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// ProtocolError is an MCP error with a JSON-RPC style code.
type ProtocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-parameters error.
func NewInvalidParamsError(msg string) *ProtocolError {
	return &ProtocolError{Code: ErrCodeInvalidParams, Message: msg}
}

// MapError converts internal errors to protocol errors.
func MapError(err error) *ProtocolError {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProtocolError{Code: ErrCodeTimeout, Message: "Request timed out."}
	}
	if errors.Is(err, context.Canceled) {
		return &ProtocolError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	}

	var se *scouterrors.ScoutError
	if !errors.As(err, &se) {
		return &ProtocolError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}

	switch se.Category {
	case scouterrors.CategoryValidation:
		return &ProtocolError{Code: ErrCodeInvalidParams, Message: se.Message}
	case scouterrors.CategoryWorkspace:
		return &ProtocolError{Code: ErrCodeWorkspaceUnavailable, Message: se.Message}
	case scouterrors.CategoryStore:
		return &ProtocolError{Code: ErrCodeStoreUnavailable, Message: se.Message}
	case scouterrors.CategoryConfig:
		return &ProtocolError{Code: ErrCodeInvalidParams, Message: se.Message}
	default:
		return &ProtocolError{Code: ErrCodeInternalError, Message: se.Message}
	}
}
