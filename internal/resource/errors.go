package resource

import (
	"errors"
	"fmt"
)

// AppError carries an HTTP status alongside the message. Only the message
// crosses the wire; code, status and the wrapped cause stay server-side.
type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error // underlying cause, logged by the app error handler
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the fixed error body shape: {"error": "..."}.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NotFoundError(plural string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s not found", plural),
	}
}

func MissingIDError() *AppError {
	return &AppError{
		Code:    "MISSING_ID",
		Status:  400,
		Message: "id query parameter is required",
	}
}

func InvalidPayloadError(msg string) *AppError {
	return &AppError{
		Code:    "INVALID_PAYLOAD",
		Status:  400,
		Message: msg,
	}
}

func MethodNotAllowedError(method string) *AppError {
	return &AppError{
		Code:    "METHOD_NOT_ALLOWED",
		Status:  405,
		Message: fmt.Sprintf("method %s not allowed", method),
	}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Status:  401,
		Message: msg,
	}
}

// InternalError surfaces a backend failure as a short action-scoped message
// with the root driver message attached. Full detail is logged at the app
// error handler; no stack or query text crosses the boundary.
func InternalError(action string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Status:  500,
		Message: fmt.Sprintf("failed to %s: %s", action, rootCause(err)),
		Err:     err,
	}
}

func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// errInvalidColumn guards against request body keys that are not plain
// identifiers. The handler is schemaless, but column names end up in SQL
// text and have to stay boring.
var errInvalidColumn = errors.New("invalid field name")

func checkColumns(cols []string) error {
	for _, col := range cols {
		if !validIdent(col) {
			return fmt.Errorf("%w: %s", errInvalidColumn, col)
		}
	}
	return nil
}

func validIdent(name string) bool {
	if len(name) == 0 || len(name) > 63 {
		return false
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
