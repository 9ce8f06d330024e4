package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// AppError is a terminal, user-visible failure with an HTTP status attached.
// The sentinel values below are the full domain taxonomy; anything else that
// reaches a handler is treated as an internal error and mapped to 500.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is lets errors.Is match a wrapped copy against its sentinel.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

var (
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Message: "invalid credentials"}
	ErrUnverifiedAccount  = &AppError{Code: http.StatusForbidden, Message: "account not verified"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Message: "invalid or expired token"}
	ErrInvalidCode        = &AppError{Code: http.StatusUnauthorized, Message: "invalid or expired code"}
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Message: "resource not found"}
	ErrNotEnrolled        = &AppError{Code: http.StatusForbidden, Message: "not enrolled in this lesson"}
	ErrViewLimitExceeded  = &AppError{Code: http.StatusForbidden, Message: "view limit reached for this video"}
	ErrRateLimited        = &AppError{Code: http.StatusTooManyRequests, Message: "too many attempts, try again later"}
)

func BadRequest(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: message}
}

func Internal(err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// Wrap attaches an underlying cause to a sentinel without mutating it.
func Wrap(sentinel *AppError, err error) *AppError {
	return &AppError{Code: sentinel.Code, Message: sentinel.Message, Err: err}
}

// WriteError renders any error as the JSON error envelope. Non-AppError
// values are not leaked to the client.
func WriteError(w http.ResponseWriter, err error, retryAfterSeconds ...int) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}
	w.Header().Set("Content-Type", "application/json")
	if appErr.Code == http.StatusTooManyRequests && len(retryAfterSeconds) > 0 && retryAfterSeconds[0] > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds[0]))
	}
	w.WriteHeader(appErr.Code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}
