package api

import (
	"errors"
	"net/http"
)

// AppError is an error with the HTTP status and client-facing message it maps to.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e *AppError) Error() string {
	return e.Message
}

func newError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

var (
	ErrBadRequest         = newError(http.StatusBadRequest, "Invalid request body")
	ErrUnauthorized       = newError(http.StatusUnauthorized, "Unauthorized")
	ErrInternalServer     = newError(http.StatusInternalServerError, "Internal server error")
	ErrInvalidCredentials = newError(http.StatusUnauthorized, "Invalid email or password")
	ErrEmailAlreadyExists = newError(http.StatusConflict, "Email already registered")
	ErrInvalidToken       = newError(http.StatusUnauthorized, "Invalid or expired token")
	ErrProRequired        = newError(http.StatusForbidden, "API access requires Pro plan")
)

func NewBadRequestError(msg string) *AppError { return newError(http.StatusBadRequest, msg) }
func NewForbiddenError(msg string) *AppError  { return newError(http.StatusForbidden, msg) }
func NewNotFoundError(msg string) *AppError   { return newError(http.StatusNotFound, msg) }
func NewInternalError(msg string) *AppError   { return newError(http.StatusInternalServerError, msg) }
func NewValidationError(msg string) *AppError { return newError(http.StatusBadRequest, msg) }

// HandleError writes err as {"error": ...}. Anything that is not an AppError
// becomes a 500 so internal details never reach the client.
func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = ErrInternalServer
	}
	WriteJSON(w, appErr.Code, Response{Error: appErr.Message})
}
