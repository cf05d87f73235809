// Package response writes the JSON envelope of the sightline API: data on
// success, error on failure, never both.
package response

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/agentstation/sightline/pkg/errors"
)

// Response is the API envelope.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes a failed request. Field names the offending input of a
// validation error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

// codes maps statuses to error codes. Statuses not listed use
// INTERNAL_ERROR.
var codes = map[int]string{
	http.StatusBadRequest:            "BAD_REQUEST",
	http.StatusNotFound:              "NOT_FOUND",
	http.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	http.StatusConflict:              "CONFLICT",
	http.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	http.StatusServiceUnavailable:    "SERVICE_UNAVAILABLE",
}

// Code returns the error code for status.
func Code(status int) string {
	if code, ok := codes[status]; ok {
		return code
	}
	return "INTERNAL_ERROR"
}

// JSON writes resp with status.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is out; an encoding failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Response{Data: data})
}

// Created writes data with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Response{Data: data})
}

// Fail writes an error with status.
func Fail(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, Response{Error: &Error{Code: Code(status), Message: message, Details: details}})
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message, details string) {
	Fail(w, http.StatusNotFound, message, details)
}

// MethodNotAllowed writes a 405 naming method.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	Fail(w, http.StatusMethodNotAllowed, "Method not allowed", "Method "+method+" is not supported for this endpoint")
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, details string) {
	Fail(w, http.StatusServiceUnavailable, "Service unavailable", details)
}

// ErrorFromType writes err with the status its type implies. Errors of
// unknown type become a 500 that does not expose the cause.
func ErrorFromType(w http.ResponseWriter, err error) {
	var (
		validation *errors.ValidationError
		parse      *errors.ParseError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case stderrors.As(err, &validation):
		JSON(w, http.StatusBadRequest, Response{Error: &Error{
			Code:    "VALIDATION_ERROR",
			Message: validation.Error(),
			Field:   validation.Field,
		}})
	case stderrors.As(err, &parse):
		Fail(w, http.StatusBadRequest, parse.Error(), "")
	case errors.IsNotFound(err):
		NotFound(w, err.Error(), "")
	case stderrors.As(err, &tooLarge):
		Fail(w, http.StatusRequestEntityTooLarge, "Request body too large", "Limit is "+formatBytes(tooLarge.Limit))
	case errors.IsBusy(err):
		Fail(w, http.StatusConflict, "Analysis already running", err.Error())
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		ServiceUnavailable(w, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred")
	}
}

func formatBytes(n int64) string {
	for _, unit := range []string{"B", "KiB", "MiB"} {
		if n < 1024 || n%1024 != 0 {
			return fmt.Sprintf("%d %s", n, unit)
		}
		n /= 1024
	}
	return fmt.Sprintf("%d GiB", n)
}
