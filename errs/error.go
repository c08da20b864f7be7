package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Application error codes. Every error that is meant to reach a client carries
// one of these codes, anything else is reported as EINTERNAL.
const (
	ENOTFOUND     = "not_found"
	EFORBIDDEN    = "forbidden"
	EINVALID      = "invalid"
	ECONFLICT     = "conflict"
	EUNAUTHORIZED = "unauthorized"
	EINTERNAL     = "internal"
)

// Frequently used errors.
var (
	IdInvalid    = Errorf(EINVALID, "The ID is invalid.")
	UserIdValid  = Errorf(EINVALID, "A valid user ID is required.")
	AuthRequired = Errorf(EUNAUTHORIZED, "You need to be logged in.")
	AdminOnly    = Errorf(EFORBIDDEN, "Administrator rights are required.")
)

// Error represents an application-specific error. Its Message is safe to
// show to the client.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// codes maps application error codes to http status codes.
var codes = map[string]int{
	ENOTFOUND:     http.StatusNotFound,
	EFORBIDDEN:    http.StatusForbidden,
	EINVALID:      http.StatusBadRequest,
	ECONFLICT:     http.StatusBadRequest,
	EUNAUTHORIZED: http.StatusUnauthorized,
	EINTERNAL:     http.StatusInternalServerError,
}

// StatusCode returns the http status code belonging to an application error code.
func StatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// Envelope is the shape of every response body: {code, message, data}.
// Code equals the http status, Data is null on error.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ReturnError writes the error as an envelope to the response. Internal errors
// are logged and returned without detail.
func ReturnError(w http.ResponseWriter, r *http.Request, err error) {
	ReturnErrorWithData(w, r, err, nil)
}

// ReturnErrorWithData is ReturnError with a payload in the envelope's data,
// for refusals that tell the client what it was refused.
func ReturnErrorWithData(w http.ResponseWriter, r *http.Request, err error, data interface{}) {
	code, message := ErrorCode(err), ErrorMessage(err)
	if code == EINTERNAL {
		LogError(r, err)
	}
	status := StatusCode(code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(&Envelope{Code: status, Message: message, Data: data}); err != nil {
		LogError(r, err)
	}
}

// LogError logs an error with the http request context.
func LogError(r *http.Request, err error) {
	logrus.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Errorf("[http] error: %v", err)
}
