package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Codes the backend uses for business rejections the screens branch on.
const (
	CodeCustomerNotFound = "CUSTOMER_NOT_FOUND"
	CodeReviewExists     = "REVIEW_EXISTS"
)

const genericMessage = "Request failed. Please try again."

// ErrUnauthorized is returned after the 401 handler already ran.
var ErrUnauthorized = errors.New("unauthorized")

// Error is the normalized failure of a backend call. Status is 0 for
// transport failures (timeout, refused connection, unreadable body).
type Error struct {
	Status  int
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("api: transport: %s", e.Message)
	case e.Code != "":
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	default:
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Transport() bool { return e.Status == 0 }

type errorBody struct {
	Code      string `json:"code"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

func errorFromBody(status int, body []byte) *Error {
	e := &Error{Status: status}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		e.Code = eb.Code
		if e.Code == "" {
			e.Code = eb.ErrorCode
		}
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Error
		}
	}
	if e.Message == "" {
		if text := http.StatusText(status); text != "" {
			e.Message = text
		} else {
			e.Message = genericMessage
		}
	}
	return e
}

// CodeOf returns the backend code of err, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf returns the server message of err, or fallback when the server
// sent none or err is not a backend error.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 && strings.TrimSpace(e.Message) != "" && e.Message != http.StatusText(e.Status) {
		return e.Message
	}
	return fallback
}

// IsRetryable reports whether err is worth retrying by the caller: timeouts,
// network failures and 5xx. The client itself never retries.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrUnauthorized) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status == 0 || e.Status >= 500
	}
	return false
}
