package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"spendtrack/internal/core"
	"spendtrack/internal/log"
)

const (
	msgSessionExpired = "Your session has expired. Please login again."
	msgNoResponse     = "No response from server. Please check your connection."
	msgRequestSetup   = "Error setting up request"
	msgUnexpected     = "An unexpected error occurred"
	msgBadShape       = "Received unexpected data format from server"
	msgBadReport      = "Could not load monthly report due to data format issues"
)

// ErrMissingToken is returned by Login when the API accepted the
// credentials but did not hand back a token.
var ErrMissingToken = errors.New("login response carried no token")

// ServerError is a non-2xx response other than 401.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *ServerError) UserMessage() string {
	return e.Message
}

// AuthError is a 401 response. ServerMessage carries the message the API
// sent, which is what the login form shows.
type AuthError struct {
	ServerMessage string
}

func (e *AuthError) Error() string {
	return "api rejected credential: " + e.ServerMessage
}

func (e *AuthError) UserMessage() string {
	return msgSessionExpired
}

// NetworkError means no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "api unreachable: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) UserMessage() string {
	return msgNoResponse
}

// RequestError means the request could not be built.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return "build api request: " + e.Err.Error()
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) UserMessage() string {
	return msgRequestSetup
}

// ShapeError means the response body did not have an expected shape.
type ShapeError struct {
	Resource string
	Message  string
	Err      error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected %s payload: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("unexpected %s payload", e.Resource)
}

func (e *ShapeError) Unwrap() error { return e.Err }

func (e *ShapeError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return msgBadShape
}

// UserMessage returns the notification text for any error returned by the
// client, or by input validation.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return msgUnexpected
}

// ErrorType classifies err for the error_type log field.
func ErrorType(err error) string {
	var (
		ae *AuthError
		se *ServerError
		ne *NetworkError
		re *RequestError
		sh *ShapeError
	)
	switch {
	case core.IsValidationError(err):
		return log.ErrorTypeValidation
	case errors.As(err, &ae):
		return log.ErrorTypeAuth
	case errors.As(err, &se):
		return log.ErrorTypeServer
	case errors.As(err, &ne):
		return log.ErrorTypeNetwork
	case errors.As(err, &re):
		return log.ErrorTypeRequest
	case errors.As(err, &sh):
		return log.ErrorTypeShape
	default:
		return log.ErrorTypeInternal
	}
}

// IsUnauthorized reports whether err came from a 401.
func IsUnauthorized(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// errorBody is the subset of error payloads the API sends.
type errorBody struct {
	Detail         any      `json:"detail"`
	Message        any      `json:"message"`
	NonFieldErrors any `json:"non_field_errors"`
}

// serverMessage picks the message to show for a failed response:
// detail, then message, then the first non-field error, then the status.
func serverMessage(status int, body []byte) string {
	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		if s, ok := eb.Detail.(string); ok && s != "" {
			return s
		}
		if s, ok := eb.Message.(string); ok && s != "" {
			return s
		}
		if s := firstString(eb.NonFieldErrors); s != "" {
			return s
		}
	}
	return fmt.Sprintf("Error %d: %s", status, http.StatusText(status))
}

// firstString returns v when it is a string, or the first element of v
// when it is a list that starts with a string.
func firstString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		if len(val) > 0 {
			s, _ := val[0].(string)
			return s
		}
	}
	return ""
}
