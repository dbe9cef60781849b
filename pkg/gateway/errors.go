package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// GenericFailureMessage is surfaced when the server did not supply an error text.
const GenericFailureMessage = "request failed"

var ErrDecodeResponse = errors.New("failed to decode response body")
var ErrEncodeRequest = errors.New("failed to encode request body")

// StatusError is returned for every response whose status is not 200.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// ServerError reports whether the failure was on the remote side (5xx).
func (e *StatusError) ServerError() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// errorPayload is the error body shape of the storefront API.
// Some handlers answer with "message" instead of "error".
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseErrorMessage(body []byte) string {
	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return ""
	}
	if p.Error != "" {
		return p.Error
	}
	return p.Message
}

// Message extracts the text that should be shown to the user for err.
// The server-provided message wins; anything else maps to GenericFailureMessage.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return GenericFailureMessage
}
