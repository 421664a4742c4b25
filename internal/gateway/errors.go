package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"vibeclient/internal/models"
)

// ResponseError is a non-2xx answer from the API.
type ResponseError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api responded %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api responded %d", e.StatusCode)
}

// TransportError means no usable response arrived: the server was
// unreachable or the request timed out.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request timed out: %v", e.Err)
	}
	return fmt.Sprintf("server unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusUnauthorized
}

func newResponseError(status int, body []byte) *ResponseError {
	var payload models.ErrorResponse
	_ = json.Unmarshal(body, &payload)
	return &ResponseError{
		StatusCode: status,
		Message:    payload.Text(),
		Body:       body,
	}
}

func classifyTransport(err error) *TransportError {
	timeout := errors.Is(err, context.DeadlineExceeded)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	return &TransportError{Timeout: timeout, Err: err}
}
