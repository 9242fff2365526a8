package bankapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RemoteError is a non-success response from the server. Message is the server's message as sent: the
// trimmed plain-text body, or the JSON "message" (else "error") field when the body is a JSON object.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// NetworkError is a transport failure (connection refused, timeout, reset). The request may or may not have
// reached the server.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return "unable to reach the banking service"
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Detail is the underlying transport error, for logs.
func (e *NetworkError) Detail() string {
	return fmt.Sprintf("bankapi: %s: %v", e.Op, e.Err)
}

// IsRemote reports whether err is (or wraps) a *RemoteError and returns it.
func IsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsNetwork reports whether err is (or wraps) a *NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// newRemoteError builds a RemoteError from an error body. Plain-text bodies are used as-is; a JSON error object
// contributes its "message" (or "error") field. An empty body falls back to the HTTP status text.
func newRemoteError(op string, status int, body []byte) *RemoteError {
	msg := strings.TrimSpace(string(body))
	if strings.HasPrefix(msg, "{") {
		var obj struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &obj); err == nil {
			switch {
			case obj.Message != "":
				msg = obj.Message
			case obj.Error != "":
				msg = obj.Error
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &RemoteError{Op: op, StatusCode: status, Message: msg}
}
