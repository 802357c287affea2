package acsemail

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors returned by the client.
var (
	// ErrInvalidKey is returned when the account access key is not valid
	// base64 and therefore cannot be used for HMAC signing.
	ErrInvalidKey = errors.New("acsemail: account access key is not valid base64")
)

// ConfigError reports invalid or missing client configuration. It is
// returned by [New] before any network activity takes place.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "acsemail: invalid configuration: " + e.Reason
}

// ValidationError reports an [EmailMessage] that violates the message
// invariants. It is returned by [Client.SendEmail] before any network
// call is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "acsemail: invalid message: " + e.Reason
}

// AuthError reports a token acquisition failure from the identity
// provider. The provider's error is wrapped verbatim and never retried.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "acsemail: token acquisition failed: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError represents a non-2xx response from the email service.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("acsemail: API error %d [%s]: %s", e.StatusCode, e.Code, e.Message)
}

// apiErrorWrapper matches the service error envelope.
type apiErrorWrapper struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseAPIError(statusCode int, body []byte) error {
	var wrapper apiErrorWrapper
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Code != "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       wrapper.Error.Code,
			Message:    wrapper.Error.Message,
		}
	}

	msg := string(body)
	if msg == "" {
		msg = "(empty error body)"
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       "unknown",
		Message:    msg,
	}
}

// IsAPIError checks whether err is an [APIError] and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
