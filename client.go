package acsemail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Client is an Azure Communication Services email client. It is safe for
// concurrent use; the only shared mutable state is the bearer-token
// cache, which serializes refreshes internally.
type Client struct {
	endpoint   string
	host       string
	apiVersion string
	options    *Options
	cred       credential
	http       *resty.Client
}

// New builds a [Client] from the supplied options. Exactly one of
// [WithConnectionString], [WithServicePrincipal], or
// [WithManagedIdentity] must be configured, and the token-based modes
// additionally require [WithEndpoint]; New returns a [ConfigError]
// otherwise. No network activity happens here; tokens are acquired
// lazily on the first call that needs one.
func New(opts ...Option) (*Client, error) {
	options := newClientOptions()
	for _, opt := range opts {
		opt(options)
	}

	c := &Client{
		apiVersion: options.apiVersion,
		options:    options,
	}

	var accountKey string

	switch options.authMode {
	case authModeNone:
		return nil, &ConfigError{Reason: "no credential configured; set exactly one of WithConnectionString, WithServicePrincipal, or WithManagedIdentity"}
	case authModeConflict:
		return nil, &ConfigError{Reason: "multiple credentials configured; set exactly one of WithConnectionString, WithServicePrincipal, or WithManagedIdentity"}
	case authModeSharedKey:
		cs, err := parseConnectionString(options.connectionString)
		if err != nil {
			return nil, &ConfigError{Reason: err.Error()}
		}
		c.endpoint = cs.endpoint
		accountKey = cs.accessKey
	case authModeServicePrincipal:
		if options.tenantID == "" || options.clientID == "" || options.clientSecret == "" {
			return nil, &ConfigError{Reason: "service principal requires tenant id, client id, and client secret"}
		}
		c.endpoint = options.endpoint
	case authModeManagedIdentity:
		c.endpoint = options.endpoint
	}

	if c.endpoint == "" {
		return nil, &ConfigError{Reason: "endpoint is required; set WithEndpoint"}
	}

	host, err := hostOf(c.endpoint)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	c.host = host

	c.http = newRestyClient(options).SetBaseURL(c.endpoint)

	switch options.authMode {
	case authModeSharedKey:
		c.cred = newSharedKeyCredential(c.host, accountKey)
	case authModeServicePrincipal:
		provider := newServicePrincipalProvider(options.tenantID, options.clientID, options.clientSecret)
		c.cred = newTokenCredential(provider, options.tokenRefreshMargin)
	case authModeManagedIdentity:
		provider := newManagedIdentityProvider(newRestyClient(options))
		c.cred = newTokenCredential(provider, options.tokenRefreshMargin)
	}

	return c, nil
}

func newRestyClient(options *Options) *resty.Client {
	rc := resty.New().
		SetTimeout(options.requestTimeout).
		SetHeaders(options.requestHeaders).
		SetLogger(options.requestLogger)

	if options.retryCount > 0 {
		rc.SetRetryCount(options.retryCount).
			SetRetryWaitTime(options.retryWaitTime).
			SetRetryMaxWaitTime(options.retryMaxWaitTime).
			AddRetryCondition(options.retryPolicy)
	}

	return rc
}

// sendEmailResponse is the accepted-send envelope. The error detail is
// populated on failed operations surfaced through the status endpoint.
type sendEmailResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendEmail validates and submits a message, returning the
// service-assigned message id used to poll delivery status. Validation
// failures return a [ValidationError] before any network call; non-2xx
// responses return an [APIError].
func (c *Client) SendEmail(ctx context.Context, msg *EmailMessage) (string, error) {
	if c == nil {
		return "", errors.New("acsemail: client is nil")
	}
	if msg == nil {
		return "", &ValidationError{Reason: "message is nil"}
	}
	if err := msg.Validate(); err != nil {
		return "", err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("acsemail: marshal message: %w", err)
	}

	pathAndQuery := "/emails:send?api-version=" + c.apiVersion

	authHeaders, err := c.cred.authHeaders(ctx, http.MethodPost, pathAndQuery, body)
	if err != nil {
		return "", err
	}

	// The operation id doubles as an idempotency key; resubmitting with
	// the same id within the retention window is not treated as a new
	// message by the service.
	operationID := uuid.NewString()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(authHeaders).
		SetHeader("Operation-Id", operationID).
		SetHeader("Repeatability-Request-ID", operationID).
		SetHeader("Repeatability-First-Sent", time.Now().UTC().Format(http.TimeFormat)).
		SetBody(body).
		Post(pathAndQuery)
	if err != nil {
		return "", fmt.Errorf("acsemail: POST %s: %w", pathAndQuery, err)
	}

	if resp.IsError() {
		return "", parseAPIError(resp.StatusCode(), resp.Body())
	}

	return messageIDFrom(resp, operationID), nil
}

// messageIDFrom extracts the message id from an accepted send: the
// response body's id field, then the Operation-Location header, then the
// x-ms-request-id header, and finally the client-generated operation id
// the request was submitted under.
func messageIDFrom(resp *resty.Response, operationID string) string {
	var parsed sendEmailResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err == nil && parsed.ID != "" {
		return parsed.ID
	}

	if loc := resp.Header().Get("Operation-Location"); loc != "" {
		if id := lastPathSegment(loc); id != "" {
			return id
		}
	}

	if id := resp.Header().Get("x-ms-request-id"); id != "" {
		return id
	}

	return operationID
}

func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// getStatusResponse is the status endpoint envelope.
type getStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// GetEmailStatus fetches the delivery status of a previously submitted
// message. Status strings this package does not recognize map to
// [StatusUnknown] rather than an error; non-2xx responses return an
// [APIError].
func (c *Client) GetEmailStatus(ctx context.Context, messageID string) (EmailStatus, error) {
	if c == nil {
		return StatusUnknown, errors.New("acsemail: client is nil")
	}
	if messageID == "" {
		return StatusUnknown, errors.New("acsemail: messageID is required")
	}

	pathAndQuery := "/emails/" + url.PathEscape(messageID) + "/status?api-version=" + c.apiVersion

	authHeaders, err := c.cred.authHeaders(ctx, http.MethodGet, pathAndQuery, nil)
	if err != nil {
		return StatusUnknown, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(authHeaders).
		Get(pathAndQuery)
	if err != nil {
		return StatusUnknown, fmt.Errorf("acsemail: GET %s: %w", pathAndQuery, err)
	}

	if resp.IsError() {
		return StatusUnknown, parseAPIError(resp.StatusCode(), resp.Body())
	}

	var parsed getStatusResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return StatusUnknown, fmt.Errorf("acsemail: parse status response: %w", err)
	}

	return ParseEmailStatus(parsed.Status), nil
}

// Endpoint returns the resource endpoint the client was built against.
func (c *Client) Endpoint() string {
	return c.endpoint
}
