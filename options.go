package acsemail

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// defaultAPIVersion is the email API version requested when
// [WithAPIVersion] is not supplied.
const defaultAPIVersion = "2023-03-31"

// authMode enumerates the mutually exclusive credential configurations.
type authMode int

const (
	authModeConflict authMode = iota - 1
	authModeNone
	authModeSharedKey
	authModeServicePrincipal
	authModeManagedIdentity
)

type Option func(*Options)

type Options struct {
	apiVersion         string
	requestTimeout     time.Duration
	tokenRefreshMargin time.Duration
	retryCount         int
	retryWaitTime      time.Duration
	retryMaxWaitTime   time.Duration
	retryPolicy        func(*resty.Response, error) bool
	requestLogger      RequestLogger
	requestHeaders     map[string]string

	authMode         authMode
	connectionString string
	endpoint         string
	tenantID         string
	clientID         string
	clientSecret     string
}

func newClientOptions() *Options {
	return &Options{
		apiVersion:         defaultAPIVersion,
		requestTimeout:     30 * time.Second,
		tokenRefreshMargin: 5 * time.Minute,
		retryCount:         0,
		retryWaitTime:      500 * time.Millisecond,
		retryMaxWaitTime:   3 * time.Second,
		retryPolicy:        DefaultRetryPolicy,
		requestLogger:      &NoopLogger{},
		requestHeaders: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
	}
}

// setAuthMode records a credential configuration. Conflicting
// configurations collapse to a marker value that [New] rejects.
func (o *Options) setAuthMode(mode authMode) {
	if o.authMode != authModeNone && o.authMode != mode {
		o.authMode = authModeConflict
		return
	}
	o.authMode = mode
}

// WithConnectionString configures shared-key authentication from an ACS
// connection string ("endpoint=...;accesskey=..."). Mutually exclusive
// with the other credential options.
func WithConnectionString(cs string) Option {
	return func(o *Options) {
		o.connectionString = cs
		o.setAuthMode(authModeSharedKey)
	}
}

// WithServicePrincipal configures Microsoft Entra client-credentials
// authentication. Requires [WithEndpoint]. Mutually exclusive with the
// other credential options.
func WithServicePrincipal(tenantID, clientID, clientSecret string) Option {
	return func(o *Options) {
		o.tenantID = tenantID
		o.clientID = clientID
		o.clientSecret = clientSecret
		o.setAuthMode(authModeServicePrincipal)
	}
}

// WithManagedIdentity configures authentication through the platform's
// ambient managed identity. Requires [WithEndpoint]. Mutually exclusive
// with the other credential options.
func WithManagedIdentity() Option {
	return func(o *Options) {
		o.setAuthMode(authModeManagedIdentity)
	}
}

// WithEndpoint sets the resource endpoint, e.g.
// "https://contoso.unitedstates.communication.azure.com". Required for
// the service-principal and managed-identity modes; ignored for
// connection-string mode, which carries its own endpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	}
}

// WithAPIVersion overrides the email API version sent in the
// api-version query parameter.
func WithAPIVersion(version string) Option {
	return func(o *Options) {
		if strings.TrimSpace(version) != "" {
			o.apiVersion = version
		}
	}
}

// WithRequestTimeout sets the per-request timeout on the underlying HTTP
// client. Values below one second are ignored.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout >= time.Second {
			o.requestTimeout = timeout
		}
	}
}

// WithTokenRefreshMargin sets how long before its actual expiry a cached
// bearer token is treated as stale and refreshed. Negative values are
// ignored. Has no effect in connection-string mode.
func WithTokenRefreshMargin(margin time.Duration) Option {
	return func(o *Options) {
		if margin >= 0 {
			o.tokenRefreshMargin = margin
		}
	}
}

// WithRetryCount opts in to transport-level retries. The default is 0:
// the client retries nothing and leaves retry policy to the caller.
func WithRetryCount(count int) Option {
	return func(o *Options) {
		if count >= 0 {
			o.retryCount = count
		}
	}
}

func WithRetryWaitTime(waitTime time.Duration) Option {
	return func(o *Options) {
		if waitTime >= 100*time.Millisecond {
			o.retryWaitTime = waitTime
		}
	}
}

func WithRetryMaxWaitTime(maxWaitTime time.Duration) Option {
	return func(o *Options) {
		if maxWaitTime >= 100*time.Millisecond {
			o.retryMaxWaitTime = maxWaitTime
		}
	}
}

// WithRetryPolicy replaces [DefaultRetryPolicy]. Only consulted when
// [WithRetryCount] is set above zero.
func WithRetryPolicy(policy func(*resty.Response, error) bool) Option {
	return func(o *Options) {
		if policy != nil {
			o.retryPolicy = policy
		}
	}
}

func WithRequestLogger(logger RequestLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.requestLogger = logger
		}
	}
}

// WithRequestHeader adds a static header to every request. Content-Type,
// Accept, and the authentication headers are managed by the client and
// cannot be overridden.
func WithRequestHeader(header, value string) Option {
	return func(o *Options) {
		header = strings.TrimSpace(header)

		switch {
		case header == "":
			return
		case strings.EqualFold(header, "Content-Type"),
			strings.EqualFold(header, "Accept"),
			strings.EqualFold(header, headerAuth),
			strings.EqualFold(header, headerDate),
			strings.EqualFold(header, headerContentHash):
			return
		}

		o.requestHeaders[header] = value
	}
}
