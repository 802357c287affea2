package acsemail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// entraScope is the resource scope requested for email-service tokens.
const entraScope = "https://communication.azure.com/.default"

// imdsTokenURL is the Azure instance metadata service token endpoint used
// for managed identity when no App Service identity endpoint is present.
const imdsTokenURL = "http://169.254.169.254/metadata/identity/oauth2/token"

// credential decorates an outgoing request with authentication headers.
// Implementations must be safe for concurrent use.
type credential interface {
	// authHeaders returns the authentication headers for one request.
	// method is the HTTP method, pathAndQuery the request path including
	// the query string, and body the exact bytes that will be sent.
	authHeaders(ctx context.Context, method, pathAndQuery string, body []byte) (map[string]string, error)
}

// sharedKeyCredential signs every request with the account access key.
// It is stateless and never contacts a token endpoint.
type sharedKeyCredential struct {
	host       string
	accountKey string
	now        func() time.Time
}

func newSharedKeyCredential(host, accountKey string) *sharedKeyCredential {
	return &sharedKeyCredential{
		host:       host,
		accountKey: accountKey,
		now:        time.Now,
	}
}

func (c *sharedKeyCredential) authHeaders(_ context.Context, method, pathAndQuery string, body []byte) (map[string]string, error) {
	return signRequest(method, pathAndQuery, body, c.host, c.accountKey, c.now())
}

// tokenProvider fetches a fresh bearer token from an identity provider.
type tokenProvider interface {
	fetchToken(ctx context.Context) (*oauth2.Token, error)
}

// tokenCredential caches a bearer token and refreshes it lazily once the
// current time enters the refresh margin before expiry. The mutex is held
// across the fetch so that concurrent callers hitting a stale token cause
// exactly one request to the identity provider; the others block and
// reuse the result.
type tokenCredential struct {
	mu       sync.Mutex
	provider tokenProvider
	margin   time.Duration
	token    *oauth2.Token
	now      func() time.Time
}

func newTokenCredential(provider tokenProvider, margin time.Duration) *tokenCredential {
	return &tokenCredential{
		provider: provider,
		margin:   margin,
		now:      time.Now,
	}
}

func (c *tokenCredential) authHeaders(ctx context.Context, _, _ string, _ []byte) (map[string]string, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{headerAuth: "Bearer " + token}, nil
}

func (c *tokenCredential) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.now().Add(c.margin).Before(c.token.Expiry) {
		return c.token.AccessToken, nil
	}

	token, err := c.provider.fetchToken(ctx)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	c.token = token

	return token.AccessToken, nil
}

// servicePrincipalProvider obtains tokens through the Microsoft Entra
// client-credentials flow.
type servicePrincipalProvider struct {
	conf *clientcredentials.Config
}

func newServicePrincipalProvider(tenantID, clientID, clientSecret string) *servicePrincipalProvider {
	return &servicePrincipalProvider{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
			Scopes:       []string{entraScope},
		},
	}
}

func (p *servicePrincipalProvider) fetchToken(ctx context.Context) (*oauth2.Token, error) {
	return p.conf.Token(ctx)
}

// managedIdentityProvider obtains tokens from the ambient platform
// identity. It prefers the App Service identity endpoint (published via
// IDENTITY_ENDPOINT/IDENTITY_HEADER) and falls back to the instance
// metadata service.
type managedIdentityProvider struct {
	http *resty.Client
}

func newManagedIdentityProvider(http *resty.Client) *managedIdentityProvider {
	return &managedIdentityProvider{http: http}
}

// identityTokenResponse is the shape returned by both managed identity
// endpoints. ExpiresIn arrives as a JSON string on some platforms.
type identityTokenResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
	ExpiresOn   json.RawMessage `json:"expires_on"`
}

func (p *managedIdentityProvider) fetchToken(ctx context.Context) (*oauth2.Token, error) {
	var parsed identityTokenResponse

	req := p.http.R().
		SetContext(ctx).
		SetResult(&parsed)

	var resp *resty.Response
	var err error

	if endpoint := os.Getenv("IDENTITY_ENDPOINT"); endpoint != "" {
		resp, err = req.
			SetHeader("X-IDENTITY-HEADER", os.Getenv("IDENTITY_HEADER")).
			SetQueryParams(map[string]string{
				"api-version": "2019-08-01",
				"resource":    "https://communication.azure.com",
			}).
			Get(endpoint)
	} else {
		resp, err = req.
			SetHeader("Metadata", "true").
			SetQueryParams(map[string]string{
				"api-version": "2018-02-01",
				"resource":    "https://communication.azure.com",
			}).
			Get(imdsTokenURL)
	}

	if err != nil {
		return nil, fmt.Errorf("managed identity endpoint: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("managed identity endpoint returned %d: %s", resp.StatusCode(), resp.String())
	}
	if parsed.AccessToken == "" {
		return nil, fmt.Errorf("managed identity endpoint returned no access token")
	}

	return &oauth2.Token{
		AccessToken: parsed.AccessToken,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(identityTokenLifetime(parsed)),
	}, nil
}

// identityTokenLifetime extracts the remaining lifetime from an identity
// endpoint response, tolerating both numeric and quoted expires_in
// values. Responses without a usable expiry get a conservative hour.
func identityTokenLifetime(r identityTokenResponse) time.Duration {
	if secs, ok := rawSeconds(r.ExpiresIn); ok {
		return time.Duration(secs) * time.Second
	}
	if unix, ok := rawSeconds(r.ExpiresOn); ok {
		if d := time.Until(time.Unix(unix, 0)); d > 0 {
			return d
		}
	}
	return time.Hour
}

func rawSeconds(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	s := string(raw)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
