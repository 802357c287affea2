// Package acsemail provides an HTTP client for the Azure Communication
// Services email REST API.
//
// The client wraps [github.com/go-resty/resty/v2] and handles request
// authentication (shared-key HMAC signing or Microsoft Entra bearer
// tokens), payload serialization, and delivery-status polling.
//
// # Basic Usage
//
//	client, err := acsemail.New(
//	    acsemail.WithConnectionString(os.Getenv("ACS_CONNECTION_STRING")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg := &acsemail.EmailMessage{
//	    SenderAddress: "donotreply@contoso.net",
//	    Content: acsemail.EmailContent{
//	        Subject:   "Hello",
//	        PlainText: "Hello from ACS.",
//	    },
//	    Recipients: acsemail.Recipients{
//	        To: []acsemail.EmailAddress{{Address: "user@example.com"}},
//	    },
//	}
//
//	id, err := client.SendEmail(ctx, msg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	status, err := client.GetEmailStatus(ctx, id)
//
// # Authentication
//
// Exactly one credential must be configured; [New] returns a [ConfigError]
// otherwise. The three modes are:
//
//   - [WithConnectionString]: shared-key authentication. Every request is
//     HMAC-SHA256 signed with the account access key; no token endpoint is
//     ever contacted.
//   - [WithServicePrincipal]: Microsoft Entra client-credentials flow. A
//     bearer token is obtained from the tenant's token endpoint and cached
//     until close to expiry.
//   - [WithManagedIdentity]: platform-assigned identity. The token is
//     obtained from the App Service identity endpoint or, failing that,
//     the Azure instance metadata service.
//
// The service-principal and managed-identity modes additionally require
// [WithEndpoint]. Cached tokens are refreshed lazily on the first call
// inside the refresh margin (see [WithTokenRefreshMargin]); concurrent
// callers hitting a stale token trigger a single refresh.
//
// # Configuration
//
// All configuration is supplied as [Option] functions passed to [New].
// Invalid values are silently ignored and the default is retained;
// credential configuration is validated by [New] itself.
//
// # Status Polling
//
// [Client.SendEmail] returns the service-assigned message id and does not
// wait for delivery. The client deliberately contains no polling loop:
// call [Client.GetEmailStatus] at whatever cadence suits the caller and
// stop once [EmailStatus.Terminal] reports true. Unrecognized status
// strings map to [StatusUnknown] rather than an error.
//
// # Retries
//
// The client performs no retries by default; retry and backoff policy
// belongs to the caller. Opting in via [WithRetryCount] enables
// [DefaultRetryPolicy], which can be replaced with [WithRetryPolicy].
//
// # Logging
//
// Implement [RequestLogger] and supply it via [WithRequestLogger] to
// integrate with your logging library; [ZerologLogger] adapts a
// [github.com/rs/zerolog] logger. The default [NoopLogger] discards all
// output. Ensure your implementation redacts account keys and bearer
// tokens before persisting logs.
package acsemail
