package acsemail

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

// Signed request headers.
const (
	headerDate        = "x-ms-date"
	headerContentHash = "x-ms-content-sha256"
	headerAuth        = "Authorization"
)

// signRequest computes the shared-key authentication headers for a single
// request. The signature covers the method, the path with query string,
// and a date;host;content-hash triple:
//
//	METHOD\nPATH_AND_QUERY\nDATE;HOST;CONTENT_HASH
//
// accountKey is the base64 account access key from the connection string.
// Signing is deterministic for a fixed now; two signatures of the same
// request at different instants are both valid within the server's
// accepted clock skew.
func signRequest(method, pathAndQuery string, body []byte, host, accountKey string, now time.Time) (map[string]string, error) {
	key, err := base64.StdEncoding.DecodeString(accountKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	sum := sha256.Sum256(body)
	contentHash := base64.StdEncoding.EncodeToString(sum[:])

	// RFC1123 with the GMT zone the service expects.
	date := now.UTC().Format(http.TimeFormat)

	stringToSign := method + "\n" + pathAndQuery + "\n" + date + ";" + host + ";" + contentHash

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		headerDate:        date,
		headerContentHash: contentHash,
		headerAuth:        "HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature=" + signature,
	}, nil
}
