package acsemail

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

const (
	// base64 of the 32-byte test key "0123456789abcdef0123456789abcdef".
	testAccountKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	testHost       = "contoso.unitedstates.communication.azure.com"
	testPath       = "/emails:send?api-version=2023-03-31"
)

var testSignTime = time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)

func TestSignRequest_GoldenFixture(t *testing.T) {
	t.Parallel()

	body := []byte(`{"senderAddress":"donotreply@contoso.net"}`)

	headers, err := signRequest("POST", testPath, body, testHost, testAccountKey, testSignTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := headers[headerDate]; got != "Mon, 01 Apr 2024 12:00:00 GMT" {
		t.Errorf("unexpected x-ms-date: %s", got)
	}

	if got := headers[headerContentHash]; got != "Zt/KVwgtkflTXt6i1khM6xhv39yJUu14DChGTBDMYNQ=" {
		t.Errorf("unexpected content hash: %s", got)
	}

	want := "HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature=Nr8MgYZGPyo5hXn26IKvkYqCZBR8/fSiBxDAcmrZFW0="
	if got := headers[headerAuth]; got != want {
		t.Errorf("unexpected Authorization header:\n got %s\nwant %s", got, want)
	}
}

func TestSignRequest_Deterministic(t *testing.T) {
	t.Parallel()

	body := []byte(`{"senderAddress":"donotreply@contoso.net"}`)

	first, err := signRequest("POST", testPath, body, testHost, testAccountKey, testSignTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := signRequest("POST", testPath, body, testHost, testAccountKey, testSignTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, h := range []string{headerDate, headerContentHash, headerAuth} {
		if first[h] != second[h] {
			t.Errorf("header %s differs between identical sign calls: %q vs %q", h, first[h], second[h])
		}
	}
}

func TestSignRequest_MatchesIndependentReference(t *testing.T) {
	t.Parallel()

	body := []byte(`{"recipients":{"to":[{"address":"user@example.com"}]}}`)

	headers, err := signRequest("GET", "/emails/abc/status?api-version=2023-03-31", body, testHost, testAccountKey, testSignTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Recompute the signature from first principles.
	key, err := base64.StdEncoding.DecodeString(testAccountKey)
	if err != nil {
		t.Fatalf("test key is not valid base64: %v", err)
	}

	sum := sha256.Sum256(body)
	stringToSign := "GET\n/emails/abc/status?api-version=2023-03-31\n" +
		headers[headerDate] + ";" + testHost + ";" + base64.StdEncoding.EncodeToString(sum[:])

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToSign))
	want := "HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature=" +
		base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if headers[headerAuth] != want {
		t.Errorf("signature does not match reference:\n got %s\nwant %s", headers[headerAuth], want)
	}
}

func TestSignRequest_BodyByteFlipChangesSignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"senderAddress":"donotreply@contoso.net"}`)

	original, err := signRequest("POST", testPath, body, testHost, testAccountKey, testSignTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flipped := append([]byte(nil), body...)
	flipped[len(flipped)/2] ^= 0x01

	changed, err := signRequest("POST", testPath, flipped, testHost, testAccountKey, testSignTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if original[headerContentHash] == changed[headerContentHash] {
		t.Error("expected content hash to change with the body")
	}

	if original[headerAuth] == changed[headerAuth] {
		t.Error("expected signature to change with the body")
	}
}

func TestSignRequest_EmptyBody(t *testing.T) {
	t.Parallel()

	headers, err := signRequest("GET", "/emails/abc/status?api-version=2023-03-31", nil, testHost, testAccountKey, testSignTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// SHA256 of the empty string.
	if got := headers[headerContentHash]; got != "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=" {
		t.Errorf("unexpected empty-body content hash: %s", got)
	}
}

func TestSignRequest_InvalidKey(t *testing.T) {
	t.Parallel()

	_, err := signRequest("POST", testPath, nil, testHost, "not base64!!!", testSignTime)

	if err == nil {
		t.Fatal("expected error for invalid account key")
	}

	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got: %v", err)
	}
}
