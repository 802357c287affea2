package acsemail

import (
	"fmt"
	"net/url"
	"strings"
)

// connectionString holds the parsed pieces of an ACS connection string of
// the form "endpoint=https://<resource>.communication.azure.com/;accesskey=<base64>".
type connectionString struct {
	endpoint  string
	accessKey string
}

func parseConnectionString(s string) (connectionString, error) {
	var cs connectionString

	for _, pair := range strings.Split(s, ";") {
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return cs, fmt.Errorf("malformed connection string segment %q", pair)
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "endpoint":
			cs.endpoint = strings.TrimSuffix(strings.TrimSpace(value), "/")
		case "accesskey":
			cs.accessKey = strings.TrimSpace(value)
		}
	}

	if cs.endpoint == "" {
		return cs, fmt.Errorf("connection string is missing endpoint")
	}
	if cs.accessKey == "" {
		return cs, fmt.Errorf("connection string is missing accesskey")
	}

	return cs, nil
}

// hostOf extracts the bare host from an endpoint URL; the host is part of
// the signed string for shared-key requests.
func hostOf(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Host, nil
}
