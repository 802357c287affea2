package acsemail

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmailMessage_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *EmailMessage { return testMessage() }

	tests := []struct {
		name    string
		mutate  func(*EmailMessage)
		wantErr string
	}{
		{"valid message", func(*EmailMessage) {}, ""},
		{
			"html only is valid",
			func(m *EmailMessage) {
				m.Content.PlainText = ""
				m.Content.HTML = "<p>hi</p>"
			},
			"",
		},
		{
			"cc-only recipient is valid",
			func(m *EmailMessage) {
				m.Recipients.To = nil
				m.Recipients.CC = []EmailAddress{{Address: "cc@example.com"}}
			},
			"",
		},
		{
			"missing sender",
			func(m *EmailMessage) { m.SenderAddress = "" },
			"senderAddress",
		},
		{
			"no body content",
			func(m *EmailMessage) {
				m.Content.PlainText = ""
				m.Content.HTML = ""
			},
			"plainText or html",
		},
		{
			"no recipients",
			func(m *EmailMessage) { m.Recipients = Recipients{} },
			"at least one recipient",
		},
		{
			"empty address in to",
			func(m *EmailMessage) { m.Recipients.To = append(m.Recipients.To, EmailAddress{DisplayName: "No Address"}) },
			"to[1]",
		},
		{
			"empty address in replyTo",
			func(m *EmailMessage) { m.ReplyTo = []EmailAddress{{}} },
			"replyTo[0]",
		},
		{
			"attachment without name",
			func(m *EmailMessage) {
				m.Attachments = []EmailAttachment{{ContentType: "text/plain", ContentInBase64: "aGVsbG8="}}
			},
			"attachments[0] has no name",
		},
		{
			"attachment without content type",
			func(m *EmailMessage) {
				m.Attachments = []EmailAttachment{{Name: "a.txt", ContentInBase64: "aGVsbG8="}}
			},
			"attachments[0] has no contentType",
		},
		{
			"attachment with invalid base64",
			func(m *EmailMessage) {
				m.Attachments = []EmailAttachment{{Name: "a.txt", ContentType: "text/plain", ContentInBase64: "not base64!"}}
			},
			"not valid base64",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := valid()
			tt.mutate(msg)

			err := msg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got: %v", err)
			}

			if !strings.Contains(valErr.Reason, tt.wantErr) {
				t.Errorf("expected reason to contain %q, got: %s", tt.wantErr, valErr.Reason)
			}
		})
	}
}

func TestNewAttachment(t *testing.T) {
	t.Parallel()

	a := NewAttachment("report.csv", "text/csv", []byte("a,b,c"))

	if a.Name != "report.csv" {
		t.Errorf("unexpected name: %s", a.Name)
	}

	if a.ContentType != "text/csv" {
		t.Errorf("unexpected content type: %s", a.ContentType)
	}

	decoded, err := base64.StdEncoding.DecodeString(a.ContentInBase64)
	if err != nil {
		t.Fatalf("content is not valid base64: %v", err)
	}

	if string(decoded) != "a,b,c" {
		t.Errorf("unexpected decoded content: %s", decoded)
	}
}

func TestAttachmentFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(path, []byte("hello attachment"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	a, err := AttachmentFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Name != "hello.txt" {
		t.Errorf("expected name=hello.txt, got %s", a.Name)
	}

	if !strings.HasPrefix(a.ContentType, "text/plain") {
		t.Errorf("expected sniffed text/plain content type, got %s", a.ContentType)
	}

	decoded, err := base64.StdEncoding.DecodeString(a.ContentInBase64)
	if err != nil {
		t.Fatalf("content is not valid base64: %v", err)
	}

	if string(decoded) != "hello attachment" {
		t.Errorf("unexpected decoded content: %s", decoded)
	}
}

func TestAttachmentFromFile_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := AttachmentFromFile(filepath.Join(t.TempDir(), "does-not-exist.bin"))

	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
