package acsemail

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// EmailMessage is a single email to be submitted to the service.
type EmailMessage struct {
	// SenderAddress is a verified sender address of the resource, e.g.
	// "donotreply@contoso.net". Required.
	SenderAddress string `json:"senderAddress"`

	// Content carries the subject and body. At least one of PlainText or
	// HTML must be set.
	Content EmailContent `json:"content"`

	// Recipients lists the to/cc/bcc addresses. At least one recipient
	// must be present across the three lists.
	Recipients Recipients `json:"recipients"`

	// ReplyTo optionally overrides where replies are delivered.
	ReplyTo []EmailAddress `json:"replyTo,omitempty"`

	// Attachments are sent base64-encoded inline with the message.
	Attachments []EmailAttachment `json:"attachments,omitempty"`

	// Headers are custom SMTP headers attached to the message.
	Headers map[string]string `json:"headers,omitempty"`

	// UserEngagementTrackingDisabled opts the message out of open/click
	// tracking.
	UserEngagementTrackingDisabled bool `json:"userEngagementTrackingDisabled,omitempty"`
}

// EmailContent is the subject and body of a message.
type EmailContent struct {
	Subject   string `json:"subject"`
	PlainText string `json:"plainText,omitempty"`
	HTML      string `json:"html,omitempty"`
}

// Recipients groups the destination addresses of a message.
type Recipients struct {
	To  []EmailAddress `json:"to,omitempty"`
	CC  []EmailAddress `json:"cc,omitempty"`
	BCC []EmailAddress `json:"bcc,omitempty"`
}

// EmailAddress is a destination address with an optional display name.
type EmailAddress struct {
	Address     string `json:"address"`
	DisplayName string `json:"displayName,omitempty"`
}

// EmailAttachment is a file attached to a message. Content travels
// base64-encoded in the request body.
type EmailAttachment struct {
	Name            string `json:"name"`
	ContentType     string `json:"contentType"`
	ContentInBase64 string `json:"contentInBase64"`
}

// NewAttachment builds an attachment from raw bytes, base64-encoding the
// content.
func NewAttachment(name, contentType string, content []byte) EmailAttachment {
	return EmailAttachment{
		Name:            name,
		ContentType:     contentType,
		ContentInBase64: base64.StdEncoding.EncodeToString(content),
	}
}

// AttachmentFromFile reads a file and builds an attachment from it. The
// attachment name is the file's base name and the content type is
// sniffed from the content, falling back to application/octet-stream.
func AttachmentFromFile(path string) (EmailAttachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return EmailAttachment{}, fmt.Errorf("acsemail: read attachment: %w", err)
	}

	return NewAttachment(filepath.Base(path), mimetype.Detect(content).String(), content), nil
}

// Validate checks the message invariants enforced before submission.
func (m *EmailMessage) Validate() error {
	if m.SenderAddress == "" {
		return &ValidationError{Reason: "senderAddress is required"}
	}
	if m.Content.PlainText == "" && m.Content.HTML == "" {
		return &ValidationError{Reason: "content requires at least one of plainText or html"}
	}
	if len(m.Recipients.To)+len(m.Recipients.CC)+len(m.Recipients.BCC) == 0 {
		return &ValidationError{Reason: "at least one recipient is required across to, cc, and bcc"}
	}

	for _, group := range []struct {
		name  string
		addrs []EmailAddress
	}{
		{"to", m.Recipients.To},
		{"cc", m.Recipients.CC},
		{"bcc", m.Recipients.BCC},
		{"replyTo", m.ReplyTo},
	} {
		for i, a := range group.addrs {
			if a.Address == "" {
				return &ValidationError{Reason: fmt.Sprintf("%s[%d] has an empty address", group.name, i)}
			}
		}
	}

	for i, a := range m.Attachments {
		if a.Name == "" {
			return &ValidationError{Reason: fmt.Sprintf("attachments[%d] has no name", i)}
		}
		if a.ContentType == "" {
			return &ValidationError{Reason: fmt.Sprintf("attachments[%d] has no contentType", i)}
		}
		if a.ContentInBase64 == "" {
			return &ValidationError{Reason: fmt.Sprintf("attachments[%d] has no content", i)}
		}
		if _, err := base64.StdEncoding.DecodeString(a.ContentInBase64); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("attachments[%d] content is not valid base64", i)}
		}
	}

	return nil
}
