// Package mailer abstracts outbound notifications. Delivery is out-of-band
// and fire-and-forget: callers log failures and move on, they never retry.
package mailer

import (
	"context"
	"log"
)

// Template identifiers understood by the delivery backend.
const (
	TemplatePasswordReset   = "password_reset"
	TemplateWorkspaceInvite = "workspace_invite"
)

// Mailer delivers a templated message to a recipient address.
type Mailer interface {
	Send(ctx context.Context, recipient, templateID string, data map[string]any) error
}

// LogMailer is the default implementation: it logs instead of sending.
// Real delivery is wired in by the hosting environment.
type LogMailer struct{}

// NewLogMailer creates a LogMailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send logs the outbound message.
func (m *LogMailer) Send(_ context.Context, recipient, templateID string, data map[string]any) error {
	log.Printf("mail: to=%s template=%s data=%v", recipient, templateID, data)
	return nil
}
