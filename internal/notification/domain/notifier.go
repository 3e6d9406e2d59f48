package domain

import "context"

// Message templates.
const (
	TemplateRenewalReminder  = "renewal_reminder"
	TemplateAutoRenewSuccess = "auto_renewal_success"
)

type Message struct {
	UserID   string         `json:"user_id"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

// Notifier delivers user-facing messages. Delivery is best effort;
// callers log failures and move on.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
