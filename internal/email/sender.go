package email

import (
	"context"
	"time"

	"dealflow_backend/platform/config"
)

// Sender delivers agent alerts.
type Sender interface {
	SendTaskAlert(ctx context.Context, toEmail string, alert TaskAlert) error
}

// TaskAlert describes a generated or overdue follow-up task.
type TaskAlert struct {
	DealTitle string
	TaskTitle string
	Priority  string
	DueDate   time.Time
	Overdue   bool
	TaskURL   string
}

type NoopSender struct{}

func (NoopSender) SendTaskAlert(context.Context, string, TaskAlert) error { return nil }

// NewSender returns an SMTP sender, or a NoopSender when e-mail is disabled.
func NewSender(cfg config.AlertConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
