package notify

import (
	"context"
	"log/slog"
)

// EmailChannel and WhatsAppChannel stand in front of the real outbound
// gateways. The current deployment logs the send; swapping in an HTTP
// gateway client only touches this file.

type EmailChannel struct {
	log *slog.Logger
}

func NewEmailChannel(log *slog.Logger) *EmailChannel {
	if log == nil {
		log = slog.Default()
	}
	return &EmailChannel{log: log}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, recipient string, kind TemplateKind, payload map[string]interface{}) error {
	c.log.InfoContext(ctx, "email notification",
		"to", recipient, "template", string(kind), "payload", payload)
	return nil
}

type WhatsAppChannel struct {
	log *slog.Logger
}

func NewWhatsAppChannel(log *slog.Logger) *WhatsAppChannel {
	if log == nil {
		log = slog.Default()
	}
	return &WhatsAppChannel{log: log}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

func (c *WhatsAppChannel) Send(ctx context.Context, recipient string, kind TemplateKind, payload map[string]interface{}) error {
	c.log.InfoContext(ctx, "whatsapp notification",
		"to", recipient, "template", string(kind), "payload", payload)
	return nil
}
