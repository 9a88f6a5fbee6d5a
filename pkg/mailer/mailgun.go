package mailer

import (
	"context"
	"errors"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 10 * time.Second

// Mailgun delivers rendered emails through one Mailgun domain.
type Mailgun struct {
	client *mg.MailgunImpl
	sender string
	tags   []string
}

// MailgunOption customises a Mailgun sender.
type MailgunOption func(*Mailgun)

// WithAPIBase points the client at another region, e.g. mg.APIBaseEU.
func WithAPIBase(base string) MailgunOption {
	return func(m *Mailgun) {
		if base != "" {
			m.client.SetAPIBase(base)
		}
	}
}

// WithTags labels every message for Mailgun analytics.
func WithTags(tags ...string) MailgunOption {
	return func(m *Mailgun) { m.tags = append(m.tags, tags...) }
}

func NewMailgun(domain, apiKey, sender string, opts ...MailgunOption) *Mailgun {
	m := &Mailgun{client: mg.NewMailgun(domain, apiKey), sender: sender}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send sends one email. html is optional and sent alongside the text part.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	if to == "" {
		return errors.New("mailgun: empty recipient")
	}
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	for _, tag := range m.tags {
		if err := msg.AddTag(tag); err != nil {
			return err
		}
	}
	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
