package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/admin-user-profile/config"
)

// Option adjusts EmailData before it is flattened into a job payload.
type Option func(*EmailData)

func WithIP(ip string) Option           { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option    { return func(d *EmailData) { d.UserAgent = ua } }
func WithRecipient(email string) Option { return func(d *EmailData) { d.RecipientEmail = email } }
func WithProfileURL(url string) Option  { return func(d *EmailData) { d.ProfileURL = url } }

// WithTime stamps the event in UTC; the worker localises it when it can
// resolve the client's timezone.
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithLocation(loc string) Option {
	return func(d *EmailData) {
		if s := strings.TrimSpace(loc); s != "" {
			d.Location = s
		}
	}
}

// newEmailData fills the branding fields from cfg.
func newEmailData(cfg *config.Config, typ, name, email string) EmailData {
	return EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,
	}
}

// NewProfileUpdatedData builds the payload for a profile_updated job. The
// recipient defaults to the profile's current email.
func NewProfileUpdatedData(cfg *config.Config, name, email string, changes map[string]string, opts ...Option) map[string]any {
	d := newEmailData(cfg, ProfileUpdated, name, email)
	d.Changes = changes
	for _, opt := range opts {
		opt(&d)
	}
	return ToMap(d)
}
