package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmpl "html/template"
	"io"
	"reflect"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// ErrUnknownTemplate is returned by Render for names with no template set.
var ErrUnknownTemplate = errors.New("unknown email template")

const (
	ProfileUpdated = "profile_updated"
)

// names lists every template set shipped in FS.
var names = []string{ProfileUpdated}

// EmailData is the data every email template renders against. Jobs carry it
// as a map so the worker can enrich it before rendering.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`

	LogoURL        string `json:"LogoURL"`
	SupportURL     string `json:"SupportURL"`
	PrivacyURL     string `json:"PrivacyURL"`
	UnsubscribeURL string `json:"UnsubscribeURL"`
	ProfileURL     string `json:"ProfileURL"`

	IP        string            `json:"IP"`
	Time      string            `json:"Time"`
	TimeAt    time.Time         `json:"TimeAt"`
	UserAgent string            `json:"UserAgent"`
	Location  string            `json:"Location"`
	Changes   map[string]string `json:"Changes"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

func funcs() map[string]any {
	return map[string]any{
		"formatTime": func(t time.Time, layout string) string { return t.Format(layout) },
		"upper":      strings.ToUpper,
		"default":    defaultFn,
	}
}

// set is one parsed template trio.
type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var loadSets = sync.OnceValues(func() (map[string]set, error) {
	out := make(map[string]set, len(names))
	for _, name := range names {
		var s set
		var err error
		if s.subject, err = texttpl.New(name + ".subject.tmpl").Funcs(funcs()).ParseFS(FS, name+".subject.tmpl"); err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", name, err)
		}
		if s.text, err = texttpl.New(name + ".text.tmpl").Funcs(funcs()).ParseFS(FS, name+".text.tmpl"); err != nil {
			return nil, fmt.Errorf("parse %s text: %w", name, err)
		}
		if s.html, err = htmpl.New(name + ".html.tmpl").Funcs(funcs()).ParseFS(FS, name+".html.tmpl"); err != nil {
			return nil, fmt.Errorf("parse %s html: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
})

type executor interface {
	Execute(w io.Writer, data any) error
}

func execute(t executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render renders the subject, text and html parts of the named template set.
func Render(name string, data any) (subject, text, html string, err error) {
	sets, err := loadSets()
	if err != nil {
		return "", "", "", err
	}
	s, ok := sets[name]
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	if subject, err = execute(s.subject, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s subject: %w", name, err)
	}
	if text, err = execute(s.text, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s text: %w", name, err)
	}
	if html, err = execute(s.html, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s html: %w", name, err)
	}
	return subject, text, html, nil
}
