package main

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/admin-user-profile/pkg/helpers"
	"github.com/oksasatya/admin-user-profile/pkg/mailer"
	mailtpl "github.com/oksasatya/admin-user-profile/pkg/mailer/templates"
)

var emailsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "email_jobs_total",
	Help: "Email jobs consumed by outcome.",
}, []string{"outcome"})

// Sender delivers a rendered email; *mailer.Mailgun satisfies it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type outcome int

const (
	ack     outcome = iota
	drop            // nack without requeue
	requeue         // nack with requeue
)

func (o outcome) String() string {
	switch o {
	case ack:
		return "sent"
	case drop:
		return "dropped"
	default:
		return "requeued"
	}
}

type worker struct {
	sender   Sender
	resolver mailtpl.GeoResolver
	logger   *logrus.Logger
	timeout  time.Duration
}

// handle decodes, renders and sends one queued job.
func (w *worker) handle(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Warn("bad message")
		return drop
	}
	if strings.TrimSpace(job.To) == "" {
		w.logger.Warn("job without recipient")
		return drop
	}
	log := w.logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template})

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Templated() {
		helpers.EnsureRecipientAndEmail(&job)
		helpers.EnrichWithGeo(ctx, w.resolver, job.Data)

		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			log.WithError(err).Error("render failed")
			return drop
		}
		subject, text, html = strings.TrimSpace(s), t, h
		if subject == "" {
			subject = helpers.SubjectFor(job.Template)
		}
	}
	if subject == "" || (text == "" && html == "") {
		log.Warn("job has nothing to send")
		return drop
	}

	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		log.WithError(err).Error("send failed")
		return requeue
	}
	log.Info("email sent")
	return ack
}

func (w *worker) record(o outcome) {
	emailsProcessed.WithLabelValues(o.String()).Inc()
}
