package mailer

// EmailJob is the JSON message on the email queue. A job either names a
// Template rendered by the worker against Data, or carries a ready Subject
// with Text and/or HTML bodies.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// TemplateJob builds a job the worker renders from the named template.
func TemplateJob(to, template string, data map[string]any) EmailJob {
	return EmailJob{To: to, Template: template, Data: data}
}

// Templated reports whether the worker must render the job.
func (j EmailJob) Templated() bool { return j.Template != "" }
