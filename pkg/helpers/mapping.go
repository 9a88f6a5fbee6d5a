package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/admin-user-profile/pkg/mailer"
	mailtpl "github.com/oksasatya/admin-user-profile/pkg/mailer/templates"
)

var fallbackSubjects = map[string]string{
	mailtpl.ProfileUpdated: "Your profile was updated",
}

// SubjectFor returns a fallback subject for a templated job whose subject
// template rendered empty.
func SubjectFor(template string) string {
	if s, ok := fallbackSubjects[strings.ToLower(template)]; ok {
		return s
	}
	return "Notification"
}

// EnsureRecipientAndEmail fills Email and RecipientEmail from the job's
// recipient when the publisher left them blank.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	for _, k := range []string{"Email", "RecipientEmail"} {
		if blank(job.Data[k]) {
			job.Data[k] = job.To
		}
	}
}

func blank(v any) bool {
	return v == nil || strings.TrimSpace(fmt.Sprint(v)) == ""
}
