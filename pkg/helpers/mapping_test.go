package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/admin-user-profile/pkg/mailer"
)

func TestEnsureRecipientAndEmail(t *testing.T) {
	job := mailer.EmailJob{To: "ada@example.com"}
	EnsureRecipientAndEmail(&job)
	assert.Equal(t, "ada@example.com", job.Data["Email"])
	assert.Equal(t, "ada@example.com", job.Data["RecipientEmail"])

	job = mailer.EmailJob{To: "old@example.com", Data: map[string]any{"Email": "new@example.com"}}
	EnsureRecipientAndEmail(&job)
	assert.Equal(t, "new@example.com", job.Data["Email"])
	assert.Equal(t, "old@example.com", job.Data["RecipientEmail"])
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "Your profile was updated", SubjectFor("PROFILE_UPDATED"))
	assert.Equal(t, "Notification", SubjectFor("other"))
}
