package mailer

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPicksTransport(t *testing.T) {
	infoLog := log.New(&bytes.Buffer{}, "", 0)

	assert.IsType(t, &SendGrid{}, New(models.MailConfig{SendGridAPIKey: "k", From: "a@b.c"}, infoLog))
	assert.IsType(t, &SMTP{}, New(models.MailConfig{From: "a@b.c", Password: "p", SMTPHost: "smtp.gmail.com", SMTPPort: 587}, infoLog))
	assert.IsType(t, &Console{}, New(models.MailConfig{}, infoLog))
}

func TestConsoleSend(t *testing.T) {
	var buf bytes.Buffer
	m := &Console{Log: log.New(&buf, "", 0)}

	require.NoError(t, m.Send(context.Background(), OTPMessage("ann@x.io", "123456", 2)))
	assert.Contains(t, buf.String(), "to=ann@x.io")
	assert.Contains(t, buf.String(), "123456")
}

func TestSendGridPrepare(t *testing.T) {
	s := NewSendGrid("key", "noreply@tutorhub.io")
	m := s.prepare(Message{To: "ann@x.io", Subject: "Hi", Body: "code"})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[TutorHub] Hi", m.Personalizations[0].Subject)
	assert.Equal(t, "ann@x.io", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "noreply@tutorhub.io", m.From.Address)
}
