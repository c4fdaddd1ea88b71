// Package mailer delivers one-time passwords and other account mail.
package mailer

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"strconv"

	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a plain text mail
type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks SendGrid when an API key is configured, SMTP when a sender
// account is, and logs messages otherwise.
func New(cfg models.MailConfig, infoLog *log.Logger) Mailer {
	switch {
	case cfg.SendGridAPIKey != "":
		return NewSendGrid(cfg.SendGridAPIKey, cfg.From)
	case cfg.From != "" && cfg.Password != "":
		return &SMTP{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.From,
			Password: cfg.Password,
		}
	default:
		return &Console{Log: infoLog}
	}
}

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendGrid struct {
	key  string
	from *sgmail.Email
}

func NewSendGrid(key, from string) *SendGrid {
	return &SendGrid{key: key, from: sgmail.NewEmail(models.APPName, from)}
}

func (s *SendGrid) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = "[" + models.APPName + "] " + msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))
	return m
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// SMTP sends through an authenticated relay such as Gmail
type SMTP struct {
	Host     string
	Port     int
	From     string
	Password string
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	addr := s.Host + ":" + strconv.Itoa(s.Port)
	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)
	body := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		models.APPName, s.From, msg.To, msg.Subject, msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.From, []string{msg.To}, []byte(body))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Console prints mail instead of sending it
type Console struct {
	Log *log.Logger
}

func (c *Console) Send(ctx context.Context, msg Message) error {
	c.Log.Printf("mail to=%s subject=%q body=%q", msg.To, msg.Subject, msg.Body)
	return nil
}

// OTPMessage is the mail carrying a password reset code
func OTPMessage(to, code string, ttlMinutes int) Message {
	return Message{
		To:      to,
		Subject: "Password reset code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, ttlMinutes),
	}
}
