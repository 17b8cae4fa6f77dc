// Package mail sends transactional email for the clinic API, with a small
// template registry and an SMTP-backed sender.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable email template. Placeholders use the
// {{name}} form and are replaced verbatim from the data map.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// Registry holds email templates by ID.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates a Registry with the built-in templates pre-registered.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Template)}
	for _, t := range []Template{
		{
			ID:      "password-reset",
			Subject: "Password Reset Request",
			Body:    "You requested a password reset. Click the following link to reset your password: {{reset_link}}",
		},
		{
			ID:      "account-welcome",
			Subject: "Welcome to Clinic Project",
			Body:    "Dear {{name}}, your account ({{username}}) has been created. You can sign in at {{login_link}}.",
		},
		{
			ID:      "clinic-welcome",
			Subject: "Your clinic account is ready",
			Body:    "Dear {{clinic_name}}, your account has been created. Sign in with username {{username}}.",
		},
		{
			ID:      "appointment-confirmation",
			Subject: "Appointment {{appointment_number}} confirmed",
			Body:    "Dear {{patient_name}}, your appointment with {{doctor_name}} on {{date}} at {{time}} is confirmed.",
		},
	} {
		r.templates[t.ID] = t
	}
	return r
}

// Register adds or replaces a template.
func (r *Registry) Register(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
}

// Render renders the template with the given ID, substituting {{key}}
// placeholders from data. Unknown placeholders are left as-is.
func (r *Registry) Render(id string, data map[string]string) (subject, body string, err error) {
	r.mu.RLock()
	t, ok := r.templates[id]
	r.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", id)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender records messages instead of sending them. Used in development
// when no SMTP relay is configured, and in tests.
type LogSender struct {
	mu       sync.Mutex
	messages []SentMessage
}

// SentMessage is a message captured by LogSender.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

func (s *LogSender) SendEmail(ctx context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, SentMessage{To: to, Subject: subject, Body: body})
	return nil
}

// Messages returns a snapshot of captured messages.
func (s *LogSender) Messages() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMessage, len(s.messages))
	copy(out, s.messages)
	return out
}
