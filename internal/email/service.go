// Package email delivers contact form submissions over SMTP.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"folio/api/internal/portfolio"
)

var ErrNotConfigured = errors.New("email not configured")

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	// OwnerEmail receives every contact notification.
	OwnerEmail string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service provides email sending
type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   sendFunc
	now    func() time.Time
}

func NewService(config Config) *Service {
	if config.OwnerEmail == "" {
		config.OwnerEmail = portfolio.DefaultOwnerEmail
	}
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
		now:    time.Now,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

func (s *Service) OwnerEmail() string {
	return s.config.OwnerEmail
}

// Message is one outgoing mail. HTML is optional.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// SendEmail sends a plain text email
func (s *Service) SendEmail(to []string, subject, body string) error {
	return s.Send(Message{To: to, Subject: subject, Text: body})
}

// SendHTMLEmail sends an HTML email with a text fallback.
func (s *Service) SendHTMLEmail(to []string, replyTo, subject, htmlBody string) error {
	return s.Send(Message{
		To:      to,
		ReplyTo: replyTo,
		Subject: subject,
		Text:    "Please view this email in an HTML-capable email client.",
		HTML:    htmlBody,
	})
}

func (s *Service) Send(m Message) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	if len(m.To) == 0 {
		return errors.New("email has no recipients")
	}
	if err := s.send(s.server, s.auth, s.config.From, m.To, s.compose(m)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *Service) compose(m Message) []byte {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	if m.ReplyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", m.ReplyTo)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")

	if m.HTML == "" {
		fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n%s", m.Text)
		return msg.Bytes()
	}

	boundary := "boundary-folio"
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n\r\n", boundary, m.Text)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n\r\n", boundary, m.HTML)
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

// ContactRequest is the body of a contact form submission.
type ContactRequest struct {
	Name          string                  `json:"name"`
	Email         string                  `json:"email"`
	Phone         string                  `json:"phone,omitempty"`
	Subject       string                  `json:"subject"`
	Message       string                  `json:"message"`
	ContactMethod portfolio.ContactMethod `json:"contactMethod"`
}

func (r ContactRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: missing required fields", portfolio.ErrInvalid)
	}
	return nil
}

// Result is returned to the caller on success, delivered or simulated.
type Result struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Timestamp   string         `json:"timestamp"`
	Development bool           `json:"development,omitempty"`
	Details     *ResultDetails `json:"details,omitempty"`
}

type ResultDetails struct {
	Recipient string `json:"recipient"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
}

// SendContact mails the owner notification and the sender confirmation.
func (s *Service) SendContact(r ContactRequest) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	notification, err := renderContactNotification(r, s.now())
	if err != nil {
		return Result{}, err
	}
	if err := s.Send(notification.withTo(s.config.OwnerEmail, r.Email)); err != nil {
		return Result{}, err
	}
	confirmation, err := renderContactConfirmation(r)
	if err != nil {
		return Result{}, err
	}
	if err := s.Send(confirmation.withTo(r.Email, "")); err != nil {
		return Result{}, err
	}
	return Result{
		Success:   true,
		Message:   "Email sent successfully",
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// Simulate reports what SendContact would have delivered. Used in
// development when no SMTP relay is configured.
func (s *Service) Simulate(r ContactRequest) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	return Result{
		Success:     true,
		Message:     "Email sent successfully (development mode)",
		Timestamp:   s.now().UTC().Format(time.RFC3339Nano),
		Development: true,
		Details: &ResultDetails{
			Recipient: s.config.OwnerEmail,
			Sender:    r.Email,
			Subject:   displaySubject(r),
		},
	}, nil
}

func (m Message) withTo(to, replyTo string) Message {
	m.To = []string{to}
	m.ReplyTo = replyTo
	return m
}
