package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nao1215/riskscope/internal/model"
)

const (
	// DefaultSMTPPort is the submission port used when none is configured.
	DefaultSMTPPort = 587

	// DefaultEmailAttempts is how many times a message is tried.
	DefaultEmailAttempts = 3

	// DefaultEmailRetryDelay is the constant delay between attempts.
	DefaultEmailRetryDelay = time.Second
)

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailConfig configures the SMTP notifier.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Email sends alerts over SMTP. smtp.SendMail upgrades the connection with
// STARTTLS whenever the server offers it; PLAIN auth is used when a username
// is configured.
type Email struct {
	cfg      EmailConfig
	attempts int
	delay    time.Duration
	send     sendFunc
}

// EmailOption configures an Email notifier.
type EmailOption func(*Email)

// WithEmailRetry overrides the attempt count and delay.
func WithEmailRetry(attempts int, delay time.Duration) EmailOption {
	return func(e *Email) {
		if attempts > 0 {
			e.attempts = attempts
		}
		if delay >= 0 {
			e.delay = delay
		}
	}
}

func withSendFunc(send sendFunc) EmailOption {
	return func(e *Email) {
		e.send = send
	}
}

// NewEmail creates an SMTP notifier.
func NewEmail(cfg EmailConfig, opts ...EmailOption) (*Email, error) {
	if cfg.Host == "" {
		return nil, ErrMissingEndpoint
	}
	if len(cfg.To) == 0 {
		return nil, ErrNoRecipients
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	e := &Email{
		cfg:      cfg,
		attempts: DefaultEmailAttempts,
		delay:    DefaultEmailRetryDelay,
		send:     smtp.SendMail,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name implements Notifier.
func (e *Email) Name() string { return ChannelEmail }

// Notify implements Notifier.
func (e *Email) Notify(ctx context.Context, d model.Decision) error {
	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))
	msg := e.message(d)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(e.delay), uint64(e.attempts-1)), //nolint:gosec // attempts is at least 1
		ctx,
	)
	err := backoff.Retry(func() error {
		return e.send(addr, auth, e.cfg.From, e.cfg.To, msg)
	}, policy)
	if err != nil {
		return fmt.Errorf("failed to send email after %d attempt(s): %w", e.attempts, err)
	}
	return nil
}

// EmailSubject returns the subject line for d.
func EmailSubject(d model.Decision) string {
	return fmt.Sprintf("[riskscope] %s alert (score %d)", d.Kind, d.CombinedScore)
}

func (e *Email) message(d model.Decision) []byte {
	var b strings.Builder
	b.WriteString("From: " + e.cfg.From + "\r\n")
	b.WriteString("To: " + strings.Join(e.cfg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + EmailSubject(d) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "kind: %s\r\n", d.Kind)
	fmt.Fprintf(&b, "score: %d\r\n", d.CombinedScore)
	fmt.Fprintf(&b, "action: %s\r\n", d.Action)
	fmt.Fprintf(&b, "input: %s\r\n", d.InputRef)
	if d.RequestID != "" {
		fmt.Fprintf(&b, "request id: %s\r\n", d.RequestID)
	}
	fmt.Fprintf(&b, "\r\n%s\r\n", d.Reason)
	return []byte(b.String())
}
