package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"
)

// DefaultSubject is used when the pick sheet had no subject
const DefaultSubject = "OG FOOTBALL LEAGUE"

const successBody = `Reclaimer,

This is our notification that the spread was processed and saved.


-- Arbiter
`

const failureBody = `Reclaimer,

The spread could not be processed and nothing was saved.

Reason: %s


-- Arbiter
`

// Acknowledgment is the reply to one pick sheet
type Acknowledgment struct {
	IngestID string
	// To is the sheet's sender; From is the address it was sent to
	To      string
	From    string
	Subject string
	Err     error
}

// Body renders the reply text
func (a Acknowledgment) Body() string {
	if a.Err != nil {
		return fmt.Sprintf(failureBody, a.Err)
	}
	return successBody
}

// Acknowledger replies to the sender of a pick sheet
type Acknowledger interface {
	Acknowledge(ctx context.Context, ack Acknowledgment) error
}

// LogAcknowledger writes replies to the log instead of sending them
type LogAcknowledger struct{}

// Acknowledge logs the reply
func (LogAcknowledger) Acknowledge(_ context.Context, ack Acknowledgment) error {
	event := log.Info()
	if ack.Err != nil {
		event = log.Warn().AnErr("reason", ack.Err)
	}
	event.
		Str("ingest_id", ack.IngestID).
		Str("to", ack.To).
		Str("subject", ack.Subject).
		Msg("Acknowledgment not mailed, no SMTP host configured")
	return nil
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Sender is used when the sheet's recipient address is unknown
	Sender string
}

// SMTPAcknowledger mails replies through an SMTP relay
type SMTPAcknowledger struct {
	cfg SMTPConfig
}

// NewSMTPAcknowledger creates an SMTP acknowledger
func NewSMTPAcknowledger(cfg SMTPConfig) *SMTPAcknowledger {
	return &SMTPAcknowledger{cfg: cfg}
}

// Acknowledge sends the reply
func (a *SMTPAcknowledger) Acknowledge(ctx context.Context, ack Acknowledgment) error {
	msg, err := a.message(ack)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(a.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if a.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(a.cfg.Username),
			gomail.WithPassword(a.cfg.Password),
		)
	}

	client, err := gomail.NewClient(a.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send acknowledgment: %w", err)
	}

	log.Info().Str("ingest_id", ack.IngestID).Str("to", ack.To).Msg("Acknowledgment sent")
	return nil
}

func (a *SMTPAcknowledger) message(ack Acknowledgment) (*gomail.Msg, error) {
	from := ack.From
	if strings.TrimSpace(from) == "" {
		from = a.cfg.Sender
	}
	subject := ack.Subject
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}

	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		if from == a.cfg.Sender {
			return nil, fmt.Errorf("invalid sender %q: %w", from, err)
		}
		log.Debug().Err(err).Str("from", from).Msg("Unusable reply address, using configured sender")
		if err := msg.From(a.cfg.Sender); err != nil {
			return nil, fmt.Errorf("invalid sender %q: %w", a.cfg.Sender, err)
		}
	}
	if err := msg.To(ack.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", ack.To, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, ack.Body())
	return msg, nil
}
