package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jordan-wright/email"

	"contact-form-service-go/internal/model"
)

// fallbackFromAddress guarantees outgoing mail always has a from address
const fallbackFromAddress = "noreply@example.com"

// Transport delivers a composed email message
type Transport interface {
	Send(ctx context.Context, e *email.Email) error
}

// Mailer sends contact form notifications. Sender is the interface consumed
// by the submission pipeline.
type Sender interface {
	Send(ctx context.Context, msg *model.ContactMessage) ([]string, error)
	SendVerification(ctx context.Context, msg *model.ContactMessage, token string) error
	SendAutoReply(ctx context.Context, msg *model.ContactMessage) error
}

// Options configures a Mailer
type Options struct {
	Recipients       []string
	FromEmail        string
	FromName         string
	SubjectPrefix    string
	SendCopyToSender bool
	EnableAutoReply  bool
	VerifyBaseURL    string
	FieldOrder       []string
}

// Mailer composes and sends the admin notification, verification and
// auto-reply emails over a pluggable transport.
type Mailer struct {
	transport Transport
	opts      Options
}

// New creates a Mailer
func New(transport Transport, opts Options) *Mailer {
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = "[Contact Form]"
	}
	if opts.FromName == "" {
		opts.FromName = "Contact Form"
	}
	return &Mailer{transport: transport, opts: opts}
}

// Send delivers the administrator notification and returns the recipient
// addresses it was sent to. The sender address is set as Reply-To when
// present, and CCed a copy when configured. The copy is skipped when the
// message went through email verification, whose confirmation email already
// carried the content.
func (m *Mailer) Send(ctx context.Context, msg *model.ContactMessage) ([]string, error) {
	e := email.NewEmail()
	e.From = m.fromHeader(msg.Email())
	e.To = append([]string(nil), m.opts.Recipients...)
	e.Subject = m.buildSubject(msg)
	e.Text = []byte(m.renderMessageBody(msg))

	if sender := msg.Email(); sender != "" {
		e.ReplyTo = []string{formatAddress(msg.Name(), sender)}
		if m.opts.SendCopyToSender && msg.VerificationToken == nil {
			e.Cc = []string{sender}
		}
	}

	if err := m.transport.Send(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to send notification email: %w", err)
	}
	return m.opts.Recipients, nil
}

// SendVerification delivers the confirmation email to the sender. It carries
// the submitted content and the verification link; without a sender address
// there is no one to confirm, so that is an error.
func (m *Mailer) SendVerification(ctx context.Context, msg *model.ContactMessage, token string) error {
	sender := msg.Email()
	if sender == "" {
		return fmt.Errorf("cannot send verification email: sender address missing")
	}

	var b strings.Builder
	b.WriteString("Please confirm your contact request by opening the link below.\r\n\r\n")
	b.WriteString(m.opts.VerifyBaseURL + "/contact/verify/" + token + "\r\n\r\n")
	b.WriteString("Your message:\r\n\r\n")
	b.WriteString(m.renderMessageBody(msg))
	b.WriteString("\r\nIf you did not submit this form you can ignore this email.\r\n")

	e := email.NewEmail()
	e.From = m.fromHeader("")
	e.To = []string{sender}
	e.Subject = m.opts.SubjectPrefix + " Please confirm your message"
	e.Text = []byte(b.String())

	if err := m.transport.Send(ctx, e); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// SendAutoReply delivers the automatic acknowledgement to the sender. It is
// a no-op when auto-reply is disabled or the sender left no address.
func (m *Mailer) SendAutoReply(ctx context.Context, msg *model.ContactMessage) error {
	sender := msg.Email()
	if !m.opts.EnableAutoReply || sender == "" {
		return nil
	}

	var b strings.Builder
	b.WriteString("Thank you for your message. We received it and will get back to you shortly.\r\n\r\n")
	b.WriteString("Your message:\r\n\r\n")
	b.WriteString(m.renderMessageBody(msg))

	e := email.NewEmail()
	e.From = m.fromHeader("")
	e.To = []string{sender}
	e.Subject = m.opts.SubjectPrefix + " We received your message"
	e.Text = []byte(b.String())

	if err := m.transport.Send(ctx, e); err != nil {
		return fmt.Errorf("failed to send auto-reply email: %w", err)
	}
	return nil
}

// buildSubject builds the notification subject from the configured prefix
// and the submitted subject, falling back to the sender name.
func (m *Mailer) buildSubject(msg *model.ContactMessage) string {
	switch {
	case msg.Subject() != "":
		return m.opts.SubjectPrefix + " " + msg.Subject()
	case msg.Name() != "":
		return m.opts.SubjectPrefix + " from " + msg.Name()
	default:
		return m.opts.SubjectPrefix + " New message"
	}
}

// fromHeader resolves the from address: configured address first, then the
// sender's own address (admin notification only), then the fallback.
func (m *Mailer) fromHeader(senderEmail string) string {
	addr := m.opts.FromEmail
	if addr == "" {
		addr = senderEmail
	}
	if addr == "" {
		addr = fallbackFromAddress
	}
	return formatAddress(m.opts.FromName, addr)
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}
