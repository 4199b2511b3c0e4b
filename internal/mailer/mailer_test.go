package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-form-service-go/internal/model"
)

type captureTransport struct {
	sent []*email.Email
	err  error
}

func (t *captureTransport) Send(ctx context.Context, e *email.Email) error {
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, e)
	return nil
}

func (t *captureTransport) last() *email.Email {
	return t.sent[len(t.sent)-1]
}

func testMessage() *model.ContactMessage {
	return &model.ContactMessage{
		ID: 7,
		Data: model.FormData{
			"name":    "Alice",
			"email":   "alice@example.com",
			"subject": "Broken login",
			"message": "I cannot log in since yesterday.",
		},
		IPAddress: "203.0.113.7",
		UserAgent: "Mozilla/5.0",
	}
}

func newTestMailer(opts Options) (*Mailer, *captureTransport) {
	transport := &captureTransport{}
	if len(opts.Recipients) == 0 {
		opts.Recipients = []string{"admin@example.com"}
	}
	if len(opts.FieldOrder) == 0 {
		opts.FieldOrder = []string{"name", "email", "subject", "message"}
	}
	return New(transport, opts), transport
}

func TestSendNotification(t *testing.T) {
	m, transport := newTestMailer(Options{
		FromEmail: "forms@example.com",
		FromName:  "Example Forms",
	})

	recipients, err := m.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@example.com"}, recipients)

	e := transport.last()
	assert.Equal(t, "Example Forms <forms@example.com>", e.From)
	assert.Equal(t, []string{"admin@example.com"}, e.To)
	assert.Equal(t, []string{"Alice <alice@example.com>"}, e.ReplyTo)
	assert.Empty(t, e.Cc)
	assert.Equal(t, "[Contact Form] Broken login", e.Subject)
}

func TestSendBodyContent(t *testing.T) {
	m, transport := newTestMailer(Options{FromEmail: "forms@example.com"})

	_, err := m.Send(context.Background(), testMessage())
	require.NoError(t, err)

	body := string(transport.last().Text)
	assert.Contains(t, body, "Name: Alice")
	assert.Contains(t, body, "Email: alice@example.com")
	assert.Contains(t, body, "Subject: Broken login")
	assert.Contains(t, body, "IP: 203.0.113.7")
	assert.Contains(t, body, "User-Agent: Mozilla/5.0")

	// Declared fields render before any custom extras
	msg := testMessage()
	msg.Data["company"] = "ACME"
	_, err = m.Send(context.Background(), msg)
	require.NoError(t, err)
	body = string(transport.last().Text)
	assert.Less(t, indexOf(t, body, "Message:"), indexOf(t, body, "Company: ACME"))
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "%q not found", needle)
	return idx
}

func TestSendHandlesEmptyFieldName(t *testing.T) {
	m, transport := newTestMailer(Options{FromEmail: "forms@example.com"})

	msg := testMessage()
	msg.Data[""] = "boom"

	_, err := m.Send(context.Background(), msg)
	require.NoError(t, err)

	body := string(transport.last().Text)
	assert.NotContains(t, body, "boom")
	assert.Contains(t, body, "Name: Alice")
}

func TestSubjectFallbacks(t *testing.T) {
	m, transport := newTestMailer(Options{SubjectPrefix: "[Site]"})

	msg := testMessage()
	delete(msg.Data, "subject")
	_, err := m.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "[Site] from Alice", transport.last().Subject)

	delete(msg.Data, "name")
	_, err = m.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "[Site] New message", transport.last().Subject)
}

func TestFromFallbackChain(t *testing.T) {
	// No configured address: the sender's own address is used for the
	// admin notification
	m, transport := newTestMailer(Options{FromName: ""})
	_, err := m.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, "Contact Form <alice@example.com>", transport.last().From)

	// No sender address either: the fallback applies
	msg := testMessage()
	delete(msg.Data, "email")
	_, err = m.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "Contact Form <noreply@example.com>", transport.last().From)
	assert.Empty(t, transport.last().ReplyTo)
}

func TestSendCopyToSender(t *testing.T) {
	m, transport := newTestMailer(Options{SendCopyToSender: true})

	_, err := m.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, transport.last().Cc)

	// The copy is suppressed for messages that went through verification;
	// the confirmation email already carried the content
	token := "ab12"
	msg := testMessage()
	msg.VerificationToken = &token
	_, err = m.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, transport.last().Cc)
}

func TestSendVerification(t *testing.T) {
	m, transport := newTestMailer(Options{
		FromEmail:     "forms@example.com",
		VerifyBaseURL: "https://example.com",
	})

	token := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	err := m.SendVerification(context.Background(), testMessage(), token)
	require.NoError(t, err)

	e := transport.last()
	assert.Equal(t, []string{"alice@example.com"}, e.To)
	assert.Equal(t, "[Contact Form] Please confirm your message", e.Subject)
	assert.Contains(t, string(e.Text), "https://example.com/contact/verify/"+token)
	assert.Contains(t, string(e.Text), "I cannot log in since yesterday.")
}

func TestSendVerificationRequiresSenderAddress(t *testing.T) {
	m, transport := newTestMailer(Options{})

	msg := testMessage()
	delete(msg.Data, "email")
	err := m.SendVerification(context.Background(), msg, "abcd")
	assert.Error(t, err)
	assert.Empty(t, transport.sent)
}

func TestSendAutoReply(t *testing.T) {
	m, transport := newTestMailer(Options{EnableAutoReply: true})

	err := m.SendAutoReply(context.Background(), testMessage())
	require.NoError(t, err)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, []string{"alice@example.com"}, transport.last().To)
	assert.Equal(t, "[Contact Form] We received your message", transport.last().Subject)
}

func TestSendAutoReplySkipped(t *testing.T) {
	m, transport := newTestMailer(Options{EnableAutoReply: false})
	require.NoError(t, m.SendAutoReply(context.Background(), testMessage()))
	assert.Empty(t, transport.sent)

	m, transport = newTestMailer(Options{EnableAutoReply: true})
	msg := testMessage()
	delete(msg.Data, "email")
	require.NoError(t, m.SendAutoReply(context.Background(), msg))
	assert.Empty(t, transport.sent)
}

func TestSendTransportFailure(t *testing.T) {
	transport := &captureTransport{err: assert.AnError}
	m := New(transport, Options{Recipients: []string{"admin@example.com"}})

	_, err := m.Send(context.Background(), testMessage())
	assert.ErrorContains(t, err, "failed to send notification email")
}
