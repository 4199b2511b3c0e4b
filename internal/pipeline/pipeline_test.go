package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-form-service-go/internal/fields"
	"contact-form-service-go/internal/metrics"
	"contact-form-service-go/internal/model"
	"contact-form-service-go/internal/ratelimit"
	"contact-form-service-go/internal/spamcheck"
	"contact-form-service-go/internal/storage"
)

// Prometheus collectors register against the default registry once per
// binary, so all tests share one instance.
var testMetrics = metrics.NewMetrics()

type fakeMailer struct {
	sendCalls         int
	verificationCalls int
	autoReplyCalls    int
	lastToken         string
	lastMessage       *model.ContactMessage
	sendErr           error
	verificationErr   error
	autoReplyErr      error
}

func (f *fakeMailer) Send(ctx context.Context, msg *model.ContactMessage) ([]string, error) {
	f.sendCalls++
	f.lastMessage = msg
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return []string{"admin@example.com"}, nil
}

func (f *fakeMailer) SendVerification(ctx context.Context, msg *model.ContactMessage, token string) error {
	f.verificationCalls++
	f.lastToken = token
	return f.verificationErr
}

func (f *fakeMailer) SendAutoReply(ctx context.Context, msg *model.ContactMessage) error {
	f.autoReplyCalls++
	return f.autoReplyErr
}

type failingStorage struct {
	*storage.MemStorage
}

func (failingStorage) Save(ctx context.Context, msg *model.ContactMessage) error {
	return errors.New("connection refused")
}

type rejectingCaptcha struct{}

func (rejectingCaptcha) Validate(response, remoteIP string) bool { return false }
func (rejectingCaptcha) Enabled() bool                           { return true }
func (rejectingCaptcha) Provider() string                        { return "test" }

type testEnv struct {
	svc   *Service
	store *storage.MemStorage
	mail  *fakeMailer
	hooks *Hooks
}

func newTestEnv(t *testing.T, mode StorageMode, verification bool, mutate ...func(*Options)) *testEnv {
	t.Helper()

	store := storage.NewMemStorage()
	mail := &fakeMailer{}
	hooks := NewHooks()

	opts := Options{
		Storage:  store,
		Mailer:   mail,
		Honeypot: spamcheck.NewHoneypotCheck(""),
		Timing:   spamcheck.NewTimingCheck("", 3*time.Second),
		Limiter:  ratelimit.NewMemoryLimiter(100, 15*time.Minute),
		Schema: fields.NewSchema(nil,
			spamcheck.DefaultHoneypotField,
			spamcheck.DefaultTimingField,
			CaptchaResponseField,
		),
		Hooks:               hooks,
		Metrics:             testMetrics,
		Mode:                mode,
		VerificationEnabled: verification,
		TokenTTL:            24 * time.Hour,
	}
	for _, m := range mutate {
		m(&opts)
	}

	return &testEnv{svc: New(opts), store: store, mail: mail, hooks: hooks}
}

func submission() map[string]string {
	return map[string]string{
		"name":    "Alice",
		"email":   "alice@example.com",
		"subject": "Hello",
		"message": "A perfectly ordinary message.",
	}
}

func meta() RequestMeta {
	return RequestMeta{IPAddress: "203.0.113.7", UserAgent: "go-test", SessionID: "sess-1"}
}

func TestProcessHoneypotRejection(t *testing.T) {
	env := newTestEnv(t, ModeBoth, false)

	values := submission()
	values[spamcheck.DefaultHoneypotField] = "gotcha@example.com"

	_, err := env.svc.Process(context.Background(), values, meta())
	require.ErrorIs(t, err, ErrSpamDetected)

	assert.Equal(t, 0, env.store.Len())
	assert.Equal(t, 0, env.mail.sendCalls)
	assert.Equal(t, 0, env.mail.verificationCalls)
}

func TestProcessTimingRejection(t *testing.T) {
	env := newTestEnv(t, ModeEmail, false)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env.svc.SetNow(func() time.Time { return base })

	values := submission()
	values[spamcheck.DefaultTimingField] = fmt.Sprintf("%d", base.Unix()-2)

	_, err := env.svc.Process(context.Background(), values, meta())
	require.ErrorIs(t, err, ErrSpamDetected)
	assert.Equal(t, 0, env.mail.sendCalls)

	// Exactly at the minimum the submission passes
	values[spamcheck.DefaultTimingField] = fmt.Sprintf("%d", base.Unix()-3)
	_, err = env.svc.Process(context.Background(), values, meta())
	require.NoError(t, err)
	assert.Equal(t, 1, env.mail.sendCalls)
}

func TestProcessCaptchaRejection(t *testing.T) {
	env := newTestEnv(t, ModeEmail, false, func(o *Options) {
		o.Captcha = rejectingCaptcha{}
	})

	_, err := env.svc.Process(context.Background(), submission(), meta())
	require.ErrorIs(t, err, ErrSpamDetected)
	assert.Equal(t, 0, env.mail.sendCalls)
}

func TestProcessEmailOnlyMode(t *testing.T) {
	env := newTestEnv(t, ModeEmail, false)

	msg, err := env.svc.Process(context.Background(), submission(), meta())
	require.NoError(t, err)

	assert.True(t, msg.Verified)
	assert.Equal(t, uint(0), msg.ID)
	assert.Equal(t, 0, env.store.Len())
	assert.Equal(t, 1, env.mail.sendCalls)
	assert.Equal(t, 1, env.mail.autoReplyCalls)
}

func TestProcessDatabaseOnlyMode(t *testing.T) {
	env := newTestEnv(t, ModeDatabase, false)

	msg, err := env.svc.Process(context.Background(), submission(), meta())
	require.NoError(t, err)

	assert.True(t, msg.Verified)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, 1, env.store.Len())
	assert.Equal(t, 0, env.mail.sendCalls)
	assert.Equal(t, 0, env.mail.autoReplyCalls)
}

func TestProcessBothMode(t *testing.T) {
	env := newTestEnv(t, ModeBoth, false)

	msg, err := env.svc.Process(context.Background(), submission(), meta())
	require.NoError(t, err)

	assert.True(t, msg.Verified)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, 1, env.store.Len())
	assert.Equal(t, 1, env.mail.sendCalls)
	assert.Nil(t, msg.VerificationToken)
}

func TestProcessStampsRequestMeta(t *testing.T) {
	env := newTestEnv(t, ModeDatabase, false)

	msg, err := env.svc.Process(context.Background(), submission(), meta())
	require.NoError(t, err)

	assert.Equal(t, "203.0.113.7", msg.IPAddress)
	assert.Equal(t, "go-test", msg.UserAgent)
	assert.Equal(t, "Alice", msg.Name())
	assert.Equal(t, "alice@example.com", msg.Email())
}

func TestVerificationActive(t *testing.T) {
	assert.True(t, newTestEnv(t, ModeBoth, true).svc.VerificationActive())
	assert.False(t, newTestEnv(t, ModeBoth, false).svc.VerificationActive())
	assert.False(t, newTestEnv(t, ModeEmail, true).svc.VerificationActive())
	assert.False(t, newTestEnv(t, ModeDatabase, true).svc.VerificationActive())
}

func TestVerificationFlow(t *testing.T) {
	env := newTestEnv(t, ModeBoth, true)
	ctx := context.Background()

	msg, err := env.svc.Process(ctx, submission(), meta())
	require.NoError(t, err)

	// Pending: stored unverified with a token, admin not yet notified
	assert.False(t, msg.Verified)
	require.NotNil(t, msg.VerificationToken)
	assert.Regexp(t, "^[0-9a-f]{64}$", *msg.VerificationToken)
	assert.Equal(t, 1, env.mail.verificationCalls)
	assert.Equal(t, *msg.VerificationToken, env.mail.lastToken)
	assert.Equal(t, 0, env.mail.sendCalls)
	assert.Equal(t, 0, env.mail.autoReplyCalls)
	assert.Equal(t, 1, env.store.Len())

	verified, err := env.svc.Verify(ctx, *msg.VerificationToken)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	require.NotNil(t, verified.VerifiedAt)
	assert.Equal(t, msg.ID, verified.ID)
	assert.Equal(t, 1, env.mail.sendCalls)

	// The link only works once
	_, err = env.svc.Verify(ctx, *msg.VerificationToken)
	require.ErrorIs(t, err, ErrAlreadyVerified)
	assert.Equal(t, 1, env.mail.sendCalls)
}

func TestVerifyUnknownToken(t *testing.T) {
	env := newTestEnv(t, ModeBoth, true)

	_, err := env.svc.Verify(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenExpiry(t *testing.T) {
	env := newTestEnv(t, ModeBoth, true, func(o *Options) {
		o.TokenTTL = time.Hour
	})
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env.svc.SetNow(func() time.Time { return base })

	msg, err := env.svc.Process(ctx, submission(), meta())
	require.NoError(t, err)

	// One second before the deadline the token still works
	env.svc.SetNow(func() time.Time { return base.Add(time.Hour - time.Second) })
	_, err = env.svc.Verify(ctx, *msg.VerificationToken)
	require.NoError(t, err)

	env2 := newTestEnv(t, ModeBoth, true, func(o *Options) {
		o.TokenTTL = time.Hour
	})
	env2.svc.SetNow(func() time.Time { return base })
	msg2, err := env2.svc.Process(ctx, submission(), meta())
	require.NoError(t, err)

	env2.svc.SetNow(func() time.Time { return base.Add(time.Hour + time.Second) })
	_, err = env2.svc.Verify(ctx, *msg2.VerificationToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, 0, env2.mail.sendCalls)
}

func TestProcessRateLimited(t *testing.T) {
	env := newTestEnv(t, ModeEmail, false, func(o *Options) {
		o.Limiter = ratelimit.NewMemoryLimiter(3, 15*time.Minute)
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.svc.Process(ctx, submission(), meta())
		require.NoError(t, err)
	}

	_, err := env.svc.Process(ctx, submission(), meta())
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.True(t, rle.RetryAfter.After(time.Now()))
	assert.Equal(t, 3, env.mail.sendCalls)
}

func TestProcessValidation(t *testing.T) {
	env := newTestEnv(t, ModeEmail, false)

	values := submission()
	delete(values, "email")

	_, err := env.svc.Process(context.Background(), values, meta())
	var verr *fields.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "email")
	assert.Equal(t, 0, env.mail.sendCalls)
}

func TestPreSubmitHookVeto(t *testing.T) {
	env := newTestEnv(t, ModeBoth, false)
	env.hooks.OnPreSubmit(func(ctx context.Context, msg *model.ContactMessage) bool {
		return msg.Email() != "alice@example.com"
	})

	_, err := env.svc.Process(context.Background(), submission(), meta())
	require.ErrorIs(t, err, ErrProcessingPrevented)
	assert.Equal(t, 0, env.store.Len())
	assert.Equal(t, 0, env.mail.sendCalls)
}

func TestObserverHooks(t *testing.T) {
	env := newTestEnv(t, ModeBoth, true)
	ctx := context.Background()

	var persisted, emailed, verified int
	var recipients []string
	env.hooks.OnPersisted(func(ctx context.Context, msg *model.ContactMessage) { persisted++ })
	env.hooks.OnEmailSent(func(ctx context.Context, msg *model.ContactMessage, to []string) {
		emailed++
		recipients = to
	})
	env.hooks.OnVerified(func(ctx context.Context, msg *model.ContactMessage) { verified++ })

	msg, err := env.svc.Process(ctx, submission(), meta())
	require.NoError(t, err)
	assert.Equal(t, 1, persisted)
	assert.Equal(t, 0, emailed)
	assert.Equal(t, 0, verified)

	_, err = env.svc.Verify(ctx, *msg.VerificationToken)
	require.NoError(t, err)
	assert.Equal(t, 1, emailed)
	assert.Equal(t, []string{"admin@example.com"}, recipients)
	assert.Equal(t, 1, verified)
}

func TestProcessStorageFailure(t *testing.T) {
	env := newTestEnv(t, ModeBoth, false, func(o *Options) {
		o.Storage = failingStorage{storage.NewMemStorage()}
	})

	_, err := env.svc.Process(context.Background(), submission(), meta())
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 0, env.mail.sendCalls)
}

func TestProcessMailFailure(t *testing.T) {
	env := newTestEnv(t, ModeBoth, false)
	env.mail.sendErr = errors.New("smtp: connection reset")

	_, err := env.svc.Process(context.Background(), submission(), meta())
	var merr *MailError
	require.ErrorAs(t, err, &merr)

	// The message was already persisted before the notification failed
	assert.Equal(t, 1, env.store.Len())
}

func TestProcessAutoReplyFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t, ModeEmail, false)
	env.mail.autoReplyErr = errors.New("mailbox full")

	_, err := env.svc.Process(context.Background(), submission(), meta())
	require.NoError(t, err)
	assert.Equal(t, 1, env.mail.sendCalls)
	assert.Equal(t, 1, env.mail.autoReplyCalls)
}

func TestParseStorageMode(t *testing.T) {
	tests := []struct {
		in      string
		want    StorageMode
		wantErr bool
	}{
		{"email", ModeEmail, false},
		{"database", ModeDatabase, false},
		{"both", ModeBoth, false},
		{"filesystem", ModeEmail, true},
		{"", ModeEmail, true},
	}

	for _, tt := range tests {
		got, err := ParseStorageMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in, got.String())
	}
}

func TestStorageModeBranches(t *testing.T) {
	assert.False(t, ModeEmail.Persists())
	assert.True(t, ModeEmail.Emails())
	assert.True(t, ModeDatabase.Persists())
	assert.False(t, ModeDatabase.Emails())
	assert.True(t, ModeBoth.Persists())
	assert.True(t, ModeBoth.Emails())
}
