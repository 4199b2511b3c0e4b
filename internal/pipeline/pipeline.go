package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"contact-form-service-go/internal/fields"
	"contact-form-service-go/internal/mailer"
	"contact-form-service-go/internal/metrics"
	"contact-form-service-go/internal/model"
	"contact-form-service-go/internal/ratelimit"
	"contact-form-service-go/internal/spamcheck"
	"contact-form-service-go/internal/storage"
)

// CaptchaResponseField carries the captcha response token when a provider is
// enabled. It is infrastructure and never part of the message data.
const CaptchaResponseField = "captcha_response"

// RequestMeta carries the request attributes the pipeline stamps on messages
type RequestMeta struct {
	IPAddress string
	UserAgent string
	SessionID string
}

// Options configures a pipeline Service
type Options struct {
	Storage             storage.Storage
	Mailer              mailer.Sender
	Honeypot            *spamcheck.HoneypotCheck
	Timing              *spamcheck.TimingCheck
	Captcha             spamcheck.CaptchaValidator
	Limiter             ratelimit.Limiter
	Schema              *fields.Schema
	Hooks               *Hooks
	Metrics             *metrics.Metrics
	Mode                StorageMode
	VerificationEnabled bool
	TokenTTL            time.Duration
}

// Service is the contact form submission pipeline. It runs the spam checks in
// order, branches on storage mode and verification settings, and owns the
// verification token lifecycle.
type Service struct {
	storage  storage.Storage
	mailer   mailer.Sender
	honeypot *spamcheck.HoneypotCheck
	timing   *spamcheck.TimingCheck
	captcha  spamcheck.CaptchaValidator
	limiter  ratelimit.Limiter
	schema   *fields.Schema
	hooks    *Hooks
	metrics  *metrics.Metrics

	mode                StorageMode
	verificationEnabled bool
	tokenTTL            time.Duration

	now func() time.Time
}

// New creates a submission pipeline
func New(opts Options) *Service {
	if opts.Captcha == nil {
		opts.Captcha = spamcheck.NullCaptchaValidator{}
	}
	if opts.Hooks == nil {
		opts.Hooks = NewHooks()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Service{
		storage:             opts.Storage,
		mailer:              opts.Mailer,
		honeypot:            opts.Honeypot,
		timing:              opts.Timing,
		captcha:             opts.Captcha,
		limiter:             opts.Limiter,
		schema:              opts.Schema,
		hooks:               opts.Hooks,
		metrics:             opts.Metrics,
		mode:                opts.Mode,
		verificationEnabled: opts.VerificationEnabled,
		tokenTTL:            opts.TokenTTL,
		now:                 time.Now,
	}
}

// VerificationActive reports whether the email verification gate applies.
// Verification needs the database for the pending message and email for the
// confirmation link, so it is only active in "both" mode.
func (s *Service) VerificationActive() bool {
	return s.verificationEnabled && s.mode == ModeBoth
}

// Process runs a submission through the pipeline and returns the resulting
// message. Checks run cheapest first: the in-memory spam checks reject
// obvious bots before the rate limiter touches its backing store, and both
// run before any persistence or mail I/O.
func (s *Service) Process(ctx context.Context, values map[string]string, meta RequestMeta) (*model.ContactMessage, error) {
	started := s.now()
	s.metrics.SubmissionCount.Inc()
	defer func() {
		s.metrics.ProcessingTime.Observe(time.Since(started).Seconds())
	}()

	if !s.honeypot.Validate(values) {
		s.metrics.SpamRejectedCount.Inc()
		return nil, fmt.Errorf("honeypot check failed: %w", ErrSpamDetected)
	}

	if !s.timing.Validate(values, s.now()) {
		s.metrics.SpamRejectedCount.Inc()
		return nil, fmt.Errorf("timing check failed: %w", ErrSpamDetected)
	}

	if s.captcha.Enabled() && !s.captcha.Validate(values[CaptchaResponseField], meta.IPAddress) {
		s.metrics.SpamRejectedCount.Inc()
		return nil, fmt.Errorf("captcha check failed (%s): %w", s.captcha.Provider(), ErrSpamDetected)
	}

	identity := ratelimit.Identity(meta.IPAddress, meta.SessionID)
	decision, err := s.limiter.Allow(ctx, identity)
	if err != nil {
		// Fail open: the limiter already allowed the request
		logrus.Warnf("Rate limiter error for %s: %v", identity, err)
	}
	if !decision.Allowed {
		s.metrics.RateLimitedCount.Inc()
		return nil, &RateLimitError{RetryAfter: decision.RetryAfter}
	}

	data, err := s.schema.Extract(values)
	if err != nil {
		return nil, err
	}

	msg := &model.ContactMessage{
		Data:      data,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: s.now(),
	}

	if !s.hooks.runPreSubmit(ctx, msg) {
		return nil, ErrProcessingPrevented
	}

	if s.VerificationActive() {
		return s.processWithVerification(ctx, msg)
	}
	return s.processStandard(ctx, msg)
}

// processWithVerification stores the message as pending and asks the sender
// to confirm. The admin notification is deferred until verification.
func (s *Service) processWithVerification(ctx context.Context, msg *model.ContactMessage) (*model.ContactMessage, error) {
	token, err := newVerificationToken()
	if err != nil {
		return nil, err
	}
	msg.VerificationToken = &token
	msg.Verified = false

	if err := s.storage.Save(ctx, msg); err != nil {
		return nil, &StorageError{Err: err}
	}
	s.metrics.StoredCount.Inc()
	s.hooks.runPersisted(ctx, msg)

	if err := s.mailer.SendVerification(ctx, msg, token); err != nil {
		s.metrics.EmailFailedCount.Inc()
		return nil, &MailError{Err: err}
	}
	s.metrics.EmailSentCount.Inc()

	logrus.Infof("Contact message %d stored pending verification", msg.ID)
	return msg, nil
}

// processStandard persists and/or notifies according to the storage mode
func (s *Service) processStandard(ctx context.Context, msg *model.ContactMessage) (*model.ContactMessage, error) {
	msg.Verified = true

	if s.mode.Persists() {
		if err := s.storage.Save(ctx, msg); err != nil {
			return nil, &StorageError{Err: err}
		}
		s.metrics.StoredCount.Inc()
		s.hooks.runPersisted(ctx, msg)
	}

	if s.mode.Emails() {
		recipients, err := s.mailer.Send(ctx, msg)
		if err != nil {
			s.metrics.EmailFailedCount.Inc()
			return nil, &MailError{Err: err}
		}
		s.metrics.EmailSentCount.Inc()
		s.hooks.runEmailSent(ctx, msg, recipients)

		// Auto-reply is best effort; a failure must not fail a submission
		// that was already delivered to the operators
		if err := s.mailer.SendAutoReply(ctx, msg); err != nil {
			s.metrics.EmailFailedCount.Inc()
			logrus.Warnf("Failed to send auto-reply for message %d: %v", msg.ID, err)
		}
	}

	logrus.Infof("Contact message processed (mode %s, id %d)", s.mode, msg.ID)
	return msg, nil
}

// Verify resolves a verification token, marks the pending message verified
// and sends the deferred admin notification.
func (s *Service) Verify(ctx context.Context, token string) (*model.ContactMessage, error) {
	msg, err := s.storage.FindByVerificationToken(ctx, token)
	if err != nil {
		return nil, &StorageError{Err: err}
	}
	if msg == nil {
		return nil, ErrInvalidToken
	}

	// Token reuse is rejected, not silently accepted
	if msg.Verified {
		return nil, ErrAlreadyVerified
	}

	expiresAt := msg.CreatedAt.Add(s.tokenTTL)
	if s.now().After(expiresAt) {
		return nil, ErrTokenExpired
	}

	now := s.now()
	msg.Verified = true
	msg.VerifiedAt = &now
	if err := s.storage.Save(ctx, msg); err != nil {
		return nil, &StorageError{Err: err}
	}

	// The deferred admin notification the verification gate exists for
	recipients, err := s.mailer.Send(ctx, msg)
	if err != nil {
		s.metrics.EmailFailedCount.Inc()
		return nil, &MailError{Err: err}
	}
	s.metrics.EmailSentCount.Inc()
	s.hooks.runEmailSent(ctx, msg, recipients)

	s.metrics.VerifiedCount.Inc()
	s.hooks.runVerified(ctx, msg)

	logrus.Infof("Contact message %d verified", msg.ID)
	return msg, nil
}

// TokenTTL returns the configured verification token lifetime
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

// SetNow overrides the pipeline clock, for tests
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}
