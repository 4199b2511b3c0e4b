package pipeline

import (
	"context"

	"contact-form-service-go/internal/model"
)

// PreSubmitHook runs after the spam checks and before any side effect. A
// false return aborts processing.
type PreSubmitHook func(ctx context.Context, msg *model.ContactMessage) bool

// PersistedHook runs after a message was written to storage
type PersistedHook func(ctx context.Context, msg *model.ContactMessage)

// EmailSentHook runs after the admin notification was sent, with the actual
// recipient addresses
type EmailSentHook func(ctx context.Context, msg *model.ContactMessage, recipients []string)

// VerifiedHook runs after a pending message was confirmed
type VerifiedHook func(ctx context.Context, msg *model.ContactMessage)

// Hooks is the registry of pipeline extension points. Hooks run synchronously
// in registration order within the submitting request.
type Hooks struct {
	preSubmit []PreSubmitHook
	persisted []PersistedHook
	emailSent []EmailSentHook
	verified  []VerifiedHook
}

// NewHooks creates an empty hook registry
func NewHooks() *Hooks {
	return &Hooks{}
}

// OnPreSubmit registers a veto hook
func (h *Hooks) OnPreSubmit(hook PreSubmitHook) {
	h.preSubmit = append(h.preSubmit, hook)
}

// OnPersisted registers a persistence observer
func (h *Hooks) OnPersisted(hook PersistedHook) {
	h.persisted = append(h.persisted, hook)
}

// OnEmailSent registers a notification observer
func (h *Hooks) OnEmailSent(hook EmailSentHook) {
	h.emailSent = append(h.emailSent, hook)
}

// OnVerified registers a verification observer
func (h *Hooks) OnVerified(hook VerifiedHook) {
	h.verified = append(h.verified, hook)
}

// runPreSubmit reports whether processing may continue
func (h *Hooks) runPreSubmit(ctx context.Context, msg *model.ContactMessage) bool {
	for _, hook := range h.preSubmit {
		if !hook(ctx, msg) {
			return false
		}
	}
	return true
}

func (h *Hooks) runPersisted(ctx context.Context, msg *model.ContactMessage) {
	for _, hook := range h.persisted {
		hook(ctx, msg)
	}
}

func (h *Hooks) runEmailSent(ctx context.Context, msg *model.ContactMessage, recipients []string) {
	for _, hook := range h.emailSent {
		hook(ctx, msg, recipients)
	}
}

func (h *Hooks) runVerified(ctx context.Context, msg *model.ContactMessage) {
	for _, hook := range h.verified {
		hook(ctx, msg)
	}
}
