package spamcheck

// CaptchaValidator validates captcha responses. Concrete providers are
// plugged in from the outside; the null validator is the default.
type CaptchaValidator interface {
	Validate(response, remoteIP string) bool
	Enabled() bool
	Provider() string
}

// NullCaptchaValidator is a disabled pass-through validator
type NullCaptchaValidator struct{}

func (NullCaptchaValidator) Validate(response, remoteIP string) bool {
	return true
}

func (NullCaptchaValidator) Enabled() bool {
	return false
}

func (NullCaptchaValidator) Provider() string {
	return "none"
}
