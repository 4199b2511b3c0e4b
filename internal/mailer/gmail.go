package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"contact-form-service-go/internal/config"
)

const gmailSendAttempts = 3

// GmailTransport delivers mail through the Gmail API using an OAuth2 refresh
// token. Quota errors are retried with backoff; other errors are not.
type GmailTransport struct {
	service   *gmail.Service
	userEmail string
}

// NewGmailTransport creates a Gmail API transport
func NewGmailTransport(ctx context.Context, cfg config.GmailConfig) (*GmailTransport, error) {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}
	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailTransport{
		service:   service,
		userEmail: cfg.UserEmail,
	}, nil
}

func (t *GmailTransport) Send(ctx context.Context, e *email.Email) error {
	raw, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	message := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}

	var lastErr error
	for attempt := 1; attempt <= gmailSendAttempts; attempt++ {
		_, err := t.service.Users.Messages.Send(t.userEmail, message).Context(ctx).Do()
		if err == nil {
			return nil
		}

		lastErr = err
		logrus.Warnf("Failed to send email (attempt %d/%d): %v", attempt, gmailSendAttempts, err)

		if strings.Contains(err.Error(), "quota") || strings.Contains(err.Error(), "rate") {
			waitTime := time.Duration(attempt*attempt) * time.Second
			logrus.Infof("Rate limited, waiting %v before retry", waitTime)
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			break
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", gmailSendAttempts, lastErr)
}

// TestConnection verifies the Gmail API credentials
func (t *GmailTransport) TestConnection(ctx context.Context) error {
	if _, err := t.service.Users.GetProfile(t.userEmail).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to test Gmail API connection: %w", err)
	}
	return nil
}
