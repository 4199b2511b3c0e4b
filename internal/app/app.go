package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"contact-form-service-go/internal/config"
	"contact-form-service-go/internal/db"
	"contact-form-service-go/internal/fields"
	"contact-form-service-go/internal/handler"
	"contact-form-service-go/internal/mailer"
	"contact-form-service-go/internal/metrics"
	"contact-form-service-go/internal/pipeline"
	"contact-form-service-go/internal/ratelimit"
	"contact-form-service-go/internal/router"
	"contact-form-service-go/internal/scheduler"
	"contact-form-service-go/internal/spamcheck"
	"contact-form-service-go/internal/storage"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Contact Form Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	mode, err := pipeline.ParseStorageMode(cfg.Contact.Storage)
	if err != nil {
		return err
	}

	var dbConn *gorm.DB
	var store storage.Storage = storage.NewNullStorage()
	if mode.Persists() {
		dbConn, err = db.Init(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		store = storage.NewGormStorage(dbConn)
	}

	m := metrics.NewMetrics()

	limiter, err := newLimiter(cfg)
	if err != nil {
		return err
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return err
	}

	schema := fields.FromConfig(cfg.Contact.Fields,
		cfg.Contact.Spam.HoneypotField,
		cfg.Contact.Spam.TimingField,
		pipeline.CaptchaResponseField,
	)
	fieldOrder := make([]string, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		fieldOrder = append(fieldOrder, f.Name)
	}

	send := mailer.New(transport, mailer.Options{
		Recipients:       cfg.Mailer.Recipients,
		FromEmail:        cfg.Mailer.FromEmail,
		FromName:         cfg.Mailer.FromName,
		SubjectPrefix:    cfg.Mailer.SubjectPrefix,
		SendCopyToSender: cfg.Mailer.SendCopyToSender,
		EnableAutoReply:  cfg.Mailer.EnableAutoReply,
		VerifyBaseURL:    cfg.Contact.PublicBaseURL,
		FieldOrder:       fieldOrder,
	})

	tokenTTL := config.ParseInterval(cfg.Contact.EmailVerification.TokenTTL, 24*time.Hour)

	p := pipeline.New(pipeline.Options{
		Storage:             store,
		Mailer:              send,
		Honeypot:            spamcheck.NewHoneypotCheck(cfg.Contact.Spam.HoneypotField),
		Timing:              spamcheck.NewTimingCheck(cfg.Contact.Spam.TimingField, time.Duration(cfg.Contact.Spam.MinSubmitTime)*time.Second),
		Captcha:             spamcheck.NullCaptchaValidator{},
		Limiter:             limiter,
		Schema:              schema,
		Hooks:               pipeline.NewHooks(),
		Metrics:             m,
		Mode:                mode,
		VerificationEnabled: cfg.Contact.EmailVerification.Enabled,
		TokenTTL:            tokenTTL,
	})

	var sched *scheduler.Scheduler
	if p.VerificationActive() {
		sched = scheduler.NewScheduler(cfg.Contact.Retention, dbConn, m, tokenTTL)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start retention scheduler: %w", err)
		}
	}

	h := handler.NewHandlers(dbConn, p, sched)
	r := router.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(); err != nil {
			logrus.Errorf("Failed to stop retention scheduler: %v", err)
		}
		sched.Wait()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

// newLimiter selects the rate limiter backend. Without a redis address the
// quota is tracked in process memory.
func newLimiter(cfg *config.Config) (ratelimit.Limiter, error) {
	limit := cfg.Contact.Spam.RateLimit.Limit
	interval := config.ParseInterval(cfg.Contact.Spam.RateLimit.Interval, 15*time.Minute)

	if cfg.Redis.Addr == "" {
		logrus.Info("Using in-process rate limiter")
		return ratelimit.NewMemoryLimiter(limit, interval), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	logrus.Infof("Using redis rate limiter at %s", cfg.Redis.Addr)
	return ratelimit.NewRedisLimiter(client, limit, interval), nil
}

// newTransport selects the mail transport from configuration
func newTransport(cfg *config.Config) (mailer.Transport, error) {
	switch cfg.Mailer.Transport {
	case "gmail":
		t, err := mailer.NewGmailTransport(context.Background(), cfg.Mailer.Gmail)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gmail transport: %w", err)
		}
		if err := t.TestConnection(context.Background()); err != nil {
			logrus.Warnf("Gmail API connection test failed: %v", err)
		}
		logrus.Info("Using Gmail API for email delivery")
		return t, nil
	default:
		logrus.Info("Using SMTP for email delivery")
		return mailer.NewSMTPTransport(cfg.Mailer.SMTP), nil
	}
}
