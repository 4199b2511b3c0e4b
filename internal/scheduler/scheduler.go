package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"contact-form-service-go/internal/config"
	"contact-form-service-go/internal/metrics"
	"contact-form-service-go/internal/model"
)

// Scheduler periodically purges unverified contact messages whose
// verification token expired. Verified messages are never touched.
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	db        *gorm.DB
	metrics   *metrics.Metrics
	interval  int
	tokenTTL  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
}

// NewScheduler creates a retention scheduler
func NewScheduler(cfg config.RetentionConfig, db *gorm.DB, m *metrics.Metrics, tokenTTL time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	interval := cfg.PurgeIntervalMinutes
	if interval <= 0 {
		interval = 60
	}

	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		db:       db,
		metrics:  m,
		interval: interval,
		tokenTTL: tokenTTL,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	// @every keeps intervals of 60 minutes and above exact; a */n minute
	// expression would wrap around the hour
	schedule := fmt.Sprintf("@every %dm", s.interval)

	entryID, err := s.cron.AddFunc(schedule, s.purgeExpired)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Retention scheduler started with interval: %d minutes", s.interval)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	s.cron.Remove(s.entryID)
	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Retention scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Retention scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// purgeExpired deletes unverified messages whose token can no longer be
// redeemed
func (s *Scheduler) purgeExpired() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		return
	}
	s.mu.RUnlock()

	cutoff := time.Now().Add(-s.tokenTTL)

	result := s.db.WithContext(s.ctx).
		Where("verified = ? AND created_at < ?", false, cutoff).
		Delete(&model.ContactMessage{})
	if result.Error != nil {
		logrus.Errorf("Failed to purge expired messages: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		s.metrics.PurgedCount.Add(float64(result.RowsAffected))
		logrus.Infof("Purged %d expired unverified messages", result.RowsAffected)
	}
}

// RunOnce runs the purge once (for manual triggering)
func (s *Scheduler) RunOnce() {
	s.purgeExpired()
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRun returns the time of the last run
func (s *Scheduler) GetLastRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Prev
}

// Wait waits for in-flight purge runs to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
