package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/models"
	"github.com/skovtun/wayplan/pkg/logger"
)

const (
	defaultRetention = 30 * 24 * time.Hour
	defaultSpec      = "@daily"
)

// Cleaner coordinates background maintenance: purging resolved and long-expired
// invitations and clearing stale password reset tokens.
type Cleaner struct {
	db        *gorm.DB
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention time.Duration
	schedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithRetention adjusts how long resolved invitations are kept before removal.
func WithRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.retention = d
		}
	}
}

// WithSchedule overrides the cron specification for the cleanup job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:        db,
		now:       time.Now,
		retention: defaultRetention,
		schedule:  defaultSpec,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if _, err := CleanupInvitations(ctx, c.db, c.now(), c.retention); err != nil {
		errs = multierr.Append(errs, err)
	}

	if _, err := CleanupResetTokens(ctx, c.db, c.now()); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}

// CleanupInvitations removes invitations that are resolved or expired beyond the
// retention window. Recently expired PENDING rows are kept so an owner can still
// see who was invited and revoke or re-invite.
func CleanupInvitations(ctx context.Context, db *gorm.DB, now time.Time, retention time.Duration) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup invitations: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := now.Add(-retention)
	result := db.WithContext(ctx).
		Where("status <> ? AND updated_at < ?", models.InvitationPending, cutoff).
		Or("status = ? AND expires_at < ?", models.InvitationPending, cutoff).
		Delete(&models.Invitation{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup invitations: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// CleanupResetTokens clears expired password reset tokens from user rows.
func CleanupResetTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup reset tokens: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("password_reset_expires IS NOT NULL AND password_reset_expires < ?", now).
		Updates(map[string]any{
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup reset tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}
