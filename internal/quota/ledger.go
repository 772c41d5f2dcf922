// Package quota gates imports against per-user monthly allotments before any
// extraction cost is incurred.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/humidorhq/humidor-tracker/constants"
	"github.com/humidorhq/humidor-tracker/internal/entity"
	"github.com/humidorhq/humidor-tracker/internal/repository"
)

// Ledger answers quota questions by aggregating the append-only import log.
// It is read-only: usage is recorded by the pipeline after an attempt, never
// here, and the month boundary is computed from record timestamps rather than
// a mutable counter.
type Ledger struct {
	users  repository.UserRepository
	usage  repository.UsageRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewLedger(users repository.UserRepository, usage repository.UsageRepository, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{users: users, usage: usage, logger: logger, now: time.Now}
}

// GetUserQuota returns the current month's usage snapshot for both categories.
func (l *Ledger) GetUserQuota(ctx context.Context, userID uuid.UUID) (*entity.QuotaInfo, error) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	used, err := l.usage.AggregateMonthly(ctx, userID, monthStart(l.now()))
	if err != nil {
		return nil, fmt.Errorf("aggregate monthly usage: %w", err)
	}

	return &entity.QuotaInfo{
		Images:    bucket(user.Tier, constants.CategoryImages, used),
		Documents: bucket(user.Tier, constants.CategoryDocuments, used),
	}, nil
}

// ValidateImport decides whether one upload may proceed. No side effects;
// failures here cost nothing and are never logged as attempts.
func (l *Ledger) ValidateImport(ctx context.Context, userID uuid.UUID, category constants.QuotaCategory, fileSize int64) (*entity.ValidationResult, error) {
	var errs []string

	if fileSize > constants.MaxFileBytes {
		errs = append(errs, fmt.Sprintf("file size %d exceeds the %d byte limit", fileSize, constants.MaxFileBytes))
	}

	info, err := l.GetUserQuota(ctx, userID)
	if err != nil {
		return nil, err
	}
	remaining := info.Images.Remaining
	if category == constants.CategoryDocuments {
		remaining = info.Documents.Remaining
	}
	if remaining <= 0 {
		errs = append(errs, fmt.Sprintf("monthly %s quota exceeded", category))
	}

	result := &entity.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
	if !result.IsValid {
		l.logger.Info("quota.validate.rejected",
			"user_id", userID,
			"category", category,
			"errors", errs,
		)
	}
	return result, nil
}

func bucket(tier constants.AccountTier, category constants.QuotaCategory, used map[constants.QuotaCategory]int) entity.CategoryQuota {
	total := constants.MonthlyAllotment(tier, category)
	u := used[category]
	remaining := total - u
	if remaining < 0 {
		remaining = 0
	}
	return entity.CategoryQuota{Used: u, Total: total, Remaining: remaining}
}

// monthStart is the calendar-month boundary quota resets on.
func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
