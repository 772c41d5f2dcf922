package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/humidorhq/humidor-tracker/constants"
	"github.com/humidorhq/humidor-tracker/internal/entity"
)

// UsageRepository is the append-only import log. Monthly quota is computed by
// aggregation over these rows; nothing ever updates or deletes them.
type UsageRepository interface {
	Append(ctx context.Context, rec *entity.UsageRecord) error
	AggregateMonthly(ctx context.Context, userID uuid.UUID, since time.Time) (map[constants.QuotaCategory]int, error)
}

type usageRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewUsageRepository(pool *pgxpool.Pool, logger *slog.Logger) UsageRepository {
	return &usageRepository{pool: pool, logger: logger}
}

func (r *usageRepository) Append(ctx context.Context, rec *entity.UsageRecord) error {
	const q = `
		INSERT INTO usage_records
			(id, user_id, category, method, confidence, cost, duration_ms,
			 success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := conn(ctx, r.pool).QueryRow(ctx, q,
		uuid.New(), rec.UserID, string(rec.Category), string(rec.Method),
		rec.Confidence, rec.Cost, rec.DurationMs, rec.Success, rec.ErrorMessage,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		r.logger.Error("append usage record failed", "user_id", rec.UserID, "error", err)
		return fmt.Errorf("append usage record: %w", err)
	}
	return nil
}

func (r *usageRepository) AggregateMonthly(ctx context.Context, userID uuid.UUID, since time.Time) (map[constants.QuotaCategory]int, error) {
	const q = `
		SELECT category, count(*)
		FROM usage_records
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY category`

	rows, err := conn(ctx, r.pool).Query(ctx, q, userID, since)
	if err != nil {
		r.logger.Error("aggregate usage failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("aggregate usage: %w", err)
	}
	defer rows.Close()

	out := make(map[constants.QuotaCategory]int, 2)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan usage aggregate: %w", err)
		}
		out[constants.QuotaCategory(category)] = count
	}
	return out, rows.Err()
}
