package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/entity"
)

// CollectionRepository is the user-owned inventory store.
type CollectionRepository interface {
	// FindHumidor resolves a container only when it belongs to ownerID.
	// Returns common.ErrNotFound otherwise.
	FindHumidor(ctx context.Context, id, ownerID uuid.UUID) (*entity.Humidor, error)

	// FindLine resolves the inventory line for one entry in one humidor.
	// Returns common.ErrNotFound when the entry is not held there yet.
	FindLine(ctx context.Context, humidorID, entryID uuid.UUID) (*entity.HumidorLine, error)

	CreateLine(ctx context.Context, line *entity.HumidorLine) (*entity.HumidorLine, error)
	UpdateLine(ctx context.Context, line *entity.HumidorLine) error
}

type collectionRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewCollectionRepository(pool *pgxpool.Pool, logger *slog.Logger) CollectionRepository {
	return &collectionRepository{pool: pool, logger: logger}
}

func (r *collectionRepository) FindHumidor(ctx context.Context, id, ownerID uuid.UUID) (*entity.Humidor, error) {
	const q = `SELECT id, user_id, name, created_at FROM humidors WHERE id = $1 AND user_id = $2`

	var h entity.Humidor
	err := conn(ctx, r.pool).QueryRow(ctx, q, id, ownerID).Scan(&h.ID, &h.UserID, &h.Name, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("find humidor failed", "humidor_id", id, "error", err)
		return nil, fmt.Errorf("find humidor: %w", err)
	}
	return &h, nil
}

func (r *collectionRepository) FindLine(ctx context.Context, humidorID, entryID uuid.UUID) (*entity.HumidorLine, error) {
	const q = `
		SELECT id, humidor_id, entry_id, quantity, purchase_price, purchase_date,
		       purchase_location, notes, image_url, created_at, updated_at
		FROM humidor_lines
		WHERE humidor_id = $1 AND entry_id = $2`

	var l entity.HumidorLine
	err := conn(ctx, r.pool).QueryRow(ctx, q, humidorID, entryID).Scan(
		&l.ID, &l.HumidorID, &l.EntryID, &l.Quantity, &l.PurchasePrice, &l.PurchaseDate,
		&l.PurchaseLocation, &l.Notes, &l.ImageURL, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("find humidor line failed", "humidor_id", humidorID, "entry_id", entryID, "error", err)
		return nil, fmt.Errorf("find humidor line: %w", err)
	}
	return &l, nil
}

func (r *collectionRepository) CreateLine(ctx context.Context, line *entity.HumidorLine) (*entity.HumidorLine, error) {
	const q = `
		INSERT INTO humidor_lines
			(id, humidor_id, entry_id, quantity, purchase_price, purchase_date,
			 purchase_location, notes, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := conn(ctx, r.pool).QueryRow(ctx, q,
		uuid.New(), line.HumidorID, line.EntryID, line.Quantity,
		line.PurchasePrice, line.PurchaseDate,
		line.PurchaseLocation, line.Notes, line.ImageURL,
	).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		r.logger.Error("create humidor line failed", "humidor_id", line.HumidorID, "entry_id", line.EntryID, "error", err)
		return nil, fmt.Errorf("create humidor line: %w", err)
	}
	r.logger.Info("humidor line created", "line_id", line.ID, "humidor_id", line.HumidorID, "quantity", line.Quantity)
	return line, nil
}

func (r *collectionRepository) UpdateLine(ctx context.Context, line *entity.HumidorLine) error {
	const q = `
		UPDATE humidor_lines
		SET quantity = $2, purchase_price = $3, purchase_date = $4,
		    purchase_location = $5, notes = $6, image_url = $7, updated_at = now()
		WHERE id = $1`

	tag, err := conn(ctx, r.pool).Exec(ctx, q,
		line.ID, line.Quantity, line.PurchasePrice, line.PurchaseDate,
		line.PurchaseLocation, line.Notes, line.ImageURL,
	)
	if err != nil {
		r.logger.Error("update humidor line failed", "line_id", line.ID, "error", err)
		return fmt.Errorf("update humidor line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	r.logger.Info("humidor line updated", "line_id", line.ID, "quantity", line.Quantity)
	return nil
}
