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

// CatalogRepository is the shared catalog store consumed by the matcher and
// the reconciler. All lookups are read-only; writes happen only inside the
// confirmation transaction.
type CatalogRepository interface {
	// SearchBySimilarity ranks entries whose lowercased "brand name"
	// concatenation has trigram similarity above threshold against term.
	SearchBySimilarity(ctx context.Context, term string, threshold float64, limit int) ([]entity.SimilarityHit, error)

	// GetEntriesByIDs fetches full entries for a batch of ids in one query.
	GetEntriesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.CatalogEntry, error)

	// FindBrandByName resolves a brand case-insensitively.
	// Returns common.ErrNotFound when no brand matches.
	FindBrandByName(ctx context.Context, name string) (*entity.Brand, error)

	CreateBrand(ctx context.Context, name string) (*entity.Brand, error)
	CreateEntry(ctx context.Context, e *entity.CatalogEntry) (*entity.CatalogEntry, error)
}

type catalogRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewCatalogRepository(pool *pgxpool.Pool, logger *slog.Logger) CatalogRepository {
	return &catalogRepository{pool: pool, logger: logger}
}

func (r *catalogRepository) SearchBySimilarity(ctx context.Context, term string, threshold float64, limit int) ([]entity.SimilarityHit, error) {
	const q = `
		SELECT e.id, b.name, e.name,
		       similarity(lower(b.name || ' ' || e.name), $1) AS sim
		FROM catalog_entries e
		JOIN brands b ON b.id = e.brand_id
		WHERE similarity(lower(b.name || ' ' || e.name), $1) > $2
		ORDER BY sim DESC, e.id
		LIMIT $3`

	rows, err := conn(ctx, r.pool).Query(ctx, q, term, threshold, limit)
	if err != nil {
		r.logger.Error("catalog similarity query failed", "term", term, "error", err)
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var hits []entity.SimilarityHit
	for rows.Next() {
		var h entity.SimilarityHit
		if err := rows.Scan(&h.EntryID, &h.BrandName, &h.Name, &h.Similarity); err != nil {
			return nil, fmt.Errorf("scan similarity hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (r *catalogRepository) GetEntriesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.CatalogEntry, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*entity.CatalogEntry{}, nil
	}

	const q = `
		SELECT e.id, e.brand_id, b.name, e.name, e.length, e.ring_gauge,
		       e.country, e.wrapper, e.binder, e.filler, e.color, e.strength,
		       e.image_url, e.created_at, e.updated_at
		FROM catalog_entries e
		JOIN brands b ON b.id = e.brand_id
		WHERE e.id = ANY($1)`

	rows, err := conn(ctx, r.pool).Query(ctx, q, ids)
	if err != nil {
		r.logger.Error("catalog batch fetch failed", "count", len(ids), "error", err)
		return nil, fmt.Errorf("batch fetch entries: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*entity.CatalogEntry, len(ids))
	for rows.Next() {
		var e entity.CatalogEntry
		var country, wrapper, binder, filler, color, strength, imageURL *string
		if err := rows.Scan(
			&e.ID, &e.BrandID, &e.BrandName, &e.Name, &e.Length, &e.RingGauge,
			&country, &wrapper, &binder, &filler, &color, &strength,
			&imageURL, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		e.Country = deref(country)
		e.Wrapper = deref(wrapper)
		e.Binder = deref(binder)
		e.Filler = deref(filler)
		e.Color = deref(color)
		e.Strength = deref(strength)
		e.ImageURL = deref(imageURL)
		out[e.ID] = &e
	}
	return out, rows.Err()
}

func (r *catalogRepository) FindBrandByName(ctx context.Context, name string) (*entity.Brand, error) {
	const q = `SELECT id, name, created_at FROM brands WHERE lower(name) = lower($1)`

	var b entity.Brand
	err := conn(ctx, r.pool).QueryRow(ctx, q, name).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("find brand failed", "name", name, "error", err)
		return nil, fmt.Errorf("find brand: %w", err)
	}
	return &b, nil
}

func (r *catalogRepository) CreateBrand(ctx context.Context, name string) (*entity.Brand, error) {
	const q = `INSERT INTO brands (id, name) VALUES ($1, $2) RETURNING id, name, created_at`

	var b entity.Brand
	if err := conn(ctx, r.pool).QueryRow(ctx, q, uuid.New(), name).Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
		r.logger.Error("create brand failed", "name", name, "error", err)
		return nil, fmt.Errorf("create brand: %w", err)
	}
	r.logger.Info("brand created", "brand_id", b.ID, "name", b.Name)
	return &b, nil
}

func (r *catalogRepository) CreateEntry(ctx context.Context, e *entity.CatalogEntry) (*entity.CatalogEntry, error) {
	const q = `
		INSERT INTO catalog_entries
			(id, brand_id, name, length, ring_gauge, country, wrapper, binder,
			 filler, color, strength, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	id := uuid.New()
	err := conn(ctx, r.pool).QueryRow(ctx, q,
		id, e.BrandID, e.Name, e.Length, e.RingGauge,
		nullable(e.Country), nullable(e.Wrapper), nullable(e.Binder),
		nullable(e.Filler), nullable(e.Color), nullable(e.Strength),
		nullable(e.ImageURL),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		r.logger.Error("create catalog entry failed", "brand_id", e.BrandID, "name", e.Name, "error", err)
		return nil, fmt.Errorf("create catalog entry: %w", err)
	}
	r.logger.Info("catalog entry created", "entry_id", e.ID, "brand_id", e.BrandID, "name", e.Name)
	return e, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
