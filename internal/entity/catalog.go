package entity

import (
	"time"

	"github.com/google/uuid"
)

// Brand is a shared cigar manufacturer record. Brand names are unique
// case-insensitively; find-or-create always resolves before a variant is made.
type Brand struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CatalogEntry is a shared brand + variant record owned by the catalog store.
// The id is immutable; descriptive fields may be curated over time.
type CatalogEntry struct {
	ID        uuid.UUID `json:"id"`
	BrandID   uuid.UUID `json:"brand_id"`
	BrandName string    `json:"brand_name"`
	Name      string    `json:"name"`
	Length    *float64  `json:"length,omitempty"`
	RingGauge *float64  `json:"ring_gauge,omitempty"`
	Country   string    `json:"country,omitempty"`
	Wrapper   string    `json:"wrapper,omitempty"`
	Binder    string    `json:"binder,omitempty"`
	Filler    string    `json:"filler,omitempty"`
	Color     string    `json:"color,omitempty"`
	Strength  string    `json:"strength,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
