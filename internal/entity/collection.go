package entity

import (
	"time"

	"github.com/google/uuid"
)

// Humidor is a user-owned inventory container.
type Humidor struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// HumidorLine holds a quantity of one catalog entry inside a humidor.
// Quantity is never negative; merges add to it, never overwrite it.
type HumidorLine struct {
	ID               uuid.UUID `json:"id"`
	HumidorID        uuid.UUID `json:"humidor_id"`
	EntryID          uuid.UUID `json:"entry_id"`
	Quantity         int       `json:"quantity"`
	PurchasePrice    float64   `json:"purchase_price"`
	PurchaseDate     time.Time `json:"purchase_date"`
	PurchaseLocation *string   `json:"purchase_location,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	ImageURL         *string   `json:"image_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
