package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/humidorhq/humidor-tracker/constants"
)

// User carries the account fields the import core needs.
type User struct {
	ID       uuid.UUID             `json:"id"`
	Username string                `json:"username"`
	Tier     constants.AccountTier `json:"tier"`
}

// UsageRecord is one append-only row per extraction attempt. Monthly quota is
// an aggregation over these rows; there is no mutable counter anywhere.
type UsageRecord struct {
	ID           uuid.UUID                  `json:"id"`
	UserID       uuid.UUID                  `json:"user_id"`
	Category     constants.QuotaCategory    `json:"category"`
	Method       constants.ExtractionMethod `json:"method"`
	Confidence   float64                    `json:"confidence"`
	Cost         float64                    `json:"cost"`
	DurationMs   int64                      `json:"duration_ms"`
	Success      bool                       `json:"success"`
	ErrorMessage *string                    `json:"error_message,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// CategoryQuota is the per-bucket view returned by the quota ledger.
type CategoryQuota struct {
	Used      int `json:"used"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// QuotaInfo is the full monthly quota snapshot for a user.
type QuotaInfo struct {
	Images    CategoryQuota `json:"images"`
	Documents CategoryQuota `json:"documents"`
}

// ValidationResult reports whether an upload may proceed to extraction.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}
