package entity

import (
	"time"

	"github.com/humidorhq/humidor-tracker/constants"
)

// RawRecord is one candidate as it comes out of an extraction path, before
// normalization. Loosely typed on purpose: models and spreadsheets disagree
// about whether "2" is a number or a string.
type RawRecord struct {
	Brand            string `json:"brand"`
	Name             string `json:"name"`
	Quantity         any    `json:"quantity,omitempty"`
	PurchasePrice    any    `json:"purchase_price,omitempty"`
	PurchaseDate     any    `json:"purchase_date,omitempty"`
	PurchaseLocation string `json:"purchase_location,omitempty"`
	Notes            string `json:"notes,omitempty"`
	ImageURL         string `json:"image_url,omitempty"`
	Length           any    `json:"length,omitempty"`
	RingGauge        any    `json:"ring_gauge,omitempty"`
	Country          string `json:"country,omitempty"`
	Wrapper          string `json:"wrapper,omitempty"`
	Binder           string `json:"binder,omitempty"`
	Filler           string `json:"filler,omitempty"`
	Color            string `json:"color,omitempty"`
	Strength         string `json:"strength,omitempty"`
	Source           string `json:"source,omitempty"`
}

// ImportRecord is the canonical candidate produced by normalization. It is
// never persisted; it lives only between extraction and confirmation.
type ImportRecord struct {
	Brand            string     `json:"brand"`
	Name             string     `json:"name"`
	Quantity         int        `json:"quantity"`
	PurchasePrice    *float64   `json:"purchase_price,omitempty"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
	PurchaseLocation string     `json:"purchase_location,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	ImageURL         string     `json:"image_url,omitempty"`
	Length           *float64   `json:"length,omitempty"`
	RingGauge        *float64   `json:"ring_gauge,omitempty"`
	Country          string     `json:"country,omitempty"`
	Wrapper          string     `json:"wrapper,omitempty"`
	Binder           string     `json:"binder,omitempty"`
	Filler           string     `json:"filler,omitempty"`
	Color            string     `json:"color,omitempty"`
	Strength         string     `json:"strength,omitempty"`
	Source           string     `json:"source,omitempty"`
}

// ProcessingResult is the outcome envelope for one import attempt.
type ProcessingResult struct {
	Success    bool                       `json:"success"`
	Data       []ImportRecord             `json:"data,omitempty"`
	Error      string                     `json:"error,omitempty"`
	Method     constants.ExtractionMethod `json:"method"`
	Confidence float64                    `json:"confidence,omitempty"`
	Cost       float64                    `json:"cost"`
	Duration   time.Duration              `json:"duration"`
}
