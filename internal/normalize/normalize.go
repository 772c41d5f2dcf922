// Package normalize coerces raw extraction output into canonical import
// records. Every function is pure and applied uniformly regardless of which
// extraction path produced the value.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/humidorhq/humidor-tracker/constants"
	"github.com/humidorhq/humidor-tracker/internal/entity"
)

var reDigitRun = regexp.MustCompile(`\d+`)

// dateFormats tried in order after an ISO parse fails. Order matters:
// "13/02/2024" must fall through MM/DD/YYYY into DD/MM/YYYY.
var dateFormats = []string{
	"01/02/2006", // MM/DD/YYYY
	"02/01/2006", // DD/MM/YYYY
	"2006-01-02", // YYYY-MM-DD
	"01-02-2006", // MM-DD-YYYY
	"02-01-2006", // DD-MM-YYYY
}

// Quantity coerces any raw value to a positive integer. Strings contribute
// their first digit run ("2x" -> 2). Anything absent or invalid yields 1.
func Quantity(v any) int {
	switch t := v.(type) {
	case int:
		if t > 0 {
			return t
		}
	case float64:
		if n := int(t); n > 0 {
			return n
		}
	case string:
		if run := reDigitRun.FindString(t); run != "" {
			if n, err := strconv.Atoi(run); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

// Float parses a raw numeric (price, length, ring gauge). Returns nil when
// the value is absent or unparseable.
func Float(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "$"))
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// Date accepts a native time, then tries ISO, then the explicit format chain.
// Returns nil when nothing parses.
func Date(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return &parsed
		}
		for _, layout := range dateFormats {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
	}
	return nil
}

// Strength uppercases, trims, and canonicalizes a body rating. Unknown labels
// yield the empty string.
func Strength(s string) string {
	canon, ok := constants.CanonicalStrength(s)
	if !ok {
		return ""
	}
	return string(canon)
}

// Record applies every field coercion to one raw candidate.
func Record(raw entity.RawRecord) entity.ImportRecord {
	return entity.ImportRecord{
		Brand:            strings.TrimSpace(raw.Brand),
		Name:             strings.TrimSpace(raw.Name),
		Quantity:         Quantity(raw.Quantity),
		PurchasePrice:    Float(raw.PurchasePrice),
		PurchaseDate:     Date(raw.PurchaseDate),
		PurchaseLocation: strings.TrimSpace(raw.PurchaseLocation),
		Notes:            strings.TrimSpace(raw.Notes),
		ImageURL:         strings.TrimSpace(raw.ImageURL),
		Length:           Float(raw.Length),
		RingGauge:        Float(raw.RingGauge),
		Country:          strings.TrimSpace(raw.Country),
		Wrapper:          strings.TrimSpace(raw.Wrapper),
		Binder:           strings.TrimSpace(raw.Binder),
		Filler:           strings.TrimSpace(raw.Filler),
		Color:            strings.TrimSpace(raw.Color),
		Strength:         Strength(raw.Strength),
		Source:           raw.Source,
	}
}

// Records normalizes a whole batch, preserving order.
func Records(raws []entity.RawRecord) []entity.ImportRecord {
	out := make([]entity.ImportRecord, len(raws))
	for i, raw := range raws {
		out[i] = Record(raw)
	}
	return out
}
