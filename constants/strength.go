package constants

import "strings"

// Strength is the canonical body rating for a catalog entry.
type Strength string

const (
	Mild       Strength = "MILD"
	MildMedium Strength = "MILD_MEDIUM"
	Medium     Strength = "MEDIUM"
	MediumFull Strength = "MEDIUM_FULL"
	Full       Strength = "FULL"
)

var allStrengths = []Strength{Mild, MildMedium, Medium, MediumFull, Full}

// strength labels seen in the wild mapped onto the canonical scale
var strengthSynonyms = map[string]Strength{
	"LIGHT":          Mild,
	"MILD TO MEDIUM": MildMedium,
	"MILD-MEDIUM":    MildMedium,
	"MEDIUM TO FULL": MediumFull,
	"MEDIUM-FULL":    MediumFull,
	"FULL BODIED":    Full,
	"STRONG":         Full,
}

// CanonicalStrength maps free-form input onto the canonical scale.
// Returns false when the label is not recognized.
func CanonicalStrength(input string) (Strength, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	for _, s := range allStrengths {
		if normalized == string(s) {
			return s, true
		}
	}
	if s, ok := strengthSynonyms[normalized]; ok {
		return s, true
	}
	return "", false
}
