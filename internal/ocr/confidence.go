package ocr

import (
	"regexp"
	"strings"
)

var (
	reCollapseWS = regexp.MustCompile(`[ \t]{2,}`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)

	rePrice   = regexp.MustCompile(`\b\d{1,3}(,\d{3})*\.\d{2}\b|[$£€]\s?\d`)
	reSizeRow = regexp.MustCompile(`\b\d(\.\d+)?\s?[xX×]\s?\d{2}\b`)
	reBrandy  = regexp.MustCompile(`(?i)\b(robusto|toro|churchill|corona|maduro|habano|connecticut)\b`)
)

func normalizeText(txt string) string {
	txt = strings.ReplaceAll(txt, "\r\n", "\n")
	txt = reCollapseWS.ReplaceAllString(txt, " ")
	txt = reBlankRuns.ReplaceAllString(txt, "\n\n")
	return strings.TrimSpace(txt)
}

// heuristicConfidence scores decoded text by the presence of artifacts a
// legible cigar receipt or band photo would show. Used only when TSV word
// confidence is unavailable. 0..100 scale.
func heuristicConfidence(txt string) float64 {
	score := 20.0
	if rePrice.MatchString(txt) {
		score += 20
	}
	if reSizeRow.MatchString(txt) {
		score += 20
	}
	if reBrandy.MatchString(txt) {
		score += 15
	}
	if len(txt) > 120 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
