package llm

import "strings"

// BuildTextSystemPrompt is the system message for the transcript path.
// The response must be a JSON array: one transcript (a receipt, an order
// confirmation) can list several cigars.
func BuildTextSystemPrompt() string {
	parts := []string{
		"You are a cigar purchase parser. Return ONLY a JSON array matching the provided JSON Schema; one element per distinct cigar.",
		"Each element needs at least 'brand' and 'name'. Split combined lines like 'Padron 1964 Anniversary' into brand and name.",
		"Use ISO-8601 dates (YYYY-MM-DD) when a purchase date is visible.",
		"'length' is in inches, 'ring_gauge' in 64ths of an inch; a size like 5x50 means length 5, ring_gauge 50.",
		"'strength' should be one of MILD, MILD_MEDIUM, MEDIUM, MEDIUM_FULL, FULL when stated.",
		"Never output null. If a field is not present, omit it.",
		"Do not invent values that are not supported by the text.",
	}
	return strings.Join(parts, " ")
}

// BuildVisionSystemPrompt is the system message for the raw-image fallback.
// The response must be a single JSON object describing the one cigar shown.
func BuildVisionSystemPrompt() string {
	parts := []string{
		"You are a cigar identifier. Look at the image (a cigar, its band, or its box) and return ONLY one JSON object matching the provided JSON Schema.",
		"Identify 'brand' and 'name' from the band or box art.",
		"Include 'length', 'ring_gauge', 'wrapper', 'country', 'color', and 'strength' only when you can read or confidently infer them.",
		"'strength' should be one of MILD, MILD_MEDIUM, MEDIUM, MEDIUM_FULL, FULL.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildTextUserPrompt packages the OCR transcript, truncated the way the
// models expect long inputs.
func BuildTextUserPrompt(transcript string) string {
	transcript = strings.TrimSpace(transcript)
	var b strings.Builder
	b.WriteString("OCR transcript (first ~4k chars):\n")
	if len(transcript) > 4000 {
		b.WriteString(transcript[:4000])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(transcript)
	}
	return b.String()
}
