package constants

// ExtractionMethod is the strategy that produced a set of candidate records.
type ExtractionMethod string

const (
	MethodTextExtraction   ExtractionMethod = "TEXT_EXTRACTION"
	MethodVisionExtraction ExtractionMethod = "VISION_EXTRACTION"
	MethodDirectParse      ExtractionMethod = "DIRECT_PARSE"
)

// OCRConfidenceThreshold routes image extraction: transcripts above it go to
// the text model, everything else falls back to the vision model. 0..100 scale.
const OCRConfidenceThreshold = 70.0

// MethodCost is the fixed per-attempt cost estimate in USD, telemetry only.
var MethodCost = map[ExtractionMethod]float64{
	MethodTextExtraction:   0.002,
	MethodVisionExtraction: 0.03,
	MethodDirectParse:      0.001,
}
