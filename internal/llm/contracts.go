package llm

import (
	"context"

	"github.com/humidorhq/humidor-tracker/internal/entity"
)

// Extractor is the model interface the pipeline depends on. The two paths are
// deliberately distinct: a high-confidence OCR transcript goes to the text
// model and may yield several records (a receipt lists many cigars), while a
// low-confidence image goes to the vision model and yields exactly one.
type Extractor interface {
	// ExtractFromText submits an OCR transcript and expects a JSON array.
	ExtractFromText(ctx context.Context, transcript string) ([]entity.RawRecord, error)

	// ExtractFromImage submits the raw image and expects a single JSON object.
	ExtractFromImage(ctx context.Context, image []byte, mimeType string) (entity.RawRecord, error)
}
