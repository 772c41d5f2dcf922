// Package pipeline drives the per-file extraction state machine and records
// every attempt in the append-only import log.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/humidorhq/humidor-tracker/constants"
	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/entity"
	"github.com/humidorhq/humidor-tracker/internal/llm"
	"github.com/humidorhq/humidor-tracker/internal/normalize"
	"github.com/humidorhq/humidor-tracker/internal/ocr"
	"github.com/humidorhq/humidor-tracker/internal/repository"
	"github.com/humidorhq/humidor-tracker/internal/tabular"
)

// QuotaGate validates an upload before any extraction cost is incurred.
type QuotaGate interface {
	ValidateImport(ctx context.Context, userID uuid.UUID, category constants.QuotaCategory, fileSize int64) (*entity.ValidationResult, error)
}

// Processor is the extraction state machine. Each file makes exactly one
// model call; failures are terminal, never retried.
type Processor struct {
	quota      QuotaGate
	recognizer ocr.Recognizer
	extractor  llm.Extractor
	usage      repository.UsageRepository
	logger     *slog.Logger
}

func NewProcessor(quota QuotaGate, recognizer ocr.Recognizer, extractor llm.Extractor, usage repository.UsageRepository, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		quota:      quota,
		recognizer: recognizer,
		extractor:  extractor,
		usage:      usage,
		logger:     logger,
	}
}

// ProcessImport validates, extracts, and normalizes one uploaded file.
// Validation and quota rejections return an error without touching the
// import log; once extraction starts, the attempt is logged whether or
// not it succeeds.
func (p *Processor) ProcessImport(ctx context.Context, userID uuid.UUID, filename string, data []byte) (*entity.ProcessingResult, error) {
	p.logger.Debug("pipeline.state", "user_id", userID, "status", constants.StatusReceived, "file", filename, "bytes", len(data))

	ext := filepath.Ext(filename)
	kind := constants.MapExtToKind(ext)
	if kind == "" {
		return nil, common.NewValidationError(fmt.Sprintf("unsupported file type %q", ext))
	}
	if kind == constants.PDF {
		return nil, common.NewValidationError("pdf import is not supported yet")
	}
	category := constants.KindToCategory(kind)

	check, err := p.quota.ValidateImport(ctx, userID, category, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("validate import: %w", err)
	}
	if !check.IsValid {
		msg := strings.Join(check.Errors, "; ")
		cause := common.ErrValidation
		if strings.Contains(msg, "quota") {
			cause = common.ErrQuotaExceeded
		}
		return nil, common.NewAppError("IMPORT_REJECTED", msg, cause)
	}

	p.logger.Debug("pipeline.state", "user_id", userID, "status", constants.StatusValidated)

	start := time.Now()
	raws, method, confidence, extractErr := p.extract(ctx, kind, ext, data)
	duration := time.Since(start)
	cost := constants.MethodCost[method]

	result := &entity.ProcessingResult{
		Method:     method,
		Confidence: confidence,
		Cost:       cost,
		Duration:   duration,
	}
	if extractErr != nil {
		result.Error = extractErr.Error()
		p.logger.Warn("pipeline.extract.failed",
			"user_id", userID,
			"method", method,
			"error", extractErr,
			"elapsed_ms", duration.Milliseconds(),
		)
	} else {
		result.Success = true
		result.Data = normalize.Records(raws)
		p.logger.Debug("pipeline.state", "user_id", userID, "status", constants.StatusNormalized, "records", len(result.Data))
	}

	if err := p.recordAttempt(ctx, userID, category, result); err != nil {
		return nil, err
	}

	status := constants.StatusDone
	if !result.Success {
		status = constants.StatusFailed
	}
	p.logger.Info("pipeline.process.done",
		"user_id", userID,
		"category", category,
		"method", method,
		"status", status,
		"success", result.Success,
		"records", len(result.Data),
		"confidence", confidence,
		"elapsed_ms", duration.Milliseconds(),
	)
	return result, nil
}

// extract routes by file kind. Images run OCR first: a transcript above the
// confidence threshold goes to the text model, everything else sends the raw
// image to the vision model. A failed OCR run counts as zero confidence.
func (p *Processor) extract(ctx context.Context, kind constants.FileKind, ext string, data []byte) ([]entity.RawRecord, constants.ExtractionMethod, float64, error) {
	if kind == constants.SPREADSHEET {
		var raws []entity.RawRecord
		var err error
		if constants.NormalizeExt(ext) == "xlsx" {
			raws, err = tabular.ParseFirstSheet(data)
		} else {
			raws, err = tabular.ParseDelimited(string(data))
		}
		return raws, constants.MethodDirectParse, 0, err
	}

	res, err := p.recognizer.Recognize(ctx, data)
	if err != nil {
		p.logger.Warn("pipeline.ocr.failed", "error", err)
		res = ocr.Result{}
	}
	p.logger.Debug("pipeline.state", "status", constants.StatusOCRRun, "confidence", res.Confidence)

	if res.Confidence > constants.OCRConfidenceThreshold {
		raws, err := p.extractor.ExtractFromText(ctx, res.Text)
		for i := range raws {
			raws[i].Source = "image"
		}
		return raws, constants.MethodTextExtraction, res.Confidence, err
	}

	rec, err := p.extractor.ExtractFromImage(ctx, data, mimeForExt(ext))
	if err != nil {
		return nil, constants.MethodVisionExtraction, res.Confidence, err
	}
	rec.Source = "image"
	return []entity.RawRecord{rec}, constants.MethodVisionExtraction, res.Confidence, nil
}

func (p *Processor) recordAttempt(ctx context.Context, userID uuid.UUID, category constants.QuotaCategory, result *entity.ProcessingResult) error {
	rec := &entity.UsageRecord{
		UserID:     userID,
		Category:   category,
		Method:     result.Method,
		Confidence: result.Confidence,
		Cost:       result.Cost,
		DurationMs: result.Duration.Milliseconds(),
		Success:    result.Success,
	}
	if result.Error != "" {
		rec.ErrorMessage = &result.Error
	}
	if err := p.usage.Append(ctx, rec); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func mimeForExt(ext string) string {
	switch constants.NormalizeExt(ext) {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
