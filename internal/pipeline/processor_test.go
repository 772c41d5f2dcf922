package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humidorhq/humidor-tracker/constants"
	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/entity"
	"github.com/humidorhq/humidor-tracker/internal/ocr"
)

type fakeQuota struct {
	result entity.ValidationResult
	calls  int
}

func (f *fakeQuota) ValidateImport(context.Context, uuid.UUID, constants.QuotaCategory, int64) (*entity.ValidationResult, error) {
	f.calls++
	res := f.result
	return &res, nil
}

func okQuota() *fakeQuota {
	return &fakeQuota{result: entity.ValidationResult{IsValid: true}}
}

type fakeRecognizer struct {
	result ocr.Result
	err    error
	calls  int
}

func (f *fakeRecognizer) Recognize(context.Context, []byte) (ocr.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeExtractor struct {
	textCalls   int
	visionCalls int
	textRecords []entity.RawRecord
	textErr     error
	visionRec   entity.RawRecord
	visionErr   error
}

func (f *fakeExtractor) ExtractFromText(context.Context, string) ([]entity.RawRecord, error) {
	f.textCalls++
	return f.textRecords, f.textErr
}

func (f *fakeExtractor) ExtractFromImage(context.Context, []byte, string) (entity.RawRecord, error) {
	f.visionCalls++
	return f.visionRec, f.visionErr
}

type fakeUsage struct {
	appended []entity.UsageRecord
}

func (f *fakeUsage) Append(_ context.Context, rec *entity.UsageRecord) error {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	f.appended = append(f.appended, *rec)
	return nil
}

func (f *fakeUsage) AggregateMonthly(context.Context, uuid.UUID, time.Time) (map[constants.QuotaCategory]int, error) {
	panic("not used by processor")
}

func TestProcessImportHighConfidenceUsesTextModel(t *testing.T) {
	rec := &fakeRecognizer{result: ocr.Result{Text: "Acme Robusto $8.50", Confidence: 85}}
	ext := &fakeExtractor{textRecords: []entity.RawRecord{{Brand: "Acme", Name: "Robusto", Quantity: "2"}}}
	usage := &fakeUsage{}

	p := NewProcessor(okQuota(), rec, ext, usage, nil)
	res, err := p.ProcessImport(context.Background(), uuid.New(), "receipt.jpg", []byte{1, 2, 3})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, constants.MethodTextExtraction, res.Method)
	assert.Equal(t, 85.0, res.Confidence)
	assert.Equal(t, constants.MethodCost[constants.MethodTextExtraction], res.Cost)
	assert.Equal(t, 1, ext.textCalls)
	assert.Equal(t, 0, ext.visionCalls)
	require.Len(t, res.Data, 1)
	assert.Equal(t, 2, res.Data[0].Quantity)

	require.Len(t, usage.appended, 1)
	assert.True(t, usage.appended[0].Success)
	assert.Equal(t, constants.CategoryImages, usage.appended[0].Category)
}

func TestProcessImportThresholdIsExclusive(t *testing.T) {
	// confidence exactly at the threshold stays on the vision path
	rec := &fakeRecognizer{result: ocr.Result{Text: "blurry", Confidence: constants.OCRConfidenceThreshold}}
	ext := &fakeExtractor{visionRec: entity.RawRecord{Brand: "Acme", Name: "Toro"}}
	usage := &fakeUsage{}

	p := NewProcessor(okQuota(), rec, ext, usage, nil)
	res, err := p.ProcessImport(context.Background(), uuid.New(), "photo.png", []byte{1})
	require.NoError(t, err)

	assert.Equal(t, constants.MethodVisionExtraction, res.Method)
	assert.Equal(t, 0, ext.textCalls)
	assert.Equal(t, 1, ext.visionCalls)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Toro", res.Data[0].Name)
}

func TestProcessImportOCRFailureFallsBackToVision(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("tesseract exploded")}
	ext := &fakeExtractor{visionRec: entity.RawRecord{Brand: "Acme", Name: "Toro"}}
	usage := &fakeUsage{}

	p := NewProcessor(okQuota(), rec, ext, usage, nil)
	res, err := p.ProcessImport(context.Background(), uuid.New(), "photo.jpg", []byte{1})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, constants.MethodVisionExtraction, res.Method)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestProcessImportMalformedResponseIsTerminal(t *testing.T) {
	rec := &fakeRecognizer{result: ocr.Result{Text: "text", Confidence: 90}}
	ext := &fakeExtractor{textErr: common.NewProcessingError("model returned malformed JSON", nil)}
	usage := &fakeUsage{}

	p := NewProcessor(okQuota(), rec, ext, usage, nil)
	res, err := p.ProcessImport(context.Background(), uuid.New(), "receipt.jpg", []byte{1})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "malformed JSON")
	assert.Empty(t, res.Data)
	assert.Equal(t, 1, ext.textCalls, "exactly one attempt, no retry")

	require.Len(t, usage.appended, 1)
	assert.False(t, usage.appended[0].Success)
	require.NotNil(t, usage.appended[0].ErrorMessage)
}

func TestProcessImportQuotaRejectionCostsNothing(t *testing.T) {
	quota := &fakeQuota{result: entity.ValidationResult{
		IsValid: false,
		Errors:  []string{"monthly IMAGES quota exceeded"},
	}}
	rec := &fakeRecognizer{}
	ext := &fakeExtractor{}
	usage := &fakeUsage{}

	p := NewProcessor(quota, rec, ext, usage, nil)
	_, err := p.ProcessImport(context.Background(), uuid.New(), "photo.jpg", []byte{1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrQuotaExceeded))

	assert.Equal(t, 0, rec.calls)
	assert.Equal(t, 0, ext.textCalls)
	assert.Equal(t, 0, ext.visionCalls)
	assert.Empty(t, usage.appended, "rejected uploads never reach the import log")
}

func TestProcessImportSpreadsheetParsesDirectly(t *testing.T) {
	rec := &fakeRecognizer{}
	usage := &fakeUsage{}
	csv := "brand,name,quantity\nAcme,Robusto,2x\n,missing brand,1\n"

	p := NewProcessor(okQuota(), rec, &fakeExtractor{}, usage, nil)
	res, err := p.ProcessImport(context.Background(), uuid.New(), "inventory.csv", []byte(csv))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, constants.MethodDirectParse, res.Method)
	assert.Equal(t, 0, rec.calls)
	require.Len(t, res.Data, 1, "rows missing brand are dropped")
	assert.Equal(t, "Acme", res.Data[0].Brand)
	assert.Equal(t, 2, res.Data[0].Quantity)

	require.Len(t, usage.appended, 1)
	assert.Equal(t, constants.CategoryDocuments, usage.appended[0].Category)
}

func TestProcessImportUnsupportedExtension(t *testing.T) {
	quota := okQuota()
	p := NewProcessor(quota, &fakeRecognizer{}, &fakeExtractor{}, &fakeUsage{}, nil)

	_, err := p.ProcessImport(context.Background(), uuid.New(), "notes.txt", []byte("hi"))
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, 0, quota.calls)
}
