// Package ocr runs text recognition over raw image bytes via tesseract.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Result is a transcript plus a scalar confidence on a 0..100 scale.
type Result struct {
	Text       string
	Confidence float64
}

// Recognizer is the text-recognition engine the pipeline depends on.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Result, error)
}

type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	Language    string // default "eng"
	PSM         int    // e.g. 6 for a uniform block of text
	OEM         int    // 1 = LSTM; 0 uses the default
}

// Engine shells out to tesseract. Confidence is the mean word confidence from
// TSV output, falling back to a content heuristic when TSV yields nothing.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Engine{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (e *Engine) Recognize(ctx context.Context, image []byte) (Result, error) {
	tmp, err := os.CreateTemp("", "import-ocr-*.png")
	if err != nil {
		return Result{}, fmt.Errorf("ocr temp file: %w", err)
	}
	path := tmp.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := tmp.Write(image); err != nil {
		_ = tmp.Close()
		return Result{}, fmt.Errorf("ocr temp write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("ocr temp close: %w", err)
	}

	text, err := e.recognizeText(ctx, path)
	if err != nil {
		return Result{}, err
	}

	conf, err := e.tsvConfidence(ctx, path)
	if err != nil {
		e.logger.Warn("ocr.confidence.tsv_failed", "error", err)
		conf = 0
	}
	if conf == 0 {
		conf = heuristicConfidence(text)
	}

	e.logger.Debug("ocr.recognize.ok",
		"file", filepath.Base(path),
		"text_bytes", len(text),
		"confidence", conf,
	)
	return Result{Text: text, Confidence: conf}, nil
}

func (e *Engine) recognizeText(ctx context.Context, path string) (string, error) {
	args := e.baseArgs(path)
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return normalizeText(string(out)), nil
}

// tsvConfidence runs tesseract in TSV mode and returns mean word conf (0..100).
func (e *Engine) tsvConfidence(ctx context.Context, path string) (float64, error) {
	args := append(e.baseArgs(path), "tsv")
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	lines := strings.Split(string(out), "\n")
	var sum, n float64
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / n, nil
}

func (e *Engine) baseArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}
