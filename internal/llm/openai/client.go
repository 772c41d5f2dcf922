package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/entity"
	"github.com/humidorhq/humidor-tracker/internal/llm"
)

// ExtractFromText implements the transcript path of llm.Extractor using
// text-only chat/completions. The response must be a JSON array.
func (c *Client) ExtractFromText(ctx context.Context, transcript string) ([]entity.RawRecord, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.text.start",
		"req_id", rid,
		"model", c.cfg.TextModel,
		"text_len", len(transcript),
	)

	schema := llm.BuildRecordArrayJSONSchema()
	body := map[string]any{
		"model":       c.cfg.TextModel,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildTextSystemPrompt()},
			{"role": "user", "content": llm.BuildTextUserPrompt(transcript)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	content, err := c.complete(ctx, rid, body)
	if err != nil {
		return nil, err
	}

	raw := []byte(llm.TrimToJSON(content))
	if err := llm.ValidateJSONAgainstSchema(schema, raw); err != nil {
		c.log.Error("llm.text.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewProcessingError("text extraction returned malformed response", err)
	}

	var records []entity.RawRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, common.NewProcessingError("unmarshal text extraction response", err)
	}

	c.log.Info("llm.text.ok",
		"req_id", rid,
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return records, nil
}

// ExtractFromImage implements the vision fallback of llm.Extractor. The raw
// image goes to a vision-capable model and the response must be one object.
func (c *Client) ExtractFromImage(ctx context.Context, image []byte, mimeType string) (entity.RawRecord, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.vision.start",
		"req_id", rid,
		"model", c.cfg.VisionModel,
		"image_bytes", len(image),
		"mime_type", mimeType,
	)

	schema := llm.BuildRecordJSONSchema()
	body := map[string]any{
		"model":           c.cfg.VisionModel,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildVisionSystemPrompt()},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": "Identify the cigar in this image."},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL(image, mimeType)}},
			}},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	content, err := c.complete(ctx, rid, body)
	if err != nil {
		return entity.RawRecord{}, err
	}

	raw := []byte(llm.TrimToJSON(content))
	if err := llm.ValidateJSONAgainstSchema(schema, raw); err != nil {
		c.log.Error("llm.vision.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.RawRecord{}, common.NewProcessingError("vision extraction returned malformed response", err)
	}

	var record entity.RawRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return entity.RawRecord{}, common.NewProcessingError("unmarshal vision extraction response", err)
	}

	c.log.Info("llm.vision.ok",
		"req_id", rid,
		"brand", record.Brand,
		"name", record.Name,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return record, nil
}

// complete posts one chat/completions request and returns the first choice.
func (c *Client) complete(ctx context.Context, rid string, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.http_error", "req_id", rid, "error", err)
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.no_choices", "req_id", rid)
		return "", fmt.Errorf("no choices in completion response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion http error: %w", err)
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.log.Warn("completion response body close error", "error", cerr)
		}
	}(resp.Body)

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion status %d: %s", resp.StatusCode, string(buf))
	}
	return buf, nil
}

func dataURL(image []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
