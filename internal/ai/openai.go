package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OpenAIConfig configures the chat-completions provider.
type OpenAIConfig struct {
	APIKey      string // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string // default https://api.openai.com/v1
	Model       string // e.g. "gpt-4o-mini"
	Temperature float32
	Timeout     time.Duration
}

// OpenAIClient implements Extractor over the chat/completions endpoint with
// a JSON-object response format constrained by the invoice schema.
type OpenAIClient struct {
	cfg  OpenAIConfig
	http *http.Client
	log  *slog.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) *OpenAIClient {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

func (c *OpenAIClient) ProviderName() string { return "openai" }

func (c *OpenAIClient) ExtractInvoice(ctx context.Context, req Request) (InvoiceResult, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("ai.extract.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"text_len", len(req.Text),
		"has_partial", req.Partial != nil,
	)

	schema := BuildInvoiceJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt()},
			{"role": "user", "content": buildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("ai.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return InvoiceResult{}, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("ai.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return InvoiceResult{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("ai.extract.no_choices", "req_id", rid, "raw", string(raw))
		return InvoiceResult{}, raw, fmt.Errorf("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	out, cleaned, err := decodeInvoiceResult(schema, content)
	if err != nil {
		c.log.Error("ai.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return InvoiceResult{}, content, err
	}

	c.log.Info("ai.extract.ok",
		"req_id", rid,
		"invoice_number", out.InvoiceNumber,
		"date", out.InvoiceDate,
		"total", out.TotalInvoiceValue,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, cleaned, nil
}

// decodeInvoiceResult validates the model output against the schema, with
// one lenient sanitize pass for near-miss responses, then unmarshals it.
// Shared by both providers.
func decodeInvoiceResult(schema map[string]any, content []byte) (InvoiceResult, []byte, error) {
	if err := ValidateJSONAgainstSchema(schema, content); err != nil {
		cleaned, _, sErr := SanitizeResult(content)
		if sErr != nil {
			return InvoiceResult{}, content, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			return InvoiceResult{}, content, fmt.Errorf("schema validation failed: %w", vErr)
		}
		content = cleaned
	}

	var out InvoiceResult
	if err := json.Unmarshal(content, &out); err != nil {
		return InvoiceResult{}, content, fmt.Errorf("unmarshal fields: %w", err)
	}
	return out, content, nil
}

func (c *OpenAIClient) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
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

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
