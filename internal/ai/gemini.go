package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string // e.g. "gemini-2.0-flash"
	Temperature float32
	Timeout     time.Duration
}

// GeminiClient implements Extractor using Gemini structured output: the
// response schema is enforced server-side via GenerationConfig, then
// re-validated locally like any other provider response.
type GeminiClient struct {
	cfg GeminiConfig
	log *slog.Logger
}

func NewGeminiClient(cfg GeminiConfig, logger *slog.Logger) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{cfg: cfg, log: logger}
}

func (c *GeminiClient) ProviderName() string { return "gemini" }

func (c *GeminiClient) ExtractInvoice(ctx context.Context, req Request) (InvoiceResult, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("ai.extract.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"text_len", len(req.Text),
		"has_partial", req.Partial != nil,
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.cfg.APIKey))
	if err != nil {
		return InvoiceResult{}, nil, fmt.Errorf("create gemini client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			c.log.Warn("gemini client close error", "error", err)
		}
	}()

	model := client.GenerativeModel(c.cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   invoiceResponseSchema(),
	}
	model.SetTemperature(c.cfg.Temperature)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(buildSystemPrompt())},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(buildUserPrompt(req)))
	if err != nil {
		c.log.Error("ai.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return InvoiceResult{}, nil, fmt.Errorf("gemini generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		c.log.Error("ai.extract.no_candidates", "req_id", rid)
		return InvoiceResult{}, nil, fmt.Errorf("no candidates in gemini response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	content := []byte(strings.TrimSpace(b.String()))

	out, cleaned, err := decodeInvoiceResult(BuildInvoiceJSONSchema(), content)
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

// invoiceResponseSchema mirrors BuildInvoiceJSONSchema in Gemini's native
// schema type for server-side structured output.
func invoiceResponseSchema() *genai.Schema {
	amount := &genai.Schema{Type: genai.TypeNumber}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"invoiceType": {
				Type: genai.TypeString,
				Enum: []string{InvoiceTypeService, InvoiceTypeSpares},
			},
			"invoiceDate":       {Type: genai.TypeString, Description: "YYYY-MM-DD"},
			"invoiceNumber":     {Type: genai.TypeString},
			"vendorName":        {Type: genai.TypeString},
			"vendorGstin":       {Type: genai.TypeString},
			"taxableAmount":     amount,
			"cgstAmount":        amount,
			"sgstAmount":        amount,
			"igstAmount":        amount,
			"totalInvoiceValue": amount,
			"hash":              {Type: genai.TypeString},
		},
		Required: []string{
			"invoiceType", "invoiceDate", "invoiceNumber",
			"vendorName", "vendorGstin",
			"taxableAmount", "cgstAmount", "sgstAmount", "igstAmount",
			"totalInvoiceValue",
		},
	}
}
