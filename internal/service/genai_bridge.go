package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecoquest/backend/internal/observability"
)

// DefaultVisionPrompt is sent along with every uploaded image
const DefaultVisionPrompt = "Analyze this image and identify any waste or recyclable materials present. " +
	"What type of waste is it and how should it be disposed of?"

// Generation is text produced by the model, or an explanatory fallback when
// the model could not be reached.
type Generation struct {
	Text       string `json:"text"`
	IsFallback bool   `json:"is_fallback"`
}

// GenAIConfig configures the Gemini REST client
type GenAIConfig struct {
	APIKey      string
	BaseURL     string
	TextModel   string
	VisionModel string
	Timeout     time.Duration
}

// GenAIBridge handles communication with the Gemini generateContent API
type GenAIBridge struct {
	cfg        GenAIConfig
	httpClient *http.Client
	metrics    *observability.Metrics
	log        *slog.Logger
}

// NewGenAIBridge creates a new GenAI bridge
func NewGenAIBridge(cfg GenAIConfig, metrics *observability.Metrics, log *slog.Logger) *GenAIBridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &GenAIBridge{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
		log:     log.With("component", "genai"),
	}
}

type genContentRequest struct {
	Contents []genContent `json:"contents"`
}

type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *genInlineData `json:"inline_data,omitempty"`
}

type genInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genContentResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

// SuggestionPrompt builds the expert prompt for a description. wasteType may be empty.
func SuggestionPrompt(description, wasteType string) string {
	if wasteType != "" {
		return fmt.Sprintf("As a waste management expert, provide detailed suggestions for disposing of %s. %s", wasteType, description)
	}
	return "As a waste management expert, analyze this waste and provide disposal suggestions: " + description
}

// GenerateSuggestions asks the text model how to dispose of the described waste
func (b *GenAIBridge) GenerateSuggestions(ctx context.Context, description, wasteType string) (Generation, error) {
	parts := []genPart{{Text: SuggestionPrompt(description, wasteType)}}
	return b.generate(ctx, "text", b.cfg.TextModel, parts)
}

// AnalyzeImage asks the vision model to describe the waste in an image
func (b *GenAIBridge) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (Generation, error) {
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}
	parts := []genPart{
		{Text: DefaultVisionPrompt},
		{InlineData: &genInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
	}
	return b.generate(ctx, "vision", b.cfg.VisionModel, parts)
}

// generate calls the model. Unreachable or failing upstreams produce a
// fallback Generation, never an error; only an unreadable 200 response is an error.
func (b *GenAIBridge) generate(ctx context.Context, kind, model string, parts []genPart) (Generation, error) {
	if b.cfg.APIKey == "" {
		b.metrics.ObserveUpstream("gemini", kind, "unconfigured")
		return fallbackGeneration(kind, "model not initialized, check the API key"), nil
	}

	body, err := json.Marshal(genContentRequest{Contents: []genContent{{Role: "user", Parts: parts}}})
	if err != nil {
		return Generation{}, fmt.Errorf("genai: failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(b.cfg.BaseURL, "/"), url.PathEscape(model), url.QueryEscape(b.cfg.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Generation{}, fmt.Errorf("genai: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		b.log.Warn("gemini request failed", "kind", kind, "model", model, "error", err)
		b.metrics.ObserveUpstream("gemini", kind, "error")
		return fallbackGeneration(kind, "the AI service is unavailable"), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b.log.Warn("gemini returned non-200", "kind", kind, "model", model, "status", resp.StatusCode)
		b.metrics.ObserveUpstream("gemini", kind, "error")
		return fallbackGeneration(kind, fmt.Sprintf("the AI service returned status %d", resp.StatusCode)), nil
	}

	var out genContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		b.metrics.ObserveUpstream("gemini", kind, "error")
		return Generation{}, fmt.Errorf("genai: failed to decode response: %w", err)
	}

	var text strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		b.metrics.ObserveUpstream("gemini", kind, "empty")
		return fallbackGeneration(kind, "the AI service returned no content"), nil
	}

	b.metrics.ObserveUpstream("gemini", kind, "ok")
	return Generation{Text: text.String()}, nil
}

func fallbackGeneration(kind, reason string) Generation {
	what := "generating suggestions"
	if kind == "vision" {
		what = "analyzing the image"
	}
	return Generation{
		Text:       fmt.Sprintf("Error %s: %s. Please try again later.", what, reason),
		IsFallback: true,
	}
}
