package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oekaki-dex/backend/internal/common"
	"github.com/oekaki-dex/backend/internal/config"
	"github.com/oekaki-dex/backend/internal/domain"
	pkglogger "github.com/oekaki-dex/backend/pkg/logger"
)

var generationCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_calls_total",
		Help: "Total number of generation requests by outcome",
	},
	[]string{"outcome"},
)

// GenerationService derives creature metadata from a drawing by calling
// the Gemini generateContent API. With no API key configured it runs in
// placeholder mode: a deterministic stand-in profile, not an error.
type GenerationService struct {
	apiKey     string
	model      string
	endpoint   string // API base URL (e.g. "https://generativelanguage.googleapis.com/v1beta")
	httpClient *http.Client
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(cfg config.GeminiConfig) *GenerationService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &GenerationService{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enabled reports whether a generation credential is configured
func (s *GenerationService) Enabled() bool {
	return s.apiKey != ""
}

// Generate produces a creature profile for the stored image. Placeholder
// mode never fails; with a credential, transport or API errors wrap
// common.ErrGeneration and abort the submission upstream.
func (s *GenerationService) Generate(ctx context.Context, imagePath, name, hint string) (domain.GeneratedProfile, error) {
	if !s.Enabled() {
		generationCallsTotal.WithLabelValues("placeholder").Inc()
		return domain.PlaceholderProfile(name, hint), nil
	}

	imgData, err := os.ReadFile(imagePath)
	if err != nil {
		generationCallsTotal.WithLabelValues("error").Inc()
		return domain.GeneratedProfile{}, fmt.Errorf("%w: read image: %v", common.ErrGeneration, err)
	}

	rawText, err := s.callModel(ctx, imgData, name, hint)
	if err != nil {
		generationCallsTotal.WithLabelValues("error").Inc()
		return domain.GeneratedProfile{}, err
	}
	generationCallsTotal.WithLabelValues("ok").Inc()

	pkglogger.GetLogger().Debug().
		Str("model", s.model).
		Str("raw_output", rawText).
		Msg("generation raw output")

	return parseProfile(rawText), nil
}

// callModel submits the image plus instruction bundle and returns the
// model's raw text response.
func (s *GenerationService) callModel(ctx context.Context, imgData []byte, name, hint string) (string, error) {
	parts := []map[string]interface{}{
		{
			"inline_data": map[string]string{
				"mime_type": "image/png",
				"data":      base64.StdEncoding.EncodeToString(imgData),
			},
		},
		{"text": fmt.Sprintf("The character's name is %q.", name)},
		{"text": buildSchemaInstruction()},
		{"text": "The description field should be 3-5 sentences covering personality, daily life and how the abilities are used, written to be fun to read in an encyclopedia."},
	}
	if hint != "" {
		parts = append(parts, map[string]interface{}{"text": "Hint: " + hint})
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": parts},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrGeneration, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", s.endpoint, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrGeneration, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrGeneration, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API error (%d): %s", common.ErrGeneration, resp.StatusCode, truncateStr(string(respBody), 200))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", common.ErrGeneration, err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no text in model response", common.ErrGeneration)
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// buildSchemaInstruction demands JSON-only output in the dex entry shape
func buildSchemaInstruction() string {
	return `Output in the following JSON format. Do not write any extra prose, return only the JSON.
{
  "name": "<character name (echo the name you were given unchanged)>",
  "race_job": "<race or occupation>",
  "appearance": "<visual characteristics>",
  "personality": "<personality>",
  "ability": "<abilities>",
  "description": "<overall encyclopedia description>",
  "hint": "<hint (if any)>"
}`
}

// extractJSON extracts the first brace-delimited balanced region: the
// leftmost '{' through the rightmost '}', inclusive. Returns "" when the
// text holds no such region.
func extractJSON(rawText string) string {
	start := strings.Index(rawText, "{")
	end := strings.LastIndex(rawText, "}")
	if start < 0 || end < start {
		return ""
	}
	return rawText[start : end+1]
}

// parseProfile applies the two-stage contract: best-effort structured
// extraction, falling back to a profile whose description is the raw
// response text verbatim.
func parseProfile(rawText string) domain.GeneratedProfile {
	jsonStr := extractJSON(rawText)
	if jsonStr != "" {
		var p domain.GeneratedProfile
		if err := json.Unmarshal([]byte(jsonStr), &p); err == nil {
			return p
		}
		pkglogger.GetLogger().Warn().
			Str("raw_output", truncateStr(rawText, 200)).
			Msg("generation output not valid JSON, falling back to raw text")
	}
	return domain.GeneratedProfile{Description: rawText}
}

// truncateStr truncates a string to maxLen bytes
func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
