package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oekaki-dex/backend/internal/common"
	"github.com/oekaki-dex/backend/internal/config"
	pkglogger "github.com/oekaki-dex/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	pkglogger.InitStructured("test")
	os.Exit(m.Run())
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50, 0x4e, 0x47}, 0o644))
	return path
}

func TestPlaceholderModeWithoutCredential(t *testing.T) {
	svc := NewGenerationService(config.GeminiConfig{})
	assert.False(t, svc.Enabled())

	profile, err := svc.Generate(context.Background(), "ignored.png", "Mochi", "fluffy and round")
	require.NoError(t, err)

	assert.Equal(t, "Mochi", profile.Name)
	assert.Equal(t, "-", profile.RaceJob)
	assert.Equal(t, "-", profile.Appearance)
	assert.Equal(t, "-", profile.Personality)
	assert.Equal(t, "-", profile.Ability)
	assert.Contains(t, profile.Description, "Mochi")
	assert.Contains(t, profile.Description, "fluffy and round")
}

func TestPlaceholderModeEmptyHint(t *testing.T) {
	svc := NewGenerationService(config.GeminiConfig{})

	profile, err := svc.Generate(context.Background(), "ignored.png", "Mochi", "")
	require.NoError(t, err)
	assert.Contains(t, profile.Description, "none")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"prose around", "Sure! Here it is:\n{\"a\":1}\nEnjoy.", `{"a":1}`},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"no braces", "just some text", ""},
		{"only open brace", "{ broken", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestParseProfileFallsBackToRawText(t *testing.T) {
	raw := "the model refused to answer in JSON"
	profile := parseProfile(raw)
	assert.Equal(t, raw, profile.Description)
	assert.Empty(t, profile.RaceJob)
}

func TestParseProfileInvalidJSONFallsBack(t *testing.T) {
	raw := "{this is not json}"
	profile := parseProfile(raw)
	assert.Equal(t, raw, profile.Description)
}

func TestParseProfileExtractsFields(t *testing.T) {
	raw := "Here you go:\n{\"name\":\"Mochi\",\"race_job\":\"spirit\",\"description\":\"A round spirit.\"}\nDone."
	profile := parseProfile(raw)
	assert.Equal(t, "Mochi", profile.Name)
	assert.Equal(t, "spirit", profile.RaceJob)
	assert.Equal(t, "A round spirit.", profile.Description)
}

func newModelServer(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("x-goog-api-key"))

		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerateParsesModelResponse(t *testing.T) {
	srv := newModelServer(t, http.StatusOK,
		"```json\n{\"name\":\"Mochi\",\"race_job\":\"forest spirit\",\"appearance\":\"round\",\"personality\":\"gentle\",\"ability\":\"float\",\"description\":\"A gentle floater.\"}\n```")
	defer srv.Close()

	svc := NewGenerationService(config.GeminiConfig{
		APIKey:         "test-key",
		Model:          "gemini-2.5-flash",
		Endpoint:       srv.URL,
		TimeoutSeconds: 5,
	})

	profile, err := svc.Generate(context.Background(), writeTestImage(t), "Mochi", "a hint")
	require.NoError(t, err)
	assert.Equal(t, "forest spirit", profile.RaceJob)
	assert.Equal(t, "float", profile.Ability)
	assert.Equal(t, "A gentle floater.", profile.Description)
}

func TestGenerateNonJSONOutputBecomesDescription(t *testing.T) {
	srv := newModelServer(t, http.StatusOK, "I cannot see a creature here.")
	defer srv.Close()

	svc := NewGenerationService(config.GeminiConfig{
		APIKey:         "test-key",
		Model:          "gemini-2.5-flash",
		Endpoint:       srv.URL,
		TimeoutSeconds: 5,
	})

	profile, err := svc.Generate(context.Background(), writeTestImage(t), "Mochi", "")
	require.NoError(t, err)
	assert.Equal(t, "I cannot see a creature here.", profile.Description)
	assert.Empty(t, profile.RaceJob)
}

func TestGenerateAPIErrorWrapsErrGeneration(t *testing.T) {
	srv := newModelServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	svc := NewGenerationService(config.GeminiConfig{
		APIKey:         "test-key",
		Model:          "gemini-2.5-flash",
		Endpoint:       srv.URL,
		TimeoutSeconds: 5,
	})

	_, err := svc.Generate(context.Background(), writeTestImage(t), "Mochi", "")
	assert.ErrorIs(t, err, common.ErrGeneration)
}

func TestGenerateMissingImageFile(t *testing.T) {
	svc := NewGenerationService(config.GeminiConfig{
		APIKey:         "test-key",
		Model:          "gemini-2.5-flash",
		Endpoint:       "http://127.0.0.1:0",
		TimeoutSeconds: 1,
	})

	_, err := svc.Generate(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "Mochi", "")
	assert.ErrorIs(t, err, common.ErrGeneration)
}
