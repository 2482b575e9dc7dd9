package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY",
		"API_KEY",
		"VIN_DECODER_INFERENCE_API_KEY",
		"VIN_DECODER_INFERENCE_BASE_URL",
		"VIN_DECODER_AUTH_JWT_SECRET",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("VIN_DECODER_LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderMarkdownFromFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"vin":"W0L000051T123456","make":"Opel","model":"Corsa D 1.4","year":2010}`), 0o644))
	out := filepath.Join(dir, "reports", "corsa.md")

	_, err := run(t, "", "render", "--in", in, "--format", "md", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Opel Corsa D 1.4")
	assert.Contains(t, string(data), "W0L000051T123456")
}

func TestRenderPDFToStdout(t *testing.T) {
	isolateEnv(t)

	stdout, err := run(t, `{"vin":"W0L000051T123456","make":"Opel"}`, "render", "--in", "-", "--out", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "%PDF-"))
}

func TestRenderRejectsBadInput(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "not json", "render", "--in", "-", "--out", "-")
	assert.ErrorContains(t, err, "failed to parse profile")

	_, err = run(t, "{}", "render", "--in", "-", "--format", "docx")
	assert.ErrorContains(t, err, "unsupported report format")

	_, err = run(t, "", "render")
	assert.Error(t, err)
}

func TestDecodeRequiresAPIKey(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "", "decode", "--vin", "W0L000051T123456")
	assert.ErrorContains(t, err, "inference.api_key is required")
}

func TestServeValidatesConfig(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
	assert.Contains(t, err.Error(), "inference.api_key is required")
}

func TestDecodeWritesJSON(t *testing.T) {
	isolateEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		text := `{"vin":"W0L000051T123456","make":"Opel","model":"Corsa D 1.4","year":2010}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": text}},
					},
				},
			},
		})
	}))
	defer srv.Close()

	t.Setenv("VIN_DECODER_INFERENCE_API_KEY", "test-key")
	t.Setenv("VIN_DECODER_INFERENCE_BASE_URL", srv.URL)

	stdout, err := run(t, "", "decode", "--vin", "w0l000051t123456", "--format", "json", "--out", "-")
	require.NoError(t, err)

	var profile map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &profile))
	assert.Equal(t, "Opel", profile["make"])
	assert.Equal(t, "W0L000051T123456", profile["vin"])
}

func TestDecodeRejectsFormatBeforeLookup(t *testing.T) {
	isolateEnv(t)
	t.Setenv("VIN_DECODER_INFERENCE_API_KEY", "test-key")

	_, err := run(t, "", "decode", "--vin", "W0L000051T123456", "--format", "xlsx")
	assert.ErrorContains(t, err, "unsupported report format")
}
