package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vin-decoder-service/internal/domain/vehicle"
)

const corsaJSON = `{
  "vin": "W0L000051T123456",
  "make": "Opel",
  "model": "Corsa D 1.4",
  "year": 2010,
  "technicalData": {"horsepower": 101, "kilowatts": 74},
  "standardEquipment": [{"category": "Safety & Security", "items": ["ABS", "ESP"]}]
}`

type reply struct {
	status int
	body   string
}

func candidate(text string) reply {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	})
	return reply{status: http.StatusOK, body: string(payload)}
}

func apiError(code int) reply {
	return reply{
		status: code,
		body:   fmt.Sprintf(`{"error":{"code":%d,"message":"upstream","status":"UNAVAILABLE"}}`, code),
	}
}

// fakeGemini serves scripted generateContent replies; the last reply repeats.
type fakeGemini struct {
	*httptest.Server
	hits    atomic.Int32
	replies []reply
	bodies  chan string
}

func newFakeGemini(t *testing.T, replies ...reply) *fakeGemini {
	t.Helper()
	f := &fakeGemini{replies: replies, bodies: make(chan string, 16)}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(f.hits.Add(1)) - 1
		if !strings.HasSuffix(r.URL.Path, ":generateContent") || r.Header.Get("x-goog-api-key") != "test-key" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		select {
		case f.bodies <- string(body):
		default:
		}
		if n >= len(f.replies) {
			n = len(f.replies) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.replies[n].status)
		_, _ = io.WriteString(w, f.replies[n].body)
	}))
	t.Cleanup(f.Close)
	return f
}

func newTestClient(t *testing.T, srv *fakeGemini, mutate func(*GeminiConfig)) *GeminiClient {
	t.Helper()
	cfg := GeminiConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewGeminiClient(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestRequestProfileSuccess(t *testing.T) {
	srv := newFakeGemini(t, candidate(corsaJSON))
	c := newTestClient(t, srv, nil)

	raw, err := c.RequestProfile(context.Background(), "W0L000051T123456")
	require.NoError(t, err)

	assert.Equal(t, "Opel", raw["make"])
	assert.Equal(t, json.Number("2010"), raw["year"])
	assert.Equal(t, int32(1), srv.hits.Load())

	p := vehicle.Sanitize(raw, "W0L000051T123456")
	assert.Equal(t, 101, p.TechnicalSpecs.Horsepower)
	assert.Equal(t, "Standard", p.TrimLevel)

	body := <-srv.bodies
	assert.Contains(t, body, "W0L000051T123456")
	assert.Contains(t, body, `"responseMimeType":"application/json"`)
	assert.Contains(t, body, "technicalData")
}

func TestRequestProfileRetriesTransientErrors(t *testing.T) {
	srv := newFakeGemini(t, apiError(http.StatusServiceUnavailable), apiError(http.StatusTooManyRequests), candidate(corsaJSON))
	c := newTestClient(t, srv, nil)

	raw, err := c.RequestProfile(context.Background(), "W0L000051T123456")
	require.NoError(t, err)
	assert.Equal(t, "Opel", raw["make"])
	assert.Equal(t, int32(3), srv.hits.Load())
}

func TestRequestProfileGivesUpAfterMaxRetries(t *testing.T) {
	srv := newFakeGemini(t, apiError(http.StatusInternalServerError))
	c := newTestClient(t, srv, func(cfg *GeminiConfig) { cfg.MaxRetries = 1 })

	_, err := c.RequestProfile(context.Background(), "W0L000051T123456")
	require.ErrorIs(t, err, ErrLookupFailed)
	assert.Equal(t, "lookup_failed", ErrorKind(err))
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestRequestProfileRetriesWaitForRateLimiter(t *testing.T) {
	srv := newFakeGemini(t, apiError(http.StatusServiceUnavailable), candidate(corsaJSON))
	c := newTestClient(t, srv, func(cfg *GeminiConfig) {
		// One token every two seconds; the retry cannot get one within the timeout.
		cfg.RatePerSecond = 0.5
		cfg.Burst = 1
		cfg.Timeout = 500 * time.Millisecond
	})

	_, err := c.RequestProfile(context.Background(), "W0L000051T123456")
	require.ErrorIs(t, err, ErrLookupFailed)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Equal(t, int32(1), srv.hits.Load())
}

func TestRequestProfileClientErrorIsNotRetried(t *testing.T) {
	srv := newFakeGemini(t, apiError(http.StatusBadRequest))
	c := newTestClient(t, srv, nil)

	_, err := c.RequestProfile(context.Background(), "W0L000051T123456")
	require.ErrorIs(t, err, ErrLookupFailed)
	assert.Equal(t, int32(1), srv.hits.Load())
}

func TestRequestProfileMalformedIsNotRetried(t *testing.T) {
	srv := newFakeGemini(t, candidate("this is not json"))
	c := newTestClient(t, srv, nil)

	_, err := c.RequestProfile(context.Background(), "W0L000051T123456")
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.NotErrorIs(t, err, ErrLookupFailed)
	assert.Equal(t, "malformed_response", ErrorKind(err))
	assert.Equal(t, int32(1), srv.hits.Load())
}

func TestRequestProfileEmptyContent(t *testing.T) {
	srv := newFakeGemini(t, reply{status: http.StatusOK, body: `{"candidates":[]}`})
	c := newTestClient(t, srv, nil)

	_, err := c.RequestProfile(context.Background(), "W0L000051T123456")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestRequestProfileHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)

	start := time.Now()
	_, err = c.RequestProfile(context.Background(), "W0L000051T123456")
	require.ErrorIs(t, err, ErrLookupFailed)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{}, zerolog.Nop())
	assert.Error(t, err)
}
