package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"vin-decoder-service/internal/domain/vehicle"
)

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds a whole RequestProfile call, retries included.
	Timeout       time.Duration
	MaxRetries    int
	RatePerSecond float64
	Burst         int
	// InitialBackoff defaults to 500ms.
	InitialBackoff time.Duration
	HTTPClient     *http.Client
}

type GeminiClient struct {
	client  *genai.Client
	cfg     GeminiConfig
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, log zerolog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &GeminiClient{
		client:  client,
		cfg:     cfg,
		limiter: limiter,
		log:     log,
	}, nil
}

func (c *GeminiClient) Model() string { return c.cfg.Model }

// RequestProfile asks the model for a build sheet and returns the decoded
// JSON object. Transport faults and 429/5xx answers are retried; malformed
// content is not.
func (c *GeminiClient) RequestProfile(ctx context.Context, vin string) (vehicle.RawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
	prompt := genai.Text(buildPrompt(vin))

	attempt := 0
	op := func() (vehicle.RawResponse, error) {
		attempt++
		// Retries are gated like first attempts.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: rate limiter: %v", ErrLookupFailed, err))
		}
		resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, prompt, genCfg)
		if err != nil {
			wrapped := fmt.Errorf("%w: %v", ErrLookupFailed, err)
			if !retryable(ctx, err) {
				return nil, backoff.Permanent(wrapped)
			}
			return nil, wrapped
		}

		raw, err := ParseRawResponse(resp.Text())
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return raw, nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(c.cfg.InitialBackoff),
				backoff.WithMaxElapsedTime(0),
			),
			uint64(c.cfg.MaxRetries),
		),
		ctx,
	)
	notify := func(err error, next time.Duration) {
		c.log.Warn().
			Err(err).
			Str("vin", vin).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("gemini request failed, retrying")
	}

	raw, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err != nil {
		if !errors.Is(err, ErrLookupFailed) && !errors.Is(err, ErrMalformedResponse) {
			err = fmt.Errorf("%w: %v", ErrLookupFailed, err)
		}
		return nil, err
	}
	return raw, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}
