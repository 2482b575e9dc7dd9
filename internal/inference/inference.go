package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vin-decoder-service/internal/domain/vehicle"
)

var (
	// ErrLookupFailed covers transport faults, upstream errors and empty content.
	ErrLookupFailed = errors.New("vehicle lookup failed")
	// ErrMalformedResponse is returned when content arrived but is not a JSON object.
	ErrMalformedResponse = errors.New("malformed vehicle data")
)

// Client resolves a VIN into an unvalidated vehicle record.
type Client interface {
	RequestProfile(ctx context.Context, vin string) (vehicle.RawResponse, error)
}

// ErrorKind names the failure class for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrLookupFailed):
		return "lookup_failed"
	default:
		return "unknown"
	}
}

// ParseRawResponse decodes model output into a RawResponse. Numbers are kept as
// json.Number so integer fields survive without float rounding.
func ParseRawResponse(text string) (vehicle.RawResponse, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return nil, fmt.Errorf("%w: no data received", ErrLookupFailed)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedResponse)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %T", ErrMalformedResponse, v)
	}
	return vehicle.RawResponse(obj), nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
