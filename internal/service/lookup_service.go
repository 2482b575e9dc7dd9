package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"vin-decoder-service/internal/domain/vehicle"
	"vin-decoder-service/internal/inference"
	"vin-decoder-service/internal/metrics"
	"vin-decoder-service/internal/repository"
	"vin-decoder-service/internal/session"
	"vin-decoder-service/internal/utils"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// UserErrorMessage is shown for every inference failure; the cause is only logged.
const UserErrorMessage = "Failed to process vehicle data."

// AuditLog persists lookup outcomes. A nil AuditLog disables auditing.
type AuditLog interface {
	Record(ctx context.Context, entry *repository.LookupAudit) error
	Recent(ctx context.Context, username *string, limit, offset int) ([]repository.LookupAudit, error)
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type LookupService struct {
	client  inference.Client
	audit   AuditLog
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewLookupService(client inference.Client, audit AuditLog, m *metrics.Metrics, log zerolog.Logger) *LookupService {
	return &LookupService{
		client:  client,
		audit:   audit,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// NormalizeVIN trims, upper-cases and length-checks user input.
func NormalizeVIN(raw string) (string, error) {
	vin := utils.NormalizeVIN(raw)
	if vin == "" {
		return "", fmt.Errorf("%w: vin is required", ErrInvalidInput)
	}
	if err := utils.ValidateVINLength(vin); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return vin, nil
}

// Decode resolves a VIN into a sanitized profile without touching any session.
func (s *LookupService) Decode(ctx context.Context, rawVIN string) (vehicle.Profile, error) {
	vin, err := NormalizeVIN(rawVIN)
	if err != nil {
		return vehicle.Profile{}, err
	}
	return s.decode(ctx, "", vin)
}

// Lookup runs a decode on behalf of a session. A second call while the first
// is still running fails with session.ErrLookupInFlight.
func (s *LookupService) Lookup(ctx context.Context, sess *session.Session, rawVIN string) (vehicle.Profile, error) {
	vin, err := NormalizeVIN(rawVIN)
	if err != nil {
		return vehicle.Profile{}, err
	}

	if err := sess.Begin(ctx, vin); err != nil {
		if errors.Is(err, session.ErrLookupInFlight) {
			s.observe(metrics.OutcomeRejected, 0)
			s.log.Warn().
				Str("session_id", sess.ID).
				Str("username", sess.Username).
				Str("vin", vin).
				Msg("lookup rejected, another one is in flight")
		}
		return vehicle.Profile{}, err
	}

	// The session must leave LOADING even if the caller went away.
	settleCtx := context.WithoutCancel(ctx)

	profile, err := s.decode(ctx, sess.Username, vin)
	if err != nil {
		if ferr := sess.Fail(settleCtx, UserErrorMessage); ferr != nil {
			s.log.Error().Err(ferr).Str("session_id", sess.ID).Msg("failed to record lookup failure")
		}
		return vehicle.Profile{}, err
	}

	if err := sess.Succeed(settleCtx, profile); err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("failed to record lookup result")
		return vehicle.Profile{}, err
	}
	return profile, nil
}

func (s *LookupService) decode(ctx context.Context, username, vin string) (vehicle.Profile, error) {
	start := s.now()
	raw, err := s.client.RequestProfile(ctx, vin)
	elapsed := s.now().Sub(start)

	if err != nil {
		kind := inference.ErrorKind(err)
		s.log.Error().
			Err(err).
			Str("error_kind", kind).
			Str("username", username).
			Str("vin", vin).
			Dur("duration", elapsed).
			Msg("vehicle lookup failed")
		s.observe(kind, elapsed)
		s.record(ctx, username, vin, kind, elapsed, nil)
		return vehicle.Profile{}, err
	}

	profile := vehicle.Sanitize(raw, vin)

	s.log.Info().
		Str("username", username).
		Str("vin", vin).
		Str("vehicle", profile.DisplayName()).
		Int("standard_categories", len(profile.StandardEquipment)).
		Int("optional_categories", len(profile.OptionalEquipment)).
		Dur("duration", elapsed).
		Msg("vehicle decoded")
	s.observe(metrics.OutcomeSuccess, elapsed)
	s.record(ctx, username, vin, "", elapsed, datatypes.JSONMap{
		"standard_categories": len(profile.StandardEquipment),
		"optional_categories": len(profile.OptionalEquipment),
	})
	return profile, nil
}

func (s *LookupService) observe(outcome string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveLookup(outcome, d)
	}
}

func (s *LookupService) record(ctx context.Context, username, vin, errorKind string, d time.Duration, details datatypes.JSONMap) {
	if s.audit == nil {
		return
	}

	outcome := metrics.OutcomeSuccess
	entry := &repository.LookupAudit{
		Username:   username,
		VIN:        vin,
		DurationMs: d.Milliseconds(),
		Details:    details,
	}
	if errorKind != "" {
		outcome = errorKind
		entry.ErrorKind = &errorKind
	}
	entry.Outcome = outcome

	if err := s.audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error().Err(err).Str("vin", vin).Msg("failed to write lookup audit")
	}
}

// History lists the caller's recent lookups, newest first.
func (s *LookupService) History(ctx context.Context, username string, limit, offset int) ([]AuditEntry, error) {
	if s.audit == nil {
		return []AuditEntry{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.audit.Recent(ctx, &username, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup history: %w", err)
	}

	result := make([]AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry := AuditEntry{
			ID:         row.ID,
			VIN:        row.VIN,
			Outcome:    row.Outcome,
			DurationMs: row.DurationMs,
			CreatedAt:  row.CreatedAt,
		}
		if row.ErrorKind != nil {
			entry.ErrorKind = *row.ErrorKind
		}
		result = append(result, entry)
	}
	return result, nil
}

// Stats counts lookups per outcome since the given time.
func (s *LookupService) Stats(ctx context.Context, since time.Time) (map[string]int64, error) {
	if s.audit == nil {
		return map[string]int64{}, nil
	}
	counts, err := s.audit.CountByOutcome(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count lookups: %w", err)
	}
	return counts, nil
}

// CleanupHistory deletes audit rows older than age.
func (s *LookupService) CleanupHistory(ctx context.Context, age time.Duration) (int64, error) {
	if s.audit == nil || age <= 0 {
		return 0, nil
	}
	deleted, err := s.audit.DeleteOlderThan(ctx, age)
	if err != nil {
		s.log.Error().Err(err).Dur("retention", age).Msg("failed to cleanup lookup audit")
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted_count", deleted).Dur("retention", age).Msg("cleaned up lookup audit")
	}
	return deleted, nil
}

type AuditEntry struct {
	ID         string    `json:"id"`
	VIN        string    `json:"vin"`
	Outcome    string    `json:"outcome"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
