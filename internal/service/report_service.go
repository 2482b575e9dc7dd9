package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"vin-decoder-service/internal/domain/vehicle"
	"vin-decoder-service/internal/metrics"
	"vin-decoder-service/internal/report"
)

type ReportService struct {
	generator *report.Generator
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func NewReportService(generator *report.Generator, m *metrics.Metrics, log zerolog.Logger) *ReportService {
	return &ReportService{
		generator: generator,
		metrics:   m,
		log:       log,
	}
}

// Render builds a document for a profile that was already sanitized.
func (s *ReportService) Render(format report.Format, p vehicle.Profile) (*report.Document, error) {
	doc, err := s.generator.Export(format, p)
	if err != nil {
		if errors.Is(err, report.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		s.log.Error().
			Err(err).
			Str("format", string(format)).
			Str("vin", p.VIN).
			Msg("report generation failed")
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	if s.metrics != nil {
		pages := 0
		if doc.Format == report.FormatPDF {
			pages = doc.Pages
		}
		s.metrics.ObserveReport(string(doc.Format), pages)
	}

	s.log.Info().
		Str("format", string(doc.Format)).
		Str("filename", doc.Filename).
		Int("pages", doc.Pages).
		Int("bytes", len(doc.Data)).
		Msg("report generated")
	return doc, nil
}

// RenderSubmitted re-applies the defaults to a client-supplied profile first.
func (s *ReportService) RenderSubmitted(format report.Format, p vehicle.Profile) (*report.Document, error) {
	return s.Render(format, vehicle.SanitizeProfile(p))
}

func ParseFormat(s string) (report.Format, error) {
	f, err := report.ParseFormat(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return f, nil
}
