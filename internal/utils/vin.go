package utils

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MinVINLength = 11
	MaxVINLength = 17
)

var ErrVINLength = errors.New("a valid VIN usually has 17 characters")

// NormalizeVIN trims surrounding whitespace and upper-cases the input.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// ValidateVINLength accepts between MinVINLength and MaxVINLength characters.
// Only the length is checked; checksum and alphabet rules are not applied.
func ValidateVINLength(vin string) error {
	n := utf8.RuneCountInString(vin)
	if n < MinVINLength || n > MaxVINLength {
		return ErrVINLength
	}
	return nil
}

// SafeFilename replaces every rune outside [A-Za-z0-9] with an underscore.
func SafeFilename(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ReportFilename builds "<make>_<model>_<vin>.<ext>" with every character of
// the stem outside [A-Za-z0-9] replaced by an underscore.
func ReportFilename(vehicleMake, model, vin, ext string) string {
	if vehicleMake == "" {
		vehicleMake = "Vehicle"
	}
	if model == "" {
		model = "Report"
	}
	if vin == "" {
		vin = "Data"
	}
	return SafeFilename(vehicleMake+"_"+model+"_"+vin) + "." + ext
}
