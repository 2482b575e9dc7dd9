package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVIN(t *testing.T) {
	assert.Equal(t, "W0L000051T123456", NormalizeVIN("  w0l000051t123456\n"))
	assert.Equal(t, "", NormalizeVIN("   "))
}

func TestValidateVINLength(t *testing.T) {
	tests := []struct {
		name    string
		vin     string
		wantErr bool
	}{
		{"empty", "", true},
		{"too short", "W0L00005", true},
		{"eleven", "W0L00005123", false},
		{"seventeen", "W0L000051T1234567", false},
		{"eighteen", "W0L000051T12345678", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVINLength(tt.vin)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrVINLength)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReportFilename(t *testing.T) {
	name := ReportFilename("Opel/Corsa", "1.4 Turbo", "W0L000051T123456", "pdf")

	assert.Equal(t, "Opel_Corsa_1_4_Turbo_W0L000051T123456.pdf", name)
	stem := name[:len(name)-len(".pdf")]
	require.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_]+$`), stem)
}

func TestReportFilenameFallbacks(t *testing.T) {
	assert.Equal(t, "Vehicle_Report_Data.md", ReportFilename("", "", "", "md"))
}

func TestSafeFilenameNonASCII(t *testing.T) {
	assert.Equal(t, "K_ln_Stra_e", SafeFilename("Köln Straße"))
}
