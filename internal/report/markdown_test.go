package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMarkdown(t *testing.T) {
	doc, err := NewGenerator(DefaultOptions()).GenerateMarkdown(sampleProfile())
	require.NoError(t, err)

	out := string(doc.Data)
	assert.Equal(t, "Opel_Corsa_D_1_4_W0L000051T123456.md", doc.Filename)
	assert.Equal(t, "text/markdown; charset=utf-8", doc.ContentType)

	assert.True(t, strings.HasPrefix(out, "# Opel Corsa D 1.4\n"))
	assert.Contains(t, out, "VIN: `W0L000051T123456`")
	assert.Contains(t, out, "| Power | 101 PS (74 kW) |")
	assert.Contains(t, out, "### Safety & Security\n\n- ABS\n- ESP\n")
	assert.Contains(t, out, "_Generated by VIN Decoder Pro_")
	assert.Contains(t, out, "> [!NOTE]")

	order := []string{"## " + SectionOverview, "## " + SectionTechnical, "## " + SectionStandard,
		"### Safety & Security", "### Interior & Comfort", "## " + SectionOptional, "### Winter Package"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		require.Greater(t, idx, last, marker)
		last = idx
	}
}

func TestGenerateMarkdownEmptySections(t *testing.T) {
	p := sampleProfile()
	p.StandardEquipment = nil
	p.OptionalEquipment = nil

	doc, err := NewGenerator(DefaultOptions()).GenerateMarkdown(p)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(string(doc.Data), "_"+NoDataNotice+"_"))
	assert.NotContains(t, string(doc.Data), "### ")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	p := sampleProfile()
	p.TechnicalSpecs.Torque = "130 Nm | 3800 rpm"

	var sb strings.Builder
	require.NoError(t, NewGenerator(DefaultOptions()).WriteMarkdown(&sb, p))

	assert.Contains(t, sb.String(), `| Torque | 130 Nm \| 3800 rpm |`)
}
