package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"vin-decoder-service/internal/domain/vehicle"
	"vin-decoder-service/internal/utils"
)

// Disclaimer accompanies every rendering meant for people.
const Disclaimer = "The data shown is based on an AI-assisted analysis of the vehicle identification number. " +
	"It may differ from the actual vehicle; compare it with the vehicle documents."

// GenerateMarkdown renders p as a Markdown document with the same section
// order as the PDF.
func (g *Generator) GenerateMarkdown(p vehicle.Profile) (*Document, error) {
	var buf bytes.Buffer
	if err := g.WriteMarkdown(&buf, p); err != nil {
		return nil, err
	}
	return &Document{
		Filename:    utils.ReportFilename(p.Make, p.Model, p.VIN, FormatMarkdown.Extension()),
		Format:      FormatMarkdown,
		ContentType: FormatMarkdown.ContentType(),
		Pages:       1,
		Data:        buf.Bytes(),
	}, nil
}

// WriteMarkdown writes the Markdown rendering of p to w.
func (g *Generator) WriteMarkdown(w io.Writer, p vehicle.Profile) error {
	md := markdown.NewMarkdown(w)
	tech := p.TechnicalSpecs

	md.H1(p.DisplayName())
	md.PlainText("")
	md.PlainText("VIN: `" + p.VIN + "`")
	md.PlainText("")
	if p.Summary != "" {
		md.PlainText(p.Summary)
		md.PlainText("")
	}
	md.HorizontalRule()
	md.PlainText("")

	md.H2(SectionOverview)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Year", strconv.Itoa(p.Year)},
			{"Trim Level", cell(p.TrimLevel)},
			{"Body Type", cell(p.BodyType)},
			{"Engine", cell(tech.EngineType)},
			{"Power", tech.PowerLine()},
			{"Transmission", cell(tech.Transmission)},
			{"Fuel Type", cell(tech.FuelType)},
		},
	})
	md.PlainText("")

	md.H2(SectionTechnical)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Displacement", cell(tech.Displacement)},
			{"Torque", cell(tech.Torque)},
			{"Drivetrain", cell(tech.Drivetrain)},
			{"Top Speed", cell(tech.TopSpeed)},
			{"Acceleration (0-100)", cell(tech.Acceleration)},
			{"Fuel Consumption (comb.)", cell(tech.FuelConsumption)},
			{"CO2 Emissions", cell(tech.CO2Emissions)},
		},
	})
	md.PlainText("")

	writeMarkdownEquipment(md, SectionStandard, p.StandardEquipment)
	writeMarkdownEquipment(md, SectionOptional, p.OptionalEquipment)

	md.Note(Disclaimer)
	md.PlainText("")
	md.PlainText(fmt.Sprintf("_Generated by %s_", g.opts.ProductName))
	md.PlainText("")

	return md.Build()
}

func writeMarkdownEquipment(md *markdown.Markdown, title string, list []vehicle.EquipmentCategory) {
	md.H2(title)
	md.PlainText("")
	if len(list) == 0 {
		md.PlainText("_" + NoDataNotice + "_")
		md.PlainText("")
		return
	}
	for _, cat := range list {
		md.H3(cat.Category)
		md.PlainText("")
		if len(cat.Items) > 0 {
			md.BulletList(cat.Items...)
			md.PlainText("")
		}
	}
}

var markdownPipe = strings.NewReplacer("|", "\\|")

// cell keeps pipes in free text from breaking the table.
func cell(s string) string {
	return markdownPipe.Replace(s)
}
