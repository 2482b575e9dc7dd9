package report

import (
	"fmt"
	"strconv"

	"vin-decoder-service/internal/domain/vehicle"
	"vin-decoder-service/internal/utils"
)

const (
	DefaultProductName = "VIN Decoder Pro"
	NoDataNotice       = "No data available"

	SectionOverview  = "Vehicle Overview"
	SectionTechnical = "Technical Data"
	SectionStandard  = "Standard Equipment"
	SectionOptional  = "Optional Equipment (probable)"

	sectionGap   = 10
	equipmentGap = 5
	categoryGap  = 5
)

type Options struct {
	ProductName string
	Page        PageConfig
	// Compress enables stream compression in the PDF output.
	Compress bool
}

func DefaultOptions() Options {
	return Options{
		ProductName: DefaultProductName,
		Page:        DefaultPageConfig(),
		Compress:    true,
	}
}

// Generator turns profiles into documents. It holds no per-document state and
// is safe for concurrent use.
type Generator struct {
	opts Options
}

func NewGenerator(opts Options) *Generator {
	if opts.ProductName == "" {
		opts.ProductName = DefaultProductName
	}
	if opts.Page.Height <= 0 || opts.Page.Width <= 0 {
		opts.Page = DefaultPageConfig()
	}
	return &Generator{opts: opts}
}

func (g *Generator) ProductName() string { return g.opts.ProductName }

// Generate renders p as a PDF document.
func (g *Generator) Generate(p vehicle.Profile) (*Document, error) {
	c := NewPDFCanvas(PDFOptions{
		Page:     g.opts.Page,
		Compress: g.opts.Compress,
		Title:    p.DisplayName(),
		Creator:  g.opts.ProductName,
	})
	g.Render(c, p)

	data, err := c.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	return &Document{
		Filename:    utils.ReportFilename(p.Make, p.Model, p.VIN, FormatPDF.Extension()),
		Format:      FormatPDF,
		ContentType: FormatPDF.ContentType(),
		Pages:       c.PageCount(),
		Data:        data,
	}, nil
}

// Export renders p in the requested format.
func (g *Generator) Export(format Format, p vehicle.Profile) (*Document, error) {
	switch format {
	case FormatPDF:
		return g.Generate(p)
	case FormatMarkdown:
		return g.GenerateMarkdown(p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Render emits the full document body followed by the footer pass onto c.
// It returns the layout so callers can inspect the final cursor state.
func (g *Generator) Render(c Canvas, p vehicle.Profile) *Layout {
	l := NewLayout(c, g.opts.Page)
	tech := p.TechnicalSpecs

	l.Title(p.DisplayName())
	l.Subtitle("VIN: " + p.VIN)
	l.Rule()

	l.SectionTitle(SectionOverview)
	l.KeyValue("Year", strconv.Itoa(p.Year))
	l.KeyValue("Trim Level", p.TrimLevel)
	l.KeyValue("Body Type", p.BodyType)
	l.KeyValue("Engine", tech.EngineType)
	l.KeyValue("Power", tech.PowerLine())
	l.KeyValue("Transmission", tech.Transmission)
	l.KeyValue("Fuel Type", tech.FuelType)

	l.Space(sectionGap)
	l.SectionTitle(SectionTechnical)
	l.KeyValue("Displacement", tech.Displacement)
	l.KeyValue("Torque", tech.Torque)
	l.KeyValue("Drivetrain", tech.Drivetrain)
	l.KeyValue("Top Speed", tech.TopSpeed)
	l.KeyValue("Acceleration (0-100)", tech.Acceleration)
	l.KeyValue("Fuel Consumption (comb.)", tech.FuelConsumption)
	l.KeyValue("CO2 Emissions", tech.CO2Emissions)

	l.Space(sectionGap)
	renderEquipment(l, SectionStandard, p.StandardEquipment)
	l.Space(equipmentGap)
	renderEquipment(l, SectionOptional, p.OptionalEquipment)

	l.Footer(g.footer)
	return l
}

func (g *Generator) footer(page, total int) string {
	return fmt.Sprintf("Page %d of %d | Generated by %s", page, total, g.opts.ProductName)
}

func renderEquipment(l *Layout, title string, list []vehicle.EquipmentCategory) {
	l.SectionTitle(title)
	if len(list) == 0 {
		l.Notice(NoDataNotice)
		return
	}
	for _, cat := range list {
		l.CategoryHeading(cat.Category)
		for _, item := range cat.Items {
			l.Bullet(item)
		}
		l.Space(categoryGap)
	}
}
