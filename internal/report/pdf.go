package report

import (
	"bytes"
	"time"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

// documentDate is stamped as creation and modification date so identical
// profiles produce byte-identical files.
var documentDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type PDFOptions struct {
	Page     PageConfig
	Compress bool
	Title    string
	Creator  string
}

// PDFCanvas draws onto an fpdf document using the core Helvetica font.
// Text is translated to cp1252 so umlauts and the bullet glyph survive.
// Runes outside cp1252 (subscripts, CJK, emoji) are drawn as "."; use the
// Markdown export when the profile needs full UTF-8.
type PDFCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func NewPDFCanvas(opts PDFOptions) *PDFCanvas {
	page := opts.Page
	if page.Width <= 0 || page.Height <= 0 {
		page = DefaultPageConfig()
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(page.LeftMargin, page.TopMargin, page.RightMargin)
	pdf.SetCompression(opts.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Creator != "" {
		pdf.SetCreator(opts.Creator, true)
	}

	return &PDFCanvas{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (c *PDFCanvas) DrawText(text string, x, y float64, style Style) {
	c.pdf.SetFont(fontFamily, fontStyle(style), style.Size)
	c.pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)
	c.pdf.Text(x, y, c.tr(text))
}

func (c *PDFCanvas) DrawLine(x1, y1, x2, y2 float64) {
	c.pdf.SetDrawColor(ruleColor.R, ruleColor.G, ruleColor.B)
	c.pdf.Line(x1, y1, x2, y2)
}

func (c *PDFCanvas) NewPage() {
	c.pdf.AddPage()
}

func (c *PDFCanvas) PageCount() int {
	return c.pdf.PageCount()
}

func (c *PDFCanvas) SetPage(n int) {
	c.pdf.SetPage(n)
}

// Bytes closes the document and returns its encoded form.
func (c *PDFCanvas) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fontStyle(s Style) string {
	switch {
	case s.Bold && s.Italic:
		return "BI"
	case s.Bold:
		return "B"
	case s.Italic:
		return "I"
	default:
		return ""
	}
}
