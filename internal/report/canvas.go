package report

// Color is an RGB triple in the 0..255 range.
type Color struct {
	R, G, B int
}

// Style describes how a run of text is drawn.
type Style struct {
	Size   float64
	Bold   bool
	Italic bool
	Color  Color
}

var (
	StyleTitle    = Style{Size: 22, Bold: true, Color: Color{33, 37, 41}}
	StyleSubtitle = Style{Size: 12, Color: Color{100, 116, 139}}
	StyleSection  = Style{Size: 14, Bold: true, Color: Color{0, 0, 0}}
	StyleLabel    = Style{Size: 10, Bold: true, Color: Color{60, 60, 60}}
	StyleValue    = Style{Size: 10, Color: Color{60, 60, 60}}
	StyleCategory = Style{Size: 11, Bold: true, Color: Color{50, 50, 50}}
	StyleBullet   = Style{Size: 10, Color: Color{80, 80, 80}}
	StyleNotice   = Style{Size: 10, Italic: true, Color: Color{100, 100, 100}}
	StyleFooter   = Style{Size: 8, Color: Color{150, 150, 150}}

	ruleColor = Color{200, 200, 200}
)

// Canvas is the drawing capability the layout depends on. Coordinates are in
// the page unit with the origin at the top-left corner; y is the text baseline.
type Canvas interface {
	DrawText(text string, x, y float64, style Style)
	DrawLine(x1, y1, x2, y2 float64)
	// NewPage appends a page and makes it current.
	NewPage()
	PageCount() int
	// SetPage makes an existing page (1-based) current.
	SetPage(n int)
}
