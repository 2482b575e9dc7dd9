// Package report lays out a vehicle profile as a paginated document.
//
// Layout is a single pass over an ordered list of blocks. Each block has a
// fixed vertical advance; before a block is drawn the cursor is checked
// against the page limit (height minus bottom margin) and a fresh page is
// started when the block would not fit. Blocks are never split and there is
// no lookahead, so a category heading may end a page with its items following
// on the next one.
package report

import "fmt"

// PageConfig holds the page geometry in millimetres.
type PageConfig struct {
	Width        float64
	Height       float64
	TopMargin    float64
	BottomMargin float64
	LeftMargin   float64
	RightMargin  float64
	// ValueOffset is the x distance of the value column from the left margin.
	ValueOffset float64
	// BulletIndent is the x distance of bullet items from the left margin.
	BulletIndent float64
	// FooterOffset is the footer baseline distance from the bottom edge.
	FooterOffset float64
}

// DefaultPageConfig is A4 portrait.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Width:        210,
		Height:       297,
		TopMargin:    20,
		BottomMargin: 10,
		LeftMargin:   20,
		RightMargin:  20,
		ValueOffset:  50,
		BulletIndent: 5,
		FooterOffset: 10,
	}
}

// BlockKind identifies a unit of content with a fixed vertical footprint.
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockSubtitle
	BlockRule
	BlockSectionTitle
	BlockKeyValue
	BlockCategoryHeading
	BlockBullet
	BlockNotice
)

var blockNames = map[BlockKind]string{
	BlockTitle:           "title",
	BlockSubtitle:        "subtitle",
	BlockRule:            "rule",
	BlockSectionTitle:    "section",
	BlockKeyValue:        "key-value",
	BlockCategoryHeading: "category",
	BlockBullet:          "bullet",
	BlockNotice:          "notice",
}

func (k BlockKind) String() string {
	if s, ok := blockNames[k]; ok {
		return s
	}
	return fmt.Sprintf("block(%d)", int(k))
}

// Advance is the vertical space the block consumes.
func (k BlockKind) Advance() float64 {
	switch k {
	case BlockTitle, BlockSectionTitle, BlockNotice:
		return 10
	case BlockRule:
		return 15
	case BlockKeyValue:
		return 7
	case BlockCategoryHeading:
		return 6
	case BlockSubtitle, BlockBullet:
		return 5
	default:
		return 0
	}
}

// Layout is the cursor state of one rendering pass. It is created per
// document and passed explicitly to every emission step.
type Layout struct {
	canvas Canvas
	page   PageConfig
	y      float64
	blocks int
}

// NewLayout opens the first page on c and places the cursor at the top margin.
func NewLayout(c Canvas, page PageConfig) *Layout {
	c.NewPage()
	return &Layout{canvas: c, page: page, y: page.TopMargin}
}

// Y returns the current cursor position.
func (l *Layout) Y() float64 { return l.y }

// Limit is the lowest cursor position a block may advance to.
func (l *Layout) Limit() float64 { return l.page.Height - l.page.BottomMargin }

// Blocks returns the number of blocks emitted so far.
func (l *Layout) Blocks() int { return l.blocks }

// Fits reports whether a block of kind k can be drawn on the current page.
func (l *Layout) Fits(k BlockKind) bool {
	return l.y+k.Advance() <= l.Limit()
}

func (l *Layout) begin(k BlockKind) float64 {
	if !l.Fits(k) {
		l.canvas.NewPage()
		l.y = l.page.TopMargin
	}
	l.blocks++
	return l.y
}

func (l *Layout) end(k BlockKind) {
	l.y += k.Advance()
}

func (l *Layout) emit(k BlockKind, draw func(y float64)) {
	y := l.begin(k)
	draw(y)
	l.end(k)
}

// Space moves the cursor down without drawing. An overflow is resolved by
// the next block.
func (l *Layout) Space(d float64) {
	l.y += d
}

func (l *Layout) Title(text string) {
	l.emit(BlockTitle, func(y float64) {
		l.canvas.DrawText(text, l.page.LeftMargin, y, StyleTitle)
	})
}

func (l *Layout) Subtitle(text string) {
	l.emit(BlockSubtitle, func(y float64) {
		l.canvas.DrawText(text, l.page.LeftMargin, y, StyleSubtitle)
	})
}

// Rule draws a horizontal separator across the text width at the cursor.
func (l *Layout) Rule() {
	l.emit(BlockRule, func(y float64) {
		l.canvas.DrawLine(l.page.LeftMargin, y, l.page.Width-l.page.RightMargin, y)
	})
}

func (l *Layout) SectionTitle(text string) {
	l.emit(BlockSectionTitle, func(y float64) {
		l.canvas.DrawText(text, l.page.LeftMargin, y, StyleSection)
	})
}

// KeyValue draws "label:" at the margin and the value in the second column.
func (l *Layout) KeyValue(label, value string) {
	l.emit(BlockKeyValue, func(y float64) {
		l.canvas.DrawText(label+":", l.page.LeftMargin, y, StyleLabel)
		l.canvas.DrawText(value, l.page.LeftMargin+l.page.ValueOffset, y, StyleValue)
	})
}

func (l *Layout) CategoryHeading(text string) {
	l.emit(BlockCategoryHeading, func(y float64) {
		l.canvas.DrawText(text, l.page.LeftMargin, y, StyleCategory)
	})
}

func (l *Layout) Bullet(text string) {
	l.emit(BlockBullet, func(y float64) {
		l.canvas.DrawText("• "+text, l.page.LeftMargin+l.page.BulletIndent, y, StyleBullet)
	})
}

func (l *Layout) Notice(text string) {
	l.emit(BlockNotice, func(y float64) {
		l.canvas.DrawText(text, l.page.LeftMargin, y, StyleNotice)
	})
}

// Footer stamps every page produced so far with text(page, total).
func (l *Layout) Footer(text func(page, total int) string) {
	total := l.canvas.PageCount()
	y := l.page.Height - l.page.FooterOffset
	for i := 1; i <= total; i++ {
		l.canvas.SetPage(i)
		l.canvas.DrawText(text(i, total), l.page.LeftMargin, y, StyleFooter)
	}
}
