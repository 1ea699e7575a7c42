package qrlabel

import "math"

// LabelFormat selects the physical layout of a printed sheet
type LabelFormat string

const (
	// FormatA4Grid lays codes out on A4 pages in a rows×cols grid
	FormatA4Grid LabelFormat = "a4_grid"
	// FormatLabelSmall targets 36×89 mm adhesive labels
	FormatLabelSmall LabelFormat = "label_36x89"
	// FormatLabelLarge targets 62×100 mm adhesive labels
	FormatLabelLarge LabelFormat = "label_62x100"
)

// A4 page dimensions in millimeters
const (
	A4WidthMM  = 210.0
	A4HeightMM = 297.0
)

// Glyph sizing ratios: a QR glyph fills at most 75% of the cell width
// and 65% of the cell height, whichever is smaller.
const (
	glyphWidthRatio  = 0.75
	glyphHeightRatio = 0.65
)

// stackedHeightThresholdMM: single labels taller than this use the
// stacked layout (code above text), shorter ones go side by side.
const stackedHeightThresholdMM = 50.0

// SingleLabelLayout is the arrangement of glyph and caption on a
// single-label format
type SingleLabelLayout int

const (
	LayoutSideBySide SingleLabelLayout = iota
	LayoutStacked
)

// GridSpec describes an A4 grid sheet
type GridSpec struct {
	PageWidth  float64
	PageHeight float64
	MarginMM   float64
	Rows       int
	Cols       int
}

// DefaultGrid is the standard 4×2 A4 sheet
var DefaultGrid = GridSpec{
	PageWidth:  A4WidthMM,
	PageHeight: A4HeightMM,
	MarginMM:   10.0,
	Rows:       4,
	Cols:       2,
}

// LabelSpec describes a fixed-size single label
type LabelSpec struct {
	WidthMM  float64
	HeightMM float64
}

var (
	SmallLabel = LabelSpec{WidthMM: 89.0, HeightMM: 36.0}
	LargeLabel = LabelSpec{WidthMM: 100.0, HeightMM: 62.0}
)

// CellSize returns the printable cell dimensions of a grid sheet
func (g GridSpec) CellSize() (width, height float64) {
	width = (g.PageWidth - 2*g.MarginMM) / float64(g.Cols)
	height = (g.PageHeight - 2*g.MarginMM) / float64(g.Rows)
	return width, height
}

// PerPage returns how many codes fit on one grid page
func (g GridSpec) PerPage() int {
	return g.Rows * g.Cols
}

// GlyphSize returns the QR glyph edge length for a cell
func GlyphSize(cellWidth, cellHeight float64) float64 {
	return math.Min(glyphWidthRatio*cellWidth, glyphHeightRatio*cellHeight)
}

// Layout returns the single-label arrangement for a label height
func (l LabelSpec) Layout() SingleLabelLayout {
	if l.HeightMM > stackedHeightThresholdMM {
		return LayoutStacked
	}
	return LayoutSideBySide
}

// PageCount returns the number of grid pages needed for n codes
func PageCount(n, perPage int) int {
	if n <= 0 || perPage <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}

// Paginate splits codes into per-page slices preserving input order.
// Every code appears exactly once across the result.
func Paginate(codes []string, perPage int) [][]string {
	if perPage <= 0 || len(codes) == 0 {
		return nil
	}

	pages := make([][]string, 0, PageCount(len(codes), perPage))
	for start := 0; start < len(codes); start += perPage {
		end := start + perPage
		if end > len(codes) {
			end = len(codes)
		}
		pages = append(pages, codes[start:end])
	}
	return pages
}

// CellOrigin returns the top-left corner of cell i (row-major) on a
// grid page
func (g GridSpec) CellOrigin(i int) (x, y float64) {
	cellW, cellH := g.CellSize()
	row := i / g.Cols
	col := i % g.Cols
	x = g.MarginMM + float64(col)*cellW
	y = g.MarginMM + float64(row)*cellH
	return x, y
}
