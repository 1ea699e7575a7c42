package qrlabel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGridCellSize(t *testing.T) {
	width, height := DefaultGrid.CellSize()
	// (210 - 2*10) / 2 and (297 - 2*10) / 4
	assert.InDelta(t, 95.0, width, 0.001)
	assert.InDelta(t, 69.25, height, 0.001)
}

func TestGlyphSize(t *testing.T) {
	// Width-bound cell: 75% of width is smaller
	assert.InDelta(t, 30.0, GlyphSize(40, 100), 0.001)
	// Height-bound cell: 65% of height is smaller
	assert.InDelta(t, 13.0, GlyphSize(100, 20), 0.001)

	width, height := DefaultGrid.CellSize()
	glyph := GlyphSize(width, height)
	assert.LessOrEqual(t, glyph, 0.75*width)
	assert.LessOrEqual(t, glyph, 0.65*height)
}

func TestPerPageAndPageCount(t *testing.T) {
	assert.Equal(t, 8, DefaultGrid.PerPage())

	assert.Equal(t, 0, PageCount(0, 8))
	assert.Equal(t, 1, PageCount(1, 8))
	assert.Equal(t, 1, PageCount(8, 8))
	assert.Equal(t, 2, PageCount(9, 8))
	assert.Equal(t, 13, PageCount(100, 8))
}

func TestPaginate(t *testing.T) {
	codes := make([]string, 20)
	for i := range codes {
		codes[i] = fmt.Sprintf("QR-%06d", i)
	}

	pages := Paginate(codes, 8)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 8)
	assert.Len(t, pages[1], 8)
	assert.Len(t, pages[2], 4)

	// Every code appears exactly once, in input order
	var flattened []string
	for _, page := range pages {
		flattened = append(flattened, page...)
	}
	assert.Equal(t, codes, flattened)
}

func TestPaginateEdgeCases(t *testing.T) {
	assert.Nil(t, Paginate(nil, 8))
	assert.Nil(t, Paginate([]string{"QR-AAAAAA"}, 0))
}

func TestCellOrigin(t *testing.T) {
	cellW, cellH := DefaultGrid.CellSize()

	x, y := DefaultGrid.CellOrigin(0)
	assert.InDelta(t, 10.0, x, 0.001)
	assert.InDelta(t, 10.0, y, 0.001)

	// Cell 1 is the second column of the first row
	x, y = DefaultGrid.CellOrigin(1)
	assert.InDelta(t, 10.0+cellW, x, 0.001)
	assert.InDelta(t, 10.0, y, 0.001)

	// Cell 2 wraps to the second row
	x, y = DefaultGrid.CellOrigin(2)
	assert.InDelta(t, 10.0, x, 0.001)
	assert.InDelta(t, 10.0+cellH, y, 0.001)
}

func TestSingleLabelLayout(t *testing.T) {
	// 36 mm tall label stays side by side, 62 mm stacks
	assert.Equal(t, LayoutSideBySide, SmallLabel.Layout())
	assert.Equal(t, LayoutStacked, LargeLabel.Layout())

	// The threshold itself does not stack
	atThreshold := LabelSpec{WidthMM: 100, HeightMM: 50}
	assert.Equal(t, LayoutSideBySide, atThreshold.Layout())
	justOver := LabelSpec{WidthMM: 100, HeightMM: 50.1}
	assert.Equal(t, LayoutStacked, justOver.Layout())
}
