// =============================================================================
// Contribution Statements - Page Layout
// =============================================================================
//
// This package holds the page geometry and the vertical cursor the renderer
// places content with. It does no drawing, so every pagination decision can
// be tested on its own.
//
// COORDINATES:
//   All values are PDF points (1/72 inch). Y grows downward from the top
//   edge of the page; content lives between Margin and Height-Margin.
//
// =============================================================================

package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnCount is returned when a width list does not match the
	// number of table columns.
	ErrColumnCount = errors.New("column count mismatch")

	// ErrUnknownPageSize is returned for page sizes not in PageSizes.
	ErrUnknownPageSize = errors.New("unknown page size")
)

// PageSizes maps page size names to portrait width and height in points.
var PageSizes = map[string][2]float64{
	"letter": {612, 792},
	"a4":     {595.28, 841.89},
	"legal":  {612, 1008},
}

// =============================================================================
// GEOMETRY
// =============================================================================

// Geometry describes one page.
type Geometry struct {
	Width  float64
	Height float64
	Margin float64
}

// NewGeometry looks up a page size and applies the orientation.
func NewGeometry(pageSize string, landscape bool, margin float64) (Geometry, error) {
	size, ok := PageSizes[pageSize]
	if !ok {
		return Geometry{}, fmt.Errorf("%w: %q", ErrUnknownPageSize, pageSize)
	}

	g := Geometry{Width: size[0], Height: size[1], Margin: margin}
	if landscape {
		g.Width, g.Height = g.Height, g.Width
	}
	return g, nil
}

// UsableWidth is the page width between the left and right margins.
func (g Geometry) UsableWidth() float64 {
	return g.Width - 2*g.Margin
}

// UsableHeight is the page height between the top and bottom margins.
func (g Geometry) UsableHeight() float64 {
	return g.Height - 2*g.Margin
}

// Bottom is the y position of the bottom margin.
func (g Geometry) Bottom() float64 {
	return g.Height - g.Margin
}

// =============================================================================
// CURSOR
// =============================================================================

// Cursor tracks the current page and the next free y position on it.
type Cursor struct {
	geo  Geometry
	y    float64
	page int
}

// NewCursor returns a cursor at the top margin of page 1.
func NewCursor(g Geometry) *Cursor {
	return &Cursor{geo: g, y: g.Margin, page: 1}
}

// Y returns the current vertical position.
func (c *Cursor) Y() float64 { return c.y }

// Page returns the 1-based page number.
func (c *Cursor) Page() int { return c.page }

// Geometry returns the page geometry the cursor moves on.
func (c *Cursor) Geometry() Geometry { return c.geo }

// Remaining is the space left before the bottom margin.
func (c *Cursor) Remaining() float64 {
	return c.geo.Bottom() - c.y
}

// Advance moves the cursor down by dy.
func (c *Cursor) Advance(dy float64) {
	c.y += dy
}

// NeedsBreak reports whether less than threshold is left on the page.
func (c *Cursor) NeedsBreak(threshold float64) bool {
	return c.Remaining() < threshold
}

// Fits reports whether a block of height h fits on the current page.
func (c *Cursor) Fits(h float64) bool {
	return h <= c.Remaining()
}

// FitsFreshPage reports whether a block of height h would fit on an empty page.
func (c *Cursor) FitsFreshPage(h float64) bool {
	return h <= c.geo.UsableHeight()
}

// NewPage moves the cursor to the top margin of the next page.
func (c *Cursor) NewPage() {
	c.page++
	c.y = c.geo.Margin
}

// =============================================================================
// COLUMNS AND CHUNKS
// =============================================================================

// ResolveWidths returns the column widths in points. Fixed widths win when
// both are given; fractions are multiplied by the usable width.
func ResolveWidths(fixed, fractions []float64, usable float64, columns int) ([]float64, error) {
	if len(fixed) > 0 {
		if len(fixed) != columns {
			return nil, fmt.Errorf("%w: %d widths for %d columns", ErrColumnCount, len(fixed), columns)
		}
		widths := make([]float64, columns)
		copy(widths, fixed)
		return widths, nil
	}

	if len(fractions) != columns {
		return nil, fmt.Errorf("%w: %d fractions for %d columns", ErrColumnCount, len(fractions), columns)
	}

	widths := make([]float64, columns)
	sum := 0.0
	for i, f := range fractions {
		if f <= 0 {
			return nil, fmt.Errorf("column %d: fraction must be positive, got %v", i+1, f)
		}
		sum += f
		widths[i] = f * usable
	}
	if sum > 1+1e-9 {
		return nil, fmt.Errorf("fractions sum to %v, more than the usable width", sum)
	}

	return widths, nil
}

// Chunk splits items into consecutive slices of at most size elements.
// A size <= 0 keeps everything in one chunk. No items yields no chunks.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
