package layout

import (
	"errors"
	"math"
	"testing"
)

func TestNewGeometry(t *testing.T) {
	tests := []struct {
		size      string
		landscape bool
		width     float64
		height    float64
	}{
		{"letter", false, 612, 792},
		{"letter", true, 792, 612},
		{"legal", true, 1008, 612},
		{"a4", false, 595.28, 841.89},
	}
	for _, tt := range tests {
		g, err := NewGeometry(tt.size, tt.landscape, 50)
		if err != nil {
			t.Fatalf("%s: %v", tt.size, err)
		}
		if g.Width != tt.width || g.Height != tt.height {
			t.Errorf("%s landscape=%v: got %vx%v", tt.size, tt.landscape, g.Width, g.Height)
		}
	}

	if _, err := NewGeometry("tabloid", false, 50); !errors.Is(err, ErrUnknownPageSize) {
		t.Fatalf("expected ErrUnknownPageSize, got %v", err)
	}

	g, _ := NewGeometry("letter", true, 50)
	if g.UsableWidth() != 692 || g.UsableHeight() != 512 || g.Bottom() != 562 {
		t.Fatalf("unexpected usable area %v %v %v", g.UsableWidth(), g.UsableHeight(), g.Bottom())
	}
}

func TestCursor(t *testing.T) {
	c := NewCursor(Geometry{Width: 612, Height: 792, Margin: 50})

	if c.Page() != 1 || c.Y() != 50 || c.Remaining() != 692 {
		t.Fatalf("unexpected start: page %d y %v remaining %v", c.Page(), c.Y(), c.Remaining())
	}

	c.Advance(650)
	if c.Remaining() != 42 {
		t.Fatalf("remaining: got %v", c.Remaining())
	}
	if !c.NeedsBreak(50) {
		t.Fatal("expected a break below the threshold")
	}
	if c.Fits(43) || !c.Fits(42) {
		t.Fatal("Fits boundary wrong")
	}
	if !c.FitsFreshPage(692) || c.FitsFreshPage(693) {
		t.Fatal("FitsFreshPage boundary wrong")
	}

	c.NewPage()
	if c.Page() != 2 || c.Y() != 50 || c.NeedsBreak(50) {
		t.Fatalf("unexpected state after new page: page %d y %v", c.Page(), c.Y())
	}
	if g := c.Geometry(); g.Bottom() != 742 || g.UsableWidth() != 512 {
		t.Fatalf("unexpected geometry %+v", g)
	}
}

func TestResolveWidths(t *testing.T) {
	widths, err := ResolveWidths(nil, []float64{0.7, 0.3}, 500, 2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(widths[0]-350) > 1e-9 || math.Abs(widths[1]-150) > 1e-9 {
		t.Fatalf("unexpected widths %v", widths)
	}

	fixed := []float64{100, 300, 100}
	widths, err = ResolveWidths(fixed, []float64{0.5, 0.5}, 500, 3)
	if err != nil {
		t.Fatal(err)
	}
	widths[0] = 1
	if fixed[0] != 100 {
		t.Fatal("ResolveWidths must copy fixed widths")
	}

	tests := []struct {
		name      string
		fixed     []float64
		fractions []float64
		columns   int
		count     bool
	}{
		{"fixed count", []float64{100, 100}, nil, 3, true},
		{"fraction count", nil, []float64{0.5}, 2, true},
		{"negative", nil, []float64{0.5, -0.1}, 2, false},
		{"overflow", nil, []float64{0.6, 0.6}, 2, false},
	}
	for _, tt := range tests {
		_, err := ResolveWidths(tt.fixed, tt.fractions, 500, tt.columns)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if errors.Is(err, ErrColumnCount) != tt.count {
			t.Errorf("%s: ErrColumnCount=%v, got %v", tt.name, tt.count, err)
		}
	}
}

func TestChunk(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		n, size, chunks, last int
	}{
		{45, 20, 3, 5},
		{40, 20, 2, 20},
		{19, 20, 1, 19},
		{45, 0, 1, 45},
		{1, 1, 1, 1},
		{0, 20, 0, 0},
	}
	for _, tt := range tests {
		got := Chunk(items[:tt.n], tt.size)
		if len(got) != tt.chunks {
			t.Errorf("n=%d k=%d: got %d chunks, want %d", tt.n, tt.size, len(got), tt.chunks)
			continue
		}
		if tt.chunks > 0 && len(got[len(got)-1]) != tt.last {
			t.Errorf("n=%d k=%d: last chunk has %d items, want %d", tt.n, tt.size, len(got[len(got)-1]), tt.last)
		}
	}

	got := Chunk(items, 20)
	if got[1][0] != 20 || got[2][4] != 44 {
		t.Fatal("chunks must keep order")
	}
}
