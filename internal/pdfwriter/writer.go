// =============================================================================
// Contribution Statements - PDF Writer Module
// =============================================================================
//
// This module draws a contribution statement onto paginated PDF pages. It
// owns no state between calls: every statement gets its own document and its
// own layout cursor.
//
// DOCUMENT STRUCTURE:
//
//   Contribution Statement                    <- title, Helvetica-Bold 16
//   Jane Doe                 Period: 01/01/2024 - 12/31/2024
//                            As of: 03/23/2025
//
//   Total Contributions by Purpose/Fund       <- summary table
//   +--------------+--------------+
//   | Purpose/Fund | Total Amount |           <- grey, bold, centered
//   | Fund A       |      $100.00 |
//   | Total        |      $200.00 |
//   +--------------+--------------+
//
//   List of Individual Contributions          <- one table per chunk
//   ...
//
//   Unless otherwise noted, ...               <- footer, last page
//
// PAGINATION:
//   - A table starts on a new page when less than BreakThreshold is left
//   - A table that does not fit but would fit on an empty page moves there
//   - A row that would cross the bottom margin continues on a new page,
//     under a repeated header row
//   - Text cells wrap; a cell taller than an empty page is cut short and
//     ends in "..."
//   - Right-aligned (money) cells never wrap; they shrink to the column
//
// =============================================================================

package pdfwriter

import (
	"fmt"
	"io"
	"math"

	"github.com/ginjaninja78/contribution-statements/internal/config"
	"github.com/ginjaninja78/contribution-statements/internal/layout"
	"github.com/ginjaninja78/contribution-statements/internal/types"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================
// All values are in points.

const (
	// BreakThreshold is the minimum space left above the bottom margin
	// before a table or the footer forces a new page.
	BreakThreshold = 50.0

	// LineSpacing separates header lines, table titles and tables.
	LineSpacing = 20.0

	// CellPadding is applied on every side of a table cell.
	CellPadding = 4.0

	// TableFontSize is used for header and body rows.
	TableFontSize = 8.0

	// FooterOffset is the distance of the disclaimer from the page bottom.
	FooterOffset = 30.0

	// headerBlockWidth positions the period block from the right margin.
	headerBlockWidth = 200.0

	lineHeight = TableFontSize * 1.2
	fontFamily = "Helvetica"
)

// Section names used in placements.
const (
	SectionSummary    = "summary"
	SectionIndividual = "individual"
)

// Fixed document text.
const (
	DocumentTitle = "Contribution Statement"
	SummaryTitle  = "Total Contributions by Purpose/Fund"
	ListingTitle  = "List of Individual Contributions"
	Disclaimer    = "Unless otherwise noted, no goods or services were received in return for these contributions."
)

// DisplayDateLayout is how dates appear in the document (MM/DD/YYYY).
const DisplayDateLayout = "01/02/2006"

// =============================================================================
// INPUT AND OUTPUT STRUCTURES
// =============================================================================

// Statement is everything drawn in one document.
type Statement struct {
	DisplayName string
	Period      config.Period
	Records     []types.Contribution
	Totals      []types.CategoryTotal
	GrandTotal  decimal.Decimal
}

// Placement records where one table was drawn.
type Placement struct {
	// Section is SectionSummary or SectionIndividual.
	Section string

	Title string

	// Page and Y locate the table title. EndPage is the page of the last row.
	Page    int
	EndPage int
	Y       float64

	// Rows is the number of data rows, not counting header rows.
	Rows int

	// Height is the drawn height including the title and repeated headers.
	Height float64
}

// Summary describes a generated document.
type Summary struct {
	Pages      int
	Placements []Placement

	// TruncatedCells counts cells cut short to fit on one page.
	TruncatedCells int
}

// Section returns the placements of one section in drawing order.
func (s *Summary) Section(name string) []Placement {
	var out []Placement
	for _, p := range s.Placements {
		if p.Section == name {
			out = append(out, p)
		}
	}
	return out
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate draws a statement and writes the PDF to w.
//
// PARAMETERS:
//   - w: The destination of the PDF bytes.
//   - st: The cleaned statement content.
//   - tpl: The report template deciding page size, columns and chunking.
//
// RETURNS:
//   - A summary of pages and table placements.
//   - An error if the template widths do not match the columns or the
//     document could not be written.
func Generate(w io.Writer, st Statement, tpl config.ReportTemplate) (*Summary, error) {
	geo, err := layout.NewGeometry(tpl.PageSize, tpl.Landscape(), tpl.Margin)
	if err != nil {
		return nil, err
	}

	summaryWidths, err := layout.ResolveWidths(tpl.SummaryWidths, tpl.SummaryFractions,
		geo.UsableWidth(), config.SummaryColumnCount)
	if err != nil {
		return nil, fmt.Errorf("summary table: %w", err)
	}
	listingWidths, err := layout.ResolveWidths(tpl.ColumnWidths, tpl.ColumnFractions,
		geo.UsableWidth(), tpl.ListingColumnCount())
	if err != nil {
		return nil, fmt.Errorf("individual table: %w", err)
	}

	r := newRenderer(geo, st)

	r.placeHeader(st)
	r.placeTable(summaryTable(st, summaryWidths))
	for _, t := range listingTables(st, tpl, listingWidths) {
		r.placeTable(t)
	}
	r.placeFooter()

	if err := r.pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to draw statement: %w", err)
	}
	if err := r.pdf.Output(w); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	r.summary.Pages = r.cursor.Page()
	return r.summary, nil
}

// =============================================================================
// TABLE CONTENT
// =============================================================================

// table is one grid to place: a title, a header row and body rows.
type table struct {
	section string
	title   string
	header  []string
	rows    [][]string
	widths  []float64
	align   []string
}

func summaryTable(st Statement, widths []float64) table {
	rows := make([][]string, 0, len(st.Totals)+1)
	for _, ct := range st.Totals {
		rows = append(rows, []string{ct.Reason, FormatMoney(ct.Total)})
	}
	rows = append(rows, []string{"Total", FormatMoney(st.GrandTotal)})

	return table{
		section: SectionSummary,
		title:   SummaryTitle,
		header:  []string{"Purpose/Fund", "Total Amount"},
		rows:    rows,
		widths:  widths,
		align:   []string{"L", "R"},
	}
}

// listingTables chunks the records. No records still yields one table so
// the section header is always printed.
func listingTables(st Statement, tpl config.ReportTemplate, widths []float64) []table {
	header := []string{"Date", "Purpose/Fund", "Amount"}
	align := []string{"L", "L", "R"}
	if tpl.IncludeContactColumns {
		header = []string{"Date", "Name", "Address", "Email Address", "Phone Number", "Purpose/Fund", "Amount", "Total"}
		align = []string{"L", "L", "L", "L", "L", "L", "R", "R"}
	}

	chunks := layout.Chunk(st.Records, tpl.RowsPerChunk)
	if len(chunks) == 0 {
		chunks = [][]types.Contribution{nil}
	}

	tables := make([]table, 0, len(chunks))
	for _, chunk := range chunks {
		rows := make([][]string, 0, len(chunk))
		for _, rec := range chunk {
			rows = append(rows, listingRow(rec, tpl.IncludeContactColumns))
		}
		tables = append(tables, table{
			section: SectionIndividual,
			title:   ListingTitle,
			header:  header,
			rows:    rows,
			widths:  widths,
			align:   align,
		})
	}
	return tables
}

func listingRow(rec types.Contribution, contact bool) []string {
	date := rec.Date.Format(DisplayDateLayout)
	amount := FormatMoney(rec.Amount)
	if !contact {
		return []string{date, rec.Reason, amount}
	}
	return []string{
		date,
		orPlaceholder(rec.Name),
		orPlaceholder(rec.Address),
		orPlaceholder(rec.Email),
		orPlaceholder(rec.Phone),
		rec.Reason,
		amount,
		amount,
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return types.EmptyPlaceholder
	}
	return s
}

// FormatMoney renders an amount as $1234.50.
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// =============================================================================
// DRAWING
// =============================================================================

type renderer struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	cursor  *layout.Cursor
	summary *Summary
}

// newRenderer starts a document on its first page.
func newRenderer(geo layout.Geometry, st Statement) *renderer {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: geo.Width, Ht: geo.Height},
	})
	pdf.SetMargins(geo.Margin, geo.Margin, geo.Margin)
	pdf.SetAutoPageBreak(false, geo.Margin)
	pdf.SetTitle(DocumentTitle, true)
	pdf.SetSubject(st.DisplayName, true)
	pdf.SetCreator("contribution-statements", true)
	if !st.Period.AsOf.IsZero() {
		pdf.SetCreationDate(st.Period.AsOf)
		pdf.SetModificationDate(st.Period.AsOf)
	}

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", 12)
	pdf.SetLineWidth(0.5)
	pdf.SetDrawColor(0, 0, 0)

	return &renderer{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		cursor:  layout.NewCursor(geo),
		summary: &Summary{},
	}
}

// preparedRow holds the wrapped lines of every cell and the row height.
// sizes holds a reduced font size for cells shrunk to fit, 0 otherwise.
type preparedRow struct {
	cells  [][]string
	sizes  []float64
	height float64
}

// ellipsis ends a truncated cell.
const ellipsis = "..."

func (r *renderer) newPage() {
	r.pdf.AddPage()
	r.cursor.NewPage()
	r.pdf.SetFont(fontFamily, "", 12)
}

func (r *renderer) placeHeader(st Statement) {
	geo := r.cursor.Geometry()
	blockX := geo.Width - geo.Margin - headerBlockWidth

	r.pdf.SetFont(fontFamily, "B", 16)
	r.pdf.Text(geo.Margin, r.cursor.Y(), r.tr(DocumentTitle))
	r.cursor.Advance(LineSpacing + 10)

	r.pdf.SetFont(fontFamily, "", 10)
	r.pdf.Text(geo.Margin, r.cursor.Y(), r.tr(st.DisplayName))
	r.pdf.Text(blockX, r.cursor.Y(), fmt.Sprintf("Period: %s - %s",
		st.Period.Start.Format(DisplayDateLayout), st.Period.End.Format(DisplayDateLayout)))
	r.cursor.Advance(LineSpacing)

	r.pdf.Text(blockX, r.cursor.Y(), "As of: "+st.Period.AsOf.Format(DisplayDateLayout))
	r.cursor.Advance(LineSpacing)
}

func (r *renderer) placeTable(t table) {
	if r.cursor.NeedsBreak(BreakThreshold) {
		r.newPage()
	}

	r.pdf.SetFont(fontFamily, "B", TableFontSize)
	header := r.prepare(t.header, t.widths, t.align, 0)

	// A body row must fit on an empty page under a repeated header row.
	maxLines := int((r.cursor.Geometry().UsableHeight() - header.height - 2*CellPadding) / lineHeight)
	if maxLines < 1 {
		maxLines = 1
	}

	r.pdf.SetFont(fontFamily, "", TableFontSize)
	rows := make([]preparedRow, len(t.rows))
	body := 0.0
	for i, cells := range t.rows {
		rows[i] = r.prepare(cells, t.widths, t.align, maxLines)
		body += rows[i].height
	}

	// Move a whole table forward when an empty page can hold it. Otherwise
	// at least the title, the header and the first row stay together.
	total := LineSpacing + header.height + body
	lead := LineSpacing + header.height
	if len(rows) > 0 {
		lead += rows[0].height
	}
	if !r.cursor.Fits(total) && r.cursor.FitsFreshPage(total) {
		r.newPage()
	} else if !r.cursor.Fits(lead) && r.cursor.FitsFreshPage(lead) {
		r.newPage()
	}

	placement := Placement{
		Section: t.section,
		Title:   t.title,
		Page:    r.cursor.Page(),
		Y:       r.cursor.Y(),
		Rows:    len(rows),
	}

	r.pdf.SetFont(fontFamily, "B", 12)
	r.pdf.Text(r.cursor.Geometry().Margin, r.cursor.Y(), r.tr(t.title))
	r.cursor.Advance(LineSpacing)
	placement.Height += LineSpacing

	r.drawRow(header, t.widths, nil, true)
	placement.Height += header.height

	for _, row := range rows {
		if !r.cursor.Fits(row.height) && r.cursor.FitsFreshPage(header.height+row.height) {
			r.newPage()
			r.drawRow(header, t.widths, nil, true)
			placement.Height += header.height
		}
		r.drawRow(row, t.widths, t.align, false)
		placement.Height += row.height
	}

	placement.EndPage = r.cursor.Page()
	r.summary.Placements = append(r.summary.Placements, placement)

	r.cursor.Advance(LineSpacing)
}

// prepare lays out each cell in its column using the current font.
//
// Left-aligned cells wrap to the column width and keep at most maxLines
// lines (0 means no limit). Right-aligned cells hold amounts: they stay on
// one line and get a smaller font when the column is too narrow.
func (r *renderer) prepare(cells []string, widths []float64, align []string, maxLines int) preparedRow {
	row := preparedRow{
		cells: make([][]string, len(cells)),
		sizes: make([]float64, len(cells)),
	}
	lines := 1

	for i, text := range cells {
		inner := math.Max(widths[i]-2*CellPadding, 1)
		text = r.tr(text)

		if align != nil && align[i] == "R" {
			row.cells[i] = []string{text}
			if w := r.pdf.GetStringWidth(text); w > inner {
				row.sizes[i] = TableFontSize * inner / w
			}
			continue
		}

		cell := r.wrap(text, inner)
		if maxLines > 0 && len(cell) > maxLines {
			cell = cell[:maxLines]
			cell[maxLines-1] += ellipsis
			r.summary.TruncatedCells++
		}
		if len(cell) > lines {
			lines = len(cell)
		}
		row.cells[i] = cell
	}

	row.height = float64(lines)*lineHeight + 2*CellPadding
	return row
}

// wrap splits text into lines no wider than width. Lines break at spaces
// where possible.
func (r *renderer) wrap(text string, width float64) []string {
	split := r.pdf.SplitLines([]byte(text), width)

	lines := make([]string, 0, len(split))
	for _, l := range split {
		lines = append(lines, string(l))
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

// drawRow draws one grid row at the cursor and advances past it. Header rows
// are filled grey, bold and centered.
func (r *renderer) drawRow(row preparedRow, widths []float64, align []string, header bool) {
	y := r.cursor.Y()
	x := r.cursor.Geometry().Margin
	size := TableFontSize

	if header {
		r.pdf.SetFont(fontFamily, "B", TableFontSize)
		r.pdf.SetFillColor(211, 211, 211)
	} else {
		r.pdf.SetFont(fontFamily, "", TableFontSize)
	}

	for i, lines := range row.cells {
		if want := cellSize(row, i); want != size {
			r.pdf.SetFontSize(want)
			size = want
		}

		w := widths[i]
		if header {
			r.pdf.Rect(x, y, w, row.height, "FD")
		} else {
			r.pdf.Rect(x, y, w, row.height, "D")
		}

		for li, line := range lines {
			lx := x + CellPadding
			switch {
			case header:
				lx = x + (w-r.pdf.GetStringWidth(line))/2
			case align != nil && align[i] == "R":
				lx = x + w - CellPadding - r.pdf.GetStringWidth(line)
			}
			r.pdf.Text(lx, y+CellPadding+float64(li)*lineHeight+TableFontSize, line)
		}

		x += w
	}

	if size != TableFontSize {
		r.pdf.SetFontSize(TableFontSize)
	}
	r.cursor.Advance(row.height)
}

// cellSize is the font size of cell i.
func cellSize(row preparedRow, i int) float64 {
	if row.sizes != nil && row.sizes[i] > 0 {
		return row.sizes[i]
	}
	return TableFontSize
}

func (r *renderer) placeFooter() {
	if r.cursor.NeedsBreak(BreakThreshold) {
		r.newPage()
	}
	geo := r.cursor.Geometry()
	r.pdf.SetFont(fontFamily, "", 10)
	r.pdf.Text(geo.Margin, geo.Height-FooterOffset, r.tr(Disclaimer))
}
