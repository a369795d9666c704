package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/ginjaninja78/contribution-statements/internal/source"
	"github.com/ginjaninja78/contribution-statements/internal/types"
	"github.com/shopspring/decimal"
)

func table(headers []string, rows ...[]string) *source.Table {
	t := &source.Table{Headers: headers, Rows: []map[string]string{}}
	for _, values := range rows {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			row[h] = values[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

var basicHeaders = []string{"Name", "Amount", "DATE", "Reason"}

func TestCleanDropsAndAggregates(t *testing.T) {
	tbl := table(basicHeaders,
		[]string{"Alice", "$100.00", "2024-01-05", "Fund A"},
		[]string{"Bob", "100", "2024-01-03", "Fund B"},
		[]string{"Carol", "abc", "2024-01-04", "Fund A"},
	)

	res := Clean(tbl, Options{})

	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if res.Records[0].Name != "Bob" || res.Records[1].Name != "Alice" {
		t.Fatalf("unexpected order: %s, %s", res.Records[0].Name, res.Records[1].Name)
	}
	if len(res.Dropped) != 1 || res.Dropped[0].Row != 3 || res.Dropped[0].Reason != types.DropInvalidAmount {
		t.Fatalf("unexpected drops: %+v", res.Dropped)
	}

	want := map[string]string{"Fund A": "100.00", "Fund B": "100.00"}
	if len(res.Totals) != len(want) {
		t.Fatalf("unexpected totals: %+v", res.Totals)
	}
	for _, ct := range res.Totals {
		if got := ct.Total.StringFixed(2); got != want[ct.Reason] {
			t.Errorf("%s: got %s, want %s", ct.Reason, got, want[ct.Reason])
		}
	}
	if res.Totals[0].Reason != "Fund A" {
		t.Errorf("totals not sorted by reason: %+v", res.Totals)
	}
	if got := res.GrandTotal.StringFixed(2); got != "200.00" {
		t.Errorf("grand total: got %s", got)
	}
	if res.DisplayName != "Bob" {
		t.Errorf("display name: got %q", res.DisplayName)
	}
}

func TestCleanSynthesizesMissingColumns(t *testing.T) {
	tbl := table(basicHeaders, []string{"Alice", "10", "2024-02-01", "Building"})

	res := Clean(tbl, Options{})

	if len(res.MissingColumns) != 3 {
		t.Fatalf("expected contact columns synthesized, got %v", res.MissingColumns)
	}
	if !tbl.HasColumn(types.ColumnAddress) {
		t.Fatal("Address column not added to table")
	}
	if len(res.Records) != 1 || res.Records[0].Address != "" {
		t.Fatalf("unexpected record %+v", res.Records)
	}
}

func TestCleanDropReasons(t *testing.T) {
	tbl := table(basicHeaders,
		[]string{"Name", "Amount", "DATE", "Reason"},
		[]string{"Dan", "-5", "2024-01-01", "Fund A"},
		[]string{"Eve", "0", "2024-01-01", "Fund A"},
		[]string{"Fay", "12", "someday", "Fund A"},
		[]string{"Gus", "12", "2024-01-01", "  "},
		[]string{"Hal", "12", "2024-01-01", "Fund A"},
	)

	res := Clean(tbl, Options{})

	counts := res.DropCounts()
	if counts[types.DropStrayHeader] != 1 ||
		counts[types.DropNonPositiveAmount] != 2 ||
		counts[types.DropInvalidDate] != 1 ||
		counts[types.DropMissingReason] != 1 {
		t.Fatalf("unexpected drop counts: %v", counts)
	}
	if len(res.Records) != 1 || res.Records[0].Name != "Hal" || res.Records[0].Row != 6 {
		t.Fatalf("unexpected records: %+v", res.Records)
	}
	if len(res.Records)+len(res.Dropped) != res.SourceRows {
		t.Fatal("kept plus dropped must equal source rows")
	}
}

func TestCleanStableSort(t *testing.T) {
	tbl := table(basicHeaders,
		[]string{"A", "1", "2024-03-01", "X"},
		[]string{"B", "2", "2024-01-01", "X"},
		[]string{"C", "3", "2024-03-01", "X"},
		[]string{"D", "4", "2024-01-01", "X"},
	)

	res := Clean(tbl, Options{})

	var order string
	for _, r := range res.Records {
		order += r.Name
	}
	if order != "BDAC" {
		t.Fatalf("expected BDAC, got %s", order)
	}
}

func TestCleanSumInvariantAndIdempotence(t *testing.T) {
	tbl := table(basicHeaders,
		[]string{"A", "$1,250.10", "01/15/2024", "Tithe"},
		[]string{"B", "0.10", "2024-02-01", "Tithe"},
		[]string{"C", "0.20", "2024-02-02", "Missions"},
		[]string{"D", "19.99", "2024-02-03", "Building"},
	)

	first := Clean(tbl, Options{})

	sum := decimal.Zero
	for _, ct := range first.Totals {
		sum = sum.Add(ct.Total)
	}
	if !sum.Equal(first.GrandTotal) {
		t.Fatalf("category totals %s != grand total %s", sum, first.GrandTotal)
	}
	if first.GrandTotal.StringFixed(2) != "1270.39" {
		t.Fatalf("grand total: got %s", first.GrandTotal.StringFixed(2))
	}

	// Feed the cleaned records back through as raw strings.
	headers := []string{"Name", "Amount", "DATE", "Reason"}
	again := &source.Table{Headers: headers, Rows: []map[string]string{}}
	for _, r := range first.Records {
		again.Rows = append(again.Rows, map[string]string{
			"Name":   r.Name,
			"Amount": r.Amount.String(),
			"DATE":   r.Date.Format("2006-01-02"),
			"Reason": r.Reason,
		})
	}
	second := Clean(again, Options{})

	if len(second.Records) != len(first.Records) || len(second.Dropped) != 0 {
		t.Fatalf("second pass changed the record set")
	}
	for i := range first.Records {
		a, b := first.Records[i], second.Records[i]
		if a.Name != b.Name || !a.Amount.Equal(b.Amount) || !a.Date.Equal(b.Date) || a.Reason != b.Reason {
			t.Fatalf("record %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestCleanEmptyInput(t *testing.T) {
	res := Clean(table(basicHeaders), Options{})
	if len(res.Records) != 0 || len(res.Totals) != 0 || !res.GrandTotal.IsZero() {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if res.DisplayName != DefaultFallbackName {
		t.Fatalf("display name: got %q", res.DisplayName)
	}

	res = Clean(table(basicHeaders, []string{"", "5", "2024-01-01", "X"}), Options{FallbackName: "Friend"})
	if res.DisplayName != "Friend" {
		t.Fatalf("custom fallback: got %q", res.DisplayName)
	}
}

func TestByDonor(t *testing.T) {
	tbl := table(basicHeaders,
		[]string{"Zed", "5", "2024-01-02", "X"},
		[]string{"Amy", "7", "2024-01-03", "Y"},
		[]string{"", "9", "2024-01-04", "X"},
		[]string{"Zed", "6", "2024-01-01", "Y"},
	)

	res := Clean(tbl, Options{})
	donors := res.ByDonor()

	if len(donors) != 2 || donors[0].Name != "Amy" || donors[1].Name != "Zed" {
		t.Fatalf("unexpected donors: %+v", donors)
	}
	zed := donors[1]
	if len(zed.Records) != 2 || zed.Records[0].Date.Day() != 1 {
		t.Fatalf("donor records not in date order: %+v", zed.Records)
	}
	if zed.GrandTotal.StringFixed(2) != "11.00" || len(zed.Totals) != 2 {
		t.Fatalf("unexpected donor totals: %+v", zed)
	}
	if res.Unnamed() != 1 {
		t.Fatalf("expected 1 unnamed record, got %d", res.Unnamed())
	}
}

func TestCheckDropRatio(t *testing.T) {
	res := &Result{SourceRows: 4, Dropped: make([]types.DroppedRow, 3)}

	tests := []struct {
		max     float64
		wantErr bool
	}{
		{0, false},
		{0.8, false},
		{0.75, false},
		{0.5, true},
	}
	for _, tt := range tests {
		err := res.CheckDropRatio(tt.max)
		if (err != nil) != tt.wantErr {
			t.Errorf("max %.2f: got %v", tt.max, err)
		}
		if err != nil && !errors.Is(err, ErrTooManyDropped) {
			t.Errorf("max %.2f: expected ErrTooManyDropped, got %v", tt.max, err)
		}
	}

	if (&Result{}).DroppedRatio() != 0 {
		t.Fatal("empty result must have a zero ratio")
	}
}

func TestSortByDateKeepsDates(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	records := []types.Contribution{{Date: d(3)}, {Date: d(1)}, {Date: d(2)}}
	SortByDate(records)
	for i := 1; i < len(records); i++ {
		if records[i].Date.Before(records[i-1].Date) {
			t.Fatalf("not sorted: %+v", records)
		}
	}
}
