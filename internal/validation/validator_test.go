package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/ginjaninja78/contribution-statements/internal/types"
)

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"$100.00", "100", nil},
		{"100", "100", nil},
		{" $1,250.50 ", "1250.5", nil},
		{"0.01", "0.01", nil},
		{"€20", "20", nil},
		{"abc", "", ErrInvalidAmount},
		{"", "", ErrInvalidAmount},
		{"$", "", ErrInvalidAmount},
		{"1.2.3", "", ErrInvalidAmount},
		{"0", "", ErrNonPositiveAmount},
		{"-5.00", "", ErrNonPositiveAmount},
	}
	for _, tc := range cases {
		got, err := NormalizeAmount(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("%q: expected %v, got %v", tc.in, tc.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.in, tc.want, got.String())
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	want := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	ok := []string{
		"2024-01-05",
		"01/05/2024",
		"1/5/2024",
		"01/05/24",
		"2024/01/05",
		"Jan 5, 2024",
		"January 5, 2024",
		"05-Jan-2024",
		"2024-01-05 13:45:00",
		"2024-01-05T13:45:00Z",
		" 2024-01-05 ",
		"2024-1-5",
		"2024/1/5",
		"1/5/2024 10:30 AM",
		"1/5/2024 10:30:15 PM",
		"2024-01-05 10:30",
		"Jan 5 2024",
		"5-Jan-2024",
		"5 January 2024",
		"20240105",
		"Fri Jan  5 10:30:00 2024",
		"2024-01-05 10:30:00 +0000 UTC",
	}
	for _, in := range ok {
		got, err := NormalizeDate(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}

	bad := []string{"", "not a date", "2024-13-45", "32/01/2024", "1704412800"}
	for _, in := range bad {
		if _, err := NormalizeDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestValidateRow(t *testing.T) {
	valid := map[string]string{
		types.ColumnName:    " Alice ",
		types.ColumnAmount:  "$100.00",
		types.ColumnDate:    "2024-01-05",
		types.ColumnReason:  "Fund A",
		types.ColumnAddress: "1 Main St",
	}
	c, verr := ValidateRow(valid, 3)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if c.Name != "Alice" || c.Reason != "Fund A" || c.Row != 3 || c.Address != "1 Main St" {
		t.Fatalf("unexpected contribution: %+v", c)
	}
	if c.Email != "" || c.Phone != "" {
		t.Fatalf("missing optional fields should stay empty: %+v", c)
	}

	cases := []struct {
		name  string
		row   map[string]string
		rule  types.DropReason
		field string
	}{
		{
			name:  "stray header",
			row:   map[string]string{types.ColumnAmount: "Amount", types.ColumnDate: "DATE", types.ColumnReason: "Reason"},
			rule:  types.DropStrayHeader,
			field: types.ColumnAmount,
		},
		{
			name:  "invalid amount",
			row:   map[string]string{types.ColumnAmount: "abc", types.ColumnDate: "2024-01-04", types.ColumnReason: "Fund A"},
			rule:  types.DropInvalidAmount,
			field: types.ColumnAmount,
		},
		{
			name:  "negative amount",
			row:   map[string]string{types.ColumnAmount: "-1", types.ColumnDate: "2024-01-04", types.ColumnReason: "Fund A"},
			rule:  types.DropNonPositiveAmount,
			field: types.ColumnAmount,
		},
		{
			name:  "invalid date",
			row:   map[string]string{types.ColumnAmount: "10", types.ColumnDate: "someday", types.ColumnReason: "Fund A"},
			rule:  types.DropInvalidDate,
			field: types.ColumnDate,
		},
		{
			name:  "missing reason",
			row:   map[string]string{types.ColumnAmount: "10", types.ColumnDate: "2024-01-04", types.ColumnReason: "  "},
			rule:  types.DropMissingReason,
			field: types.ColumnReason,
		},
	}
	for _, tc := range cases {
		_, verr := ValidateRow(tc.row, 7)
		if verr == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		d := verr.Dropped()
		if d.Reason != tc.rule || d.Field != tc.field || d.Row != 7 {
			t.Fatalf("%s: unexpected drop %+v", tc.name, d)
		}
	}
}
