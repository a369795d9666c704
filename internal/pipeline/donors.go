package pipeline

import (
	"sort"

	"github.com/ginjaninja78/contribution-statements/internal/types"
	"github.com/shopspring/decimal"
)

// Donor is the slice of a Result belonging to one donor name.
type Donor struct {
	Name       string
	Records    []types.Contribution
	Totals     []types.CategoryTotal
	GrandTotal decimal.Decimal
}

// ByDonor groups the cleaned records by donor name, one group per distinct
// non-empty name, sorted by name. Records keep their date order within a
// group. Records without a name belong to no group; see Unnamed.
func (r *Result) ByDonor() []Donor {
	groups := make(map[string][]types.Contribution)
	for _, rec := range r.Records {
		if rec.Name == "" {
			continue
		}
		groups[rec.Name] = append(groups[rec.Name], rec)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	donors := make([]Donor, 0, len(names))
	for _, name := range names {
		records := groups[name]
		totals, grand := Aggregate(records)
		donors = append(donors, Donor{
			Name:       name,
			Records:    records,
			Totals:     totals,
			GrandTotal: grand,
		})
	}

	return donors
}

// Unnamed returns the number of cleaned records without a donor name.
func (r *Result) Unnamed() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Name == "" {
			n++
		}
	}
	return n
}
