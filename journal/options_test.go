package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListOptions_Resolve(t *testing.T) {
	testCases := []struct {
		name     string
		opts     ListOptions
		expected Sort
	}{
		{name: "defaults", opts: DefaultListOptions(), expected: Sort{Column: "entry_date", Desc: true}},
		{name: "symbol asc", opts: ListOptions{SortBy: "symbol", Order: "asc"}, expected: Sort{Column: "symbol", Desc: false}},
		{name: "symbol desc", opts: ListOptions{SortBy: "symbol", Order: "desc"}, expected: Sort{Column: "symbol", Desc: true}},
		{name: "status asc", opts: ListOptions{SortBy: "status", Order: "asc"}, expected: Sort{Column: "status", Desc: false}},
		{name: "status with unknown order", opts: ListOptions{SortBy: "status", Order: "sideways"}, expected: Sort{Column: "status", Desc: true}},
		{name: "order is case sensitive", opts: ListOptions{SortBy: "symbol", Order: "ASC"}, expected: Sort{Column: "symbol", Desc: true}},
		{name: "unknown field ignores asc", opts: ListOptions{SortBy: "unknown", Order: "asc"}, expected: Sort{Column: "entry_date", Desc: true}},
		{name: "entry_date ignores asc", opts: ListOptions{SortBy: "entry_date", Order: "asc"}, expected: Sort{Column: "entry_date", Desc: true}},
		{name: "empty sort_by", opts: ListOptions{}, expected: Sort{Column: "entry_date", Desc: true}},
		{name: "column injection falls back", opts: ListOptions{SortBy: "pnl; DROP TABLE trades", Order: "asc"}, expected: Sort{Column: "entry_date", Desc: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.opts.Resolve())
		})
	}
}
