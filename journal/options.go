package journal

const (
	SortByEntryDate = "entry_date"
	SortBySymbol    = "symbol"
	SortByStatus    = "status"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListOptions are the raw sort parameters of a trade list request.
// Values are kept as received so the view can echo them back.
type ListOptions struct {
	SortBy string
	Order  string
}

// DefaultListOptions returns the options used when a request omits them:
// newest entries first.
func DefaultListOptions() ListOptions {
	return ListOptions{SortBy: SortByEntryDate, Order: OrderDesc}
}

// Sort is a resolved, whitelisted ordering.
type Sort struct {
	Column string
	Desc   bool
}

// Resolve maps the request options onto a column and direction.
// Only symbol and status honour Order; anything else falls back to
// entry_date descending whatever Order says.
func (o ListOptions) Resolve() Sort {
	switch o.SortBy {
	case SortBySymbol, SortByStatus:
		return Sort{Column: o.SortBy, Desc: o.Order != OrderAsc}
	default:
		return Sort{Column: SortByEntryDate, Desc: true}
	}
}
