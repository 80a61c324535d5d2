package catalog

import (
	"net/url"
	"strconv"

	"github.com/velourdrapes/backoffice/internal/state"
)

// Filter selects one page of the product list.
type Filter struct {
	Page     int
	Category *Category
	Status   *bool
	Search   string
}

// Enabled reports whether the query may run. A filter without a page never
// executes.
func (f Filter) Enabled() bool {
	return f.Page >= 1
}

// Key is the cache key. Every dimension is present, absent ones as
// state.Absent, so filters that differ in one dimension never collide.
func (f Filter) Key() state.Key {
	var category any = state.Absent
	if f.Category != nil {
		category = string(*f.Category)
	}
	var status any = state.Absent
	if f.Status != nil {
		status = *f.Status
	}
	return state.Key{"products", f.Page, category, status, f.Search}
}

// Values is the query string sent to GET /products.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Page >= 1 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Category != nil {
		v.Set("category", string(*f.Category))
	}
	if f.Status != nil {
		v.Set("status", strconv.FormatBool(*f.Status))
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	return v
}

// WithPage returns a copy of f on page n.
func (f Filter) WithPage(n int) Filter {
	f.Page = n
	return f
}

// NextStatus cycles all -> active -> inactive -> all.
func NextStatus(current *bool) *bool {
	switch {
	case current == nil:
		v := true
		return &v
	case *current:
		v := false
		return &v
	default:
		return nil
	}
}
