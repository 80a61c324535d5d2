package catalog

import (
	"slices"
	"strings"
)

// Category is a product category name as the server stores it.
type Category string

const (
	Premium     Category = "Premium"
	Luxe        Category = "Luxe"
	OtherDrapes Category = "Other Drapes"
)

// DefaultCategories is the set the server accepts at creation.
var DefaultCategories = []Category{Premium, Luxe}

// Taxonomy separates categories accepted on create and edit from the wider
// set offered as list filters.
type Taxonomy struct {
	accepted []Category
	filters  []Category
}

// NewTaxonomy builds a taxonomy from configured names. Blank and duplicate
// names are dropped; an empty list falls back to DefaultCategories. Other
// Drapes is always offered as a filter.
func NewTaxonomy(names []string) Taxonomy {
	var accepted []Category
	for _, n := range names {
		c := Category(strings.TrimSpace(n))
		if c == "" || slices.Contains(accepted, c) {
			continue
		}
		accepted = append(accepted, c)
	}
	if len(accepted) == 0 {
		accepted = slices.Clone(DefaultCategories)
	}
	filters := slices.Clone(accepted)
	if !slices.Contains(filters, OtherDrapes) {
		filters = append(filters, OtherDrapes)
	}
	return Taxonomy{accepted: accepted, filters: filters}
}

// Accepted returns the categories a product may be saved with.
func (t Taxonomy) Accepted() []Category { return slices.Clone(t.accepted) }

// Filters returns the categories offered when filtering the list.
func (t Taxonomy) Filters() []Category { return slices.Clone(t.filters) }

// Accepts reports whether c may be saved.
func (t Taxonomy) Accepts(c Category) bool { return slices.Contains(t.accepted, c) }

// Parse matches s case-insensitively against the filter set. "Drapes" is
// read as Other Drapes.
func (t Taxonomy) Parse(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "Drapes") {
		s = string(OtherDrapes)
	}
	for _, c := range t.filters {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Next cycles through "all" (nil) and every filter category.
func (t Taxonomy) Next(current *Category) *Category {
	if len(t.filters) == 0 {
		return nil
	}
	if current == nil {
		c := t.filters[0]
		return &c
	}
	i := slices.Index(t.filters, *current)
	if i < 0 || i+1 >= len(t.filters) {
		return nil
	}
	c := t.filters[i+1]
	return &c
}
