package website

import (
	"fmt"
	"slices"
	"strings"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/media"
)

// Draft is a section being edited. It starts clean; any change marks it
// dirty and only a dirty draft is saved.
type Draft struct {
	section Section
	layout  layout
	slots   map[string]media.Slot
	texts   map[string]string
	prices  []string
	dirty   bool
}

// NewDraft loads content into an editable draft. Persisted media become
// retained slots.
func NewDraft(c Content) *Draft {
	v := c.values()
	d := &Draft{
		section: c.Section(),
		layout:  layoutOf(c.Section()),
		slots:   make(map[string]media.Slot, len(v.slots)),
		texts:   make(map[string]string, len(v.texts)),
		prices:  slices.Clone(v.prices),
	}
	for _, f := range d.layout.slots {
		d.slots[f] = media.Retained(v.slots[f])
	}
	for _, f := range d.layout.texts {
		d.texts[f] = v.texts[f]
	}
	return d
}

func (d *Draft) Section() Section { return d.section }

// Dirty reports whether the draft has unsaved changes.
func (d *Draft) Dirty() bool { return d.dirty }

// MarkClean records a successful save.
func (d *Draft) MarkClean() { d.dirty = false }

// SlotFields lists media fields in display order.
func (d *Draft) SlotFields() []string { return slices.Clone(d.layout.slots) }

// TextFields lists text fields in display order.
func (d *Draft) TextFields() []string { return slices.Clone(d.layout.texts) }

// Slot returns the media slot for field.
func (d *Draft) Slot(field string) media.Slot { return d.slots[field] }

// Text returns the text field value.
func (d *Draft) Text(field string) string { return d.texts[field] }

// SetSlot replaces a media slot.
func (d *Draft) SetSlot(field string, s media.Slot) error {
	if _, ok := d.slots[field]; !ok {
		return fmt.Errorf("%s has no media field %q", d.section.Title(), field)
	}
	d.slots[field] = s
	d.dirty = true
	return nil
}

// RemoveSlot marks a media slot for removal.
func (d *Draft) RemoveSlot(field string) error {
	return d.SetSlot(field, media.MarkedForRemoval())
}

// SetText replaces a text field.
func (d *Draft) SetText(field, value string) error {
	old, ok := d.texts[field]
	if !ok {
		return fmt.Errorf("%s has no text field %q", d.section.Title(), field)
	}
	if old != value {
		d.texts[field] = value
		d.dirty = true
	}
	return nil
}

// PriceRanges returns the contact price list, newest first.
func (d *Draft) PriceRanges() []string { return slices.Clone(d.prices) }

// AddPriceRange validates input and puts it at the top of the list.
func (d *Draft) AddPriceRange(input string) error {
	if !d.layout.prices {
		return fmt.Errorf("%s has no price ranges", d.section.Title())
	}
	if len(d.prices) >= MaxPriceRanges {
		return &ParseError{Input: input, Message: fmt.Sprintf("Maximum %d price ranges allowed", MaxPriceRanges)}
	}
	formatted, err := FormatPriceRange(input)
	if err != nil {
		return err
	}
	d.prices = append([]string{formatted}, d.prices...)
	d.dirty = true
	return nil
}

// EditPriceRange replaces entry i.
func (d *Draft) EditPriceRange(i int, input string) error {
	if i < 0 || i >= len(d.prices) {
		return fmt.Errorf("price range %d out of range", i)
	}
	if strings.TrimSpace(input) == "" {
		return &ParseError{Input: input, Message: "Price range cannot be empty"}
	}
	formatted, err := FormatPriceRange(input)
	if err != nil {
		return err
	}
	d.prices[i] = formatted
	d.dirty = true
	return nil
}

// DeletePriceRange drops entry i.
func (d *Draft) DeletePriceRange(i int) error {
	if i < 0 || i >= len(d.prices) {
		return fmt.Errorf("price range %d out of range", i)
	}
	d.prices = slices.Delete(d.prices, i, i+1)
	d.dirty = true
	return nil
}

// Form builds the multipart submission. Text fields are always sent; each
// slot contributes its single wire action.
func (d *Draft) Form(prep media.Preparer) (*api.Form, error) {
	form := api.NewForm()
	for _, f := range d.layout.texts {
		if err := form.Field(f, d.texts[f]); err != nil {
			return nil, err
		}
	}
	for _, f := range d.layout.slots {
		slot, err := prep.Prepare(d.slots[f])
		if err != nil {
			return nil, fmt.Errorf("prepare %s: %w", f, err)
		}
		if err := slot.AppendTo(form, f); err != nil {
			return nil, err
		}
	}
	if d.layout.prices {
		prices := d.prices
		if prices == nil {
			prices = []string{}
		}
		if err := form.JSON("priceRanges", prices); err != nil {
			return nil, err
		}
	}
	return form, nil
}
