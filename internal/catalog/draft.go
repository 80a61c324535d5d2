package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/velourdrapes/backoffice/internal/api"
	"github.com/velourdrapes/backoffice/internal/media"
)

// MaxMediaSlots caps the media list of a product draft.
const MaxMediaSlots = 5

// ValidationError is a client-side rejection; it never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Draft is a product being created or edited.
type Draft struct {
	Name        string
	Category    Category
	Description string
	Status      *bool
	Media       []media.Slot
	Primary     *int
}

// NewDraft returns an empty draft in the first accepted category.
func NewDraft(t Taxonomy) Draft {
	d := Draft{Media: make([]media.Slot, MaxMediaSlots)}
	if acc := t.Accepted(); len(acc) > 0 {
		d.Category = acc[0]
	}
	return d
}

// DraftFrom loads p into an editable draft. Media URLs become retained
// slots, padded to MaxMediaSlots.
func DraftFrom(p api.Product) Draft {
	d := Draft{
		Name:        p.Name,
		Category:    Category(p.Category),
		Description: p.Description,
		Media:       make([]media.Slot, MaxMediaSlots),
	}
	if d.Category == "" {
		d.Category = Premium
	}
	for i, u := range p.Media {
		if i >= MaxMediaSlots {
			break
		}
		d.Media[i] = media.Retained(u)
	}
	if p.PrimaryIndex != nil {
		idx := *p.PrimaryIndex
		d.Primary = &idx
	}
	return d
}

// Validate checks required fields, the category, and the media slots.
func (d Draft) Validate(t Taxonomy) error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Message: "Product name is required"}
	}
	if strings.TrimSpace(d.Description) == "" {
		return &ValidationError{Field: "description", Message: "Product description is required"}
	}
	if !t.Accepts(d.Category) {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("Unknown category %q", d.Category)}
	}
	if len(d.Media) > MaxMediaSlots {
		return &ValidationError{Field: "media", Message: fmt.Sprintf("At most %d media files allowed", MaxMediaSlots)}
	}
	if d.Primary != nil {
		i := *d.Primary
		if i < 0 || i >= len(d.Media) || !d.Media[i].IsSet() {
			return &ValidationError{Field: "selectedOption", Message: "Cover image must point at a filled media slot"}
		}
	}
	return nil
}

// Changed reports whether saving the draft would alter p.
func (d Draft) Changed(p api.Product) bool {
	if d.Name != p.Name || d.Description != p.Description || string(d.Category) != p.Category {
		return true
	}
	if d.Status != nil && *d.Status != p.Status {
		return true
	}
	if (d.Primary == nil) != (p.PrimaryIndex == nil) {
		return true
	}
	if d.Primary != nil && *d.Primary != *p.PrimaryIndex {
		return true
	}
	for i, s := range d.Media {
		var orig string
		if i < len(p.Media) {
			orig = p.Media[i]
		}
		switch s.Kind() {
		case media.KindPendingUpload:
			return true
		case media.KindRetained:
			if s.URL() != orig {
				return true
			}
		default:
			if orig != "" {
				return true
			}
		}
	}
	return len(p.Media) > len(d.Media)
}

// Input resolves the draft to the multipart payload. Retained URLs are sent
// under media in slot order and uploads are passed through prep.
func (d Draft) Input(prep media.Preparer) (api.ProductInput, error) {
	in := api.ProductInput{
		Name:        strings.TrimSpace(d.Name),
		Category:    string(d.Category),
		Description: strings.TrimSpace(d.Description),
		Status:      d.Status,
		Media:       []string{},
	}
	if d.Primary != nil {
		idx := *d.Primary
		in.PrimaryIndex = &idx
	}
	slots, err := prep.PrepareAll(d.Media)
	if err != nil {
		return api.ProductInput{}, fmt.Errorf("prepare upload: %w", err)
	}
	for _, s := range slots {
		switch s.Kind() {
		case media.KindRetained:
			in.Media = append(in.Media, s.URL())
		case media.KindPendingUpload:
			in.Uploads = append(in.Uploads, s.Upload())
		}
	}
	return in, nil
}

// apply projects the draft onto a cached product for optimistic display.
// Pending uploads have no URL yet, so the cached media list is kept when the
// draft adds files. The cover follows its URL into whichever list is shown;
// a cover on a pending upload or an empty slot is shown as none.
func (d Draft) apply(p api.Product) api.Product {
	out := p.Clone()
	out.Name = strings.TrimSpace(d.Name)
	out.Category = string(d.Category)
	out.Description = strings.TrimSpace(d.Description)
	if d.Status != nil {
		out.Status = *d.Status
	}
	urls := make([]string, 0, len(d.Media))
	uploads := false
	for _, s := range d.Media {
		switch s.Kind() {
		case media.KindRetained:
			urls = append(urls, s.URL())
		case media.KindPendingUpload:
			uploads = true
		}
	}
	if !uploads {
		out.Media = urls
	}
	out.PrimaryIndex = nil
	if d.Primary != nil && *d.Primary >= 0 && *d.Primary < len(d.Media) {
		if s := d.Media[*d.Primary]; s.Kind() == media.KindRetained {
			if idx := slices.Index(out.Media, s.URL()); idx >= 0 {
				out.PrimaryIndex = &idx
			}
		}
	}
	return out
}
