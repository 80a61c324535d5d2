package api

import (
	"slices"
	"time"
)

const serverTimestampLayout = "2006-01-02 15:04:05"

// Product mirrors a catalog product as returned by /products.
type Product struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	Media        []string `json:"media"`
	PrimaryIndex *int     `json:"selectedOption"`
	Status       bool     `json:"status"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

// Clone returns a deep copy so cached values are never shared.
func (p Product) Clone() Product {
	dup := p
	dup.Media = slices.Clone(p.Media)
	if p.PrimaryIndex != nil {
		idx := *p.PrimaryIndex
		dup.PrimaryIndex = &idx
	}
	return dup
}

// PrimaryMedia returns the cover image URL, falling back to the first entry.
func (p Product) PrimaryMedia() string {
	if p.PrimaryIndex != nil && *p.PrimaryIndex >= 0 && *p.PrimaryIndex < len(p.Media) {
		return p.Media[*p.PrimaryIndex]
	}
	if len(p.Media) > 0 {
		return p.Media[0]
	}
	return ""
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (p Product) ParsedCreatedAt() time.Time {
	return parseTime(p.CreatedAt)
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (p Product) ParsedUpdatedAt() time.Time {
	return parseTime(p.UpdatedAt)
}

// ProductPage is the normalized projection of a paginated /products reply.
type ProductPage struct {
	Products    []Product
	CurrentPage int
	TotalPages  int
	TotalCount  int
}

// Clone returns a deep copy of the page.
func (p ProductPage) Clone() ProductPage {
	dup := p
	if p.Products != nil {
		dup.Products = make([]Product, len(p.Products))
		for i, item := range p.Products {
			dup.Products[i] = item.Clone()
		}
	}
	return dup
}

// Index returns the position of the product with id, or -1.
func (p ProductPage) Index(id string) int {
	return slices.IndexFunc(p.Products, func(item Product) bool { return item.ID == id })
}

// ProductInput carries the writable product fields for create and update.
type ProductInput struct {
	Name         string
	Category     string
	Description  string
	Status       *bool
	PrimaryIndex *int
	Media        []string
	Uploads      []Upload
}

// Upload is a file part destined for a multipart request.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// User is the administrator returned by /auth/login.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResponse mirrors the /auth/login reply.
type LoginResponse struct {
	User    User   `json:"user"`
	Message string `json:"message"`
}

type messageBody struct {
	Message string `json:"message"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(serverTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
