package api

import (
	"io"
	"mime"
	"mime/multipart"
	"testing"
	"time"
)

func TestParseTimeLayouts(t *testing.T) {
	rfc := "2025-12-13T10:11:12Z"
	if parseTime(rfc).IsZero() {
		t.Fatalf("parseTime should parse RFC3339")
	}
	custom := "2025-12-13 10:11:12"
	got := parseTime(custom)
	if got.IsZero() {
		t.Fatalf("parseTime should parse server timestamp")
	}
	if got.Year() != 2025 || got.Month() != time.December || got.Day() != 13 {
		t.Fatalf("parseTime = %v, want 2025-12-13", got)
	}
	if !parseTime("garbage").IsZero() {
		t.Fatalf("parseTime should return zero time for garbage")
	}
}

func TestProductClone(t *testing.T) {
	idx := 1
	p := Product{ID: "p1", Media: []string{"a", "b"}, PrimaryIndex: &idx}
	dup := p.Clone()
	dup.Media[0] = "z"
	*dup.PrimaryIndex = 0
	if p.Media[0] != "a" || *p.PrimaryIndex != 1 {
		t.Fatalf("Clone shares state with original: %#v", p)
	}
}

func TestProductPrimaryMedia(t *testing.T) {
	idx := 1
	p := Product{Media: []string{"a", "b"}, PrimaryIndex: &idx}
	if p.PrimaryMedia() != "b" {
		t.Fatalf("PrimaryMedia = %q, want b", p.PrimaryMedia())
	}
	bad := 9
	p.PrimaryIndex = &bad
	if p.PrimaryMedia() != "a" {
		t.Fatalf("PrimaryMedia = %q, want fallback a", p.PrimaryMedia())
	}
	if (Product{}).PrimaryMedia() != "" {
		t.Fatalf("PrimaryMedia on empty product should be empty")
	}
}

func TestProductPageIndexAndClone(t *testing.T) {
	page := ProductPage{Products: []Product{{ID: "a"}, {ID: "b"}}}
	if page.Index("b") != 1 || page.Index("zz") != -1 {
		t.Fatalf("Index mismatch")
	}
	dup := page.Clone()
	dup.Products[0].Name = "changed"
	if page.Products[0].Name != "" {
		t.Fatalf("Clone shares products slice")
	}
}

func TestFormRepeatedKeysAndJSON(t *testing.T) {
	f := NewForm()
	if err := f.Fields("media", []string{"u1", "u2"}); err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if err := f.JSON("priceRanges", []string{"29,000-38,000"}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	r, err := f.Reader()
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	// A second reader must replay the same body.
	if _, err := f.Reader(); err != nil {
		t.Fatalf("second Reader: %v", err)
	}
	if err := f.Field("late", "x"); err == nil {
		t.Fatalf("Field after close returned nil error")
	}

	_, params, err := mime.ParseMediaType(f.ContentType())
	if err != nil {
		t.Fatalf("ParseMediaType: %v", err)
	}
	mr := multipart.NewReader(r, params["boundary"])
	var names, values []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		data, _ := io.ReadAll(part)
		names = append(names, part.FormName())
		values = append(values, string(data))
	}
	if len(names) != 3 || names[0] != "media" || names[1] != "media" || names[2] != "priceRanges" {
		t.Fatalf("part names = %v", names)
	}
	if values[2] != `["29,000-38,000"]` {
		t.Fatalf("json value = %q", values[2])
	}
}
