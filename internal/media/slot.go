// Package media resolves upload slots to exactly one wire action.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/velourdrapes/backoffice/internal/api"
)

// Kind tags the state of a Slot.
type Kind int

const (
	// KindAbsent sends nothing; the server keeps what it has.
	KindAbsent Kind = iota
	// KindRetained re-sends a previously persisted URL.
	KindRetained
	// KindPendingUpload sends new file bytes.
	KindPendingUpload
	// KindMarkedForRemoval asks the server to clear the slot.
	KindMarkedForRemoval
)

func (k Kind) String() string {
	switch k {
	case KindRetained:
		return "retained"
	case KindPendingUpload:
		return "pending upload"
	case KindMarkedForRemoval:
		return "marked for removal"
	default:
		return "absent"
	}
}

// Slot is one media position: a hero image, a veil, a product photo.
// The zero value is Absent.
type Slot struct {
	kind        Kind
	url         string
	fileName    string
	contentType string
	data        []byte
}

// Absent returns an empty slot.
func Absent() Slot { return Slot{} }

// Retained wraps a persisted URL. An empty URL yields Absent.
func Retained(url string) Slot {
	url = strings.TrimSpace(url)
	if url == "" {
		return Slot{}
	}
	return Slot{kind: KindRetained, url: url}
}

// PendingUpload wraps freshly selected file bytes. The content type is
// sniffed from the data.
func PendingUpload(fileName string, data []byte) Slot {
	return Slot{
		kind:        KindPendingUpload,
		fileName:    filepath.Base(fileName),
		contentType: mimetype.Detect(data).String(),
		data:        data,
	}
}

// MarkedForRemoval returns a slot that clears the server value on save.
func MarkedForRemoval() Slot { return Slot{kind: KindMarkedForRemoval} }

// Open reads a local file into a pending upload slot.
func Open(path string) (Slot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Slot{}, fmt.Errorf("read upload %s: %w", path, err)
	}
	if len(data) == 0 {
		return Slot{}, fmt.Errorf("read upload %s: file is empty", path)
	}
	return PendingUpload(path, data), nil
}

func (s Slot) Kind() Kind          { return s.kind }
func (s Slot) URL() string         { return s.url }
func (s Slot) FileName() string    { return s.fileName }
func (s Slot) ContentType() string { return s.contentType }
func (s Slot) Data() []byte        { return s.data }

// IsSet reports whether the slot shows something after save.
func (s Slot) IsSet() bool {
	return s.kind == KindRetained || s.kind == KindPendingUpload
}

// IsVideo reports whether a pending upload is a video.
func (s Slot) IsVideo() bool {
	return strings.HasPrefix(s.contentType, "video/")
}

// Upload returns the multipart file part for a pending upload.
func (s Slot) Upload() api.Upload {
	return api.Upload{FileName: s.fileName, ContentType: s.contentType, Data: s.data}
}

// Label is a short human description for lists and summaries.
func (s Slot) Label() string {
	switch s.kind {
	case KindRetained:
		return s.url
	case KindPendingUpload:
		return fmt.Sprintf("%s (%s, %d bytes)", s.fileName, s.contentType, len(s.data))
	default:
		return s.kind.String()
	}
}

// AppendTo writes the slot's single wire action under field: the file
// itself, field_url for a retained URL, or field__remove. Absent writes
// nothing.
func (s Slot) AppendTo(form *api.Form, field string) error {
	switch s.kind {
	case KindPendingUpload:
		return form.File(field, s.Upload())
	case KindRetained:
		return form.Field(field+"_url", s.url)
	case KindMarkedForRemoval:
		return form.Field(field+"__remove", "true")
	default:
		return nil
	}
}
