package media

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxDimension = 2000
	DefaultQuality      = 85
)

// Preparer shrinks oversized image uploads before they are sent.
type Preparer struct {
	// MaxDimension bounds the longer side in pixels. Zero disables resizing.
	MaxDimension int
	// Quality is the JPEG quality used when re-encoding.
	Quality int
}

// Prepare returns slot unchanged unless it is a JPEG or PNG upload larger
// than MaxDimension, in which case the image is fitted inside the bound and
// re-encoded in its original format.
func (p Preparer) Prepare(slot Slot) (Slot, error) {
	if p.MaxDimension <= 0 || slot.kind != KindPendingUpload {
		return slot, nil
	}
	var format imaging.Format
	switch slot.contentType {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	default:
		return slot, nil
	}

	img, err := imaging.Decode(bytes.NewReader(slot.data), imaging.AutoOrientation(true))
	if err != nil {
		return slot, fmt.Errorf("decode %s: %w", slot.fileName, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= p.MaxDimension && bounds.Dy() <= p.MaxDimension {
		return slot, nil
	}

	resized := imaging.Fit(img, p.MaxDimension, p.MaxDimension, imaging.Lanczos)
	quality := p.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(quality)); err != nil {
		return slot, fmt.Errorf("encode %s: %w", slot.fileName, err)
	}
	out := slot
	out.data = buf.Bytes()
	return out, nil
}

// PrepareAll runs Prepare over every slot.
func (p Preparer) PrepareAll(slots []Slot) ([]Slot, error) {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		prepared, err := p.Prepare(s)
		if err != nil {
			return nil, err
		}
		out[i] = prepared
	}
	return out, nil
}
