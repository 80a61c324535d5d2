package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Form builds a multipart/form-data body. Arrays become repeated keys and
// objects are JSON-stringified, matching what the admin API parses.
type Form struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	closed bool
}

// NewForm returns an empty multipart form.
func NewForm() *Form {
	f := &Form{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

// Field appends a plain text field.
func (f *Form) Field(key, value string) error {
	if f.closed {
		return fmt.Errorf("form field %q: form already closed", key)
	}
	return f.writer.WriteField(key, value)
}

// Fields appends one text field per value under the same key.
func (f *Form) Fields(key string, values []string) error {
	for _, v := range values {
		if err := f.Field(key, v); err != nil {
			return err
		}
	}
	return nil
}

// JSON appends value encoded as a JSON string.
func (f *Form) JSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode form field %q: %w", key, err)
	}
	return f.Field(key, string(data))
}

// File appends a file part.
func (f *Form) File(key string, up Upload) error {
	if f.closed {
		return fmt.Errorf("form file %q: form already closed", key)
	}
	name := strings.TrimSpace(up.FileName)
	if name == "" {
		name = key
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, key, name))
	header.Set("Content-Type", contentType)
	part, err := f.writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create form file %q: %w", key, err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return fmt.Errorf("write form file %q: %w", key, err)
	}
	return nil
}

// ContentType returns the multipart content type including the boundary.
func (f *Form) ContentType() string {
	return f.writer.FormDataContentType()
}

// Reader closes the form on first use and returns a fresh reader over the
// encoded body, so the same form can be sent more than once.
func (f *Form) Reader() (io.Reader, error) {
	if !f.closed {
		if err := f.writer.Close(); err != nil {
			return nil, fmt.Errorf("close form: %w", err)
		}
		f.closed = true
	}
	return bytes.NewReader(f.buf.Bytes()), nil
}
