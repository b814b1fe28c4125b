// Package transfer moves file bytes across HTTP: reading multipart uploads into
// spooled parts and streaming stored objects back with the right headers.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	dErrors "hrportal/pkg/domain-errors"
)

// DefaultMaxMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const DefaultMaxMemory = 1 << 20

// Part is one uploaded file. Open may be called more than once.
type Part struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Form is a parsed multipart request. Call RemoveAll when done to delete
// spilled parts.
type Form struct {
	form  *multipart.Form
	Parts []Part
}

// Value returns the first value of a text field.
func (f *Form) Value(name string) string {
	if f.form == nil {
		return ""
	}
	if v := f.form.Value[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// PartsFor returns the parts submitted under field, accepting the "field[]" form.
func (f *Form) PartsFor(field string) []Part {
	var out []Part
	for _, p := range f.Parts {
		if p.Field == field {
			out = append(out, p)
		}
	}
	return out
}

func (f *Form) RemoveAll() {
	if f.form != nil {
		_ = f.form.RemoveAll()
	}
}

// ReadForm parses a multipart body capped at maxBytes. Parts beyond maxMemory are
// spooled to disk by mime/multipart.
func ReadForm(w http.ResponseWriter, r *http.Request, maxBytes, maxMemory int64) (*Form, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, dErrors.New(dErrors.CodeBadRequest, "expected multipart/form-data")
	}
	if maxMemory <= 0 {
		maxMemory = DefaultMaxMemory
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed multipart body")
	}

	out := &Form{form: r.MultipartForm}
	for field, headers := range r.MultipartForm.File {
		name := strings.TrimSuffix(field, "[]")
		for _, fh := range headers {
			out.Parts = append(out.Parts, Part{
				Field:       name,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			})
		}
	}
	return out, nil
}
