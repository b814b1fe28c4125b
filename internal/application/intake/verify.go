package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	dErrors "hrportal/pkg/domain-errors"
)

var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// VerifyContent checks that staged bytes really are the declared type. Types
// without a dedicated check pass.
func VerifyContent(_ context.Context, content io.ReaderAt, size int64, contentType string) error {
	head := make([]byte, min(size, 512))
	if _, err := content.ReadAt(head, 0); err != nil && err != io.EOF {
		return dErrors.Wrap(err, dErrors.CodeInternal, "read staged upload")
	}

	switch contentType {
	case "application/pdf":
		if !bytes.HasPrefix(head, []byte("%PDF-")) {
			return invalid(contentType)
		}
		if err := parsePDF(content, size); err != nil {
			return invalid(contentType)
		}
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		if err := parseDocx(content, size); err != nil {
			return invalid(contentType)
		}
	case "application/msword":
		if !bytes.HasPrefix(head, oleMagic) {
			return invalid(contentType)
		}
	case "image/jpeg", "image/png":
		if http.DetectContentType(head) != contentType {
			return invalid(contentType)
		}
	}
	return nil
}

func invalid(contentType string) error {
	return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("file content does not match declared type %s", contentType))
}

// parsePDF opens the document and requires at least one page. The parser panics
// on some malformed input, which is treated as invalid content.
func parsePDF(content io.ReaderAt, size int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(content, size)
	if err != nil {
		return err
	}
	if reader.NumPage() < 1 {
		return fmt.Errorf("pdf has no pages")
	}
	return nil
}

func parseDocx(content io.ReaderAt, size int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed docx: %v", r)
		}
	}()
	doc, err := docx.ReadDocxFromMemory(content, size)
	if err != nil {
		return err
	}
	return doc.Close()
}
