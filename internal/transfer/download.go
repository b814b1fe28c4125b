package transfer

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hrportal/internal/blob"
	"hrportal/pkg/requestcontext"
)

// Disposition values for Content-Disposition.
const (
	Inline     = "inline"
	Attachment = "attachment"
)

// DispositionFor maps the ?inline query flag to a disposition type.
func DispositionFor(r *http.Request) string {
	switch r.URL.Query().Get("inline") {
	case "1", "true":
		return Inline
	default:
		return Attachment
	}
}

// ContentDisposition builds the header value with an ASCII fallback filename and
// an RFC 5987 filename* parameter for everything else.
func ContentDisposition(disposition, filename string) string {
	if filename == "" {
		return disposition
	}
	fallback := asciiFallback(filename)
	if fallback == filename {
		if v := mime.FormatMediaType(disposition, map[string]string{"filename": filename}); v != "" {
			return v
		}
	}
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`,
		disposition, fallback, strings.ReplaceAll(url.QueryEscape(filename), "+", "%20"))
}

func asciiFallback(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('_')
		case r < 0x20 || r > 0x7e:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ETag derives a strong validator from the blob checksum.
func ETag(info blob.Info) string {
	if info.Checksum == "" {
		return ""
	}
	return `"` + info.Checksum + `"`
}

// Serve writes obj to w and closes its body. A matching If-None-Match yields
// 304 and HEAD requests get headers only.
func Serve(w http.ResponseWriter, r *http.Request, obj *blob.Object, disposition string, logger *slog.Logger) {
	defer obj.Body.Close()

	h := w.Header()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", ContentDisposition(disposition, obj.Filename))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "private, no-cache")
	if etag := ETag(obj.Info); etag != "" {
		h.Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	if obj.Size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	n, err := io.Copy(w, obj.Body)
	if err != nil && logger != nil {
		logger.WarnContext(r.Context(), "download interrupted",
			"blob_id", obj.ID,
			"written", n,
			"size", obj.Size,
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
