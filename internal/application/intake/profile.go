// Package intake holds the named validation profiles applied to uploaded files.
// Recruitment, requested documents and contracts each carry their own allow-list
// and size ceiling.
package intake

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"hrportal/internal/application/models"
	"hrportal/internal/blob"
	"hrportal/internal/platform/config"
	dErrors "hrportal/pkg/domain-errors"
)

// Profile is one named rule set.
type Profile struct {
	Name          string
	MaxFileSize   int64
	AllowedTypes  []string
	MaxFiles      int
	VerifyContent bool
}

// Profiles bundles the rule set for each intake path.
type Profiles struct {
	Recruitment   Profile
	RequestedDocs Profile
	Contract      Profile
}

func FromConfig(p config.Profile) Profile {
	allowed := make([]string, 0, len(p.AllowedTypes))
	for _, t := range p.AllowedTypes {
		if n := NormalizeContentType(t, ""); n != "" {
			allowed = append(allowed, n)
		}
	}
	return Profile{
		Name:          p.Name,
		MaxFileSize:   p.MaxFileSize,
		AllowedTypes:  allowed,
		MaxFiles:      p.MaxFiles,
		VerifyContent: p.VerifyContent,
	}
}

func ProfilesFromConfig(c config.Profiles) Profiles {
	return Profiles{
		Recruitment:   FromConfig(c.Recruitment),
		RequestedDocs: FromConfig(c.RequestedDocs),
		Contract:      FromConfig(c.Contract),
	}
}

// DefaultProfiles mirrors the configuration defaults.
func DefaultProfiles() Profiles {
	return Profiles{
		Recruitment:   FromConfig(config.DefaultRecruitmentProfile()),
		RequestedDocs: FromConfig(config.DefaultRequestedDocsProfile()),
		Contract:      FromConfig(config.DefaultContractProfile()),
	}
}

// FileHeader describes an uploaded part before its bytes are read.
type FileHeader struct {
	Slot        models.Slot
	Filename    string
	ContentType string
	Size        int64
}

// Allows reports whether contentType is on the allow-list.
func (p Profile) Allows(contentType string) bool {
	for _, t := range p.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// CheckFile validates one part's declared metadata. ContentType must already be
// normalized.
func (p Profile) CheckFile(h FileHeader) error {
	name := h.Filename
	if name == "" {
		name = string(h.Slot)
	}
	if h.Size == 0 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s: file is empty", name))
	}
	if h.Size > p.MaxFileSize {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s: file exceeds the %s limit of %d bytes", name, p.Name, p.MaxFileSize))
	}
	if !p.Allows(h.ContentType) {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s: file type %q is not allowed (allowed: %s)", name, h.ContentType, strings.Join(p.AllowedTypes, ", ")))
	}
	return nil
}

// CheckCount validates how many files arrived for one slot.
func (p Profile) CheckCount(slot models.Slot, n int) error {
	if n == 0 {
		return nil
	}
	if !slot.IsMulti() && n > 1 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s accepts a single file", slot))
	}
	if slot.IsMulti() && n > p.MaxFiles {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s accepts at most %d files", slot, p.MaxFiles))
	}
	return nil
}

// CheckAll validates every header and per-slot count before anything is stored.
func (p Profile) CheckAll(headers []FileHeader) error {
	counts := map[models.Slot]int{}
	for _, h := range headers {
		counts[h.Slot]++
	}
	for _, slot := range models.AllSlots {
		if err := p.CheckCount(slot, counts[slot]); err != nil {
			return err
		}
	}
	for _, h := range headers {
		if err := p.CheckFile(h); err != nil {
			return err
		}
	}
	return nil
}

// PutRequest builds the blob request for a validated header.
func (p Profile) PutRequest(h FileHeader) blob.PutRequest {
	req := blob.PutRequest{
		Filename:    SanitizeFilename(h.Filename),
		ContentType: h.ContentType,
		SizeHint:    h.Size,
		MaxSize:     p.MaxFileSize,
	}
	if p.VerifyContent {
		req.Verify = VerifyContent
	}
	return req
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".txt":  "text/plain",
}

// NormalizeContentType strips parameters and lower-cases the media type. A
// missing or generic type is inferred from the filename extension.
func NormalizeContentType(declared, filename string) string {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if ct == "" || ct == "application/octet-stream" {
		if inferred, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
			return inferred
		}
	}
	return ct
}

// SanitizeFilename keeps only the base name and drops control characters.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	const maxLen = 255
	if len(name) > maxLen {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxLen-len(ext)] + ext
	}
	return strings.TrimSpace(name)
}
