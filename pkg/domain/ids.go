package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "hrportal/pkg/domain-errors"
)

// Typed identifiers keep application, user and blob ids from being mixed up at
// compile time. Construct them with the Parse functions at trust boundaries.
type (
	ApplicationID uuid.UUID
	UserID        uuid.UUID
	BlobID        uuid.UUID
)

// JobID is an opaque reference to a job posting owned by the job catalogue.
type JobID string

const maxJobIDLength = 64

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > 64 || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return parsed, nil
}

func ParseApplicationID(s string) (ApplicationID, error) {
	parsed, err := parseUUID(s, "application id")
	return ApplicationID(parsed), err
}

func ParseUserID(s string) (UserID, error) {
	parsed, err := parseUUID(s, "user id")
	return UserID(parsed), err
}

func ParseBlobID(s string) (BlobID, error) {
	parsed, err := parseUUID(s, "file id")
	return BlobID(parsed), err
}

// ParseJobID accepts any short printable identifier; job ids are minted elsewhere.
func ParseJobID(s string) (JobID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "job id is required")
	}
	if len(s) > maxJobIDLength || !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid job id")
	}
	for _, r := range s {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid job id")
		}
	}
	return JobID(s), nil
}

func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }
func NewBlobID() BlobID               { return BlobID(uuid.New()) }

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id ApplicationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id BlobID) String() string { return uuid.UUID(id).String() }
func (id BlobID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id JobID) String() string { return string(id) }
func (id JobID) IsNil() bool    { return id == "" }

// MarshalText lets typed ids serialize as plain uuid strings in JSON.
func (id ApplicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id BlobID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }

func (id *ApplicationID) UnmarshalText(b []byte) error {
	parsed, err := ParseApplicationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *BlobID) UnmarshalText(b []byte) error {
	parsed, err := ParseBlobID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
