package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "hrportal/pkg/domain-errors"
)

// TestParseUUID_Invariants validates that ids are valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseApplicationID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseBlobID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseApplicationID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, ApplicationID(validUUID), id)
		assert.Equal(t, validUUID.String(), id.String())
	})
}

// TestParseID_SecurityInvariants checks parsing rejects attack vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE applications;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBlobID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseJobID(t *testing.T) {
	t.Run("accepts opaque identifiers", func(t *testing.T) {
		for _, in := range []string{"J1", "64f1c2a9e4b0a1b2c3d4e5f6", "job-2025-backend"} {
			id, err := ParseJobID(in)
			require.NoError(t, err)
			assert.Equal(t, JobID(in), id)
		}
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		id, err := ParseJobID("  J1 ")
		require.NoError(t, err)
		assert.Equal(t, JobID("J1"), id)
	})

	t.Run("rejects empty, oversized and non printable", func(t *testing.T) {
		for _, in := range []string{"", "   ", strings.Repeat("x", 65), "J\x001", "J 1"} {
			_, err := ParseJobID(in)
			require.Error(t, err, "input %q", in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(validUUID)
		_, errApp := ParseApplicationID(validUUID)
		_, errBlob := ParseBlobID(validUUID)
		require.NoError(t, errUser)
		require.NoError(t, errApp)
		require.NoError(t, errBlob)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errApp := ParseApplicationID(input)
			_, errBlob := ParseBlobID(input)
			require.Error(t, errUser)
			require.Error(t, errApp)
			require.Error(t, errBlob)
		})
	}
}

func TestTextRoundTrip(t *testing.T) {
	id := NewBlobID()
	text, err := id.MarshalText()
	require.NoError(t, err)

	var parsed BlobID
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, id, parsed)
}
