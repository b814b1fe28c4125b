package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrportal/internal/blob"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

func TestBackend_WriteOpenRemove(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	b, err := New(root)
	require.NoError(t, err)

	info := blob.Info{
		ID:          id.NewBlobID(),
		Filename:    "Lebenslauf für Bewerbung.pdf",
		ContentType: "application/pdf",
		Size:        5,
		Checksum:    "abc",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, b.Write(ctx, info, strings.NewReader("hello")))

	body, got, err := b.Open(ctx, info.ID)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, info, got)

	entries, err := os.ReadDir(filepath.Join(root, info.ID.String()[:2]))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}

	require.NoError(t, b.Remove(ctx, info.ID))
	require.NoError(t, b.Remove(ctx, info.ID))
	_, err = b.Stat(ctx, info.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestBackend_ShortWriteLeavesNothing(t *testing.T) {
	ctx := context.Background()
	b, err := New(t.TempDir())
	require.NoError(t, err)

	info := blob.Info{ID: id.NewBlobID(), Size: 10}
	err = b.Write(ctx, info, strings.NewReader("short"))
	require.Error(t, err)

	_, _, err = b.Open(ctx, info.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
