package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrportal/internal/blob"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

func TestBackendRoundTrip(t *testing.T) {
	b := New()
	ctx := context.Background()
	info := blob.Info{ID: id.NewBlobID(), Filename: "cv.pdf", ContentType: "application/pdf", Size: 5}
	src := []byte("%PDF-")

	require.NoError(t, b.Write(ctx, info, bytes.NewReader(src)))
	src[0] = 'X'

	rc, got, err := b.Open(ctx, info.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(body), "the backend keeps its own copy")
	assert.Equal(t, info, got)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, []id.BlobID{info.ID}, b.IDs())

	require.NoError(t, b.Remove(ctx, info.ID))
	require.NoError(t, b.Remove(ctx, info.ID))
	_, err = b.Stat(ctx, info.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, _, err = b.Open(ctx, info.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestBackendWriteHonoursCancellation(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Write(ctx, blob.Info{ID: id.NewBlobID()}, bytes.NewReader([]byte("data")))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, b.Len())
}
