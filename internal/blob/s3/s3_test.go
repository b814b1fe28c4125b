package s3

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrportal/internal/blob"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

type fakeObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

// fakeS3 mimics the bucket semantics the backend relies on.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string]fakeObject{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{body: data, contentType: aws.ToString(in.ContentType), metadata: in.Metadata}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.body)),
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.body))),
		Metadata:      obj.metadata,
	}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.body))),
		Metadata:      obj.metadata,
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	b := New(api, "hr-documents")

	info := blob.Info{
		ID:          id.NewBlobID(),
		Filename:    "contrat signé (v2).pdf",
		ContentType: "application/pdf",
		Size:        7,
		Checksum:    "deadbeef",
		CreatedAt:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, b.Write(ctx, info, strings.NewReader("%PDF-1.")))

	stored := api.objects["blobs/"+info.ID.String()]
	for _, v := range stored.metadata {
		for _, r := range v {
			assert.Less(t, r, rune(128), "metadata must stay ASCII")
		}
	}

	body, got, err := b.Open(ctx, info.ID)
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Equal(t, "%PDF-1.", string(data))
	assert.Equal(t, info, got)

	stat, err := b.Stat(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info, stat)
}

func TestBackend_NotFound(t *testing.T) {
	ctx := context.Background()
	b := New(newFakeS3(), "hr-documents")
	missing := id.NewBlobID()

	_, _, err := b.Open(ctx, missing)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = b.Stat(ctx, missing)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, b.Remove(ctx, missing))
}
