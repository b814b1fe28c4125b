// Package s3 stores blobs in an S3-compatible bucket (AWS S3, Cloudflare R2, MinIO).
// Blob metadata travels as object metadata so a single HEAD answers Stat.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"hrportal/internal/blob"
	"hrportal/internal/platform/config"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

const (
	metaFilename  = "filename"
	metaChecksum  = "checksum"
	metaCreatedAt = "created-at"
	metaSize      = "size"
)

// API is the subset of *s3.Client the backend uses.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Backend struct {
	client API
	bucket string
	prefix string
}

func New(client API, bucket string) *Backend {
	return &Backend{client: client, bucket: bucket, prefix: "blobs/"}
}

// NewFromConfig builds an S3 client from blob settings. A custom endpoint or an
// R2 account id switches to that provider.
func NewFromConfig(ctx context.Context, cfg config.BlobConfig) (*Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, cfg.Bucket), nil
}

func (b *Backend) key(blobID id.BlobID) string {
	return b.prefix + blobID.String()
}

func (b *Backend) Write(ctx context.Context, info blob.Info, content io.Reader) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key(info.ID)),
		Body:          content,
		ContentLength: aws.Int64(info.Size),
		ContentType:   aws.String(info.ContentType),
		Metadata: map[string]string{
			metaFilename:  url.QueryEscape(info.Filename),
			metaChecksum:  info.Checksum,
			metaCreatedAt: info.CreatedAt.UTC().Format(time.RFC3339Nano),
			metaSize:      strconv.FormatInt(info.Size, 10),
		},
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (b *Backend) Open(ctx context.Context, blobID id.BlobID) (io.ReadCloser, blob.Info, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(blobID)),
	})
	if err != nil {
		return nil, blob.Info{}, mapError("get object", err)
	}
	info := decodeInfo(blobID, out.Metadata, aws.ToString(out.ContentType), aws.ToInt64(out.ContentLength))
	return out.Body, info, nil
}

func (b *Backend) Stat(ctx context.Context, blobID id.BlobID) (blob.Info, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(blobID)),
	})
	if err != nil {
		return blob.Info{}, mapError("head object", err)
	}
	return decodeInfo(blobID, out.Metadata, aws.ToString(out.ContentType), aws.ToInt64(out.ContentLength)), nil
}

// Remove is idempotent: S3 reports success for missing keys.
func (b *Backend) Remove(ctx context.Context, blobID id.BlobID) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(blobID)),
	})
	if err != nil {
		return mapError("delete object", err)
	}
	return nil
}

func decodeInfo(blobID id.BlobID, meta map[string]string, contentType string, length int64) blob.Info {
	info := blob.Info{
		ID:          blobID,
		ContentType: contentType,
		Size:        length,
		Checksum:    meta[metaChecksum],
	}
	if name, err := url.QueryUnescape(meta[metaFilename]); err == nil {
		info.Filename = name
	}
	if ts, err := time.Parse(time.RFC3339Nano, meta[metaCreatedAt]); err == nil {
		info.CreatedAt = ts
	}
	if info.Size == 0 {
		if n, err := strconv.ParseInt(meta[metaSize], 10, 64); err == nil {
			info.Size = n
		}
	}
	return info
}

func mapError(op string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
