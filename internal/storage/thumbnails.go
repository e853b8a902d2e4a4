// Package storage uploads draft thumbnails to an object store and returns
// the link recorded on the draft.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-studio/internal/config"
)

// PresignExpiry is how long a presigned thumbnail link stays valid
const PresignExpiry = 7 * 24 * time.Hour

const pngContentType = "image/png"

// objectClient is the subset of *minio.Client used here
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

var _ objectClient = (*minio.Client)(nil)

// Thumbnails stores rasterized draft thumbnails in a MinIO bucket
type Thumbnails struct {
	client    objectClient
	bucket    string
	publicURL string
	log       zerolog.Logger
}

// NewThumbnails connects to the configured endpoint and makes sure the
// bucket exists.
func NewThumbnails(ctx context.Context, cfg config.Storage, log zerolog.Logger) (*Thumbnails, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("object storage endpoint is not configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	t := newThumbnails(client, cfg, log)
	if err := t.ensureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", t.bucket).Msg("thumbnail storage ready")
	return t, nil
}

func newThumbnails(client objectClient, cfg config.Storage, log zerolog.Logger) *Thumbnails {
	return &Thumbnails{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		log:       log,
	}
}

func (t *Thumbnails) ensureBucket(ctx context.Context) error {
	exists, err := t.client.BucketExists(ctx, t.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", t.bucket, err)
	}
	if exists {
		return nil
	}
	t.log.Info().Str("bucket", t.bucket).Msg("creating thumbnail bucket")
	if err := t.client.MakeBucket(ctx, t.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", t.bucket, err)
	}
	return nil
}

// ObjectKey returns the key a draft's thumbnail is stored under. Each save
// overwrites the previous image.
func ObjectKey(draftID uuid.UUID) string {
	return fmt.Sprintf("drafts/%s/thumbnail.png", draftID)
}

// Upload stores png as the thumbnail of draftID and returns its link.
func (t *Thumbnails) Upload(ctx context.Context, draftID uuid.UUID, png []byte) (string, error) {
	if len(png) == 0 {
		return "", fmt.Errorf("thumbnail image is empty")
	}

	key := ObjectKey(draftID)
	info, err := t.client.PutObject(ctx, t.bucket, key, bytes.NewReader(png), int64(len(png)),
		minio.PutObjectOptions{ContentType: pngContentType, CacheControl: "no-cache"})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", t.bucket, key, err)
	}
	t.log.Debug().Str("key", key).Int64("size", info.Size).Msg("thumbnail uploaded")

	return t.link(ctx, key)
}

// Remove deletes the thumbnail of draftID
func (t *Thumbnails) Remove(ctx context.Context, draftID uuid.UUID) error {
	if err := t.client.RemoveObject(ctx, t.bucket, ObjectKey(draftID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove thumbnail of %s: %w", draftID, err)
	}
	return nil
}

func (t *Thumbnails) link(ctx context.Context, key string) (string, error) {
	if t.publicURL != "" {
		// Cache-bust so clients pick up the overwritten object.
		return fmt.Sprintf("%s/%s/%s?v=%d", t.publicURL, t.bucket, key, time.Now().UnixMilli()), nil
	}
	u, err := t.client.PresignedGetObject(ctx, t.bucket, key, PresignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s/%s: %w", t.bucket, key, err)
	}
	return u.String(), nil
}

// Local writes thumbnails to a directory. It backs the command line export
// where no object store is configured.
type Local struct {
	Dir string
}

// Upload writes png next to the other thumbnails and returns a file link.
func (l Local) Upload(_ context.Context, draftID uuid.UUID, png []byte) (string, error) {
	if len(png) == 0 {
		return "", fmt.Errorf("thumbnail image is empty")
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	path := filepath.Join(l.Dir, draftID.String()+"_thumbnail.png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
