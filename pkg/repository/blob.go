package repository

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"p9e.in/tms/pkg/logger"
)

// BlobStore is the opaque file sink used for receipts, POD images and
// payment slips. Implementations return a public-read URL.
type BlobStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
}

// GCSStore stores blobs in Google Cloud Storage under
// <root-bucket>/<bucket>/<path>.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore dials GCS with ambient credentials. The root bucket comes
// from GCS_BUCKET.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET not set")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (g *GCSStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	object := bucket + "/" + path
	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", object, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, object), nil
}

// LocalStore is the development fallback: files land under ./uploads and
// are served by the /uploads/ static route.
type LocalStore struct {
	Dir string
}

func (l *LocalStore) Upload(_ context.Context, bucket, path string, data []byte, _ string) (string, error) {
	dir := l.Dir
	if dir == "" {
		dir = "./uploads"
	}
	full := filepath.Join(dir, bucket, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return "/uploads/" + bucket + "/" + path, nil
}

// NewBlobStore picks GCS in production (USE_GCS, credentials or Cloud
// Run indicators present) and local storage otherwise.
func NewBlobStore(ctx context.Context) BlobStore {
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != ""
	if useGCS {
		if store, err := NewGCSStore(ctx); err == nil {
			return store
		} else {
			logger.Warnf("repository: GCS unavailable (%v), using local uploads", err)
		}
	}
	return &LocalStore{}
}

// UploadFile pushes raw bytes to the blob store. Returns the public URL,
// or "" on failure (the repository boundary never throws).
func (r *Repo) UploadFile(bucket, path string, data []byte) string {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	url, err := r.blob.Upload(ctx, bucket, path, data, contentTypeFor(path))
	if err != nil {
		r.setLastError(fmt.Sprintf("upload %s/%s: %v", bucket, path, err))
		logger.Errorf("repository: %s", r.LastError())
		return ""
	}
	return url
}

// UploadBase64Image decodes a base64 payload (optionally a data: URI),
// stores it and returns the public URL; "" on failure.
func (r *Repo) UploadBase64Image(bucket, prefix, b64 string) string {
	payload := b64
	ext := ".jpg"
	if strings.HasPrefix(payload, "data:") {
		// data:image/png;base64,....
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			r.setLastError("upload_base64: malformed data URI")
			return ""
		}
		if strings.Contains(parts[0], "image/png") {
			ext = ".png"
		} else if strings.Contains(parts[0], "application/pdf") {
			ext = ".pdf"
		}
		payload = parts[1]
	} else if strings.HasPrefix(payload, "JVBERi0") {
		ext = ".pdf"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		r.setLastError(fmt.Sprintf("upload_base64: decode: %v", err))
		return ""
	}
	name := fmt.Sprintf("%s_%d%s", prefix, time.Now().UnixMilli(), ext)
	return r.UploadFile(bucket, name, data)
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return ""
	}
}
