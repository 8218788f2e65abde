package storage

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/utils/safe"
	"google.golang.org/api/option"
)

// GCS stores files in a Google Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.FileStorage = &GCS{}

type GCSOption func(*GCS)

// WithGCSPrefix puts every object under prefix
func WithGCSPrefix(prefix string) GCSOption {
	return func(g *GCS) {
		g.prefix = prefix
	}
}

func NewGCS(ctx context.Context, bucket string, clientOpts []option.ClientOption, opts ...GCSOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GCS client", goerr.V("bucket", bucket))
	}

	g := &GCS{client: client, bucket: bucket}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (x *GCS) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	key := x.prefix + objectKey(name)

	w := x.client.Bucket(x.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		safe.Close(ctx, w, "bucket", x.bucket, "key", key)
		return "", goerr.Wrap(err, "failed to upload object", goerr.V("bucket", x.bucket), goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize object", goerr.V("bucket", x.bucket), goerr.V("key", key))
	}

	return "https://storage.googleapis.com/" + x.bucket + "/" + key, nil
}

func (x *GCS) Close() error {
	return x.client.Close()
}
