package storage

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
)

// S3Config holds construction parameters of the S3 driver. Credentials come
// from the default AWS chain.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, e.g. MinIO
	PathStyle bool
}

// S3 stores files in an S3 compatible bucket
type S3 struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

var _ interfaces.FileStorage = &S3{}

func NewS3(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, goerr.New("S3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load AWS config", goerr.V("region", region))
	}

	fns := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.PathStyle
		},
	}
	fns = append(fns, optFns...)

	return &S3{
		client:   s3.NewFromConfig(awsCfg, fns...),
		bucket:   cfg.Bucket,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
	}, nil
}

func (x *S3) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	key := objectKey(name)

	// PutObject needs a seekable body to compute the payload hash
	data, err := io.ReadAll(r)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read upload", goerr.V("name", name))
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(x.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := x.client.PutObject(ctx, input); err != nil {
		return "", goerr.Wrap(err, "failed to put object", goerr.V("bucket", x.bucket), goerr.V("key", key))
	}

	return x.objectURL(key), nil
}

func (x *S3) objectURL(key string) string {
	if x.endpoint != "" {
		return x.endpoint + "/" + x.bucket + "/" + key
	}
	return "https://" + x.bucket + ".s3.amazonaws.com/" + key
}
