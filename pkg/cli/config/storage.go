package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/service/storage"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Storage driver names
const (
	StorageNone = "none"
	StorageFS   = "fs"
	StorageGCS  = "gcs"
	StorageS3   = "s3"
)

// Storage holds CLI flags of the file storage for uploaded risk data files
type Storage struct {
	driver      string
	mediaDir    string
	mediaPrefix string
	gcsBucket   string
	gcsPrefix   string
	s3Bucket    string
	s3Region    string
	s3Endpoint  string
	s3PathStyle bool
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-driver",
			Usage:       "File storage driver (none, fs, gcs or s3)",
			Category:    "Storage",
			Value:       StorageFS,
			Sources:     cli.EnvVars("RISKMODEL_STORAGE_DRIVER"),
			Destination: &x.driver,
		},
		&cli.StringFlag{
			Name:        "media-dir",
			Usage:       "Directory of uploaded files (fs driver)",
			Category:    "Storage",
			Value:       "media",
			Sources:     cli.EnvVars("RISKMODEL_MEDIA_DIR"),
			Destination: &x.mediaDir,
		},
		&cli.StringFlag{
			Name:        "media-prefix",
			Usage:       "URL path of uploaded files (fs driver)",
			Category:    "Storage",
			Value:       storage.DefaultMediaPrefix,
			Sources:     cli.EnvVars("RISKMODEL_MEDIA_PREFIX"),
			Destination: &x.mediaPrefix,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket (gcs driver)",
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKMODEL_GCS_BUCKET"),
			Destination: &x.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix (gcs driver)",
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKMODEL_GCS_PREFIX"),
			Destination: &x.gcsPrefix,
		},
		&cli.StringFlag{
			Name:        "s3-bucket",
			Usage:       "S3 bucket (s3 driver)",
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKMODEL_S3_BUCKET"),
			Destination: &x.s3Bucket,
		},
		&cli.StringFlag{
			Name:        "s3-region",
			Usage:       "S3 region (s3 driver)",
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKMODEL_S3_REGION", "AWS_REGION"),
			Destination: &x.s3Region,
		},
		&cli.StringFlag{
			Name:        "s3-endpoint",
			Usage:       "Custom S3 endpoint, e.g. MinIO (s3 driver)",
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKMODEL_S3_ENDPOINT"),
			Destination: &x.s3Endpoint,
		},
		&cli.BoolFlag{
			Name:        "s3-path-style",
			Usage:       "Use path style S3 addressing (s3 driver)",
			Category:    "Storage",
			Sources:     cli.EnvVars("RISKMODEL_S3_PATH_STYLE"),
			Destination: &x.s3PathStyle,
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("driver", x.driver),
		slog.String("media-dir", x.mediaDir),
		slog.String("gcs-bucket", x.gcsBucket),
		slog.String("s3-bucket", x.s3Bucket),
	)
}

// FileStorage is a configured storage driver. Media is set only for the fs
// driver, whose files are served by this process.
type FileStorage struct {
	Storage interfaces.FileStorage
	Media   *storage.FileSystem
	Close   func()
}

// Configure builds the storage driver. The none driver returns a FileStorage
// with nil Storage, and file fields cannot be submitted.
func (x *Storage) Configure(ctx context.Context) (*FileStorage, error) {
	logger := logging.Default()

	switch x.driver {
	case StorageNone:
		logger.Info("File storage disabled")
		return &FileStorage{Close: func() {}}, nil

	case StorageFS, "":
		fs, err := storage.NewFileSystem(x.mediaDir, storage.WithMediaPrefix(x.mediaPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure filesystem storage")
		}
		logger.Info("Using filesystem storage", "dir", x.mediaDir, "prefix", fs.Prefix())
		return &FileStorage{Storage: fs, Media: fs, Close: func() {}}, nil

	case StorageGCS:
		if x.gcsBucket == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "gcs-bucket is required when using gcs driver")
		}
		var opts []storage.GCSOption
		if x.gcsPrefix != "" {
			opts = append(opts, storage.WithGCSPrefix(x.gcsPrefix))
		}
		gcs, err := storage.NewGCS(ctx, x.gcsBucket, nil, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure gcs storage")
		}
		logger.Info("Using Cloud Storage", "bucket", x.gcsBucket)
		return &FileStorage{
			Storage: gcs,
			Close: func() {
				if err := gcs.Close(); err != nil {
					logger.Error("failed to close gcs client", "error", err.Error())
				}
			},
		}, nil

	case StorageS3:
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    x.s3Bucket,
			Region:    x.s3Region,
			Endpoint:  x.s3Endpoint,
			PathStyle: x.s3PathStyle,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure s3 storage")
		}
		logger.Info("Using S3 storage", "bucket", x.s3Bucket, "region", x.s3Region)
		return &FileStorage{Storage: s3, Close: func() {}}, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid storage driver", goerr.V("driver", x.driver))
	}
}
