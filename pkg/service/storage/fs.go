package storage

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/utils/safe"
)

// DefaultMediaPrefix is the URL path under which FileSystem files are served
const DefaultMediaPrefix = "/media/"

// FileSystem stores files under a local directory
type FileSystem struct {
	dir    string
	prefix string
}

var _ interfaces.FileStorage = &FileSystem{}

type FileSystemOption func(*FileSystem)

// WithMediaPrefix changes the URL path prefix returned by Save
func WithMediaPrefix(prefix string) FileSystemOption {
	return func(fs *FileSystem) {
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		fs.prefix = prefix
	}
}

func NewFileSystem(dir string, opts ...FileSystemOption) (*FileSystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create media directory", goerr.V("dir", dir))
	}

	fs := &FileSystem{dir: dir, prefix: DefaultMediaPrefix}
	for _, opt := range opts {
		opt(fs)
	}
	return fs, nil
}

func (x *FileSystem) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	key := objectKey(name)
	dst := filepath.Join(x.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create file directory", goerr.V("path", dst))
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create file", goerr.V("path", dst))
	}
	if _, err := io.Copy(f, r); err != nil {
		safe.Close(ctx, f, "path", dst)
		safe.Remove(ctx, dst)
		return "", goerr.Wrap(err, "failed to write file", goerr.V("path", dst))
	}
	if err := f.Close(); err != nil {
		safe.Remove(ctx, dst)
		return "", goerr.Wrap(err, "failed to close file", goerr.V("path", dst))
	}

	return x.prefix + key, nil
}

// Prefix returns the URL path prefix of stored files
func (x *FileSystem) Prefix() string {
	return x.prefix
}

// Handler serves stored files. Mount it at Prefix().
func (x *FileSystem) Handler() http.Handler {
	return http.StripPrefix(x.prefix, http.FileServer(http.Dir(x.dir)))
}
