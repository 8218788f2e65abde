package interfaces

import (
	"context"
	"io"
)

// FileStorage persists files uploaded with risk data
type FileStorage interface {
	// Save stores the content under a unique key derived from name and returns
	// the URL, or URL path, where the file can be fetched.
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
}
