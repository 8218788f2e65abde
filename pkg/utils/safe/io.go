// Package safe runs cleanup calls whose errors can only be logged
package safe

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
)

// Close closes c and logs a failure with attrs describing the resource. A nil
// closer is ignored.
func Close(ctx context.Context, c io.Closer, attrs ...any) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Error("failed to close", append(attrs, slog.Any("error", err))...)
	}
}

// Write writes a response body whose headers are already sent
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write response", slog.Int("size", len(data)), slog.Any("error", err))
	}
}

// Remove deletes a partially written file. A missing file is not an error.
func Remove(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.From(ctx).Error("failed to remove file", slog.String("path", path), slog.Any("error", err))
	}
}
