package safe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmodel/pkg/utils/safe"
)

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	c := &closer{err: errors.New("boom")}
	safe.Close(ctx, c, "resource", "test")
	gt.Value(t, c.closed).Equal(true)

	safe.Close(ctx, nil)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "partial")
	gt.NoError(t, os.WriteFile(path, []byte("x"), 0o600)).Required()

	safe.Remove(ctx, path)
	_, err := os.Stat(path)
	gt.Value(t, errors.Is(err, os.ErrNotExist)).Equal(true)

	safe.Remove(ctx, path)
}
