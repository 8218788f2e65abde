// Package storage provides interfaces.FileStorage drivers for files uploaded
// with risk data.
package storage

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectKey builds a unique "<uuid>/<basename>" key for an uploaded file name
func objectKey(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == ".." || base == "/" {
		base = "file"
	}
	return uuid.NewString() + "/" + base
}
