package model

import (
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is wrapped by every repository and use case when an entity does not exist
var ErrNotFound = goerr.New("not found")

// ValidationError maps an attribute name to its error messages. It is sent to
// clients as is.
type ValidationError map[string][]string

// NewValidationError builds a ValidationError for a single attribute
func NewValidationError(attr string, msgs ...string) ValidationError {
	return ValidationError{attr: msgs}
}

// Add appends a message to attr
func (e ValidationError) Add(attr, msg string) {
	e[attr] = append(e[attr], msg)
}

func (e ValidationError) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
