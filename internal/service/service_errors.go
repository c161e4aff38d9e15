package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCategoryHasProducts rejects deactivation of a category that still
// holds active products.
var ErrCategoryHasProducts = errors.New("cannot delete category that contains active products")

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		parts = append(parts, msg)
	}
	sort.Strings(parts)
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}
