package docstore

import (
	"fmt"
	"strings"
)

// Path joins segments into a document or collection path.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// ValidateDocPath checks that p names a document: an even, non-zero number
// of non-empty segments with no surrounding whitespace.
func ValidateDocPath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	segs := strings.Split(p, "/")
	if len(segs)%2 != 0 {
		return fmt.Errorf("%w: %q is a collection path", ErrInvalidPath, p)
	}
	for _, s := range segs {
		if s == "" || strings.TrimSpace(s) != s {
			return fmt.Errorf("%w: %q has an empty or padded segment", ErrInvalidPath, p)
		}
	}
	return nil
}
