package textutil

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnsafeName marks a file name that cannot be used as a single path
// element.
var ErrUnsafeName = errors.New("unsafe file name")

// EntryName returns name normalized to NFC, or ErrUnsafeName when it is
// empty, a dot entry, contains a path separator or a NUL byte.
func EntryName(name string) (string, error) {
	normalized := norm.NFC.String(name)
	switch {
	case strings.TrimSpace(normalized) == "":
		return "", fmt.Errorf("%w: empty", ErrUnsafeName)
	case normalized == "." || normalized == "..":
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, normalized)
	case strings.ContainsAny(normalized, "/\\\x00"):
		return "", fmt.Errorf("%w: %q contains a separator", ErrUnsafeName, normalized)
	}
	return normalized, nil
}
