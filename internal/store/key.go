package store

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxKeyBytes leaves room for the file suffix within common 255-byte name limits
const maxKeyBytes = 200

// NormalizeKey canonicalizes an identity to NFC and rejects values that could
// escape the store directory or collide after normalization.
func NormalizeKey(userID string) (string, error) {
	key := norm.NFC.String(userID)

	switch {
	case key == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	case len(key) > maxKeyBytes:
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyBytes)
	case strings.ContainsAny(key, `/\`):
		return "", fmt.Errorf("%w: path separator", ErrInvalidKey)
	case strings.Contains(key, ".."):
		return "", fmt.Errorf("%w: parent reference", ErrInvalidKey)
	}

	for _, r := range key {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return "", fmt.Errorf("%w: control or invalid character", ErrInvalidKey)
		}
	}

	return key, nil
}
