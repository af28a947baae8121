package storage

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the key is absolute or has an empty, "." or ".." segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

// ValidateKey accepts slash-separated relative keys such as
// "exports/{plan}/{export}/plan.pdf".
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		switch seg {
		case "", ".", "..":
			return ErrInvalidKey
		}
	}
	return nil
}
