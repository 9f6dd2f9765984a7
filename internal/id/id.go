// Package id generates identifiers and derives the attachment keys that link
// catalog records to blob store entries.
//
// Key contract:
//   - a book's PDF blob is stored under the book ID itself;
//   - a book's cover blob is stored under CoverID(bookID);
//   - the admin avatar is stored under AvatarID.
//
// The PDF/cover asymmetry is kept for compatibility with existing stores.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// BookPrefix prefixes generated book IDs.
	BookPrefix = "book"

	// AvatarID is the fixed image key of the single admin avatar.
	AvatarID = "admin_avatar"

	coverPrefix = "cover_"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "book-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewBookID returns a fresh book identifier.
func NewBookID() (string, error) {
	return Generate(BookPrefix)
}

// CoverID derives the image key of a book's cover from the book ID.
// It is a pure function: the same book always maps to the same cover key,
// so replacing a cover overwrites the previous one.
func CoverID(bookID string) string {
	return coverPrefix + bookID
}

// BookIDFromCover reverses CoverID. ok is false when coverID is not a cover key.
func BookIDFromCover(coverID string) (bookID string, ok bool) {
	bookID, ok = strings.CutPrefix(coverID, coverPrefix)
	if !ok || bookID == "" {
		return "", false
	}
	return bookID, true
}
