// Package media validates uploaded attachments before they reach the blob store.
package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
)

// MaxImageBytes bounds covers and avatars.
const MaxImageBytes = 2 * 1024 * 1024

// PDFType is the only accepted book attachment type.
const PDFType = "application/pdf"

// Upload is a file received from the view layer.
type Upload struct {
	FileName string
	// Type is the MIME type declared by the client. When empty it is sniffed from Data.
	Type string
	Data []byte
}

// Size returns the upload size in bytes.
func (u *Upload) Size() int64 {
	return int64(len(u.Data))
}

// ContentType returns the declared type, falling back to the sniffed one.
func (u *Upload) ContentType() string {
	if t := baseType(u.Type); t != "" {
		return t
	}
	return DetectType(u.Data)
}

// DetectType sniffs the MIME type of data, without parameters.
func DetectType(data []byte) string {
	return baseType(mimetype.Detect(data).String())
}

// ValidatePDF accepts only application/pdf uploads.
func ValidatePDF(u *Upload) error {
	if u == nil || len(u.Data) == 0 || u.ContentType() != PDFType {
		return domainerrors.Validation("Please select a valid PDF file")
	}
	return nil
}

// ValidateImage accepts image/* uploads of at most MaxImageBytes.
func ValidateImage(u *Upload) error {
	if u == nil || len(u.Data) == 0 || !strings.HasPrefix(u.ContentType(), "image/") {
		return domainerrors.Validation("Please select a valid image file")
	}
	if u.Size() > MaxImageBytes {
		return domainerrors.Validation("Image size should be less than 2MB")
	}
	return nil
}

func baseType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
