// Package domain contains the core entities of the Bookshelf e-book library.
package domain

import "time"

// Book is a catalog entry. The PDF attachment, when present, is stored in the
// blob store under the book ID; the cover under CoverID.
type Book struct {
	DateAdded     time.Time `json:"dateAdded"`
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Category      string    `json:"category"`
	PDFName       string    `json:"pdfName,omitempty"`
	CoverID       string    `json:"coverId,omitempty"`
	CoverBlurHash string    `json:"coverBlurHash,omitempty"`
	Pages         int       `json:"pages,omitempty"`
	Favorite      bool      `json:"favorite"`
}

// HasPDF reports whether the book references a PDF blob.
func (b *Book) HasPDF() bool {
	return b.PDFName != ""
}

// HasCover reports whether the book references a cover blob.
func (b *Book) HasCover() bool {
	return b.CoverID != ""
}

// BookUpdate is a partial update. Nil fields are left unchanged.
type BookUpdate struct {
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	Category      *string `json:"category,omitempty"`
	Pages         *int    `json:"pages,omitempty"`
	PDFName       *string `json:"pdfName,omitempty"`
	CoverID       *string `json:"coverId,omitempty"`
	CoverBlurHash *string `json:"coverBlurHash,omitempty"`
	Favorite      *bool   `json:"favorite,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.Category == nil && u.Pages == nil &&
		u.PDFName == nil && u.CoverID == nil && u.CoverBlurHash == nil && u.Favorite == nil
}

// Apply merges the non-nil fields of u into b.
func (u BookUpdate) Apply(b *Book) {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
	if u.Category != nil {
		b.Category = *u.Category
	}
	if u.Pages != nil {
		b.Pages = *u.Pages
	}
	if u.PDFName != nil {
		b.PDFName = *u.PDFName
	}
	if u.CoverID != nil {
		b.CoverID = *u.CoverID
	}
	if u.CoverBlurHash != nil {
		b.CoverBlurHash = *u.CoverBlurHash
	}
	if u.Favorite != nil {
		b.Favorite = *u.Favorite
	}
}
