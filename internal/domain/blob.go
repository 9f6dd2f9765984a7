package domain

import "time"

// Partition names a keyed collection in the blob store.
type Partition string

// Blob store partitions.
const (
	PartitionPDFs   Partition = "pdfs"
	PartitionImages Partition = "images"
)

// Valid reports whether p is a known partition.
func (p Partition) Valid() bool {
	return p == PartitionPDFs || p == PartitionImages
}

// Blob is a stored binary attachment.
// OwnerID is the book ID for PDFs and the owning entity for images.
type Blob struct {
	UploadedAt time.Time `json:"uploadedAt"`
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	Data       []byte    `json:"-"`
	FileSize   int64     `json:"fileSize"`
}

// BlobInfo is blob metadata without the bytes.
type BlobInfo struct {
	UploadedAt time.Time `json:"uploadedAt"`
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
}
