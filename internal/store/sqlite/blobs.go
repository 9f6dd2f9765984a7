package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/bookshelf/internal/domain"
)

// partitionTable maps a partition to its table and owner column.
func partitionTable(p domain.Partition) (table, ownerCol string, err error) {
	switch p {
	case domain.PartitionPDFs:
		return "pdfs", "book_id", nil
	case domain.PartitionImages:
		return "images", "owner_id", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownPartition, p)
	}
}

// Put stores blob under blob.ID in partition p, overwriting any existing entry.
// UploadedAt defaults to now and FileSize to len(Data).
func (s *Store) Put(ctx context.Context, p domain.Partition, blob *domain.Blob) (string, error) {
	release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	table, ownerCol, err := partitionTable(p)
	if err != nil {
		return "", err
	}
	if blob == nil || blob.ID == "" {
		return "", ErrInvalidBlob
	}
	if s.readOnly {
		return "", ErrReadOnly
	}

	if blob.UploadedAt.IsZero() {
		blob.UploadedAt = time.Now()
	}
	if blob.FileSize == 0 {
		blob.FileSize = int64(len(blob.Data))
	}
	data := blob.Data
	if data == nil {
		data = []byte{}
	}

	query := `INSERT INTO ` + table + ` (id, ` + ownerCol + `, file_name, file_type, file_size, data, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			` + ownerCol + ` = excluded.` + ownerCol + `,
			file_name = excluded.file_name,
			file_type = excluded.file_type,
			file_size = excluded.file_size,
			data = excluded.data,
			uploaded_at = excluded.uploaded_at`

	if _, err := s.db.ExecContext(ctx, query,
		blob.ID, blob.OwnerID, blob.FileName, blob.FileType, blob.FileSize, data, formatTime(blob.UploadedAt),
	); err != nil {
		return "", fmt.Errorf("put %s blob %s: %w", p, blob.ID, err)
	}

	if s.logger != nil {
		s.logger.Debug("blob stored", "partition", p, "id", blob.ID, "size", blob.FileSize)
	}
	return blob.ID, nil
}

// Get returns the blob stored under id. found is false (with a nil error) when
// there is no such blob.
func (s *Store) Get(ctx context.Context, p domain.Partition, id string) (*domain.Blob, bool, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, false, err
	}
	defer release()

	table, ownerCol, err := partitionTable(p)
	if err != nil {
		return nil, false, err
	}
	if !s.hasPartition(p) {
		return nil, false, nil
	}

	query := `SELECT id, ` + ownerCol + `, file_name, file_type, file_size, data, uploaded_at
		FROM ` + table + ` WHERE id = ?`

	var (
		b          domain.Blob
		uploadedAt string
	)
	err = s.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.OwnerID, &b.FileName, &b.FileType, &b.FileSize, &b.Data, &uploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s blob %s: %w", p, id, err)
	}
	if b.UploadedAt, err = parseTime(uploadedAt); err != nil {
		return nil, false, fmt.Errorf("parse uploaded_at of %s: %w", id, err)
	}
	return &b, true, nil
}

// Delete removes the blob stored under id and reports whether one existed.
func (s *Store) Delete(ctx context.Context, p domain.Partition, id string) (bool, error) {
	release, err := s.acquire()
	if err != nil {
		return false, err
	}
	defer release()

	table, _, err := partitionTable(p)
	if err != nil {
		return false, err
	}
	if s.readOnly {
		return false, ErrReadOnly
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete %s blob %s: %w", p, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s blob %s: %w", p, id, err)
	}
	return n > 0, nil
}

// List returns metadata for every blob in partition p, newest first.
func (s *Store) List(ctx context.Context, p domain.Partition) ([]domain.BlobInfo, error) {
	return s.listWhere(ctx, p, "", "")
}

// FindByOwner returns metadata for the blobs in p owned by ownerID.
// For PDFs this uses the book_id index.
func (s *Store) FindByOwner(ctx context.Context, p domain.Partition, ownerID string) ([]domain.BlobInfo, error) {
	return s.listWhere(ctx, p, "owner", ownerID)
}

func (s *Store) listWhere(ctx context.Context, p domain.Partition, filter, arg string) ([]domain.BlobInfo, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	table, ownerCol, err := partitionTable(p)
	if err != nil {
		return nil, err
	}
	if !s.hasPartition(p) {
		return nil, nil
	}

	query := `SELECT id, ` + ownerCol + `, file_name, file_type, file_size, uploaded_at FROM ` + table
	var args []any
	if filter == "owner" {
		query += ` WHERE ` + ownerCol + ` = ?`
		args = append(args, arg)
	}
	query += ` ORDER BY uploaded_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s blobs: %w", p, err)
	}
	defer rows.Close()

	var infos []domain.BlobInfo
	for rows.Next() {
		var (
			info       domain.BlobInfo
			uploadedAt string
		)
		if err := rows.Scan(&info.ID, &info.OwnerID, &info.FileName, &info.FileType, &info.FileSize, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scan %s blob: %w", p, err)
		}
		if info.UploadedAt, err = parseTime(uploadedAt); err != nil {
			return nil, fmt.Errorf("parse uploaded_at of %s: %w", info.ID, err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
