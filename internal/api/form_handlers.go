package api

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/media"
	"github.com/listenupapp/bookshelf/internal/service"
)

// Multipart field names of the book and avatar forms.
const (
	fieldTitle    = "title"
	fieldAuthor   = "author"
	fieldCategory = "category"
	fieldPages    = "pages"
	fieldPDF      = "pdf"
	fieldCover    = "cover"
	fieldAvatar   = "avatar"
)

// handleCreateBookForm adds a book from a multipart form with optional pdf and cover files.
func (s *Server) handleCreateBookForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseBookForm(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := s.services.Catalog.SaveBook(r.Context(), form)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// handleUpdateBookForm edits a book from a multipart form. Omitted files keep
// the existing attachments.
func (s *Server) handleUpdateBookForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseBookForm(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	form.ID = chi.URLParam(r, "id")

	book, err := s.services.Catalog.SaveBook(r.Context(), form)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	blob, err := s.services.Catalog.PDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	serveBlob(w, r, blob, "attachment", CacheNoStore)
}

func (s *Server) handleGetCover(w http.ResponseWriter, r *http.Request) {
	blob, err := s.services.Catalog.Cover(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	serveBlob(w, r, blob, "inline", CachePrivateNoCache)
}

func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp files only

	upload, err := readUpload(r.MultipartForm, fieldAvatar)
	if err != nil {
		writeError(w, err)
		return
	}
	if upload == nil {
		writeError(w, domainerrors.Validation("Please select a valid image file"))
		return
	}

	profile, err := s.services.Catalog.SetAvatar(r.Context(), upload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile.Public())
}

func (s *Server) handleGetAvatar(w http.ResponseWriter, r *http.Request) {
	blob, err := s.services.Catalog.Avatar(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	serveBlob(w, r, blob, "inline", CachePrivateNoCache)
}

// parseBookForm reads the text fields and files of a book form.
func (s *Server) parseBookForm(w http.ResponseWriter, r *http.Request) (service.BookForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return service.BookForm{}, formError(err)
	}
	mf := r.MultipartForm
	defer mf.RemoveAll() //nolint:errcheck // temp files only

	form := service.BookForm{
		Title:    firstValue(mf, fieldTitle),
		Author:   firstValue(mf, fieldAuthor),
		Category: firstValue(mf, fieldCategory),
	}

	if pages := strings.TrimSpace(firstValue(mf, fieldPages)); pages != "" {
		n, err := strconv.Atoi(pages)
		if err != nil {
			return service.BookForm{}, domainerrors.ValidationWithDetails("pages must be a whole number",
				map[string]string{fieldPages: "must be a whole number"})
		}
		form.Pages = n
	}

	var err error
	if form.PDF, err = readUpload(mf, fieldPDF); err != nil {
		return service.BookForm{}, err
	}
	if form.Cover, err = readUpload(mf, fieldCover); err != nil {
		return service.BookForm{}, err
	}
	return form, nil
}

// readUpload loads the first file of a form field. It returns nil when no file was chosen.
func readUpload(mf *multipart.Form, field string) (*media.Upload, error) {
	files := mf.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	// Browsers submit an empty part for a file input left blank.
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "read upload")
	}

	return &media.Upload{
		FileName: fh.Filename,
		Type:     fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func firstValue(mf *multipart.Form, field string) string {
	if values := mf.Value[field]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// formError classifies a multipart parse failure.
func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domainerrors.Validationf("upload exceeds %d bytes", tooLarge.Limit)
	}
	return domainerrors.Validation("invalid multipart form")
}

// serveBlob writes a stored file with conditional request support.
func serveBlob(w http.ResponseWriter, r *http.Request, blob *domain.Blob, disposition, cacheControl string) {
	if blob.FileType != "" {
		w.Header().Set("Content-Type", blob.FileType)
	}
	if blob.FileName != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": blob.FileName}))
	}
	w.Header().Set("Cache-Control", cacheControl)
	http.ServeContent(w, r, blob.FileName, blob.UploadedAt, bytes.NewReader(blob.Data))
}
