package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the books matching the search, category and sort order",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add book",
		Description:   "Adds a book without attachments",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates the given fields of a book",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Deletes a book and its PDF and cover",
		Tags:        []string{"Books"},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/favorite",
		Summary:     "Toggle favorite",
		Description: "Flips the favorite flag of a book",
		Tags:        []string{"Books"},
	}, s.handleToggleFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/favorites",
		Summary:     "List favorites",
		Description: "Returns the favorite books",
		Tags:        []string{"Books"},
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboard",
		Summary:     "Dashboard",
		Description: "Returns catalog statistics and the most recently added books",
		Tags:        []string{"Books"},
	}, s.handleGetDashboard)
}

// === DTOs ===

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Search   string `query:"search" doc:"Case-insensitive match on title, author, category or PDF name"`
	Category string `query:"category" doc:"Category filter; empty or 'all' for every category"`
	Sort     string `query:"sort" enum:"recent,title,author" doc:"Sort order (default recent)"`
}

// BookListResponse contains a list of books.
type BookListResponse struct {
	Books []domain.Book `json:"books" doc:"Matching books"`
	Total int           `json:"total" doc:"Number of books returned"`
}

// BookListOutput wraps a book list for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// CreateBookRequest is the request body for adding a book.
type CreateBookRequest struct {
	Title     string     `json:"title" doc:"Title"`
	Author    string     `json:"author" doc:"Author"`
	Category  string     `json:"category,omitempty" doc:"Existing category"`
	Pages     int        `json:"pages,omitempty" minimum:"0" doc:"Page count"`
	Favorite  bool       `json:"favorite,omitempty" doc:"Initial favorite flag"`
	DateAdded *time.Time `json:"dateAdded,omitempty" doc:"Defaults to now"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body domain.Book
}

// BookIDInput identifies a book.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// UpdateBookRequest is the request body for a partial book update.
type UpdateBookRequest struct {
	Title    *string `json:"title,omitempty" doc:"Title"`
	Author   *string `json:"author,omitempty" doc:"Author"`
	Category *string `json:"category,omitempty" doc:"Existing category"`
	Pages    *int    `json:"pages,omitempty" minimum:"0" doc:"Page count"`
	Favorite *bool   `json:"favorite,omitempty" doc:"Favorite flag"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body UpdateBookRequest
}

// DeleteResponse reports whether something was removed.
type DeleteResponse struct {
	Deleted bool `json:"deleted" doc:"False when there was nothing to delete"`
}

// DeleteOutput wraps a delete response for Huma.
type DeleteOutput struct {
	Body DeleteResponse
}

// DashboardOutput wraps catalog statistics for Huma.
type DashboardOutput struct {
	Body domain.Stats
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookListOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	books, err := s.services.Catalog.Books(ctx, service.Query{
		Search:   input.Search,
		Category: input.Category,
		Sort:     service.ParseSortOrder(input.Sort),
	})
	if err != nil {
		return nil, err
	}
	return &BookListOutput{Body: BookListResponse{Books: books, Total: len(books)}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	book := domain.Book{
		Title:    input.Body.Title,
		Author:   input.Body.Author,
		Category: input.Body.Category,
		Pages:    input.Body.Pages,
		Favorite: input.Body.Favorite,
	}
	if input.Body.DateAdded != nil {
		book.DateAdded = *input.Body.DateAdded
	}

	created, err := s.services.Catalog.AddBook(ctx, book)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: created}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.Book(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	upd := domain.BookUpdate{
		Title:    input.Body.Title,
		Author:   input.Body.Author,
		Category: input.Body.Category,
		Pages:    input.Body.Pages,
		Favorite: input.Body.Favorite,
	}
	if upd.IsEmpty() {
		return nil, domainerrors.Validation("no fields to update")
	}

	book, found, err := s.services.Catalog.UpdateBook(ctx, input.ID, upd)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domainerrors.NotFound("book not found")
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*DeleteOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	deleted, err := s.services.Catalog.DeleteBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &DeleteOutput{Body: DeleteResponse{Deleted: deleted}}, nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	book, found, err := s.services.Catalog.ToggleFavorite(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domainerrors.NotFound("book not found")
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleListFavorites(ctx context.Context, _ *struct{}) (*BookListOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	books, err := s.services.Catalog.Favorites(ctx)
	if err != nil {
		return nil, err
	}
	return &BookListOutput{Body: BookListResponse{Books: books, Total: len(books)}}, nil
}

func (s *Server) handleGetDashboard(ctx context.Context, _ *struct{}) (*DashboardOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	stats, err := s.services.Catalog.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardOutput{Body: stats}, nil
}
