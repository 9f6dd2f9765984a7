package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns the category names in insertion order",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "addCategory",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories",
		Summary:     "Add category",
		Description: "Appends a category. Empty and duplicate names leave the list unchanged.",
		Tags:        []string{"Categories"},
	}, s.handleAddCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCategory",
		Method:      http.MethodDelete,
		Path:        "/api/v1/categories/{name}",
		Summary:     "Delete category",
		Description: "Removes a category. Books keep the category string.",
		Tags:        []string{"Categories"},
	}, s.handleDeleteCategory)
}

// === DTOs ===

// CategoriesResponse contains the category list.
type CategoriesResponse struct {
	Categories []string `json:"categories" doc:"Category names"`
}

// CategoriesOutput wraps the category list for Huma.
type CategoriesOutput struct {
	Body CategoriesResponse
}

// AddCategoryRequest is the request body for adding a category.
type AddCategoryRequest struct {
	Name string `json:"name" doc:"Category name; stored lowercased and trimmed"`
}

// AddCategoryInput wraps the add category request for Huma.
type AddCategoryInput struct {
	Body AddCategoryRequest
}

// AddCategoryResponse reports the outcome of adding a category.
type AddCategoryResponse struct {
	Added      bool     `json:"added" doc:"False when the name was empty or already present"`
	Categories []string `json:"categories" doc:"Category names after the call"`
}

// AddCategoryOutput wraps the add category response for Huma.
type AddCategoryOutput struct {
	Body AddCategoryResponse
}

// DeleteCategoryInput identifies a category.
type DeleteCategoryInput struct {
	Name string `path:"name" doc:"Category name"`
}

// === Handlers ===

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*CategoriesOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	categories, err := s.services.Catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &CategoriesOutput{Body: CategoriesResponse{Categories: categories}}, nil
}

func (s *Server) handleAddCategory(ctx context.Context, input *AddCategoryInput) (*AddCategoryOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	added, err := s.services.Catalog.AddCategory(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}
	categories, err := s.services.Catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &AddCategoryOutput{Body: AddCategoryResponse{Added: added, Categories: categories}}, nil
}

func (s *Server) handleDeleteCategory(ctx context.Context, input *DeleteCategoryInput) (*DeleteOutput, error) {
	if _, err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	deleted, err := s.services.Catalog.DeleteCategory(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	return &DeleteOutput{Body: DeleteResponse{Deleted: deleted}}, nil
}
