package service

import (
	"context"
	"slices"

	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/sse"
)

// Categories returns the category names in insertion order.
func (s *CatalogService) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	return slices.Clone(s.state.Categories), nil
}

// AddCategory appends a normalized category name. It reports false, without
// error, when the name is empty or already present.
func (s *CatalogService) AddCategory(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return false, err
	}

	name = domain.NormalizeCategory(name)
	if name == "" || name == domain.AllCategories || s.hasCategory(name) {
		return false, nil
	}

	categories := append(slices.Clone(s.state.Categories), name)
	if err := s.persistCategories(ctx, categories); err != nil {
		return false, err
	}

	s.emitter.Emit(sse.NewCategoriesEvent(categories))
	return true, nil
}

// DeleteCategory removes a category from the list. Books that use it keep the
// orphaned category string. It reports whether the category existed.
func (s *CatalogService) DeleteCategory(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return false, err
	}

	i := slices.Index(s.state.Categories, domain.NormalizeCategory(name))
	if i < 0 {
		return false, nil
	}

	categories := slices.Delete(slices.Clone(s.state.Categories), i, i+1)
	if err := s.persistCategories(ctx, categories); err != nil {
		return false, err
	}

	s.emitter.Emit(sse.NewCategoriesEvent(categories))
	return true, nil
}
