package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/sse"
)

func TestAddCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	added, err := env.catalog.AddCategory(ctx, "  Poetry ")
	require.NoError(t, err)
	assert.True(t, added)

	cats, err := env.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "poetry", cats[len(cats)-1], "appended in insertion order")

	stored, err := env.store.Categories.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, cats, stored)
	assert.Equal(t, []sse.EventType{sse.EventCategoriesChanged}, env.emitter.types())
}

func TestAddCategory_Rejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"fiction", "FICTION", "", "   ", domain.AllCategories} {
		added, err := env.catalog.AddCategory(ctx, name)
		require.NoError(t, err, name)
		assert.False(t, added, name)
	}

	cats, err := env.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategories, cats, "list unchanged")
	assert.Empty(t, env.emitter.types())
}

func TestDeleteCategory_KeepsBooks(t *testing.T) {
	env := newTestEnv(t, withSeed)
	ctx := context.Background()

	removed, err := env.catalog.DeleteCategory(ctx, "technology")
	require.NoError(t, err)
	assert.True(t, removed)

	cats, err := env.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.NotContains(t, cats, "technology")

	books, err := env.catalog.Books(ctx, Query{Category: "technology"})
	require.NoError(t, err)
	assert.Len(t, books, 2, "books keep the orphaned category")

	removed, err = env.catalog.DeleteCategory(ctx, "technology")
	require.NoError(t, err)
	assert.False(t, removed)
}
