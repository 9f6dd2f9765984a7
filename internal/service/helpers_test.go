package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/media"
	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/store"
	"github.com/listenupapp/bookshelf/internal/store/sqlite"
)

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if evt, ok := event.(sse.Event); ok {
		r.events = append(r.events, evt)
	}
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingEmitter) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type testEnv struct {
	catalog  *CatalogService
	auth     *AuthService
	settings *SettingsService
	store    *store.Store
	blobs    *sqlite.Store
	emitter  *recordingEmitter
}

type envOption func(*CatalogOptions)

func withSeed(o *CatalogOptions) { o.SeedDefaults = true }

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	cat, err := store.New(filepath.Join(dir, "catalog"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	blobs, err := sqlite.Open(ctx, filepath.Join(dir, "blobs.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = blobs.Close() })

	var o CatalogOptions
	for _, opt := range opts {
		opt(&o)
	}

	emitter := &recordingEmitter{}
	svc := NewCatalogService(cat, blobs, emitter, logger, o)
	require.NoError(t, svc.Load(ctx))

	return &testEnv{
		catalog:  svc,
		auth:     NewAuthService(svc, cat, emitter, logger),
		settings: NewSettingsService(cat, emitter, logger),
		store:    cat,
		blobs:    blobs,
		emitter:  emitter,
	}
}

func (e *testEnv) addBook(t *testing.T, title string) domain.Book {
	t.Helper()
	b, err := e.catalog.AddBook(context.Background(), domain.Book{Title: title, Author: "Author of " + title, Category: "fiction"})
	require.NoError(t, err)
	return b
}

var testPDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func pdfUpload(name string) *media.Upload {
	return &media.Upload{FileName: name, Type: media.PDFType, Data: testPDF}
}

func pngUpload(t *testing.T, name string) *media.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 12))
	for y := range 12 {
		for x := range 8 {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 20), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &media.Upload{FileName: name, Type: "image/png", Data: buf.Bytes()}
}

func solidPNG(t *testing.T, name string, c color.RGBA) *media.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 12))
	for y := range 12 {
		for x := range 8 {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &media.Upload{FileName: name, Type: "image/png", Data: buf.Bytes()}
}

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
}
