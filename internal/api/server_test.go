package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookshelf/internal/service"
	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/store"
	"github.com/listenupapp/bookshelf/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope with typed data.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details"`
}

type testServer struct {
	*Server
	api     humatest.TestAPI
	catalog *store.Store
	blobs   *sqlite.Store
}

// setupTestServer creates a test server backed by fresh stores seeded with the sample books.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	catalog, err := store.New(filepath.Join(dir, "catalog"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close() })

	blobs, err := sqlite.Open(ctx, filepath.Join(dir, "blobs.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = blobs.Close() })

	sseManager := sse.NewManager(logger)
	managerCtx, cancel := context.WithCancel(ctx)
	go sseManager.Start(managerCtx)
	t.Cleanup(cancel)

	catalogService := service.NewCatalogService(catalog, blobs, sseManager, logger, service.CatalogOptions{SeedDefaults: true})
	require.NoError(t, catalogService.Load(ctx))

	services := &Services{
		Catalog:  catalogService,
		Auth:     service.NewAuthService(catalogService, catalog, sseManager, logger),
		Settings: service.NewSettingsService(catalog, sseManager, logger),
	}

	server := NewServer(services, &Stores{Catalog: catalog, Blobs: blobs}, sseManager, Options{MaxUploadBytes: 4 << 20}, logger)

	return &testServer{
		Server:  server,
		api:     humatest.Wrap(t, server.api),
		catalog: catalog,
		blobs:   blobs,
	}
}

// login signs in with the default admin credentials.
func (ts *testServer) login(t *testing.T) {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "admin@bookshelf.com",
		"password": "admin123",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

// multipartFile is one file part of a multipart request.
type multipartFile struct {
	field, name, contentType string
	data                     []byte
}

// doMultipart sends a multipart form straight to the router.
func (ts *testServer) doMultipart(t *testing.T, method, path string, fields map[string]string, files ...multipartFile) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

var testPDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for y := range 6 {
		for x := range 6 {
			img.Set(x, y, color.RGBA{R: uint8(40 * x), G: uint8(40 * y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
