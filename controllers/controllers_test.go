package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"toolbank/controllers"
	"toolbank/db"
	"toolbank/db/dbtest"
	"toolbank/locker"
	"toolbank/routes"
	"toolbank/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type api struct {
	t         *testing.T
	r         *gin.Engine
	uploadDir string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	conn := dbtest.Open(t)
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := controllers.NewSrv(db.NewRepo(conn), conn, controllers.NewUploader(dir, 1<<20), log,
		services.WithLocker(locker.NewLocalLocker()), services.WithClock(clock))
	s.Now = clock
	r := gin.New()
	routes.Mount(r, s, dir)
	return &api{t: t, r: r, uploadDir: dir}
}

func (a *api) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (a *api) list(path string) []map[string]any {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var out []map[string]any
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func id(m map[string]any) float64 { return m["id"].(float64) }

func TestLoanLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)

	w, tool := a.do(http.MethodPost, "/herramientas", map[string]any{
		"tipo": "electrica", "nombre": "Taladro", "estado": "BUENO",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "bueno", tool["estado"])
	assert.Equal(t, true, tool["disponible"])

	w, vecino := a.do(http.MethodPost, "/vecinos", map[string]any{
		"nombreCompleto": "Ana Ruiz", "documento": "123", "email": "ana@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Ana Ruiz", vecino["nombre_completo"])

	w, loan := a.do(http.MethodPost, "/prestamos", map[string]any{
		"vecinoId": id(vecino), "herramientaId": "1", "observaciones": "con brocas",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, loan["activo"])
	assert.Equal(t, float64(0), loan["dias_prestamo"])

	_, tool = a.do(http.MethodGet, "/herramientas/1", nil)
	assert.Equal(t, false, tool["disponible"])

	w, body := a.do(http.MethodPost, "/prestamos", map[string]any{"vecino_id": id(vecino), "herramienta_id": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "tool_unavailable", body["kind"])

	w, body = a.do(http.MethodDelete, "/vecinos/1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "has_active_loans", body["kind"])

	rows := a.list("/prestamos")
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana Ruiz", rows[0]["vecino"])
	assert.Equal(t, "Taladro", rows[0]["herramienta"])
	assert.Len(t, a.list("/prestamos/activos"), 1)
	assert.Len(t, a.list("/herramientas/1/prestamos"), 1)
	assert.Len(t, a.list("/vecinos/1/prestamos"), 1)

	w, loan = a.do(http.MethodPut, "/prestamos/1/devolver", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, loan["activo"])
	assert.NotNil(t, loan["fecha_devolucion"])

	w, body = a.do(http.MethodPut, "/prestamos/1/devolver", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_returned", body["kind"])

	_, tool = a.do(http.MethodGet, "/herramientas/1", nil)
	assert.Equal(t, true, tool["disponible"])

	w, _ = a.do(http.MethodDelete, "/vecinos/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = a.do(http.MethodDelete, "/prestamos/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, body = a.do(http.MethodGet, "/prestamos/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "loan_not_found", body["kind"])
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t)

	w, body := a.do(http.MethodPost, "/herramientas", map[string]any{"tipo": "x", "nombre": "y", "estado": "extreme"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", body["kind"])
	assert.Contains(t, body["error"], "new, good, fair, poor")

	w, body = a.do(http.MethodGet, "/herramientas/0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", body["kind"])

	w, _ = a.do(http.MethodGet, "/herramientas/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = a.do(http.MethodGet, "/vecinos/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "neighbor_not_found", body["kind"])

	w, body = a.do(http.MethodPost, "/vecinos", map[string]any{"documento": "1", "telefono": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, body["details"], 2)

	w, _ = a.do(http.MethodPost, "/vecinos", map[string]any{"nombre_completo": "A", "documento": "555"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, body = a.do(http.MethodPost, "/vecinos", map[string]any{"nombre_completo": "B", "documento": "555"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_document", body["kind"])

	w, body = a.do(http.MethodPost, "/prestamos", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, body["details"], 2)

	w, _ = a.do(http.MethodPost, "/prestamos", map[string]any{"vecinoId": "uno"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToolAvailabilityToggle(t *testing.T) {
	a := newAPI(t)
	a.do(http.MethodPost, "/herramientas", map[string]any{"tipo": "t", "nombre": "Sierra", "estado": "regular"})

	w, tool := a.do(http.MethodPatch, "/herramientas/1/disponibilidad", map[string]any{"disponible": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, tool["disponible"])
	assert.Equal(t, "regular", tool["estado"])

	w, _ = a.do(http.MethodPatch, "/herramientas/1/disponibilidad", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, tool = a.do(http.MethodPut, "/herramientas/1", map[string]any{"notas": "hoja nueva", "disponible": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "hoja nueva", tool["notas"])
	assert.Equal(t, "Sierra", tool["nombre"])
	assert.Equal(t, true, tool["disponible"])
}

func TestNeighborLookupByDocument(t *testing.T) {
	a := newAPI(t)
	a.do(http.MethodPost, "/vecinos", map[string]any{"nombre_completo": "Ana", "documento": "X-1"})

	w, n := a.do(http.MethodGet, "/vecinos?documento=X-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana", n["nombre_completo"])

	assert.Len(t, a.list("/vecinos"), 1)
}

// 1x1 transparent PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func multipartTool(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("tipo", "jardin"))
	require.NoError(t, mw.WriteField("nombre", "Rastrillo"))
	require.NoError(t, mw.WriteField("estado", "nuevo"))
	fw, err := mw.CreateFormFile("imagen", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateToolWithImage(t *testing.T) {
	a := newAPI(t)

	body, ct := multipartTool(t, "Mi Rastrillo!.png", pngPixel)
	req := httptest.NewRequest(http.MethodPost, "/herramientas", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tool map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tool))
	ref, _ := tool["imagen_url"].(string)
	require.True(t, strings.HasPrefix(ref, "/uploads/herramientas/mi-rastrillo-"), ref)
	assert.True(t, strings.HasSuffix(ref, ".png"))

	_, err := os.Stat(filepath.Join(a.uploadDir, "herramientas", filepath.Base(ref)))
	assert.NoError(t, err)

	w = httptest.NewRecorder()
	a.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, ref, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateToolRejectsNonImage(t *testing.T) {
	a := newAPI(t)

	body, ct := multipartTool(t, "notes.png", []byte("just some text, not an image"))
	req := httptest.NewRequest(http.MethodPost, "/herramientas", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries, _ := os.ReadDir(filepath.Join(a.uploadDir, "herramientas"))
	assert.Empty(t, entries)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	w, body := a.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])
}
