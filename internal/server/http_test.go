package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func documentPNG(t *testing.T) []byte {
	t.Helper()

	data, err := os.ReadFile(createDocumentFile(t, t.TempDir(), "page.png"))
	require.NoError(t, err)
	return data
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return pngBytes(t, img)
}

func TestHTTP_Health(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var health HealthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, Name, health.Name)
	assert.Equal(t, Version, health.Version)
	assert.Equal(t, "contour", health.Detector)
}

func TestHTTP_Detect(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/detect?convention=top-left", bytes.NewReader(documentPNG(t)))
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res DetectResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Found)
	assert.Equal(t, 400, res.ImageWidth)
	assert.Equal(t, geometry.OriginTopLeft, res.Observation.Convention)
	assert.InDelta(t, documentQuad.TopLeft.X, res.PixelQuad.TopLeft.X, 5)
	assert.InDelta(t, documentQuad.BottomRight.Y, res.PixelQuad.BottomRight.Y, 5)
}

func TestHTTP_Detect_BadInput(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := map[string]struct {
		target string
		body   []byte
	}{
		"not an image":   {"/v1/detect", []byte("hello")},
		"bad threshold":  {"/v1/detect?min_size=abc", solidPNG(t, 10, 10, color.White)},
		"bad convention": {"/v1/detect?convention=center", solidPNG(t, 10, 10, color.White)},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.target, bytes.NewReader(tt.body)))
			assert.GreaterOrEqual(t, rec.Code, 400)
		})
	}
}

func TestHTTP_Rectify_Corners(t *testing.T) {
	h := newTestServer(t).Handler()
	body := solidPNG(t, 100, 80, color.RGBA{0, 0, 255, 255})

	req := httptest.NewRequest(http.MethodPost, "/v1/rectify?corners=10,10,90,10,90,70,10,70", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "80", rec.Header().Get("X-Page-Width"))
	assert.Equal(t, "60", rec.Header().Get("X-Page-Height"))

	page, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 80, 60), page.Bounds())

	r, g, b, _ := page.At(40, 30).RGBA()
	assert.Equal(t, []uint32{0, 0, 255}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestHTTP_Rectify_DetectedAsJPEG(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/rectify?format=jpg&max_dimension=100", bytes.NewReader(documentPNG(t)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "100", rec.Header().Get("X-Page-Width"))
}

func TestHTTP_Rectify_Errors(t *testing.T) {
	h := newTestServer(t).Handler()
	blank := solidPNG(t, 100, 80, color.White)

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"nothing detected", "/v1/rectify", http.StatusUnprocessableEntity},
		{"degenerate", "/v1/rectify?corners=10,10,20,10,30,10,40,10", http.StatusUnprocessableEntity},
		{"outside", "/v1/rectify?corners=500,500,600,500,600,600,500,600", http.StatusUnprocessableEntity},
		{"short corners", "/v1/rectify?corners=1,2,3", http.StatusBadRequest},
		{"bad width", "/v1/rectify?corners=10,10,90,10,90,70,10,70&width=wide", http.StatusBadRequest},
		{"bad border", "/v1/rectify?corners=10,10,90,10,90,70,10,70&border=mirror", http.StatusBadRequest},
		{"bad format", "/v1/rectify?corners=10,10,90,10,90,70,10,70&format=svg", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.target, bytes.NewReader(blank)))
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestHTTP_Multipart(t *testing.T) {
	h := newTestServer(t).Handler()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "page.png")
	require.NoError(t, err)
	_, err = part.Write(documentPNG(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/detect", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res DetectResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Found)
}

func TestHTTP_Tools(t *testing.T) {
	h := newTestServer(t).Handler()

	args := `{"width": 200, "height": 100, "convention": "top-left", "points": [{"x": 0.5, "y": 0.5}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tools/image_convert_points", strings.NewReader(args)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res ConvertResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Points, 1)
	assert.Equal(t, geometry.Pt(100, 50), res.Points[0])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tools/image_crop", strings.NewReader("{}")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tools/image_convert_points", strings.NewReader(`{"direction": "up"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHTTP_BodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.MaxBodyBytes = 64

	s, err := New(cfg, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/detect", bytes.NewReader(documentPNG(t))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_RateLimit(t *testing.T) {
	cfg := config.Default()
	limit := 1
	cfg.HTTP.RateLimit = &limit

	s, err := New(cfg, nil)
	require.NoError(t, err)
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHTTP_CORS(t *testing.T) {
	h := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/v1/detect", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
