package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
)

// Handler returns the HTTP API:
//
//	GET  /healthz            status, version and OCR backend
//	POST /v1/detect          image body, returns DetectResult
//	POST /v1/rectify         image body, returns the rectified page
//	POST /v1/tools/{name}    JSON arguments, same tools as MCP
//
// Images are sent as the raw request body or as a multipart "file" field.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	if limiter := s.cfg.Limiter(); limiter != nil {
		r.Use(rateLimit(limiter))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/detect", s.handleDetect)
		r.Post("/rectify", s.handleRectify)
		r.Post("/tools/{name}", s.handleTool)
	})

	return r
}

// ListenAndServe serves Handler on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.HTTP.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.HTTP.ReadTimeout,
		WriteTimeout: s.cfg.HTTP.WriteTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		srv.Shutdown(shutdown)
	}()

	s.logger.Info("http server listening", "address", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HealthResult is returned by /healthz.
type HealthResult struct {
	Status   string   `json:"status"`
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Detector string   `json:"detector"`
	OCR      ocr.Info `json:"ocr"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	backend := s.cfg.Detector.Backend
	if backend == "" {
		backend = detection.BackendContour
	}

	health := HealthResult{
		Status:   "ok",
		Name:     Name,
		Version:  Version,
		Detector: backend,
	}
	if s.cfg.OCR.Enabled {
		health.OCR = ocr.GetInfo()
	}
	writeJson(w, health)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	img, err := s.readImage(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	d, err := valueDetectArgs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.detect(r.Context(), img, d)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJson(w, result)
}

func (s *Server) handleRectify(w http.ResponseWriter, r *http.Request) {
	img, err := s.readImage(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	d, err := valueDetectArgs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	q, err := valueQuadArgs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ra, err := valueRectifyArgs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	quad, err := s.resolveQuad(r.Context(), img, q, d)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	opts, err := s.rectifyOptions(ra)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := rectify.Rectify(img, quad, opts)
	if err != nil {
		code := http.StatusBadRequest
		if rectify.Recoverable(err) {
			code = http.StatusUnprocessableEntity
		}
		writeError(w, code, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}

	var buf bytes.Buffer
	mime, err := imaging.Encode(&buf, result.Image, format, s.cfg.Rectify.JPEGQuality)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("X-Page-Width", strconv.Itoa(result.Width))
	w.Header().Set("X-Page-Height", strconv.Itoa(result.Height))
	w.Write(buf.Bytes())
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.HTTP.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.executeTool(r.Context(), name, body)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, errUnknownTool) {
			code = http.StatusNotFound
		}
		writeError(w, code, err)
		return
	}
	writeJson(w, result)
}

// readImage decodes the uploaded image from a multipart "file" field or the
// raw body.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request) (image.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.HTTP.MaxBodyBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		return imaging.Decode(file)
	}

	return imaging.Decode(r.Body)
}

func valueDetectArgs(r *http.Request) (detectArgs, error) {
	var d detectArgs
	d.Convention = r.URL.Query().Get("convention")

	for name, dst := range map[string]**float64{
		"min_size":       &d.MinSize,
		"min_confidence": &d.MinConfidence,
		"edge_threshold": &d.EdgeThreshold,
	} {
		if val := r.URL.Query().Get(name); val != "" {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return d, fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = &f
		}
	}
	return d, nil
}

// valueQuadArgs reads corners=x,y,x,y,x,y,x,y (top-left, top-right,
// bottom-right, bottom-left) and normalized=true.
func valueQuadArgs(r *http.Request) (quadArgs, error) {
	var a quadArgs

	val := r.URL.Query().Get("corners")
	if val == "" {
		return a, nil
	}

	parts := strings.Split(val, ",")
	if len(parts) != 8 {
		return a, fmt.Errorf("corners needs 8 numbers, got %d", len(parts))
	}

	var pts [4]geometry.Point
	for i := range pts {
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[2*i]), 64)
		if err != nil {
			return a, fmt.Errorf("invalid corner: %w", err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[2*i+1]), 64)
		if err != nil {
			return a, fmt.Errorf("invalid corner: %w", err)
		}
		pts[i] = geometry.Pt(x, y)
	}

	a.Corners = &geometry.Quad{
		TopLeft:     pts[0],
		TopRight:    pts[1],
		BottomRight: pts[2],
		BottomLeft:  pts[3],
	}
	a.Normalized, _ = strconv.ParseBool(r.URL.Query().Get("normalized"))
	return a, nil
}

func valueRectifyArgs(r *http.Request) (rectifyArgs, error) {
	q := r.URL.Query()
	a := rectifyArgs{
		Border:      q.Get("border"),
		BorderColor: q.Get("border_color"),
	}

	for name, dst := range map[string]*int{
		"width":         &a.Width,
		"height":        &a.Height,
		"max_dimension": &a.MaxDimension,
	} {
		if val := q.Get(name); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				return a, fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = n
		}
	}
	return a, nil
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)

	text := http.StatusText(code)

	if err != nil {
		text = err.Error()
	}

	w.Write([]byte(text))
}
