package detection

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// createDocumentImage paints a light quad on a dark background, the way a
// sheet of paper looks on a desk.
func createDocumentImage(width, height int, q geometry.Quad) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	dark := color.RGBA{30, 30, 40, 255}
	light := color.RGBA{235, 235, 225, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if q.Contains(geometry.Pt(float64(x)+0.5, float64(y)+0.5)) {
				img.SetRGBA(x, y, light)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}
	return img
}

func skewedDocument() geometry.Quad {
	return geometry.Quad{
		TopLeft:     geometry.Pt(100, 50),
		TopRight:    geometry.Pt(300, 60),
		BottomLeft:  geometry.Pt(90, 250),
		BottomRight: geometry.Pt(310, 240),
	}
}

func newTestDetector(t *testing.T, mutate func(*Config)) *ContourDetector {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := NewContourDetector(cfg)
	if err != nil {
		t.Fatalf("NewContourDetector failed: %v", err)
	}
	return d
}

func TestContourDetector_FindsDocument(t *testing.T) {
	doc := skewedDocument()
	img := createDocumentImage(400, 300, doc)

	obs, err := newTestDetector(t, nil).Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if obs == nil {
		t.Fatal("expected an observation, got nil")
	}
	if obs.Convention != geometry.OriginBottomLeft {
		t.Errorf("Convention: got %v, want bottom-left", obs.Convention)
	}
	if obs.Confidence < 0.5 || obs.Confidence > 1 {
		t.Errorf("Confidence out of range: %f", obs.Confidence)
	}

	got, err := obs.PixelQuad(geometry.Size{Width: 400, Height: 300})
	if err != nil {
		t.Fatalf("PixelQuad failed: %v", err)
	}

	names := [4]string{"top-left", "top-right", "bottom-left", "bottom-right"}
	want := doc.Corners()
	for i, p := range got.Corners() {
		if d := p.Dist(want[i]); d > 5 {
			t.Errorf("%s: got %v, want %v (off by %.1f px)", names[i], p, want[i], d)
		}
	}

	wantArea := doc.Area() / (400 * 300)
	if math.Abs(obs.Area-wantArea) > 0.03 {
		t.Errorf("Area: got %f, want about %f", obs.Area, wantArea)
	}
}

func TestContourDetector_Downscaled(t *testing.T) {
	// Doubling the frame and analyzing at half resolution must give the same
	// normalized quad.
	doc := skewedDocument().Map(func(p geometry.Point) geometry.Point { return p.Mul(2) })
	img := createDocumentImage(800, 600, doc)

	obs, err := newTestDetector(t, func(c *Config) {
		c.MaxDimension = 400
		c.Convention = geometry.OriginTopLeft
	}).Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if obs == nil {
		t.Fatal("expected an observation, got nil")
	}

	if d := obs.Quad.TopLeft.Dist(geometry.Pt(0.25, 1.0/6)); d > 0.015 {
		t.Errorf("TopLeft: got %v, want about (0.25, 0.167)", obs.Quad.TopLeft)
	}
}

func TestContourDetector_Filters(t *testing.T) {
	tests := []struct {
		name string
		quad geometry.Quad
	}{
		{
			"too small",
			geometry.Quad{
				TopLeft: geometry.Pt(50, 50), TopRight: geometry.Pt(80, 50),
				BottomLeft: geometry.Pt(50, 80), BottomRight: geometry.Pt(80, 80),
			},
		},
		{
			"too thin",
			geometry.Quad{
				TopLeft: geometry.Pt(20, 100), TopRight: geometry.Pt(380, 100),
				BottomLeft: geometry.Pt(20, 170), BottomRight: geometry.Pt(380, 170),
			},
		},
		{
			"not rectangular",
			geometry.Quad{
				TopLeft: geometry.Pt(190, 20), TopRight: geometry.Pt(210, 20),
				BottomLeft: geometry.Pt(40, 280), BottomRight: geometry.Pt(360, 280),
			},
		},
	}

	d := newTestDetector(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := d.Detect(context.Background(), createDocumentImage(400, 300, tt.quad))
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if obs != nil {
				t.Errorf("expected no observation, got %+v", obs.Quad)
			}
		})
	}
}

func TestContourDetector_UniformImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	obs, err := newTestDetector(t, nil).Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if obs != nil {
		t.Error("uniform image should produce no observation")
	}
}

func TestContourDetector_Candidates(t *testing.T) {
	img := createDocumentImage(400, 300, skewedDocument())
	small := geometry.Quad{
		TopLeft: geometry.Pt(10, 10), TopRight: geometry.Pt(80, 10),
		BottomLeft: geometry.Pt(10, 80), BottomRight: geometry.Pt(80, 80),
	}
	for y := 10; y < 80; y++ {
		for x := 10; x < 80; x++ {
			if small.Contains(geometry.Pt(float64(x)+0.5, float64(y)+0.5)) {
				img.SetRGBA(x, y, color.RGBA{235, 235, 225, 255})
			}
		}
	}

	d := newTestDetector(t, func(c *Config) {
		c.MinSize = 0.1
		c.MaxObservations = 0
	})
	obs, err := d.Candidates(context.Background(), img)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("got %d candidates, want 2", len(obs))
	}
	if obs[0].Area <= obs[1].Area {
		t.Error("candidates should be sorted by area, largest first")
	}
}

func TestContourDetector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestDetector(t, nil).Detect(ctx, createDocumentImage(100, 100, skewedDocument()))
	if err == nil {
		t.Error("Detect should fail on a cancelled context")
	}
}

func TestContourDetector_NilImage(t *testing.T) {
	if _, err := newTestDetector(t, nil).Detect(context.Background(), nil); err == nil {
		t.Error("Detect should fail for nil image")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min size", func(c *Config) { c.MinSize = 1.5 }},
		{"aspect order", func(c *Config) { c.MinAspectRatio = 0.9; c.MaxAspectRatio = 0.5 }},
		{"aspect above one", func(c *Config) { c.MaxAspectRatio = 2 }},
		{"confidence", func(c *Config) { c.MinConfidence = -0.1 }},
		{"quadrature", func(c *Config) { c.QuadratureTolerance = 60 }},
		{"edge threshold", func(c *Config) { c.EdgeThreshold = 0 }},
		{"negative dimension", func(c *Config) { c.MaxDimension = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
			if _, err := NewContourDetector(cfg); err == nil {
				t.Error("NewContourDetector should reject invalid config")
			}
		})
	}
}

func TestExtremeCorners(t *testing.T) {
	contour := []pixel{{10, 10}, {50, 12}, {90, 10}, {92, 50}, {90, 90}, {50, 88}, {10, 90}, {8, 50}}
	q := extremeCorners(contour)

	if q.TopLeft != (pixel{10, 10}).center() {
		t.Errorf("TopLeft: got %v", q.TopLeft)
	}
	if q.TopRight != (pixel{90, 10}).center() {
		t.Errorf("TopRight: got %v", q.TopRight)
	}
	if q.BottomLeft != (pixel{10, 90}).center() {
		t.Errorf("BottomLeft: got %v", q.BottomLeft)
	}
	if q.BottomRight != (pixel{90, 90}).center() {
		t.Errorf("BottomRight: got %v", q.BottomRight)
	}
}

func TestNew_Backends(t *testing.T) {
	for _, name := range []string{"", "contour", " Contour "} {
		cfg := DefaultConfig()
		cfg.Backend = name
		d, err := New(cfg)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if _, ok := d.(*ContourDetector); !ok {
			t.Errorf("New(%q) returned %T, want *ContourDetector", name, d)
		}
	}

	cfg := DefaultConfig()
	cfg.Backend = "neural"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}

	found := false
	for _, name := range Backends() {
		if name == BackendContour {
			found = true
		}
	}
	if !found {
		t.Errorf("Backends() = %v, missing %q", Backends(), BackendContour)
	}
}
