package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
	"github.com/ironsheep/docscan-mcp/internal/overlay"
	"github.com/ironsheep/docscan-mcp/internal/pipeline"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
)

// DefaultPreviewDimension caps the longer side of images returned inline.
const DefaultPreviewDimension = 1024

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_rectify").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(context.Background(), params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// errUnknownTool is returned by executeTool for names it does not dispatch.
var errUnknownTool = errors.New("unknown tool")

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies config defaults for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the geometry/detection/rectify/overlay/ocr packages
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Document Scanning
	case "image_detect_quad":
		return s.handleImageDetectQuad(ctx, args)
	case "image_rectify":
		return s.handleImageRectify(ctx, args)
	case "image_overlay_quad":
		return s.handleImageOverlayQuad(ctx, args)
	case "image_convert_points":
		return s.handleImageConvertPoints(args)
	case "image_scan_document":
		return s.handleImageScanDocument(ctx, args)
	case "image_scan_frames":
		return s.handleImageScanFrames(ctx, args)

	// OCR Operations
	case "image_ocr_full":
		return s.handleImageOCRFull(args)
	case "image_ocr_region":
		return s.handleImageOCRRegion(args)

	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Shared Arguments ===

// detectArgs override the configured detector for one call.
type detectArgs struct {
	Convention    string   `json:"convention"`
	MinSize       *float64 `json:"min_size"`
	MinConfidence *float64 `json:"min_confidence"`
	EdgeThreshold *float64 `json:"edge_threshold"`
}

func (a detectArgs) overrides() bool {
	return a.Convention != "" || a.MinSize != nil || a.MinConfidence != nil || a.EdgeThreshold != nil
}

// detectorFor returns the detector to use for a call.
func (s *Server) detectorFor(a detectArgs) (detection.Detector, error) {
	if !a.overrides() {
		return s.detector, nil
	}

	cfg := s.cfg.Detector
	if a.Convention != "" {
		conv, err := geometry.ParseConvention(a.Convention)
		if err != nil {
			return nil, err
		}
		cfg.Convention = conv
	}
	if a.MinSize != nil {
		cfg.MinSize = *a.MinSize
	}
	if a.MinConfidence != nil {
		cfg.MinConfidence = *a.MinConfidence
	}
	if a.EdgeThreshold != nil {
		cfg.EdgeThreshold = *a.EdgeThreshold
	}
	return detection.New(cfg)
}

// quadArgs name a quadrilateral on an image, in pixels or normalized units.
type quadArgs struct {
	Corners    *geometry.Quad `json:"corners"`
	Normalized bool           `json:"normalized"`
}

// pixelQuad resolves the corners in img's pixel space, reading normalized
// corners with conv. ok is false when no corners were given.
func (a quadArgs) pixelQuad(img image.Image, conv geometry.Convention) (q geometry.Quad, ok bool, err error) {
	if a.Corners == nil {
		return geometry.Quad{}, false, nil
	}
	if !a.Normalized {
		return *a.Corners, true, nil
	}
	q, err = a.Corners.ToPixel(geometry.SizeOf(img.Bounds()), conv)
	return q, err == nil, err
}

// convention parses name, falling back to the detector's convention.
func (s *Server) convention(name string) (geometry.Convention, error) {
	if name == "" {
		return s.cfg.Detector.Convention, nil
	}
	return geometry.ParseConvention(name)
}

// resolveQuad returns the pixel quad given in a, or detects one in img.
func (s *Server) resolveQuad(ctx context.Context, img image.Image, a quadArgs, d detectArgs) (geometry.Quad, error) {
	conv, err := s.convention(d.Convention)
	if err != nil {
		return geometry.Quad{}, err
	}
	q, ok, err := a.pixelQuad(img, conv)
	if err != nil || ok {
		return q, err
	}

	found, err := s.detect(ctx, img, d)
	if err != nil {
		return geometry.Quad{}, err
	}
	if !found.Found {
		return geometry.Quad{}, errors.New("no corners given and no document detected")
	}
	return *found.PixelQuad, nil
}

// rectifyArgs override the configured rectifier for one call.
type rectifyArgs struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	MaxDimension int    `json:"max_dimension"`
	Border       string `json:"border"`
	BorderColor  string `json:"border_color"`
}

func (s *Server) rectifyOptions(a rectifyArgs) (*rectify.Options, error) {
	opts := *s.rectify
	opts.Width = a.Width
	opts.Height = a.Height
	if a.MaxDimension > 0 {
		opts.MaxDimension = a.MaxDimension
	}

	if a.Border != "" {
		border, err := rectify.ParseBorderPolicy(a.Border)
		if err != nil {
			return nil, err
		}
		opts.Border = border
	}
	if a.BorderColor != "" {
		c, err := overlay.ParseColor(a.BorderColor)
		if err != nil {
			return nil, fmt.Errorf("border_color: %w", err)
		}
		opts.BorderColor = c
		if a.Border == "" {
			opts.Border = rectify.BorderConstant
		}
	}
	return &opts, nil
}

// outputArgs control how a produced image is returned.
type outputArgs struct {
	// OutputPath saves the image; the format follows the extension.
	OutputPath string `json:"output_path"`

	// IncludeImage returns the image inline as base64 PNG. Defaults to true
	// unless OutputPath is set.
	IncludeImage *bool `json:"include_image"`

	// PreviewDimension caps the inline image's longer side.
	PreviewDimension int `json:"preview_dimension"`
}

func (s *Server) emit(img image.Image, a outputArgs) (path string, enc *imaging.EncodedImage, err error) {
	if a.OutputPath != "" {
		if err := imaging.Save(img, a.OutputPath, s.cfg.Rectify.JPEGQuality); err != nil {
			return "", nil, err
		}
		path = a.OutputPath
	}

	include := a.OutputPath == ""
	if a.IncludeImage != nil {
		include = *a.IncludeImage
	}
	if !include {
		return path, nil, nil
	}

	dim := a.PreviewDimension
	if dim == 0 {
		dim = DefaultPreviewDimension
	}
	enc, err = imaging.EncodePNG(img, dim)
	return path, enc, err
}

// === Document Scanning Handlers ===

// DetectResult reports the document found in an image.
type DetectResult struct {
	Found       bool `json:"found"`
	ImageWidth  int  `json:"image_width"`
	ImageHeight int  `json:"image_height"`

	// Observation holds the normalized quad and confidence.
	Observation *detection.Observation `json:"observation,omitempty"`

	// PixelQuad is the observation in image pixels.
	PixelQuad *geometry.Quad `json:"pixel_quad,omitempty"`

	// Preview is the image with the quad outlined, if requested.
	Preview *imaging.EncodedImage `json:"preview,omitempty"`
}

type imageDetectQuadArgs struct {
	Path string `json:"path"`
	detectArgs

	// Preview returns the image with the detected quad drawn on it.
	Preview bool `json:"preview"`
}

func (s *Server) handleImageDetectQuad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageDetectQuadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.detect(ctx, img, a.detectArgs)
	if err != nil {
		return nil, err
	}

	if a.Preview && res.PixelQuad != nil {
		drawn, err := overlay.DrawQuad(img, *res.PixelQuad, s.cfg.Overlay)
		if err != nil {
			return nil, err
		}
		if res.Preview, err = imaging.EncodePNG(drawn, DefaultPreviewDimension); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// detect runs the detector on img and converts the observation to pixels.
func (s *Server) detect(ctx context.Context, img image.Image, a detectArgs) (*DetectResult, error) {
	det, err := s.detectorFor(a)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	res := &DetectResult{ImageWidth: b.Dx(), ImageHeight: b.Dy()}

	obs, err := det.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		return res, nil
	}

	px, err := obs.PixelQuad(geometry.SizeOf(b))
	if err != nil {
		return nil, err
	}
	// Detectors work in image-relative pixels; report them in img's space.
	px = px.Map(func(p geometry.Point) geometry.Point {
		return p.Add(geometry.Pt(float64(b.Min.X), float64(b.Min.Y)))
	})

	res.Found = true
	res.Observation = obs
	res.PixelQuad = &px
	return res, nil
}

// RectifyResult describes a rectified page.
type RectifyResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Quad is the source quadrilateral in image pixels.
	Quad geometry.Quad `json:"quad"`

	Border     string                `json:"border"`
	OutputPath string                `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image,omitempty"`
}

type imageRectifyArgs struct {
	Path string `json:"path"`
	quadArgs
	rectifyArgs
	outputArgs
	detectArgs
}

func (s *Server) handleImageRectify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageRectifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	q, err := s.resolveQuad(ctx, img, a.quadArgs, a.detectArgs)
	if err != nil {
		return nil, err
	}

	opts, err := s.rectifyOptions(a.rectifyArgs)
	if err != nil {
		return nil, err
	}
	res, _, err := s.rectifyPage(img, q, opts, a.outputArgs)
	return res, err
}

// rectifyPage rectifies q out of img and saves or encodes the page.
func (s *Server) rectifyPage(img image.Image, q geometry.Quad, opts *rectify.Options, out outputArgs) (*RectifyResult, image.Image, error) {
	r, err := rectify.Rectify(img, q, opts)
	if err != nil {
		return nil, nil, err
	}

	path, enc, err := s.emit(r.Image, out)
	if err != nil {
		return nil, nil, err
	}

	return &RectifyResult{
		Width:      r.Width,
		Height:     r.Height,
		Quad:       r.Quad,
		Border:     opts.Border.String(),
		OutputPath: path,
		Image:      enc,
	}, r.Image, nil
}

// OverlayResult is an image with a quadrilateral drawn on it.
type OverlayResult struct {
	Quad       geometry.Quad         `json:"quad"`
	OutputPath string                `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image,omitempty"`
}

type imageOverlayQuadArgs struct {
	Path string `json:"path"`
	quadArgs
	overlay.Style
	outputArgs
	detectArgs
}

func (s *Server) handleImageOverlayQuad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a := imageOverlayQuadArgs{Style: s.cfg.Overlay}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	q, err := s.resolveQuad(ctx, img, a.quadArgs, a.detectArgs)
	if err != nil {
		return nil, err
	}

	drawn, err := overlay.DrawQuad(img, q, a.Style)
	if err != nil {
		return nil, err
	}
	path, enc, err := s.emit(drawn, a.outputArgs)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{Quad: q, OutputPath: path, Image: enc}, nil
}

// ConvertResult holds converted points in input order.
type ConvertResult struct {
	Direction  string           `json:"direction"`
	Convention string           `json:"convention"`
	Points     []geometry.Point `json:"points"`
}

type imageConvertPointsArgs struct {
	// Path supplies the image size when Width and Height are not given.
	Path   string  `json:"path"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Points []geometry.Point `json:"points"`

	// Direction is "to_pixel" (default), "to_normalized" or "to_display".
	Direction  string `json:"direction"`
	Convention string `json:"convention"`

	Viewport *struct {
		Width   float64 `json:"width"`
		Height  float64 `json:"height"`
		Gravity string  `json:"gravity"`
	} `json:"viewport"`
}

func (s *Server) handleImageConvertPoints(args json.RawMessage) (interface{}, error) {
	var a imageConvertPointsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	size := geometry.Size{Width: a.Width, Height: a.Height}
	if !size.Valid() && a.Path != "" {
		dims, err := imaging.GetDimensions(s.cache, a.Path)
		if err != nil {
			return nil, err
		}
		size = geometry.Size{Width: float64(dims.Width), Height: float64(dims.Height)}
	}

	conv, err := s.convention(a.Convention)
	if err != nil {
		return nil, err
	}

	direction := strings.ToLower(a.Direction)
	if direction == "" {
		direction = "to_pixel"
	}

	var convert func(geometry.Point) (geometry.Point, error)
	switch direction {
	case "to_pixel", "to_normalized":
		if !size.Valid() {
			return nil, fmt.Errorf("invalid image size %gx%g", size.Width, size.Height)
		}
		convert = func(p geometry.Point) (geometry.Point, error) {
			if direction == "to_pixel" {
				return geometry.NormalizedToPixel(p, size, conv), nil
			}
			return geometry.PixelToNormalized(p, size, conv), nil
		}
	case "to_display":
		if a.Viewport == nil {
			return nil, errors.New("to_display needs a viewport")
		}
		gravity, err := geometry.ParseGravity(a.Viewport.Gravity)
		if err != nil {
			return nil, err
		}
		vp := geometry.Viewport{
			Size:    geometry.Size{Width: a.Viewport.Width, Height: a.Viewport.Height},
			Gravity: gravity,
		}
		convert = func(p geometry.Point) (geometry.Point, error) {
			return vp.ToDisplay(p, size, conv)
		}
	default:
		return nil, fmt.Errorf("unknown direction: %q", a.Direction)
	}

	res := &ConvertResult{
		Direction:  direction,
		Convention: conv.String(),
		Points:     make([]geometry.Point, len(a.Points)),
	}
	for i, p := range a.Points {
		q, err := convert(p)
		if err != nil {
			return nil, err
		}
		res.Points[i] = q
	}
	return res, nil
}

// ScanResult is the outcome of detect, rectify and optional OCR on one image.
type ScanResult struct {
	DetectResult
	Page *RectifyResult `json:"page,omitempty"`
	OCR  *ocr.OCRResult `json:"ocr,omitempty"`
}

type imageScanDocumentArgs struct {
	Path string `json:"path"`
	detectArgs
	rectifyArgs
	outputArgs

	OCR      *bool  `json:"ocr"`
	Language string `json:"language"`
}

func (s *Server) handleImageScanDocument(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageScanDocumentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	found, err := s.detect(ctx, img, a.detectArgs)
	if err != nil {
		return nil, err
	}
	res := &ScanResult{DetectResult: *found}
	if !found.Found {
		return res, nil
	}

	opts, err := s.rectifyOptions(a.rectifyArgs)
	if err != nil {
		return nil, err
	}
	var page image.Image
	if res.Page, page, err = s.rectifyPage(img, *found.PixelQuad, opts, a.outputArgs); err != nil {
		return nil, err
	}

	useOCR := s.cfg.OCR.Enabled
	if a.OCR != nil {
		useOCR = *a.OCR
	}
	if useOCR {
		lang := a.Language
		if lang == "" {
			lang = s.cfg.OCR.Language
		}
		if res.OCR, err = ocr.ExtractText(page, lang); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// FramePage reports one frame of a directory scan.
type FramePage struct {
	Seq        uint64  `json:"seq"`
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	OutputPath string  `json:"output_path,omitempty"`
	Error      string  `json:"error,omitempty"`

	// PixelQuad and DisplayQuad locate the page in the upright frame and in
	// the configured viewport.
	PixelQuad   *geometry.Quad `json:"pixel_quad,omitempty"`
	DisplayQuad *geometry.Quad `json:"display_quad,omitempty"`
}

// ScanFramesResult summarizes a directory scan.
type ScanFramesResult struct {
	Stats pipeline.Stats `json:"stats"`
	Pages []FramePage    `json:"pages"`
}

type imageScanFramesArgs struct {
	Dir       string `json:"dir"`
	OutputDir string `json:"output_dir"`

	// Format is the extension of saved pages, "png" or "jpg".
	Format      string  `json:"format"`
	MaxFPS      float64 `json:"max_fps"`
	Orientation string  `json:"orientation"`
	detectArgs
	rectifyArgs
}

func (s *Server) handleImageScanFrames(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageScanFramesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, errors.New("dir is required")
	}

	orientation, err := s.cfg.FrameOrientation()
	if err != nil {
		return nil, err
	}
	if a.Orientation != "" {
		if orientation, err = imaging.ParseOrientation(a.Orientation); err != nil {
			return nil, err
		}
	}

	src, err := pipeline.NewDirSource(a.Dir,
		pipeline.WithOrientation(orientation),
		pipeline.WithInterval(s.cfg.Pipeline.FrameInterval))
	if err != nil {
		return nil, err
	}
	det, err := s.detectorFor(a.detectArgs)
	if err != nil {
		return nil, err
	}
	opts, err := s.rectifyOptions(a.rectifyArgs)
	if err != nil {
		return nil, err
	}

	cfg, err := s.cfg.PipelineOptions()
	if err != nil {
		return nil, err
	}
	// Every file is a frame worth keeping.
	cfg.DropLateFrames = false
	cfg.Rectify = true
	if a.MaxFPS > 0 {
		cfg.MaxFPS = a.MaxFPS
	}

	p, err := pipeline.New(src, det, cfg, opts, s.logger)
	if err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(strings.ToLower(a.Format), ".")
	if ext == "" {
		ext = "png"
	}

	out := make(chan pipeline.Result)
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx, out) }()

	res := &ScanFramesResult{Pages: []FramePage{}}
	var saveErr error
	for r := range out {
		page := FramePage{
			Seq:         r.Seq,
			Found:       r.Observation != nil,
			PixelQuad:   r.PixelQuad,
			DisplayQuad: r.DisplayQuad,
		}
		if r.Observation != nil {
			page.Confidence = r.Observation.Confidence
		}
		if r.Err != nil {
			page.Error = r.Err.Error()
		}
		if r.Rectified != nil {
			page.Width, page.Height = r.Rectified.Width, r.Rectified.Height
			if a.OutputDir != "" && saveErr == nil {
				path := filepath.Join(a.OutputDir, fmt.Sprintf("page_%04d.%s", r.Seq, ext))
				if saveErr = imaging.Save(r.Rectified.Image, path, s.cfg.Rectify.JPEGQuality); saveErr == nil {
					page.OutputPath = path
				}
			}
		}
		res.Pages = append(res.Pages, page)
	}

	if err := <-errc; err != nil {
		return nil, err
	}
	if saveErr != nil {
		return nil, saveErr
	}
	res.Stats = p.Stats()
	return res, nil
}

// === OCR Operation Handlers ===

type imageOCRFullArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
}

func (s *Server) handleImageOCRFull(args json.RawMessage) (interface{}, error) {
	var a imageOCRFullArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.cfg.OCR.Language
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return ocr.ExtractText(img, a.Language)
}

type imageOCRRegionArgs struct {
	Path     string `json:"path"`
	X1       int    `json:"x1"`
	Y1       int    `json:"y1"`
	X2       int    `json:"x2"`
	Y2       int    `json:"y2"`
	Language string `json:"language"`
}

func (s *Server) handleImageOCRRegion(args json.RawMessage) (interface{}, error) {
	var a imageOCRRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.cfg.OCR.Language
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return ocr.ExtractTextFromRegion(img, image.Rect(a.X1, a.Y1, a.X2, a.Y2), a.Language)
}
