package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is used when no language is given.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion represents a recognized word with its location and confidence.
type TextRegion struct {
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the results of text extraction from a page.
type OCRResult struct {
	// FullText is all recognized text with Tesseract's spacing and newlines.
	FullText string `json:"full_text"`

	// Regions contains individual words. It may be empty even when FullText is
	// not, if word boxes could not be extracted.
	Regions []TextRegion `json:"regions"`

	Language string `json:"language"`
}

// ExtractText runs Tesseract on an in-memory image, typically a rectified
// page.
//
// Parameters:
//   - img: The page to read. Word boxes are reported in its pixel space.
//   - language: Tesseract language code(s), e.g. "eng" or "eng+deu". Empty
//     means DefaultLanguage. The language data must be installed.
//
// Returns:
//   - *OCRResult: Full text and word-level regions.
//   - error: Non-nil if the image cannot be encoded or Tesseract fails.
func ExtractText(img image.Image, language string) (*OCRResult, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to read")
	}
	if language == "" {
		language = DefaultLanguage
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &OCRResult{
		FullText: text,
		Regions:  []TextRegion{},
		Language: language,
	}

	// Word boxes are best-effort; FullText stands on its own.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return result, nil
	}

	offset := img.Bounds().Min
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		result.Regions = append(result.Regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X + offset.X,
				Y1: box.Box.Min.Y + offset.Y,
				X2: box.Box.Max.X + offset.X,
				Y2: box.Box.Max.Y + offset.Y,
			},
		})
	}

	return result, nil
}

// ExtractTextFromRegion runs OCR on the part of img inside r. Word boxes are
// reported in img's coordinates.
func ExtractTextFromRegion(img image.Image, r image.Rectangle, language string) (*OCRResult, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to read")
	}
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("OCR region %v does not overlap the image", r)
	}

	result, err := ExtractText(imaging.Crop(img, r), language)
	if err != nil {
		return nil, err
	}

	for i := range result.Regions {
		b := &result.Regions[i].Bounds
		b.X1 += r.Min.X
		b.Y1 += r.Min.Y
		b.X2 += r.Min.X
		b.Y2 += r.Min.Y
	}
	return result, nil
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
}

// GetInfo reports the linked Tesseract version.
func GetInfo() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	return Info{
		Available: version != "",
		Version:   version,
		Backend:   "gosseract",
	}
}
