package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// EncodedImage is an image ready to be returned to a client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
//
// If maxDimension is positive and either side of img exceeds it, the image is
// first downscaled with Lanczos filtering so the longer side equals
// maxDimension. Width and Height report the encoded size.
func EncodePNG(img image.Image, maxDimension int) (*EncodedImage, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to encode")
	}

	b := img.Bounds()
	if maxDimension > 0 && (b.Dx() > maxDimension || b.Dy() > maxDimension) {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Encode writes img to w in the named format ("png", "jpg", "jpeg", "bmp",
// "tif", "tiff", "gif") and returns its MIME type.
func Encode(w io.Writer, img image.Image, format string, jpegQuality int) (string, error) {
	f, err := imaging.FormatFromExtension(strings.TrimPrefix(format, "."))
	if err != nil {
		return "", fmt.Errorf("unsupported output format: %q", format)
	}

	var opts []imaging.EncodeOption
	if jpegQuality > 0 {
		opts = append(opts, imaging.JPEGQuality(jpegQuality))
	}
	if err := imaging.Encode(w, img, f, opts...); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return "image/" + strings.ToLower(f.String()), nil
}

// Save writes img to path. The format follows the file extension; JPEG output
// uses the given quality (1-100, 0 for the library default).
func Save(img image.Image, path string, jpegQuality int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var opts []imaging.EncodeOption
	if jpegQuality > 0 {
		opts = append(opts, imaging.JPEGQuality(jpegQuality))
	}
	if err := imaging.Save(img, path, opts...); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
