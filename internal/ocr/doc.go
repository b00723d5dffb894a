// Package ocr reads text from rectified document pages using Tesseract.
//
// It wraps the Tesseract engine (via gosseract/v2). Pages are passed in memory,
// so the output of the rectifier can be read without touching disk. Word boxes
// come back in the page's pixel coordinates.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Languages
//
// The default language is English ("eng"). Multiple languages are joined with
// '+', e.g. "eng+deu".
//
// # Accuracy
//
// OCR quality depends on the rectified page size. Scans narrower than about
// 1000 pixels lose small print; rectify with a larger output size when text
// matters.
package ocr
