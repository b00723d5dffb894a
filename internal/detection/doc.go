// Package detection finds document quadrilaterals in camera frames.
//
// A Detector looks at a frame and reports at most one Observation: the four
// corners of the dominant rectangular object (a sheet of paper, a receipt, a
// card) in normalized coordinates, plus a confidence score. Downstream code
// converts the quad to pixel space with Observation.PixelQuad and hands it to
// the rectify package.
//
// # Implementations
//
//   - ContourDetector: pure Go, always available. Edge thresholding and
//     flood-fill contours, corners taken from the contour extremes.
//   - OpenCVDetector: Canny edges and polygon approximation through gocv.
//     Built only with -tags gocv.
//
// # Coordinate System
//
// Observations use normalized [0,1] coordinates. By default the origin is the
// bottom-left corner with Y growing upward (geometry.OriginBottomLeft), which
// is what platform rectangle detectors report; set Config.Convention to
// geometry.OriginTopLeft to get pixel-style orientation instead.
//
// # Filtering
//
// Config mirrors the knobs of a platform rectangle request: minimum size
// relative to the shorter image side, aspect ratio range, corner angle
// tolerance and minimum confidence. DefaultConfig returns values suited to
// handheld document capture.
//
// # Limitations
//
// These detectors work best on a light document against a darker, uncluttered
// background. Busy backgrounds merge with the document outline and are usually
// rejected by the shape filters rather than misdetected.
package detection
