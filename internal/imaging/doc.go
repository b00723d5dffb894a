// Package imaging handles raster input and output for the scanner.
//
// It sits at the edges of the scanning pipeline: decoding image files (with a
// thread-safe cache), wrapping raw camera frames, and encoding results for
// clients or disk. Geometry and resampling live in the geometry and rectify
// packages.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward.
//
// # Frames
//
// Camera frames arrive as 32-bit BGRA buffers. Frame keeps that layout and
// converts to *image.RGBA on demand; Upright additionally applies the capture
// orientation so detection runs on what the user sees.
//
// # Supported Formats
//
// Decoding: PNG, JPEG, GIF, BMP, TIFF and WebP. JPEG EXIF orientation is
// applied on load. Encoding: PNG for client responses; Save picks the format
// from the file extension (PNG, JPEG, GIF, BMP, TIFF).
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Frames are not synchronized; hand each
// frame to a single consumer.
package imaging
