// Package rectify turns a perspective-skewed quadrilateral inside a raster image
// into a flat, axis-aligned image, as if the planar surface had been
// photographed head-on.
//
// # Mapping
//
// A Homography H is solved that maps the unit square onto the quadrilateral in
// source pixel space. Destination pixel (u, v) of a W×H output is taken from the
// unit-square point ((u+0.5)/W, (v+0.5)/H), mapped through H and sampled with
// bilinear interpolation. Pixel centers sit at i+0.5, so corners given on pixel
// boundaries reproduce an axis-aligned crop exactly.
//
// The corner labels of the quadrilateral decide the orientation of the result:
//
//	TopLeft     -> (0, 0)
//	TopRight    -> (W-1, 0)
//	BottomLeft  -> (0, H-1)
//	BottomRight -> (W-1, H-1)
//
// # Color
//
// Interpolation happens in the source's own channel representation. An
// *image.NRGBA source is blended non-premultiplied and produces an *image.NRGBA,
// *image.RGBA stays premultiplied, *image.Gray stays single-channel. Every other
// image type is read through color.RGBA64 and produces an *image.RGBA64. No
// gamma or color-space conversion is applied.
//
// # Errors
//
// Rectify fails with *DegenerateQuadrilateralError when the corners cannot span
// a nonzero area and with *OutOfBoundsError when the quadrilateral does not
// overlap the source at all. Both are per-frame conditions; callers skip the
// frame and continue.
//
// # Concurrency
//
// Rectify is a pure function of its inputs. Output rows are partitioned across
// goroutines, each writing a disjoint row range of the destination.
package rectify
