// Package geometry holds the planar math behind document rectification.
//
// Two coordinate spaces appear throughout:
//
//   - Normalized: fractions of the frame width/height in [0,1]. The origin corner
//     depends on the producer; see Convention. The platform rectangle detector
//     reports normalized points with the origin at the bottom-left and Y growing
//     upward (OriginBottomLeft).
//   - Pixel: the image convention of the image package. Origin at the top-left,
//     X grows rightward, Y grows downward.
//
// Converting between the two is an explicit step (NormalizedToPixel,
// PixelToNormalized and the Quad helpers) so that a quadrilateral is always in
// pixel space before a Homography is solved for it.
//
// Everything in this package is a value type with no shared state; all
// functions are safe for concurrent use.
package geometry
