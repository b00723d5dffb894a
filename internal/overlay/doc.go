// Package overlay draws detected document outlines onto frames.
//
// It is the visual consumer of detection results: given a quadrilateral in a
// frame's pixel space, DrawQuad returns an annotated copy suitable for a
// preview or for debugging a detector. Converting detector output to pixel or
// display coordinates is done beforehand with geometry.Quad.ToPixel or
// geometry.Quad.ToDisplay.
package overlay
