package rectify

import (
	"image"
	"image/color"
	"math"
)

// surface reads and writes pixels as float channel vectors in the native
// representation of one image type.
type surface interface {
	// channels is the number of values per pixel.
	channels() int
	// fetch stores the channels of the in-bounds pixel (x, y) in px.
	fetch(x, y int, px []float64)
	// convert expresses c in this surface's representation.
	convert(c color.Color, px []float64)
	// alloc creates a w×h destination of the matching image type and a setter
	// for it. Setters for distinct rows may run concurrently.
	alloc(w, h int) (image.Image, func(x, y int, px []float64))
}

func surfaceFor(src image.Image) surface {
	switch s := src.(type) {
	case *image.NRGBA:
		return nrgbaSurface{s}
	case *image.RGBA:
		return rgbaSurface{s}
	case *image.Gray:
		return graySurface{s}
	default:
		return rgba64Surface{src}
	}
}

type nrgbaSurface struct{ img *image.NRGBA }

func (s nrgbaSurface) channels() int { return 4 }

func (s nrgbaSurface) fetch(x, y int, px []float64) {
	i := s.img.PixOffset(x, y)
	p := s.img.Pix[i : i+4 : i+4]
	px[0], px[1], px[2], px[3] = float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3])
}

func (s nrgbaSurface) convert(c color.Color, px []float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	px[0], px[1], px[2], px[3] = float64(n.R), float64(n.G), float64(n.B), float64(n.A)
}

func (s nrgbaSurface) alloc(w, h int) (image.Image, func(x, y int, px []float64)) {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	return dst, func(x, y int, px []float64) {
		i := dst.PixOffset(x, y)
		p := dst.Pix[i : i+4 : i+4]
		p[0], p[1], p[2], p[3] = to8(px[0]), to8(px[1]), to8(px[2]), to8(px[3])
	}
}

type rgbaSurface struct{ img *image.RGBA }

func (s rgbaSurface) channels() int { return 4 }

func (s rgbaSurface) fetch(x, y int, px []float64) {
	i := s.img.PixOffset(x, y)
	p := s.img.Pix[i : i+4 : i+4]
	px[0], px[1], px[2], px[3] = float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3])
}

func (s rgbaSurface) convert(c color.Color, px []float64) {
	n := color.RGBAModel.Convert(c).(color.RGBA)
	px[0], px[1], px[2], px[3] = float64(n.R), float64(n.G), float64(n.B), float64(n.A)
}

func (s rgbaSurface) alloc(w, h int) (image.Image, func(x, y int, px []float64)) {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	return dst, func(x, y int, px []float64) {
		i := dst.PixOffset(x, y)
		p := dst.Pix[i : i+4 : i+4]
		p[0], p[1], p[2], p[3] = to8(px[0]), to8(px[1]), to8(px[2]), to8(px[3])
	}
}

type graySurface struct{ img *image.Gray }

func (s graySurface) channels() int { return 1 }

func (s graySurface) fetch(x, y int, px []float64) {
	px[0] = float64(s.img.Pix[s.img.PixOffset(x, y)])
}

func (s graySurface) convert(c color.Color, px []float64) {
	px[0] = float64(color.GrayModel.Convert(c).(color.Gray).Y)
}

func (s graySurface) alloc(w, h int) (image.Image, func(x, y int, px []float64)) {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	return dst, func(x, y int, px []float64) {
		dst.Pix[dst.PixOffset(x, y)] = to8(px[0])
	}
}

// rgba64Surface handles every other image type through color.RGBA64
// (16-bit, premultiplied).
type rgba64Surface struct{ img image.Image }

func (s rgba64Surface) channels() int { return 4 }

func (s rgba64Surface) fetch(x, y int, px []float64) {
	s.convert(s.img.At(x, y), px)
}

func (s rgba64Surface) convert(c color.Color, px []float64) {
	r, g, b, a := c.RGBA()
	px[0], px[1], px[2], px[3] = float64(r), float64(g), float64(b), float64(a)
}

func (s rgba64Surface) alloc(w, h int) (image.Image, func(x, y int, px []float64)) {
	dst := image.NewRGBA64(image.Rect(0, 0, w, h))
	return dst, func(x, y int, px []float64) {
		dst.SetRGBA64(x, y, color.RGBA64{R: to16(px[0]), G: to16(px[1]), B: to16(px[2]), A: to16(px[3])})
	}
}

func to8(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func to16(v float64) uint16 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 65535 {
		return 65535
	}
	return uint16(v)
}
