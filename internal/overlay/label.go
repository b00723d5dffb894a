package overlay

import (
	"image"
	"image/color"
	"strings"
)

// glyphs is a 3x5 pixel font covering what corner labels need: digits,
// separators and the corner names.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	'.': {"000", "000", "000", "000", "010"},
	'-': {"000", "000", "111", "000", "000"},
	':': {"000", "010", "000", "010", "000"},
	'B': {"110", "101", "110", "101", "110"},
	'L': {"100", "100", "100", "100", "111"},
	'R': {"110", "101", "110", "101", "101"},
	'T': {"111", "010", "010", "010", "010"},
}

const (
	glyphAdvance = 4
	labelHeight  = 7
)

// labelSize returns the width and height drawLabel covers for text, including
// the one-pixel background margin.
func labelSize(text string) (int, int) {
	return len([]rune(text))*glyphAdvance + 1, labelHeight + 1
}

// drawLabel draws text with its top-left glyph pixel at (x, y) over a filled
// background box. Unknown runes advance without drawing; anything outside the
// image is clipped.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	text = strings.ToUpper(text)
	bounds := img.Bounds()
	w, h := labelSize(text)

	set := func(px, py int, c color.NRGBA) {
		if image.Pt(px, py).In(bounds) {
			img.SetNRGBA(px, py, c)
		}
	}

	for dy := -1; dy < h-1; dy++ {
		for dx := -1; dx < w-1; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						set(cx+col, y+row, fg)
					}
				}
			}
		}
		cx += glyphAdvance
	}
}
