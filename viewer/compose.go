package viewer

import (
	"image"
	"image/color"

	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Tile is one labeled image of a composition.
type Tile struct {
	Label string
	Image image.Image
}

var (
	background = colornames.Black
	labelColor = colornames.White
)

// Fit scales img to size. An RGBA image of the right size is returned as is.
func Fit(img image.Image, size image.Point) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds() == (image.Rectangle{Max: size}) {
		return rgba
	}

	dst := image.NewRGBA(image.Rectangle{Max: size})
	if img != nil {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	}
	return dst
}

// Compose lays tiles out on a grid of cols columns filling size, each scaled
// to its cell with its label in the top left corner.
func Compose(size image.Point, cols int, tiles []Tile) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	if len(tiles) == 0 {
		return dst
	}

	cols = max(min(cols, len(tiles)), 1)
	rows := (len(tiles) + cols - 1) / cols
	cell := image.Pt(size.X/cols, size.Y/rows)

	for i, tile := range tiles {
		origin := image.Pt((i%cols)*cell.X, (i/cols)*cell.Y)
		rect := image.Rectangle{Min: origin, Max: origin.Add(cell)}

		if tile.Image != nil {
			draw.ApproxBiLinear.Scale(dst, rect, tile.Image, tile.Image.Bounds(), draw.Over, nil)
		}
		if tile.Label != "" {
			drawLabel(dst, rect.Min, tile.Label, labelColor)
		}
	}

	return dst
}

func drawLabel(dst draw.Image, at image.Point, label string, c color.Color) {
	fontDrawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.I(at.X + 4),
			Y: fixed.I(at.Y + 13),
		},
	}
	fontDrawer.DrawString(label)
}
