package render

import (
	"image"
	"image/color"
	imagedraw "image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

type pointF struct{ X, Y float64 }

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	if limit := min(rect.Dx(), rect.Dy()) / 2; radius > limit {
		radius = limit
	}
	fill := image.NewUniform(clr)
	if radius <= 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	// cross of two rectangles plus four corner discs; the rectangles must
	// not overlap or the alpha would stack.
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	corners := []struct {
		c      image.Point
		dx, dy int
	}{
		{image.Pt(rect.Min.X+radius, rect.Min.Y+radius), -1, -1},
		{image.Pt(rect.Max.X-radius-1, rect.Min.Y+radius), 1, -1},
		{image.Pt(rect.Min.X+radius, rect.Max.Y-radius-1), -1, 1},
		{image.Pt(rect.Max.X-radius-1, rect.Max.Y-radius-1), 1, 1},
	}
	r2 := radius * radius
	for _, k := range corners {
		for y := 0; y <= radius; y++ {
			for x := 0; x <= radius; x++ {
				if x*x+y*y > r2 {
					continue
				}
				// quarter disc only, outside the two rectangles
				px, py := k.c.X+k.dx*x, k.c.Y+k.dy*y
				if (k.dx < 0 && px >= rect.Min.X+radius) || (k.dx > 0 && px < rect.Max.X-radius) {
					continue
				}
				if (k.dy < 0 && py >= rect.Min.Y+radius) || (k.dy > 0 && py < rect.Max.Y-radius) {
					continue
				}
				blendPixel(img, px, py, fill)
			}
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, src *image.Uniform) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	imagedraw.Draw(img, image.Rect(x, y, x+1, y+1), src, image.Point{}, imagedraw.Over)
}

func drawArrow(img *image.RGBA, from, to image.Rectangle, size int, clr color.Color) {
	start := pointF{float64(from.Min.X + size/2), float64(from.Min.Y + size/2)}
	end := pointF{float64(to.Min.X + size/2), float64(to.Min.Y + size/2)}
	dx, dy := end.X-start.X, end.Y-start.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	shaft := length - float64(size)*0.45
	if shaft < float64(size)*0.35 {
		shaft = length * 0.6
	}
	half := float64(size) * 0.18
	head := float64(size) * 0.16
	base := pointF{start.X + dirX*shaft, start.Y + dirY*shaft}

	fill := image.NewUniform(clr)
	a := pointF{start.X - perpX*half, start.Y - perpY*half}
	b := pointF{start.X + perpX*half, start.Y + perpY*half}
	c := pointF{base.X + perpX*half, base.Y + perpY*half}
	d := pointF{base.X - perpX*half, base.Y - perpY*half}
	fillTriangle(img, a, b, c, fill)
	fillTriangle(img, a, c, d, fill)
	fillTriangle(img, end,
		pointF{base.X - perpX*(half+head), base.Y - perpY*(half+head)},
		pointF{base.X + perpX*(half+head), base.Y + perpY*(half+head)},
		fill)
}

// fillTriangle paints pixels whose centre lies inside abc. Shared edges of
// adjacent triangles may be painted twice.
func fillTriangle(img *image.RGBA, a, b, c pointF, fill *image.Uniform) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))

	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return
	}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			alpha := ((b.Y-c.Y)*(px-c.X) + (c.X-b.X)*(py-c.Y)) / denom
			beta := ((c.Y-a.Y)*(px-c.X) + (a.X-c.X)*(py-c.Y)) / denom
			if alpha >= 0 && beta >= 0 && alpha+beta <= 1 {
				blendPixel(img, x, y, fill)
			}
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if text == "" {
		return
	}
	m := drawer.Face.Metrics()
	x := rect.Min.X + (rect.Dx()-drawer.MeasureString(text).Round())/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, rect.Min.Y+(rect.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func truncate(face font.Face, text string, maxWidth int) string {
	if text == "" || maxWidth <= 0 {
		return text
	}
	if font.MeasureString(face, text).Round() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if candidate := string(runes) + "..."; font.MeasureString(face, candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ""
}
