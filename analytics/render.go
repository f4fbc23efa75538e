package analytics

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/baldhumanity/mcc-maze/maze"
	"github.com/baldhumanity/mcc-maze/sim"
)

// CellPixels is the side of one maze cell before scaling.
const CellPixels = 8

const captionHeight = 16

var (
	wallColor     = color.RGBA{0, 0, 0, 255}
	floorColor    = color.RGBA{255, 255, 255, 255}
	pathColor     = color.RGBA{214, 232, 248, 255}
	waypointColor = color.RGBA{250, 190, 90, 255}
	junctureColor = color.RGBA{170, 210, 170, 255}
	traceColor    = color.RGBA{220, 30, 30, 255}
)

// RenderMaze draws a compiled maze with its solution path tinted and an
// optional agent trajectory on top, upscales it by scale and writes caption
// underneath when it is not empty. North is up.
func RenderMaze(ph *maze.Phenotype, trace []sim.Point, scale int, caption string) *image.RGBA {
	w, h := ph.Width*CellPixels+1, ph.Height*CellPixels+1
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: floorColor}, image.Point{}, draw.Src)

	for y := 0; y < ph.Height; y++ {
		for x := 0; x < ph.Width; x++ {
			drawCell(img, ph, x, y)
		}
	}
	for _, p := range trace {
		px := int(p.X * CellPixels)
		py := int((float64(ph.Height) - p.Y) * CellPixels)
		img.SetRGBA(px, py, traceColor)
	}

	if scale > 1 {
		img = transform.Resize(img, w*scale, h*scale, transform.NearestNeighbor)
	}
	if caption == "" {
		return img
	}

	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+captionHeight))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: floorColor}, image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Src)
	d := font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(wallColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, b.Dy()+captionHeight-4),
	}
	d.DrawString(caption)
	return out
}

// drawCell paints one cell. Cell (x, y) occupies pixel rows counted from the
// top, so y is flipped.
func drawCell(img *image.RGBA, ph *maze.Phenotype, x, y int) {
	c := ph.Cell(x, y)
	left := x * CellPixels
	top := (ph.Height - 1 - y) * CellPixels
	right, bottom := left+CellPixels, top+CellPixels

	fill := floorColor
	switch {
	case c.IsWaypoint:
		fill = waypointColor
	case c.IsJuncture:
		fill = junctureColor
	case c.OnPath():
		fill = pathColor
	}
	if fill != floorColor {
		draw.Draw(img, image.Rect(left+1, top+1, right, bottom), &image.Uniform{C: fill}, image.Point{}, draw.Src)
	}

	if c.North {
		hline(img, left, right, top)
	}
	if c.South {
		hline(img, left, right, bottom)
	}
	if c.West {
		vline(img, left, top, bottom)
	}
	if c.East {
		vline(img, right, top, bottom)
	}
}

func hline(img *image.RGBA, x0, x1, y int) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y, wallColor)
	}
}

func vline(img *image.RGBA, x, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x, y, wallColor)
	}
}

// SavePNG writes img to path.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image '%s': %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image '%s': %w", path, err)
	}
	return f.Close()
}
