package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay is an RGB annotation canvas built on top of a grayscale raster.
//
// The canvas always has the raster's dimensions and is fully opaque. Drawing
// outside the canvas is clipped silently.
type Overlay struct {
	img *image.NRGBA
}

// NewOverlay creates a canvas showing base as a gray RGB image.
func NewOverlay(base *Raster) *Overlay {
	return &Overlay{img: imaging.Clone(base.Gray())}
}

// Image returns the underlying canvas.
func (o *Overlay) Image() *image.NRGBA {
	return o.img
}

func (o *Overlay) set(x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(o.img.Rect) {
		return
	}
	o.img.SetNRGBA(x, y, c)
}

// DrawPath stamps every point of an 8-connected path with a square brush of
// the given thickness. Boundaries produced by region tracing are already
// 8-connected, so no interpolation between points is needed.
func (o *Overlay) DrawPath(points []image.Point, c color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	lo := -(thickness - 1) / 2
	hi := thickness / 2
	for _, p := range points {
		for dy := lo; dy <= hi; dy++ {
			for dx := lo; dx <= hi; dx++ {
				o.set(p.X+dx, p.Y+dy, nc)
			}
		}
	}
}

// DrawCircle draws a ring of the given thickness centred on (cx, cy).
// A pixel is painted when its distance from the centre lies within
// thickness/2 of the radius.
func (o *Overlay) DrawCircle(cx, cy, radius float64, c color.Color, thickness float64) {
	if thickness <= 0 {
		thickness = 1
	}
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	half := thickness / 2
	reach := radius + half
	x0 := int(math.Floor(cx - reach))
	x1 := int(math.Ceil(cx + reach))
	y0 := int(math.Floor(cy - reach))
	y1 := int(math.Ceil(cy + reach))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			if math.Abs(d-radius) <= half {
				o.set(x, y, nc)
			}
		}
	}
}

// DrawLabel writes text with its top-left corner at (x, y) using the 7×13
// bitmap face. The pixels under the text are darkened first so the label
// stays legible on bright backgrounds.
func (o *Overlay) DrawLabel(x, y int, text string, c color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  o.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x+1, y+face.Ascent+1),
	}
	box := image.Rect(x, y, x+d.MeasureString(text).Ceil()+2, y+face.Height+2).Intersect(o.img.Rect)

	shade := colorful.Color{R: 0, G: 0, B: 0}
	for py := box.Min.Y; py < box.Max.Y; py++ {
		for px := box.Min.X; px < box.Max.X; px++ {
			under, _ := colorful.MakeColor(o.img.NRGBAAt(px, py))
			r, g, b := under.BlendRgb(shade, 0.6).Clamped().RGB255()
			o.img.SetNRGBA(px, py, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}

	d.DrawString(text)
}

// ParseColor parses a "#RRGGBB" hex colour into an opaque colour.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// EncodePNGBase64 returns img as a base64-encoded PNG, the form used when
// overlays are returned inline to MCP clients.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Save writes img to path, choosing the encoder from the extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
