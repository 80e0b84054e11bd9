package detection

import "github.com/anthonynsimon/bild/parallel"

// crossElement is the 3×3 elliptical structuring element. At this size an
// ellipse inscribed in the square reduces to the centre and its four
// 4-neighbours.
var crossElement = [...]Point{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Erode keeps a foreground pixel only if every in-image pixel under the
// structuring element is foreground. Pixels outside the mask are ignored.
func Erode(m *Mask) *Mask {
	return morph(m, true)
}

// Dilate sets a pixel to foreground if any in-image pixel under the
// structuring element is foreground.
func Dilate(m *Mask) *Mask {
	return morph(m, false)
}

// Open performs a morphological opening (erosion then dilation) with the
// 3×3 elliptical element. It removes speckles smaller than the element and
// restores the size of anything the erosion did not delete. The input mask is
// not modified.
func Open(m *Mask) *Mask {
	return Dilate(Erode(m))
}

func morph(m *Mask, erode bool) *Mask {
	out := NewMask(m.Width, m.Height)
	parallel.Line(m.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < m.Width; x++ {
				v := erode
				for _, d := range crossElement {
					nx, ny := x+d.X, y+d.Y
					if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
						continue
					}
					if m.Pix[ny*m.Width+nx] != erode {
						v = !erode
						break
					}
				}
				out.Pix[y*m.Width+x] = v
			}
		}
	})
	return out
}
