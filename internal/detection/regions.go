package detection

import (
	"errors"
	"fmt"
)

// ErrMalformedMask is returned when a mask's sample count does not match its
// dimensions.
var ErrMalformedMask = errors.New("malformed mask")

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Bounds is an axis-aligned bounding box in pixel coordinates. (X, Y) is the
// top-left pixel; Width and Height count pixels, so a single pixel has
// Width 1 and Height 1.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Region is one 8-connected foreground component of a mask.
type Region struct {
	// Boundary is the ordered outer boundary, clockwise on screen, starting at
	// the component's top-left pixel. Pixels may repeat where the component
	// is one pixel thick.
	Boundary []Point `json:"boundary"`

	// Box is the component's bounding box.
	Box Bounds `json:"box"`

	// FilledArea is the number of pixels enclosed by the outer boundary: the
	// component itself plus any holes inside it.
	FilledArea int `json:"filled_area"`

	// PixelCount is the number of foreground pixels in the component.
	PixelCount int `json:"pixel_count"`
}

// moore lists the 8 neighbour offsets clockwise on screen, starting west.
var moore = [8]Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// ExtractRegions finds every 8-connected foreground component of m.
//
// Each component is reported once with its outer boundary; holes never yield
// regions of their own. A component sitting inside another component's hole
// is reported separately. Regions come back in raster order of their first
// pixel, but callers should treat the order as unspecified.
//
// # Algorithm
//
//  1. Labelling: scan in raster order and flood each unlabelled foreground
//     pixel with an explicit stack (8-connectivity)
//  2. Filled area: within the bounding box grown by one pixel, flood the
//     outside (4-connectivity) through every pixel not in the component;
//     whatever the flood cannot reach is inside the outer boundary
//  3. Boundary: Moore-neighbour tracing from the first pixel, stopping when
//     the start transition repeats
//
// Returns an error wrapping ErrMalformedMask if m is nil or inconsistent.
func ExtractRegions(m *Mask) ([]Region, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	width, height := m.Width, m.Height
	labels := make([]int32, width*height)
	regions := make([]Region, 0)
	stack := make([]int, 0, 64)

	for start := range m.Pix {
		if !m.Pix[start] || labels[start] != 0 {
			continue
		}
		id := int32(len(regions) + 1)
		minX, minY := width, height
		maxX, maxY := -1, -1
		count := 0

		labels[start] = id
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%width, i/width
			count++
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for _, d := range moore {
				nx, ny := x+d.X, y+d.Y
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if m.Pix[j] && labels[j] == 0 {
					labels[j] = id
					stack = append(stack, j)
				}
			}
		}

		box := Bounds{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
		first := Point{X: start % width, Y: start / width}
		regions = append(regions, Region{
			Boundary:   traceBoundary(labels, width, height, id, first, count),
			Box:        box,
			FilledArea: filledArea(labels, width, height, id, box),
			PixelCount: count,
		})
	}

	return regions, nil
}

// filledArea counts the pixels of box that cannot be reached from outside
// the box by 4-connected steps through pixels not labelled id.
func filledArea(labels []int32, width, height int, id int32, box Bounds) int {
	ox, oy := box.X-1, box.Y-1
	ew, eh := box.Width+2, box.Height+2
	outside := make([]bool, ew*eh)
	stack := make([]int, 0, 2*(ew+eh))

	passable := func(ex, ey int) bool {
		x, y := ex+ox, ey+oy
		if x < 0 || y < 0 || x >= width || y >= height {
			return true
		}
		return labels[y*width+x] != id
	}

	// The grown frame lies outside the component's box, so it is all passable.
	for ex := 0; ex < ew; ex++ {
		for _, ey := range []int{0, eh - 1} {
			if i := ey*ew + ex; !outside[i] {
				outside[i] = true
				stack = append(stack, i)
			}
		}
	}
	for ey := 1; ey < eh-1; ey++ {
		for _, ex := range []int{0, ew - 1} {
			if i := ey*ew + ex; !outside[i] {
				outside[i] = true
				stack = append(stack, i)
			}
		}
	}

	reached := 0
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		ex, ey := i%ew, i/ew
		for _, d := range [4]Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			nx, ny := ex+d.X, ey+d.Y
			if nx < 0 || ny < 0 || nx >= ew || ny >= eh {
				continue
			}
			j := ny*ew + nx
			if !outside[j] && passable(nx, ny) {
				outside[j] = true
				stack = append(stack, j)
			}
		}
	}

	return ew*eh - reached
}

// traceBoundary walks the outer boundary of component id clockwise from
// start, which must be the component's first pixel in raster order.
func traceBoundary(labels []int32, width, height int, id int32, start Point, count int) []Point {
	inside := func(p Point) bool {
		if p.X < 0 || p.Y < 0 || p.X >= width || p.Y >= height {
			return false
		}
		return labels[p.Y*width+p.X] == id
	}

	boundary := []Point{start}
	cur := start
	// The west neighbour of the first pixel is never part of the component.
	back := 0
	limit := 4*count + 8

	for step := 0; step < limit; step++ {
		found := false
		var next Point
		var nextBack int
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			cand := Point{X: cur.X + moore[d].X, Y: cur.Y + moore[d].Y}
			if !inside(cand) {
				continue
			}
			prev := moore[(d+7)%8]
			// Direction from cand to the last background cell examined.
			nextBack = direction(cur.X+prev.X-cand.X, cur.Y+prev.Y-cand.Y)
			next = cand
			found = true
			break
		}
		if !found {
			// Isolated pixel.
			break
		}
		if cur == start && len(boundary) > 1 && next == boundary[1] {
			boundary = boundary[:len(boundary)-1]
			break
		}
		boundary = append(boundary, next)
		cur, back = next, nextBack
	}

	return boundary
}

func direction(dx, dy int) int {
	for i, d := range moore {
		if d.X == dx && d.Y == dy {
			return i
		}
	}
	panic(fmt.Sprintf("detection: (%d,%d) is not a neighbour offset", dx, dy))
}
