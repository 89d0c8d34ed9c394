package gaze

import "math"

// EyePadding expands an eye bounding box by fractions of its unpadded
// extent. Padding is asymmetric vertically: the upper fraction must be at
// least the lower fraction so the padded region accommodates eyelid
// occlusion of the iris.
type EyePadding struct {
	Horizontal float64
	Up         float64
	Down       float64
}

// EyeRegion maps face-relative eye contour points into an image-pixel
// rectangle expanded by pad. Points are normalized to the face bounding
// box, which is itself normalized to the frame. Returns ok=false for
// degenerate input: fewer than two points, an empty face box, or a zero
// width/height contour.
func EyeRegion(points []Point, faceBox Rect, frameWidth, frameHeight int, pad EyePadding) (Rect, bool) {
	if len(points) < 2 || faceBox.Empty() || frameWidth <= 0 || frameHeight <= 0 {
		return Rect{}, false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		// Face-relative -> frame-relative -> pixels.
		x := (faceBox.MinX + p.X*faceBox.Width) * float64(frameWidth)
		y := (faceBox.MinY + p.Y*faceBox.Height) * float64(frameHeight)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}

	width := maxX - minX
	height := maxY - minY
	if width <= 0 || height <= 0 {
		return Rect{}, false
	}

	return Rect{
		MinX:   minX - width*pad.Horizontal,
		MinY:   minY - height*pad.Up,
		Width:  width * (1 + 2*pad.Horizontal),
		Height: height * (1 + pad.Up + pad.Down),
	}, true
}

// EyeAspectRatio computes the vertical-to-horizontal spread of an eye
// contour in face-relative coordinates. A small ratio indicates a closed
// or closing eye. Returns ok=false for degenerate input (fewer than two
// points or zero horizontal spread).
func EyeAspectRatio(points []Point) (float64, bool) {
	if len(points) < 2 {
		return 0, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	spreadX := maxX - minX
	if spreadX <= 0 {
		return 0, false
	}
	return (maxY - minY) / spreadX, true
}

// EyesClosed reports whether both observed eyes fall below the aspect
// ratio threshold. An unobserved eye (nil) does not count as closed; both
// eyes must be observed and below threshold.
func EyesClosed(leftAspect, rightAspect *float64, threshold float64) bool {
	if leftAspect == nil || rightAspect == nil {
		return false
	}
	return *leftAspect < threshold && *rightAspect < threshold
}
