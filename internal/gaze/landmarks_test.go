package gaze

import (
	"math"
	"testing"
)

const geomTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < geomTolerance
}

func TestEyeRegionMapsFaceRelativePointsToPixels(t *testing.T) {
	faceBox := Rect{MinX: 0.25, MinY: 0.25, Width: 0.5, Height: 0.5}
	points := []Point{
		{X: 0.2, Y: 0.4},
		{X: 0.6, Y: 0.5},
	}
	pad := EyePadding{Horizontal: 0.15, Up: 0.40, Down: 0.25}

	region, ok := EyeRegion(points, faceBox, 640, 480, pad)
	if !ok {
		t.Fatalf("expected valid region")
	}

	// Unpadded box: x [224,352], y [216,240] -> 128x24 pixels.
	if !almostEqual(region.MinX, 224-128*0.15) {
		t.Errorf("MinX = %f, want %f", region.MinX, 224-128*0.15)
	}
	if !almostEqual(region.Width, 128*1.3) {
		t.Errorf("Width = %f, want %f", region.Width, 128*1.3)
	}
	if !almostEqual(region.MinY, 216-24*0.40) {
		t.Errorf("MinY = %f, want %f", region.MinY, 216-24*0.40)
	}
	if !almostEqual(region.Height, 24*(1+0.40+0.25)) {
		t.Errorf("Height = %f, want %f", region.Height, 24*1.65)
	}
}

func TestEyeRegionUpPaddingExceedsDownPadding(t *testing.T) {
	faceBox := Rect{MinX: 0, MinY: 0, Width: 1, Height: 1}
	points := []Point{{X: 0.1, Y: 0.4}, {X: 0.3, Y: 0.5}}
	pad := EyePadding{Horizontal: 0, Up: 0.40, Down: 0.25}

	unpadded, ok := EyeRegion(points, faceBox, 100, 100, EyePadding{})
	if !ok {
		t.Fatalf("expected valid unpadded region")
	}
	padded, ok := EyeRegion(points, faceBox, 100, 100, pad)
	if !ok {
		t.Fatalf("expected valid padded region")
	}

	growUp := unpadded.MinY - padded.MinY
	growDown := padded.MaxY() - unpadded.MaxY()
	if growUp <= growDown {
		t.Errorf("upward growth %f should exceed downward growth %f", growUp, growDown)
	}
}

func TestEyeRegionDegenerateInput(t *testing.T) {
	faceBox := Rect{MinX: 0.2, MinY: 0.2, Width: 0.5, Height: 0.5}

	if _, ok := EyeRegion(nil, faceBox, 640, 480, EyePadding{}); ok {
		t.Errorf("no points should not produce a region")
	}
	if _, ok := EyeRegion([]Point{{X: 0.5, Y: 0.5}}, faceBox, 640, 480, EyePadding{}); ok {
		t.Errorf("single point should not produce a region")
	}
	if _, ok := EyeRegion([]Point{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}}, Rect{}, 640, 480, EyePadding{}); ok {
		t.Errorf("empty face box should not produce a region")
	}
	// Zero vertical spread collapses the box.
	flat := []Point{{X: 0.1, Y: 0.3}, {X: 0.4, Y: 0.3}}
	if _, ok := EyeRegion(flat, faceBox, 640, 480, EyePadding{}); ok {
		t.Errorf("flat contour should not produce a region")
	}
}

func TestEyeAspectRatio(t *testing.T) {
	points := []Point{{X: 0, Y: 0}, {X: 1, Y: 0.2}}
	ar, ok := EyeAspectRatio(points)
	if !ok {
		t.Fatalf("expected valid aspect ratio")
	}
	if !almostEqual(ar, 0.2) {
		t.Errorf("aspect ratio = %f, want 0.2", ar)
	}

	if _, ok := EyeAspectRatio([]Point{{X: 0.5, Y: 0.5}}); ok {
		t.Errorf("single point should not produce an aspect ratio")
	}
	vertical := []Point{{X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.9}}
	if _, ok := EyeAspectRatio(vertical); ok {
		t.Errorf("zero horizontal spread should not produce an aspect ratio")
	}
}

func TestEyesClosed(t *testing.T) {
	low := 0.10
	open := 0.35
	threshold := 0.18

	if !EyesClosed(&low, &low, threshold) {
		t.Errorf("both eyes below threshold should report closed")
	}
	if EyesClosed(&low, &open, threshold) {
		t.Errorf("one open eye should not report closed")
	}
	if EyesClosed(&low, nil, threshold) {
		t.Errorf("unobserved eye should never count as closed")
	}
	if EyesClosed(nil, nil, threshold) {
		t.Errorf("no observed eyes should not report closed")
	}
}
