// Package geometry converts the percentage-space coordinates produced by the
// slide analysis model into pixel and physical document units.
//
// All analysis coordinates are percentages in [0,100] of the slide width or
// height. Upstream values are approximate and may legitimately fall outside
// that range, so every conversion clamps rather than rejects.
package geometry

import "math"

// The output canvas is fixed at 16:9.
const (
	// SlideWidthInches is the physical width of the output slide canvas.
	SlideWidthInches = 10.0
	// SlideHeightInches is derived from the 16:9 aspect ratio.
	SlideHeightInches = SlideWidthInches * 9.0 / 16.0

	PointsPerInch = 72.0

	// SlideHeightPoints is the slide height expressed in typographic points.
	SlideHeightPoints = SlideHeightInches * PointsPerInch
)

// DefaultFontScaleCorrection calibrates model-reported font-size percentages
// against the output renderer's text metrics. The model's estimates are
// tuned to a browser canvas whose line boxes run taller than PowerPoint's,
// so raw percent-of-height sizes come out oversized without it.
// This is an empirical knob: recalibrate it if the output renderer changes.
const DefaultFontScaleCorrection = 0.75

// Axis selects which slide dimension a percentage is relative to.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// PercentToPixel maps a percentage of a pixel dimension to an absolute pixel
// offset, rounded to the nearest pixel and clamped to [0, dimension].
// Malformed inputs (negative, >100, NaN) are silently clamped, never
// rejected: upstream analysis values are estimates, not measurements.
func PercentToPixel(percent float64, dimension int) int {
	if dimension < 0 {
		dimension = 0
	}
	if math.IsNaN(percent) {
		return 0
	}
	px := int(math.Round(percent / 100.0 * float64(dimension)))
	if px < 0 {
		return 0
	}
	if px > dimension {
		return dimension
	}
	return px
}

// PercentToInches maps a percentage of the slide's width or height to inches
// on the output canvas. The percentage is clamped to [0,100] first.
func PercentToInches(percent float64, axis Axis) float64 {
	percent = ClampPercent(percent)
	if axis == AxisX {
		return percent / 100.0 * SlideWidthInches
	}
	return percent / 100.0 * SlideHeightInches
}

// FontSizePercentToPoints converts a font size expressed as a percentage of
// slide height into points, using DefaultFontScaleCorrection.
func FontSizePercentToPoints(percent float64) float64 {
	return FontSizePercentToPointsCorrected(percent, DefaultFontScaleCorrection)
}

// FontSizePercentToPointsCorrected is FontSizePercentToPoints with an
// explicit correction factor, for callers that calibrate their own renderer.
func FontSizePercentToPointsCorrected(percent, correction float64) float64 {
	percent = ClampPercent(percent)
	return SlideHeightPoints * percent / 100.0 * correction
}

// ClampPercent repairs a percentage into [0,100]. NaN becomes 0.
func ClampPercent(percent float64) float64 {
	if math.IsNaN(percent) || percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// Box is a rectangle in percentage space.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Clamped repairs the box so that it lies entirely within the slide:
// the origin is clamped to [0,100] and the extent is shrunk (never shifted)
// so x+width and y+height do not exceed 100.
func (b Box) Clamped() Box {
	x := ClampPercent(b.X)
	y := ClampPercent(b.Y)
	w := ClampPercent(b.Width)
	h := ClampPercent(b.Height)
	if x+w > 100 {
		w = 100 - x
	}
	if y+h > 100 {
		h = 100 - y
	}
	return Box{X: x, Y: y, Width: w, Height: h}
}
