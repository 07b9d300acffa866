package assemble

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// TextMeasurer measures rendered text width to decide whether a text element
// needs its font size reduced to stay inside its box. The bundled Go fonts
// stand in for the document fonts; their metrics are close enough for a
// fit-or-shrink decision.
type TextMeasurer struct {
	regular *truetype.Font
	bold    *truetype.Font
	ctx     *gg.Context
}

// NewTextMeasurer parses the bundled fallback fonts.
func NewTextMeasurer() (*TextMeasurer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	// The context is only a measuring surface; 1x1 is enough.
	return &TextMeasurer{regular: regular, bold: bold, ctx: gg.NewContext(1, 1)}, nil
}

func (m *TextMeasurer) font(bold bool) *truetype.Font {
	if bold {
		return m.bold
	}
	return m.regular
}

// MeasureString returns the rendered width and height of text at sizePt,
// in points (the measuring context runs at 72 DPI, so pixels equal points).
func (m *TextMeasurer) MeasureString(text string, sizePt float64, bold bool) (float64, float64) {
	m.ctx.SetFontFace(truetype.NewFace(m.font(bold), &truetype.Options{Size: sizePt}))
	return m.ctx.MeasureString(text)
}

// FitFontSize returns the largest font size (≤ sizePt) at which text fits in
// a box of boxWidthPt x boxHeightPt points.
func (m *TextMeasurer) FitFontSize(text string, sizePt float64, bold bool, boxWidthPt, boxHeightPt float64) float64 {
	width, height := m.MeasureString(text, sizePt, bold)
	if width <= boxWidthPt && height <= boxHeightPt {
		return sizePt
	}

	low, high := 1.0, sizePt
	for low <= high {
		mid := (low + high) / 2
		width, height = m.MeasureString(text, mid, bold)
		if width <= boxWidthPt && height <= boxHeightPt {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	if high < 1 {
		return 1
	}
	return high
}
