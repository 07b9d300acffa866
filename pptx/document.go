// Package pptx writes PresentationML documents. It emits the raw Office Open
// XML parts directly into the output zip, carrying only the shape vocabulary
// the slide reconstruction pipeline produces: pictures, text boxes, preset
// auto shapes, connectors and tables.
package pptx

import "time"

// Slide canvas dimensions: 10in x 5.625in (16:9).
const (
	SlideWidthEMU  = 10.0 * emuPerInch
	SlideHeightEMU = SlideWidthEMU * 9 / 16
)

// Document is an in-memory presentation ready to be written.
type Document struct {
	Title   string
	Creator string
	Created time.Time
	Slides  []*Slide
}

// AddSlide appends an empty slide and returns it.
func (d *Document) AddSlide() *Slide {
	s := &Slide{}
	d.Slides = append(d.Slides, s)
	return s
}

// Slide holds shapes in z-order: first shape is drawn bottommost.
type Slide struct {
	// Background is a 6-hex RGB fill, empty for none.
	Background string
	Shapes     []Shape
}

// Add appends a shape at the top of the z-order.
func (s *Slide) Add(shape Shape) {
	s.Shapes = append(s.Shapes, shape)
}

// Frame positions a shape on the slide, in EMU.
type Frame struct {
	X, Y, W, H int64
}

// Shape is any element placeable on a slide.
type Shape interface {
	frame() Frame
}

func (f Frame) frame() Frame { return f }

// Align is a PresentationML paragraph alignment value: "l", "ctr" or "r".
type Align string

const (
	AlignLeft   Align = "l"
	AlignCenter Align = "ctr"
	AlignRight  Align = "r"
)

// Anchor is a PresentationML vertical anchor value: "t", "ctr" or "b".
type Anchor string

const (
	AnchorTop    Anchor = "t"
	AnchorMiddle Anchor = "ctr"
	AnchorBottom Anchor = "b"
)

// Run is a styled span of text within a paragraph.
type Run struct {
	Text string
	// SizePt is the font size in points; 0 inherits the default.
	SizePt float64
	Bold   bool
	Italic bool
	// Color is a 6-hex RGB color, empty to inherit.
	Color string
	// Font is the latin typeface name, empty to inherit.
	Font string
}

// Paragraph is one line group inside a text body.
type Paragraph struct {
	Runs  []Run
	Align Align
	// Level is the outline indent level, 0 for none.
	Level int
}

// Picture places PNG-encoded raster data on the slide.
type Picture struct {
	Frame
	Name        string
	Description string
	PNG         []byte
}

// TextBox is a free-standing text shape.
type TextBox struct {
	Frame
	Name       string
	Paragraphs []Paragraph
	Anchor     Anchor
	WordWrap   bool
}

// AutoShape is a preset-geometry vector shape, optionally text-bearing.
type AutoShape struct {
	Frame
	Name string
	// Preset is a PresentationML preset geometry name (rect, roundRect,
	// ellipse, triangle, rightArrow, ...).
	Preset string
	// RotationDeg is clockwise degrees.
	RotationDeg float64
	// FillColor is a 6-hex RGB fill, empty for no fill.
	FillColor string
	// LineColor is a 6-hex RGB outline color, empty for no outline.
	LineColor   string
	LineWidthPt float64
	// CornerAdjust sets the roundRect adj guide as a fraction of the
	// shorter side in [0, 0.5]. Zero keeps the preset default.
	CornerAdjust float64
	Paragraphs   []Paragraph
	Anchor       Anchor
}

// Connector is a straight line, optionally arrow-headed at the tail.
type Connector struct {
	Frame
	Name        string
	RotationDeg float64
	LineColor   string
	LineWidthPt float64
	TailArrow   bool
}

// Cell is one table cell. A cell covered by a neighboring span is marked
// as a horizontal and/or vertical merge continuation and carries no content.
type Cell struct {
	Paragraphs []Paragraph
	// FillColor is a 6-hex RGB fill; empty inherits the table style and
	// NoFill suppresses the fill entirely.
	FillColor string
	NoFill    bool
	// ColSpan/RowSpan are set on the span origin, 0 or 1 for none.
	ColSpan int
	RowSpan int
	// HMerge/VMerge mark continuation cells covered by a span.
	HMerge bool
	VMerge bool
}

// Table is a grid placed in a graphic frame.
type Table struct {
	Frame
	Name string
	// ColWidths and RowHeights are in EMU; their lengths define the grid.
	ColWidths  []int64
	RowHeights []int64
	Rows       [][]Cell
	// BorderColor is a 6-hex RGB color for all cell borders, empty for none.
	BorderColor   string
	BorderWidthPt float64
}
