// Package analysis defines the slide-analysis data model produced by the
// multimodal model and validates untrusted payloads into it.
//
// Validation is two layered. The top-level document is checked strictly:
// a malformed analysis cannot be rendered safely, so any violation aborts
// the slide. The rowsJson table payload is JSON quoted inside JSON and is
// generated under far weaker structural constraints, so it gets its own
// permissive parse with per-cell recovery (see rowsjson.go).
package analysis

// Box is a rectangle in percentage space: x/width relative to slide width,
// y/height relative to slide height. Values are estimates and may exceed
// [0,100]; consumers clamp, never trust.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FontWeight is the model's coarse weight bucket.
type FontWeight string

const (
	WeightLight  FontWeight = "light"
	WeightNormal FontWeight = "normal"
	WeightMedium FontWeight = "medium"
	WeightBold   FontWeight = "bold"
	WeightBlack  FontWeight = "black"
)

// Bold reports whether the weight maps to a bold run in the output document.
func (w FontWeight) Bold() bool {
	return w == WeightBold || w == WeightBlack
}

// FontStyle distinguishes serif from sans-serif families.
type FontStyle string

const (
	StyleSerif     FontStyle = "serif"
	StyleSansSerif FontStyle = "sans-serif"
)

// Align is a horizontal text alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// VAlign is a vertical text alignment inside a shape.
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignMiddle VAlign = "middle"
	VAlignBottom VAlign = "bottom"
)

// Role classifies what a text element is on the slide.
type Role string

const (
	RoleTitle    Role = "title"
	RoleSubtitle Role = "subtitle"
	RoleBody     Role = "body"
	RoleFooter   Role = "footer"
	RoleLogo     Role = "logo"
)

// ShapeType enumerates the supported vector shapes.
type ShapeType string

const (
	ShapeRect       ShapeType = "rect"
	ShapeRoundRect  ShapeType = "roundRect"
	ShapeEllipse    ShapeType = "ellipse"
	ShapeTriangle   ShapeType = "triangle"
	ShapeLine       ShapeType = "line"
	ShapeArrow      ShapeType = "arrow"
	ShapeRightArrow ShapeType = "rightArrow"
	ShapeLeftArrow  ShapeType = "leftArrow"
	ShapeUpArrow    ShapeType = "upArrow"
	ShapeDownArrow  ShapeType = "downArrow"
)

// SlideAnalysis is the validated description of one slide.
// Immutable once validated; consumed by exactly one assembly.
type SlideAnalysis struct {
	// BackgroundColor is a 6-hex-digit RGB color without '#'.
	BackgroundColor string          `json:"backgroundColor"`
	TextElements    []TextElement   `json:"textElements"`
	GraphicRegions  []GraphicRegion `json:"graphicRegions"`
	ShapeElements   []ShapeElement  `json:"shapeElements,omitempty"`
	TableElements   []TableElement  `json:"tableElements,omitempty"`
	// SlideTitle is used for output filenames only.
	SlideTitle string `json:"slideTitle"`
}

// TextElement is a standalone text box.
type TextElement struct {
	Content string `json:"content"`
	Box
	// FontSize is a percentage of slide height.
	FontSize   float64    `json:"fontSize"`
	FontWeight FontWeight `json:"fontWeight"`
	FontStyle  FontStyle  `json:"fontStyle"`
	Color      string     `json:"color"`
	Align      Align      `json:"align"`
	Role       Role       `json:"role"`
	// IndentLevel is the bullet nesting depth, 0 for none.
	IndentLevel int `json:"indentLevel,omitempty"`
}

// GraphicRegion marks non-reproducible visual content to be carried over
// as a raster crop. Description is used only for diagnostics and skip logs.
type GraphicRegion struct {
	Description string `json:"description"`
	Box
}

// ShapeText is text embedded in a shape; rendered as part of the shape,
// never as a separate overlapping text box.
type ShapeText struct {
	Content    string     `json:"content"`
	Color      string     `json:"color,omitempty"`
	FontSize   float64    `json:"fontSize,omitempty"`
	FontWeight FontWeight `json:"fontWeight,omitempty"`
	Align      Align      `json:"align,omitempty"`
	VAlign     VAlign     `json:"valign,omitempty"`
}

// ShapeElement is a vector shape, optionally text-bearing.
type ShapeElement struct {
	Type ShapeType `json:"type"`
	Box
	Text      *ShapeText `json:"text,omitempty"`
	FillColor string     `json:"fillColor,omitempty"`
	LineColor string     `json:"lineColor,omitempty"`
	// LineWidth is in points.
	LineWidth float64 `json:"lineWidth,omitempty"`
	// Rotate is clockwise degrees.
	Rotate float64 `json:"rotate,omitempty"`
	// CornerRadius applies to roundRect only, as a fraction of the
	// shorter side in [0,0.5].
	CornerRadius float64 `json:"cornerRadius,omitempty"`
}

// TableElement positions a table whose rows arrive as string-encoded JSON.
type TableElement struct {
	Box
	// RowsJSON is a JSON-encoded 2-D array of TableCell. It originates
	// from the same untrusted source as the rest of the analysis but is
	// serialized JSON-within-JSON, so it is parsed independently.
	RowsJSON string `json:"rowsJson"`
	// RowHeights are percentages of slide height, one per row.
	RowHeights []float64 `json:"rowHeights,omitempty"`
	HeaderRows int       `json:"headerRows,omitempty"`
	// FontSize is a percentage of slide height for all cells.
	FontSize    float64 `json:"fontSize,omitempty"`
	BorderColor string  `json:"borderColor,omitempty"`
}

// FillTransparent is the sentinel cell fill meaning "no fill at all",
// distinct from any actual color value.
const FillTransparent = "transparent"

// TableCell is one parsed cell of a rowsJson grid. Optional fields keep
// their zero value when absent or wrong-typed in the source.
type TableCell struct {
	Text string `json:"text"`
	// Colspan/Rowspan are 0 when absent; renderers treat 0 as 1.
	Colspan int  `json:"colspan,omitempty"`
	Rowspan int  `json:"rowspan,omitempty"`
	Bold    bool `json:"bold,omitempty"`
	// FillColor may be a hex color or the FillTransparent sentinel.
	FillColor string `json:"fillColor,omitempty"`
	Color     string `json:"color,omitempty"`
	Align     Align  `json:"align,omitempty"`
}
