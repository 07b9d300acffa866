// Package assemble converts a validated slide analysis and its extracted
// graphics into a presentation slide. Layering is fixed: background, then
// graphics, then shapes, then free text, then tables, so text always renders
// above the imagery it annotates.
package assemble

import (
	"fmt"
	"log"
	"strings"

	"github.com/slidecraft-project/slidecraft/analysis"
	"github.com/slidecraft-project/slidecraft/extract"
	"github.com/slidecraft-project/slidecraft/geometry"
	"github.com/slidecraft-project/slidecraft/pptx"
)

const (
	// ShapeTextHeightRatio sets the default embedded-text size as a fraction
	// of the shape's height when the analysis gives no explicit size.
	// Empirically matched against how the model draws labels inside shapes.
	ShapeTextHeightRatio = 0.6

	// IndentStepPercent shifts an indented text element right by this many
	// percent of slide width per indent level.
	IndentStepPercent = 4.0

	// MinIndentedWidthPercent is the narrowest a text box may become after
	// indentation. Below this the indent is capped instead.
	MinIndentedWidthPercent = 10.0
)

// Assembler builds slides from analyses.
type Assembler struct {
	// FontScaleCorrection calibrates analysis font percentages to the
	// output renderer. See geometry.DefaultFontScaleCorrection.
	FontScaleCorrection float64
	measurer            *TextMeasurer
}

// New returns an Assembler with the default calibration and a text measurer.
func New() (*Assembler, error) {
	m, err := NewTextMeasurer()
	if err != nil {
		return nil, err
	}
	return &Assembler{FontScaleCorrection: geometry.DefaultFontScaleCorrection, measurer: m}, nil
}

// BuildSlide appends one reconstructed slide to doc.
func (a *Assembler) BuildSlide(doc *pptx.Document, sa *analysis.SlideAnalysis, graphics []*extract.Graphic) *pptx.Slide {
	slide := doc.AddSlide()
	if sa.BackgroundColor != "" {
		slide.Background = sa.BackgroundColor
	}

	for _, g := range graphics {
		slide.Add(a.buildPicture(g))
	}
	for _, se := range sa.ShapeElements {
		slide.Add(a.buildShape(se))
	}
	for _, te := range sa.TextElements {
		slide.Add(a.buildTextBox(te))
	}
	for _, te := range sa.TableElements {
		table, err := a.buildTable(te)
		if err != nil {
			log.Printf("Skipping table at (%.1f, %.1f): %v", te.X, te.Y, err)
			continue
		}
		slide.Add(table)
	}
	return slide
}

// frameFor converts a percentage box to an EMU frame, clamped onto the slide.
func frameFor(b analysis.Box) pptx.Frame {
	clamped := geometry.Box{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}.Clamped()
	return pptx.Frame{
		X: pptx.Inch(geometry.PercentToInches(clamped.X, geometry.AxisX)),
		Y: pptx.Inch(geometry.PercentToInches(clamped.Y, geometry.AxisY)),
		W: pptx.Inch(geometry.PercentToInches(clamped.Width, geometry.AxisX)),
		H: pptx.Inch(geometry.PercentToInches(clamped.Height, geometry.AxisY)),
	}
}

func (a *Assembler) buildPicture(g *extract.Graphic) *pptx.Picture {
	return &pptx.Picture{
		Frame:       frameFor(g.Region.Box),
		Description: g.Region.Description,
		PNG:         g.PNG,
	}
}

// --- Text ---

func mapAlign(al analysis.Align) pptx.Align {
	switch al {
	case analysis.AlignCenter:
		return pptx.AlignCenter
	case analysis.AlignRight:
		return pptx.AlignRight
	default:
		return pptx.AlignLeft
	}
}

func mapVAlign(va analysis.VAlign) pptx.Anchor {
	switch va {
	case analysis.VAlignTop:
		return pptx.AnchorTop
	case analysis.VAlignBottom:
		return pptx.AnchorBottom
	default:
		return pptx.AnchorMiddle
	}
}

// typefaceFor maps the analysis font classification to a concrete document
// typeface. Logos get Arial unconditionally: the model tends to report
// decorative logo type as serif, which reproduces badly.
func typefaceFor(te analysis.TextElement) string {
	if te.Role == analysis.RoleLogo {
		return "Arial"
	}
	if te.FontStyle == analysis.StyleSerif {
		return "Times New Roman"
	}
	return "Arial"
}

func (a *Assembler) buildTextBox(te analysis.TextElement) *pptx.TextBox {
	box := te.Box
	if te.IndentLevel > 0 {
		shift := IndentStepPercent * float64(te.IndentLevel)
		if box.Width-shift < MinIndentedWidthPercent {
			shift = box.Width - MinIndentedWidthPercent
			if shift < 0 {
				shift = 0
			}
		}
		box.X += shift
		box.Width -= shift
	}

	sizePt := geometry.FontSizePercentToPointsCorrected(te.FontSize, a.FontScaleCorrection)
	sizePt = a.fitToWidth(te.Content, sizePt, te.FontWeight.Bold(), box)

	var paragraphs []pptx.Paragraph
	for _, line := range strings.Split(te.Content, "\n") {
		paragraphs = append(paragraphs, pptx.Paragraph{
			Align: mapAlign(te.Align),
			Level: te.IndentLevel,
			Runs: []pptx.Run{{
				Text:   line,
				SizePt: sizePt,
				Bold:   te.FontWeight.Bold(),
				Color:  te.Color,
				Font:   typefaceFor(te),
			}},
		})
	}

	return &pptx.TextBox{
		Frame:      frameFor(box),
		Paragraphs: paragraphs,
		Anchor:     pptx.AnchorTop,
		WordWrap:   true,
	}
}

// fitToWidth shrinks sizePt until the widest line of content fits the box
// width. Height is left to word wrap.
func (a *Assembler) fitToWidth(content string, sizePt float64, bold bool, box analysis.Box) float64 {
	if a.measurer == nil || sizePt <= 0 {
		return sizePt
	}
	clamped := geometry.Box{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}.Clamped()
	widthPt := geometry.PercentToInches(clamped.Width, geometry.AxisX) * geometry.PointsPerInch
	if widthPt <= 0 {
		return sizePt
	}

	widest := ""
	widestW := 0.0
	for _, line := range strings.Split(content, "\n") {
		w, _ := a.measurer.MeasureString(line, sizePt, bold)
		if w > widestW {
			widest, widestW = line, w
		}
	}
	if widestW <= widthPt {
		return sizePt
	}
	// Wrapping handles multi-word overflow; only shrink when a single word
	// cannot fit, because PowerPoint will not break within a word.
	longestWord := ""
	longestW := 0.0
	for _, word := range strings.Fields(widest) {
		w, _ := a.measurer.MeasureString(word, sizePt, bold)
		if w > longestW {
			longestWord, longestW = word, w
		}
	}
	if longestW <= widthPt {
		return sizePt
	}
	return a.measurer.FitFontSize(longestWord, sizePt, bold, widthPt, geometry.SlideHeightPoints)
}

// --- Shapes ---

func (a *Assembler) buildShape(se analysis.ShapeElement) pptx.Shape {
	frame := frameFor(se.Box)

	switch se.Type {
	case analysis.ShapeLine, analysis.ShapeArrow:
		return &pptx.Connector{
			Frame:       frame,
			RotationDeg: se.Rotate,
			LineColor:   se.LineColor,
			LineWidthPt: se.LineWidth,
			TailArrow:   se.Type == analysis.ShapeArrow,
		}
	}

	shape := &pptx.AutoShape{
		Frame:        frame,
		Preset:       string(se.Type),
		RotationDeg:  se.Rotate,
		FillColor:    se.FillColor,
		LineColor:    se.LineColor,
		LineWidthPt:  se.LineWidth,
		CornerAdjust: se.CornerRadius,
	}

	if se.Text != nil && se.Text.Content != "" {
		sizePt := a.shapeTextSize(se)
		shape.Anchor = mapVAlign(se.Text.VAlign)
		align := mapAlign(se.Text.Align)
		if se.Text.Align == "" {
			align = pptx.AlignCenter
		}
		for _, line := range strings.Split(se.Text.Content, "\n") {
			shape.Paragraphs = append(shape.Paragraphs, pptx.Paragraph{
				Align: align,
				Runs: []pptx.Run{{
					Text:   line,
					SizePt: sizePt,
					Bold:   se.Text.FontWeight.Bold(),
					Color:  se.Text.Color,
				}},
			})
		}
	}
	return shape
}

func (a *Assembler) shapeTextSize(se analysis.ShapeElement) float64 {
	if se.Text.FontSize > 0 {
		return geometry.FontSizePercentToPointsCorrected(se.Text.FontSize, a.FontScaleCorrection)
	}
	// Labels drawn inside shapes scale with the shape, not the slide.
	return geometry.FontSizePercentToPointsCorrected(se.Box.Height*ShapeTextHeightRatio, a.FontScaleCorrection)
}

// --- Tables ---

func (a *Assembler) buildTable(te analysis.TableElement) (*pptx.Table, error) {
	grid, err := analysis.ParseRows(te.RowsJSON)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("table has no rows")
	}

	rows, sources, numCols := expandSpans(grid)
	if numCols == 0 {
		return nil, fmt.Errorf("table has no columns")
	}

	frame := frameFor(te.Box)
	sizePt := 0.0
	if te.FontSize > 0 {
		sizePt = geometry.FontSizePercentToPointsCorrected(te.FontSize, a.FontScaleCorrection)
	}

	for r := range rows {
		header := r < te.HeaderRows
		for c := range rows[r] {
			styleCell(&rows[r][c], sources[r][c], header, sizePt)
		}
	}

	colWidth := frame.W / int64(numCols)
	colWidths := make([]int64, numCols)
	for i := range colWidths {
		colWidths[i] = colWidth
	}

	rowHeights := make([]int64, len(rows))
	for i := range rowHeights {
		if i < len(te.RowHeights) && te.RowHeights[i] > 0 {
			rowHeights[i] = pptx.Inch(geometry.PercentToInches(te.RowHeights[i], geometry.AxisY))
		} else {
			rowHeights[i] = frame.H / int64(len(rows))
		}
	}

	return &pptx.Table{
		Frame:       frame,
		ColWidths:   colWidths,
		RowHeights:  rowHeights,
		Rows:        rows,
		BorderColor: te.BorderColor,
	}, nil
}

// expandSpans lays the parsed grid out on a rectangular canvas, inserting
// merge-continuation cells under every colspan/rowspan. It also returns a
// parallel matrix mapping each origin cell back to its parsed source.
func expandSpans(grid [][]analysis.TableCell) ([][]pptx.Cell, [][]*analysis.TableCell, int) {
	numCols := 0
	for _, row := range grid {
		width := 0
		for _, cell := range row {
			width += spanOf(cell.Colspan)
		}
		if width > numCols {
			numCols = width
		}
	}

	rows := make([][]pptx.Cell, len(grid))
	sources := make([][]*analysis.TableCell, len(grid))
	occupied := make([][]bool, len(grid))
	for i := range rows {
		rows[i] = make([]pptx.Cell, numCols)
		sources[i] = make([]*analysis.TableCell, numCols)
		occupied[i] = make([]bool, numCols)
	}

	for r, row := range grid {
		c := 0
		for i := range row {
			src := &grid[r][i]
			for c < numCols && occupied[r][c] {
				c++
			}
			if c >= numCols {
				break
			}
			// Spans that overrun the grid edge are truncated so the
			// emitted gridSpan/rowSpan never exceeds the actual grid.
			colspan := spanOf(src.Colspan)
			if colspan > numCols-c {
				colspan = numCols - c
			}
			rowspan := spanOf(src.Rowspan)
			if rowspan > len(grid)-r {
				rowspan = len(grid) - r
			}

			origin := &rows[r][c]
			origin.ColSpan = colspan
			origin.RowSpan = rowspan
			origin.Paragraphs = []pptx.Paragraph{{
				Align: mapAlign(src.Align),
				Runs:  []pptx.Run{{Text: src.Text}},
			}}
			sources[r][c] = src

			for dr := 0; dr < rowspan; dr++ {
				for dc := 0; dc < colspan; dc++ {
					occupied[r+dr][c+dc] = true
					if dr == 0 && dc == 0 {
						continue
					}
					cont := &rows[r+dr][c+dc]
					cont.HMerge = dc > 0
					cont.VMerge = dr > 0
				}
			}
			c += colspan
		}
	}
	return rows, sources, numCols
}

func spanOf(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func styleCell(cell *pptx.Cell, src *analysis.TableCell, header bool, sizePt float64) {
	if src == nil || cell.HMerge || cell.VMerge {
		return
	}
	bold := src.Bold || header
	for p := range cell.Paragraphs {
		for ri := range cell.Paragraphs[p].Runs {
			run := &cell.Paragraphs[p].Runs[ri]
			run.Bold = bold
			run.SizePt = sizePt
			run.Color = src.Color
		}
	}
	// The transparent sentinel sets no fill at all, so the cell keeps
	// whatever the table style inherits.
	if src.FillColor != "" && src.FillColor != analysis.FillTransparent {
		cell.FillColor = src.FillColor
	}
}
