package pptx

import (
	"archive/zip"
	"fmt"
	"strings"
)

func (w *pptxWriter) writeSlide(zw *zip.Writer, slide *Slide, slideNum int) error {
	var shapesXML strings.Builder
	shapeID := 2 // 1 is reserved for the group shape
	relIdx := 2  // rId1 is slideLayout

	for _, shape := range slide.Shapes {
		switch s := shape.(type) {
		case *Picture:
			shapesXML.WriteString(w.writePictureXML(s, &shapeID, relIdx))
			relIdx++
		case *TextBox:
			shapesXML.WriteString(w.writeTextBoxXML(s, &shapeID))
		case *AutoShape:
			shapesXML.WriteString(w.writeAutoShapeXML(s, &shapeID))
		case *Connector:
			shapesXML.WriteString(w.writeConnectorXML(s, &shapeID))
		case *Table:
			shapesXML.WriteString(w.writeTableXML(s, &shapeID))
		}
	}

	bgXML := ""
	if slide.Background != "" {
		bgXML = fmt.Sprintf(`    <p:bg>
      <p:bgPr>
        <a:solidFill><a:srgbClr val="%s"/></a:solidFill>
        <a:effectLst/>
      </p:bgPr>
    </p:bg>
`, slide.Background)
	}

	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">
  <p:cSld>
%s    <p:spTree>
      <p:nvGrpSpPr>
        <p:cNvPr id="1" name=""/>
        <p:cNvGrpSpPr/>
        <p:nvPr/>
      </p:nvGrpSpPr>
      <p:grpSpPr>
        <a:xfrm>
          <a:off x="0" y="0"/>
          <a:ext cx="0" cy="0"/>
          <a:chOff x="0" y="0"/>
          <a:chExt cx="0" cy="0"/>
        </a:xfrm>
      </p:grpSpPr>
%s    </p:spTree>
  </p:cSld>
  <p:clrMapOvr>
    <a:masterClrMapping/>
  </p:clrMapOvr>
</p:sld>`, nsDrawingML, nsOfficeDocRels, nsPresentationML, bgXML, shapesXML.String())

	return writeRawXMLToZip(zw, fmt.Sprintf("ppt/slides/slide%d.xml", slideNum), content)
}

func (w *pptxWriter) writeSlideRels(zw *zip.Writer, slide *Slide, slideNum int) error {
	var rels strings.Builder
	fmt.Fprintf(&rels, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="%s">
  <Relationship Id="rId1" Type="%s" Target="../slideLayouts/slideLayout1.xml"/>`,
		nsRelationships, relTypeSlideLayout)

	relIdx := 2
	for _, shape := range slide.Shapes {
		pic, ok := shape.(*Picture)
		if !ok {
			continue
		}
		fmt.Fprintf(&rels, `
  <Relationship Id="rId%d" Type="%s" Target="../media/image%d.png"/>`,
			relIdx, relTypeImage, w.imageIndex(pic))
		relIdx++
	}

	rels.WriteString(`
</Relationships>`)
	return writeRawXMLToZip(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", slideNum), rels.String())
}

// rotAttr builds the rot attribute for <a:xfrm>, in 60000ths of a degree.
func rotAttr(deg float64) string {
	if deg == 0 {
		return ""
	}
	return fmt.Sprintf(` rot="%d"`, int64(deg*60000))
}

// --- Picture XML ---

func (w *pptxWriter) writePictureXML(s *Picture, shapeID *int, relIdx int) string {
	id := *shapeID
	*shapeID++

	name := s.Name
	if name == "" {
		name = fmt.Sprintf("Picture %d", id)
	}

	return fmt.Sprintf(`      <p:pic>
        <p:nvPicPr>
          <p:cNvPr id="%d" name="%s" descr="%s"/>
          <p:cNvPicPr>
            <a:picLocks noChangeAspect="1"/>
          </p:cNvPicPr>
          <p:nvPr/>
        </p:nvPicPr>
        <p:blipFill>
          <a:blip r:embed="rId%d"/>
          <a:stretch>
            <a:fillRect/>
          </a:stretch>
        </p:blipFill>
        <p:spPr>
          <a:xfrm>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="rect">
            <a:avLst/>
          </a:prstGeom>
        </p:spPr>
      </p:pic>
`, id, xmlEscape(name), xmlEscape(s.Description), relIdx, s.X, s.Y, s.W, s.H)
}

// --- Text Box XML ---

func (w *pptxWriter) writeTextBoxXML(s *TextBox, shapeID *int) string {
	id := *shapeID
	*shapeID++

	name := s.Name
	if name == "" {
		name = fmt.Sprintf("TextBox %d", id)
	}

	var paragraphsXML strings.Builder
	for _, para := range s.Paragraphs {
		paragraphsXML.WriteString(writeParagraphXML(para))
	}

	return fmt.Sprintf(`      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="%d" name="%s"/>
          <p:cNvSpPr txBox="1"/>
          <p:nvPr/>
        </p:nvSpPr>
        <p:spPr>
          <a:xfrm>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="rect">
            <a:avLst/>
          </a:prstGeom>
        </p:spPr>
        <p:txBody>
          <a:bodyPr wrap="%s"%s/>
          <a:lstStyle/>
%s        </p:txBody>
      </p:sp>
`, id, xmlEscape(name), s.X, s.Y, s.W, s.H,
		boolToWrap(s.WordWrap), anchorAttr(s.Anchor), paragraphsXML.String())
}

func boolToWrap(wrap bool) string {
	if wrap {
		return "square"
	}
	return "none"
}

func anchorAttr(anchor Anchor) string {
	if anchor == "" {
		return ""
	}
	return fmt.Sprintf(` anchor="%s"`, string(anchor))
}

func writeParagraphXML(para Paragraph) string {
	attrs := ""
	if para.Align != "" {
		attrs = fmt.Sprintf(` algn="%s"`, para.Align)
	}
	if para.Level > 0 {
		attrs += fmt.Sprintf(` lvl="%d"`, para.Level)
	}

	var runsXML strings.Builder
	for _, run := range para.Runs {
		runsXML.WriteString(writeRunXML(run))
	}

	return fmt.Sprintf(`          <a:p>
            <a:pPr%s/>
%s          </a:p>
`, attrs, runsXML.String())
}

func writeRunXML(run Run) string {
	attrs := ` lang="en-US" dirty="0"`
	if run.SizePt > 0 {
		// sz is in hundredths of a point.
		attrs += fmt.Sprintf(` sz="%d"`, int(run.SizePt*100))
	}
	if run.Bold {
		attrs += ` b="1"`
	}
	if run.Italic {
		attrs += ` i="1"`
	}

	solidFill := ""
	if run.Color != "" {
		solidFill = fmt.Sprintf(`
              <a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, run.Color)
	}

	latin := ""
	if run.Font != "" {
		latin = fmt.Sprintf(`
              <a:latin typeface="%s"/>`, xmlEscape(run.Font))
	}

	return fmt.Sprintf(`            <a:r>
              <a:rPr%s>%s%s
              </a:rPr>
              <a:t>%s</a:t>
            </a:r>
`, attrs, solidFill, latin, xmlEscape(run.Text))
}

// --- Auto Shape XML ---

func (w *pptxWriter) writeAutoShapeXML(s *AutoShape, shapeID *int) string {
	id := *shapeID
	*shapeID++

	name := s.Name
	if name == "" {
		name = fmt.Sprintf("Shape %d", id)
	}

	fillXML := ""
	if s.FillColor != "" {
		fillXML = fmt.Sprintf("          <a:solidFill><a:srgbClr val=\"%s\"/></a:solidFill>\n", s.FillColor)
	}
	lineXML := ""
	if s.LineColor != "" {
		lineXML = fmt.Sprintf("          <a:ln w=\"%d\"><a:solidFill><a:srgbClr val=\"%s\"/></a:solidFill></a:ln>\n",
			Point(s.LineWidthPt), s.LineColor)
	}

	// roundRect adj is a fraction of the shorter side scaled to 100000.
	avLst := ""
	if s.Preset == "roundRect" && s.CornerAdjust > 0 {
		adj := int64(s.CornerAdjust * 100000)
		if adj > 50000 {
			adj = 50000
		}
		avLst = fmt.Sprintf(`<a:gd name="adj" fmla="val %d"/>`, adj)
	}

	textXML := ""
	if len(s.Paragraphs) > 0 {
		var paragraphsXML strings.Builder
		for _, para := range s.Paragraphs {
			paragraphsXML.WriteString(writeParagraphXML(para))
		}
		textXML = fmt.Sprintf(`
        <p:txBody>
          <a:bodyPr wrap="square"%s/>
          <a:lstStyle/>
%s        </p:txBody>`, anchorAttr(s.Anchor), paragraphsXML.String())
	}

	return fmt.Sprintf(`      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="%d" name="%s"/>
          <p:cNvSpPr/>
          <p:nvPr/>
        </p:nvSpPr>
        <p:spPr>
          <a:xfrm%s>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="%s">
            <a:avLst>%s</a:avLst>
          </a:prstGeom>
%s%s        </p:spPr>%s
      </p:sp>
`, id, xmlEscape(name), rotAttr(s.RotationDeg),
		s.X, s.Y, s.W, s.H, s.Preset, avLst, fillXML, lineXML, textXML)
}

// --- Connector XML ---

func (w *pptxWriter) writeConnectorXML(s *Connector, shapeID *int) string {
	id := *shapeID
	*shapeID++

	name := s.Name
	if name == "" {
		name = fmt.Sprintf("Connector %d", id)
	}

	color := s.LineColor
	if color == "" {
		color = "000000"
	}
	widthPt := s.LineWidthPt
	if widthPt <= 0 {
		widthPt = 1
	}

	tailXML := ""
	if s.TailArrow {
		tailXML = `
            <a:tailEnd type="triangle"/>`
	}

	return fmt.Sprintf(`      <p:cxnSp>
        <p:nvCxnSpPr>
          <p:cNvPr id="%d" name="%s"/>
          <p:cNvCxnSpPr/>
          <p:nvPr/>
        </p:nvCxnSpPr>
        <p:spPr>
          <a:xfrm%s>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="line">
            <a:avLst/>
          </a:prstGeom>
          <a:ln w="%d">
            <a:solidFill>
              <a:srgbClr val="%s"/>
            </a:solidFill>%s
          </a:ln>
        </p:spPr>
      </p:cxnSp>
`, id, xmlEscape(name), rotAttr(s.RotationDeg),
		s.X, s.Y, s.W, s.H, Point(widthPt), color, tailXML)
}

// --- Table XML ---

func (w *pptxWriter) writeTableXML(s *Table, shapeID *int) string {
	id := *shapeID
	*shapeID++

	name := s.Name
	if name == "" {
		name = fmt.Sprintf("Table %d", id)
	}

	var gridCols strings.Builder
	for _, cw := range s.ColWidths {
		fmt.Fprintf(&gridCols, `            <a:gridCol w="%d"/>
`, cw)
	}

	borderXML := ""
	if s.BorderColor != "" {
		widthPt := s.BorderWidthPt
		if widthPt <= 0 {
			widthPt = 0.75
		}
		borderXML = fmt.Sprintf(`
                  <a:lnL w="%d"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:lnL>
                  <a:lnR w="%d"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:lnR>
                  <a:lnT w="%d"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:lnT>
                  <a:lnB w="%d"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:lnB>`,
			Point(widthPt), s.BorderColor, Point(widthPt), s.BorderColor,
			Point(widthPt), s.BorderColor, Point(widthPt), s.BorderColor)
	}

	var rowsXML strings.Builder
	for i, row := range s.Rows {
		rowHeight := int64(0)
		if i < len(s.RowHeights) {
			rowHeight = s.RowHeights[i]
		}
		fmt.Fprintf(&rowsXML, `            <a:tr h="%d">
`, rowHeight)
		for _, cell := range row {
			rowsXML.WriteString(writeCellXML(cell, borderXML))
		}
		rowsXML.WriteString("            </a:tr>\n")
	}

	return fmt.Sprintf(`      <p:graphicFrame>
        <p:nvGraphicFramePr>
          <p:cNvPr id="%d" name="%s"/>
          <p:cNvGraphicFramePr>
            <a:graphicFrameLocks noGrp="1"/>
          </p:cNvGraphicFramePr>
          <p:nvPr/>
        </p:nvGraphicFramePr>
        <p:xfrm>
          <a:off x="%d" y="%d"/>
          <a:ext cx="%d" cy="%d"/>
        </p:xfrm>
        <a:graphic>
          <a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table">
            <a:tbl>
              <a:tblPr/>
              <a:tblGrid>
%s              </a:tblGrid>
%s            </a:tbl>
          </a:graphicData>
        </a:graphic>
      </p:graphicFrame>
`, id, xmlEscape(name), s.X, s.Y, s.W, s.H, gridCols.String(), rowsXML.String())
}

func writeCellXML(cell Cell, borderXML string) string {
	attrs := ""
	if cell.ColSpan > 1 {
		attrs += fmt.Sprintf(` gridSpan="%d"`, cell.ColSpan)
	}
	if cell.RowSpan > 1 {
		attrs += fmt.Sprintf(` rowSpan="%d"`, cell.RowSpan)
	}
	if cell.HMerge {
		attrs += ` hMerge="1"`
	}
	if cell.VMerge {
		attrs += ` vMerge="1"`
	}

	// Continuation cells carry an empty body.
	if cell.HMerge || cell.VMerge {
		return fmt.Sprintf(`              <a:tc%s>
                <a:txBody>
                  <a:bodyPr/>
                  <a:lstStyle/>
                  <a:p/>
                </a:txBody>
                <a:tcPr/>
              </a:tc>
`, attrs)
	}

	fillXML := ""
	switch {
	case cell.NoFill:
		fillXML = `
                  <a:noFill/>`
	case cell.FillColor != "":
		fillXML = fmt.Sprintf(`
                  <a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, cell.FillColor)
	}

	var cellText strings.Builder
	if len(cell.Paragraphs) == 0 {
		cellText.WriteString("                  <a:p/>\n")
	}
	for _, para := range cell.Paragraphs {
		cellText.WriteString(writeParagraphXML(para))
	}

	return fmt.Sprintf(`              <a:tc%s>
                <a:txBody>
                  <a:bodyPr/>
                  <a:lstStyle/>
%s                </a:txBody>
                <a:tcPr>%s%s
                </a:tcPr>
              </a:tc>
`, attrs, cellText.String(), borderXML, fillXML)
}
