package pptx

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func writeDoc(t *testing.T, d *Document) map[string]string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(d, &buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("opening output zip: %v", err)
	}
	parts := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", f.Name, err)
		}
		var content bytes.Buffer
		if _, err := content.ReadFrom(rc); err != nil {
			t.Fatalf("reading %s: %v", f.Name, err)
		}
		rc.Close()
		parts[f.Name] = content.String()
	}
	return parts
}

func TestWriteEmitsRequiredParts(t *testing.T) {
	d := &Document{Title: "Deck"}
	d.AddSlide()
	d.AddSlide()
	parts := writeDoc(t, d)

	required := []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/app.xml",
		"docProps/core.xml",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/presProps.xml",
		"ppt/viewProps.xml",
		"ppt/tableStyles.xml",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideMasters/_rels/slideMaster1.xml.rels",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/slideLayouts/_rels/slideLayout1.xml.rels",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/_rels/slide1.xml.rels",
		"ppt/slides/slide2.xml",
		"ppt/slides/_rels/slide2.xml.rels",
	}
	for _, name := range required {
		if _, ok := parts[name]; !ok {
			t.Errorf("missing part %s", name)
		}
	}

	if !strings.Contains(parts["ppt/presentation.xml"], `<p:sldSz cx="9144000" cy="5143500"/>`) {
		t.Error("presentation.xml missing 16:9 slide size")
	}
	if !strings.Contains(parts["[Content_Types].xml"], "/ppt/slides/slide2.xml") {
		t.Error("content types missing slide2 override")
	}
}

func TestWriteSlideBackgroundAndTextBox(t *testing.T) {
	d := &Document{}
	s := d.AddSlide()
	s.Background = "1A2B3C"
	s.Add(&TextBox{
		Frame:    Frame{X: Inch(0.5), Y: Inch(0.25), W: Inch(9), H: Inch(1)},
		WordWrap: true,
		Paragraphs: []Paragraph{{
			Align: AlignCenter,
			Runs:  []Run{{Text: "Q3 <Results>", SizePt: 24.3, Bold: true, Color: "FF0000", Font: "Arial"}},
		}},
	})
	parts := writeDoc(t, d)
	slide := parts["ppt/slides/slide1.xml"]

	for _, want := range []string{
		`<a:srgbClr val="1A2B3C"/>`,
		`<a:off x="457200" y="228600"/>`,
		`<a:ext cx="8229600" cy="914400"/>`,
		`algn="ctr"`,
		`sz="2430"`,
		`b="1"`,
		`<a:srgbClr val="FF0000"/>`,
		`<a:latin typeface="Arial"/>`,
		`<a:t>Q3 &lt;Results&gt;</a:t>`,
	} {
		if !strings.Contains(slide, want) {
			t.Errorf("slide1.xml missing %s", want)
		}
	}
}

func TestWritePictureRelsAndMedia(t *testing.T) {
	d := &Document{}
	s1 := d.AddSlide()
	s1.Add(&Picture{Frame: Frame{W: Inch(1), H: Inch(1)}, PNG: pngBytes(t, 4, 4)})
	s2 := d.AddSlide()
	s2.Add(&Picture{Frame: Frame{W: Inch(2), H: Inch(2)}, PNG: pngBytes(t, 8, 8)})
	parts := writeDoc(t, d)

	if _, ok := parts["ppt/media/image1.png"]; !ok {
		t.Error("missing media/image1.png")
	}
	if _, ok := parts["ppt/media/image2.png"]; !ok {
		t.Error("missing media/image2.png")
	}
	// Slide 2's picture must point at the second media part.
	if !strings.Contains(parts["ppt/slides/_rels/slide2.xml.rels"], "../media/image2.png") {
		t.Errorf("slide2 rels wrong: %s", parts["ppt/slides/_rels/slide2.xml.rels"])
	}
	if !strings.Contains(parts["ppt/slides/slide2.xml"], `r:embed="rId2"`) {
		t.Error("slide2 picture not wired to rId2")
	}
}

func TestWriteAutoShapeAndConnector(t *testing.T) {
	d := &Document{}
	s := d.AddSlide()
	s.Add(&AutoShape{
		Frame:        Frame{W: Inch(2), H: Inch(1)},
		Preset:       "roundRect",
		FillColor:    "0B5FFF",
		LineColor:    "003399",
		LineWidthPt:  2,
		CornerAdjust: 0.2,
		RotationDeg:  45,
		Anchor:       AnchorMiddle,
		Paragraphs: []Paragraph{{
			Align: AlignCenter,
			Runs:  []Run{{Text: "On track", SizePt: 14, Color: "FFFFFF"}},
		}},
	})
	s.Add(&Connector{Frame: Frame{W: Inch(3), H: 0}, LineColor: "222222", LineWidthPt: 1.5, TailArrow: true})
	parts := writeDoc(t, d)
	slide := parts["ppt/slides/slide1.xml"]

	for _, want := range []string{
		`prst="roundRect"`,
		`<a:gd name="adj" fmla="val 20000"/>`,
		`rot="2700000"`,
		`anchor="ctr"`,
		`<a:t>On track</a:t>`,
		`<p:cxnSp>`,
		`<a:tailEnd type="triangle"/>`,
		`<a:ln w="19050">`,
	} {
		if !strings.Contains(slide, want) {
			t.Errorf("slide1.xml missing %s", want)
		}
	}
}

func TestWriteTableWithSpans(t *testing.T) {
	d := &Document{}
	s := d.AddSlide()
	s.Add(&Table{
		Frame:       Frame{W: Inch(4), H: Inch(2)},
		ColWidths:   []int64{Inch(2), Inch(2)},
		RowHeights:  []int64{Inch(1), Inch(1)},
		BorderColor: "CCCCCC",
		Rows: [][]Cell{
			{
				{ColSpan: 2, Paragraphs: []Paragraph{{Runs: []Run{{Text: "Header", Bold: true}}}}, FillColor: "EEEEEE"},
				{HMerge: true},
			},
			{
				{Paragraphs: []Paragraph{{Runs: []Run{{Text: "A"}}}}, NoFill: true},
				{Paragraphs: []Paragraph{{Runs: []Run{{Text: "B"}}}}},
			},
		},
	})
	parts := writeDoc(t, d)
	slide := parts["ppt/slides/slide1.xml"]

	for _, want := range []string{
		`gridSpan="2"`,
		`hMerge="1"`,
		`<a:noFill/>`,
		`<a:solidFill><a:srgbClr val="EEEEEE"/></a:solidFill>`,
		`<a:gridCol w="1828800"/>`,
		`<a:tr h="914400">`,
		`<a:lnL w=`,
	} {
		if !strings.Contains(slide, want) {
			t.Errorf("slide1.xml missing %s", want)
		}
	}
}

func TestMeasurementConversions(t *testing.T) {
	if Inch(1) != 914400 {
		t.Errorf("Inch(1) = %d", Inch(1))
	}
	if Point(1) != 12700 {
		t.Errorf("Point(1) = %d", Point(1))
	}
	if got := EMUToInch(914400); got != 1 {
		t.Errorf("EMUToInch(914400) = %v", got)
	}
	if got := EMUToPoint(25400); got != 2 {
		t.Errorf("EMUToPoint(25400) = %v", got)
	}
	// Overflow clamps instead of wrapping.
	if Inch(1e20) != maxEMU {
		t.Errorf("Inch(1e20) = %d, want clamp", Inch(1e20))
	}
	// Equal lengths reached along different float paths round to the
	// same EMU: 18% of a 10in slide is 1.8in even when 18.0/100*10
	// lands just below it.
	if got := Inch(18.0 / 100 * 10); got != Inch(1.8) {
		t.Errorf("Inch(18%% of 10in) = %d, want %d", got, Inch(1.8))
	}
	if Inch(1.8) != 1645920 {
		t.Errorf("Inch(1.8) = %d", Inch(1.8))
	}
}
