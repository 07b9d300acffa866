package extract

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/slidecraft-project/slidecraft/analysis"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 50, A: 255})
		}
	}
	return img
}

func region(x, y, w, h float64) analysis.GraphicRegion {
	return analysis.GraphicRegion{
		Description: "test region",
		Box:         analysis.Box{X: x, Y: y, Width: w, Height: h},
	}
}

func TestRegionCropsExpectedPixels(t *testing.T) {
	img := testImage(200, 100)
	g, err := Region(img, region(25, 50, 50, 25))
	if err != nil {
		t.Fatalf("Region() error: %v", err)
	}
	if g.Width != 100 || g.Height != 25 {
		t.Fatalf("crop = %dx%d, want 100x25", g.Width, g.Height)
	}
	decoded, err := png.Decode(bytes.NewReader(g.PNG))
	if err != nil {
		t.Fatalf("decoding crop: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 100 || b.Dy() != 25 {
		t.Errorf("decoded bounds = %v", b)
	}
	// Top-left of the crop is source pixel (50, 50).
	r, gr, _, _ := decoded.At(b.Min.X, b.Min.Y).RGBA()
	if uint8(r>>8) != 50 || uint8(gr>>8) != 50 {
		t.Errorf("crop origin pixel = (%d, %d), want (50, 50)", uint8(r>>8), uint8(gr>>8))
	}
}

func TestRegionShrinksNotShifts(t *testing.T) {
	img := testImage(200, 100)
	// 60% + 70% overhangs the right edge; width must shrink to 40%.
	g, err := Region(img, region(60, 0, 70, 50))
	if err != nil {
		t.Fatalf("Region() error: %v", err)
	}
	if g.Width != 80 || g.Height != 50 {
		t.Fatalf("crop = %dx%d, want 80x50", g.Width, g.Height)
	}
	decoded, err := png.Decode(bytes.NewReader(g.PNG))
	if err != nil {
		t.Fatalf("decoding crop: %v", err)
	}
	// Origin stays at 60% of 200 = x 120, not shifted left.
	r, _, _, _ := decoded.At(decoded.Bounds().Min.X, decoded.Bounds().Min.Y).RGBA()
	if uint8(r>>8) != 120 {
		t.Errorf("crop origin x pixel channel = %d, want 120", uint8(r>>8))
	}
}

func TestRegionRejectsDegenerateBoxes(t *testing.T) {
	img := testImage(200, 100)
	tests := []struct {
		name string
		r    analysis.GraphicRegion
	}{
		{"zero width", region(10, 10, 0, 20)},
		{"sub-pixel", region(10, 10, 0.1, 0.1)},
		{"fully off-slide", region(100, 100, 20, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Region(img, tt.r); err == nil {
				t.Error("Region() succeeded, want error")
			}
		})
	}
}

func TestRegionRejectsOversizedCrops(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, MaxCropDimension+100, 50))
	if _, err := Region(img, region(0, 0, 100, 100)); err == nil {
		t.Error("Region() succeeded on crop wider than MaxCropDimension")
	}
}

func TestAllRegionsSkipsAndContinues(t *testing.T) {
	img := testImage(200, 100)
	regions := []analysis.GraphicRegion{
		region(0, 0, 25, 25),
		region(50, 50, 0, 0), // degenerate, skipped
		region(50, 0, 25, 25),
	}
	graphics := AllRegions(img, regions)
	if len(graphics) != 2 {
		t.Fatalf("len(graphics) = %d, want 2", len(graphics))
	}
	if graphics[0].Region.X != 0 || graphics[1].Region.X != 50 {
		t.Errorf("surviving regions out of order: %v, %v", graphics[0].Region, graphics[1].Region)
	}
}
