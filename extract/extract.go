// Package extract crops graphic regions out of a rendered slide image.
//
// Regions arrive as percentage-space boxes from the slide analysis. Crops
// are best effort: an unusable region is logged and skipped so that one bad
// box never costs the rest of the slide.
package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log"

	"github.com/slidecraft-project/slidecraft/analysis"
	"github.com/slidecraft-project/slidecraft/geometry"
)

// MaxCropDimension bounds a crop's pixel width and height. Anything larger
// is a degenerate box from the model, not a real graphic.
const MaxCropDimension = 4096

// Graphic is one successfully extracted region, PNG-encoded.
type Graphic struct {
	Region analysis.GraphicRegion
	PNG    []byte
	// Width and Height are the crop's pixel dimensions.
	Width  int
	Height int
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Region crops a single graphic region out of img. The percentage box is
// clamped to the image the same way document geometry is clamped: origins
// clamp, extents shrink, the box never shifts.
func Region(img image.Image, region analysis.GraphicRegion) (*Graphic, error) {
	bounds := img.Bounds()
	imgW := bounds.Dx()
	imgH := bounds.Dy()

	box := geometry.Box{X: region.X, Y: region.Y, Width: region.Width, Height: region.Height}.Clamped()
	x0 := bounds.Min.X + geometry.PercentToPixel(box.X, imgW)
	y0 := bounds.Min.Y + geometry.PercentToPixel(box.Y, imgH)
	w := geometry.PercentToPixel(box.Width, imgW)
	h := geometry.PercentToPixel(box.Height, imgH)
	if x0+w > bounds.Max.X {
		w = bounds.Max.X - x0
	}
	if y0+h > bounds.Max.Y {
		h = bounds.Max.Y - y0
	}

	if w < 1 || h < 1 {
		return nil, fmt.Errorf("region %.1fx%.1f%% collapses to %dx%dpx", region.Width, region.Height, w, h)
	}
	if w > MaxCropDimension || h > MaxCropDimension {
		return nil, fmt.Errorf("crop %dx%dpx exceeds %dpx limit", w, h, MaxCropDimension)
	}

	si, ok := img.(subImager)
	if !ok {
		return nil, fmt.Errorf("image type %T does not support cropping", img)
	}
	crop := si.SubImage(image.Rect(x0, y0, x0+w, y0+h))

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return nil, fmt.Errorf("encoding crop: %w", err)
	}
	return &Graphic{Region: region, PNG: buf.Bytes(), Width: w, Height: h}, nil
}

// AllRegions extracts every region it can and skips the rest. Order of the
// returned graphics follows the input order of the surviving regions.
func AllRegions(img image.Image, regions []analysis.GraphicRegion) []*Graphic {
	graphics := make([]*Graphic, 0, len(regions))
	for _, region := range regions {
		g, err := Region(img, region)
		if err != nil {
			log.Printf("Skipping graphic region %q: %v", region.Description, err)
			continue
		}
		graphics = append(graphics, g)
	}
	return graphics
}
