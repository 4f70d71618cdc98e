package pdfbuild

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOrientation is returned for an orientation other than portrait
// or landscape.
var ErrInvalidOrientation = errors.New("orientation must be portrait or landscape")

// A4 in PDF points, portrait.
const (
	a4WidthPt  = 595.2755905511812
	a4HeightPt = 841.8897637795277
)

// PageSize is a page's extent in PDF points.
type PageSize struct {
	Width  float64
	Height float64
}

// BasePageSize is the portrait page every document is laid out on.
var BasePageSize = PageSize{Width: a4WidthPt, Height: a4HeightPt}

// Rotated returns the size turned by 90 degrees.
func (size PageSize) Rotated() PageSize {
	return PageSize{Width: size.Height, Height: size.Width}
}

// Orientation selects how BasePageSize is turned.
type Orientation int

const (
	// Landscape is the default: most scanned spreads are wider than tall.
	Landscape Orientation = iota
	Portrait
)

// ParseOrientation accepts "portrait" or "landscape" in any case.
func ParseOrientation(value string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "landscape":
		return Landscape, nil
	case "portrait":
		return Portrait, nil
	default:
		return Landscape, fmt.Errorf("%q: %w", value, ErrInvalidOrientation)
	}
}

func (orientation Orientation) String() string {
	if orientation == Portrait {
		return "portrait"
	}

	return "landscape"
}

// PageSize resolves the orientation to a concrete page size.
func (orientation Orientation) PageSize() PageSize {
	if orientation == Portrait {
		return BasePageSize
	}

	return BasePageSize.Rotated()
}

// Placement is the rectangle an image occupies on its page, measured from
// the page's top-left corner.
type Placement struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// ComputePlacement scales an image uniformly so it fits the page as large as
// possible and centers it. The scale may exceed 1. Both image dimensions
// must be positive.
func ComputePlacement(imageWidth, imageHeight float64, page PageSize) Placement {
	scale := min(page.Width/imageWidth, page.Height/imageHeight)

	width := imageWidth * scale
	height := imageHeight * scale

	return Placement{
		X:      (page.Width - width) / 2,
		Y:      (page.Height - height) / 2,
		Width:  width,
		Height: height,
	}
}
