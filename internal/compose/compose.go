// Package compose letterboxes generated images onto the fixed-size video
// canvas. Each source image is scaled to the canvas height preserving aspect
// ratio, centered horizontally on a black background, and center-cropped when
// the scaled image is wider than the canvas. Crop-over-expand is the
// deterministic policy: the canvas never grows, so every frame in the output
// has identical dimensions.
package compose

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Default canvas: 720p, 16:9.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Canvas is the fixed-resolution frame onto which each image is composited.
type Canvas struct {
	Width  int
	Height int
}

// DefaultCanvas returns the standard 1280x720 canvas.
func DefaultCanvas() Canvas {
	return Canvas{Width: DefaultWidth, Height: DefaultHeight}
}

// Validate checks canvas dimensions.
func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%dx%d: %w", c.Width, c.Height, ErrInvalidCanvas)
	}
	return nil
}

// String returns the canvas as WxH, e.g. "1280x720".
func (c Canvas) String() string {
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}

// Layout describes where a scaled source image lands on the canvas.
type Layout struct {
	// ScaledWidth and ScaledHeight are the source dimensions after scaling
	// to canvas height. ScaledHeight always equals the canvas height.
	ScaledWidth  int
	ScaledHeight int

	// OffsetX is the horizontal position of the image's left edge on the
	// canvas. Zero or negative when the image covers the full width.
	OffsetX int

	// Cropped reports whether the scaled image exceeds the canvas width and
	// gets center-cropped to fit.
	Cropped bool
}

// Layout computes the placement geometry for a source image of the given
// dimensions without touching pixel data.
func (c Canvas) Layout(srcWidth, srcHeight int) (Layout, error) {
	if err := c.Validate(); err != nil {
		return Layout{}, err
	}
	if srcWidth <= 0 || srcHeight <= 0 {
		return Layout{}, fmt.Errorf("%dx%d: %w", srcWidth, srcHeight, ErrEmptyImage)
	}

	// Scale to canvas height, preserving aspect ratio. Rounding matches
	// imaging.Resize(src, 0, height): width = round(srcW * H / srcH).
	scaledWidth := int(float64(srcWidth)*float64(c.Height)/float64(srcHeight) + 0.5)
	if scaledWidth < 1 {
		scaledWidth = 1
	}

	l := Layout{
		ScaledWidth:  scaledWidth,
		ScaledHeight: c.Height,
	}
	if scaledWidth > c.Width {
		l.Cropped = true
		l.OffsetX = 0
		return l, nil
	}
	l.OffsetX = (c.Width - scaledWidth) / 2
	return l, nil
}

// Compose renders src onto a canvas-sized frame: scaled to canvas height,
// centered on black, center-cropped if wider than the canvas.
func (c Canvas) Compose(src image.Image) (*image.NRGBA, error) {
	bounds := src.Bounds()
	layout, err := c.Layout(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	scaled := imaging.Resize(src, 0, c.Height, imaging.Lanczos)
	if layout.Cropped {
		scaled = imaging.CropCenter(scaled, c.Width, c.Height)
	}

	frame := imaging.New(c.Width, c.Height, color.Black)
	return imaging.PasteCenter(frame, scaled), nil
}

// ComposeFile reads an image file, composites it, and writes the frame as
// PNG to dstPath.
func (c Canvas) ComposeFile(srcPath, dstPath string) error {
	src, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open image %s: %w", srcPath, err)
	}

	frame, err := c.Compose(src)
	if err != nil {
		return fmt.Errorf("compose %s: %w", srcPath, err)
	}

	if err := imaging.Save(frame, dstPath); err != nil {
		return fmt.Errorf("save frame %s: %w", dstPath, err)
	}
	return nil
}
