// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/devblok/korutex/gfx"
)

// DefaultMaxDimension is the longest side a texture may have by default.
const DefaultMaxDimension = 4096

// package errors
var (
	ErrDecode        = errors.New("texture: decode failed")
	ErrUnknownScaler = errors.New("texture: unknown scaler")
)

// ScalerByName maps a configuration name to a downsampling kernel.
func ScalerByName(name string) (draw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "nearest":
		return draw.NearestNeighbor, nil
	case "approxbilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "", "catmullrom":
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScaler, name)
}

// Decoder turns encoded image bytes into texture ready pixels.
type Decoder struct {
	// MaxDimension caps the longest side, zero disables downsampling.
	MaxDimension int

	// Scaler is used for downsampling, CatmullRom when nil.
	Scaler draw.Interpolator
}

// Decode decodes data with any registered image format and fits the
// result into MaxDimension. A decoder panic is reported as ErrDecode.
func (d Decoder) Decode(data []byte) (pixels *image.RGBA, format string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pixels, format, err = nil, "", fmt.Errorf("%w: panic: %v", ErrDecode, r)
		}
	}()

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, format, fmt.Errorf("%w: empty image", ErrDecode)
	}
	return d.Fit(gfx.Pixels(img)), format, nil
}

// Fit downsamples pixels so the longest side is at most MaxDimension,
// preserving aspect ratio. Images that already fit are returned untouched.
func (d Decoder) Fit(pixels *image.RGBA) *image.RGBA {
	extent := gfx.Extent2D{Width: pixels.Bounds().Dx(), Height: pixels.Bounds().Dy()}
	target := FitExtent(extent, d.MaxDimension)
	if target == extent {
		return pixels
	}

	scaler := d.Scaler
	if scaler == nil {
		scaler = draw.CatmullRom
	}
	dst := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
	scaler.Scale(dst, dst.Bounds(), pixels, pixels.Bounds(), draw.Src, nil)
	return dst
}

// FitExtent scales e down so its longest side equals limit, keeping the
// aspect ratio and rounding the short side to the nearest texel.
// A limit of zero or an extent that already fits leaves e unchanged.
func FitExtent(e gfx.Extent2D, limit int) gfx.Extent2D {
	if limit <= 0 || e.Longest() <= limit {
		return e
	}
	scale := func(side, longest int) int {
		return max(1, (side*limit+longest/2)/longest)
	}
	if e.Width >= e.Height {
		return gfx.Extent2D{Width: limit, Height: scale(e.Height, e.Width)}
	}
	return gfx.Extent2D{Width: scale(e.Width, e.Height), Height: limit}
}
