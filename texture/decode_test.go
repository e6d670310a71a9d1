// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/devblok/korutex/gfx"
)

func TestFitExtent(t *testing.T) {
	cases := []struct {
		in, out gfx.Extent2D
	}{
		{gfx.Extent2D{Width: 8000, Height: 8000}, gfx.Extent2D{Width: 4096, Height: 4096}},
		{gfx.Extent2D{Width: 8000, Height: 4000}, gfx.Extent2D{Width: 4096, Height: 2048}},
		{gfx.Extent2D{Width: 4000, Height: 8000}, gfx.Extent2D{Width: 2048, Height: 4096}},
		{gfx.Extent2D{Width: 2000, Height: 2000}, gfx.Extent2D{Width: 2000, Height: 2000}},
		{gfx.Extent2D{Width: 4096, Height: 10}, gfx.Extent2D{Width: 4096, Height: 10}},
		{gfx.Extent2D{Width: 100000, Height: 1}, gfx.Extent2D{Width: 4096, Height: 1}},
	}
	for _, c := range cases {
		if got := FitExtent(c.in, DefaultMaxDimension); got != c.out {
			t.Errorf("FitExtent(%v) = %v, expected %v", c.in, got, c.out)
		}
	}
	if got := FitExtent(gfx.Extent2D{Width: 9000, Height: 10}, 0); got.Width != 9000 {
		t.Errorf("zero limit changed extent to %v", got)
	}
}

func TestDecodeDownsamples(t *testing.T) {
	d := Decoder{MaxDimension: 64}

	pixels, format, err := d.Decode(pngBytes(t, 300, 150))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Errorf("unexpected format %q", format)
	}
	if pixels.Bounds() != image.Rect(0, 0, 64, 32) {
		t.Errorf("unexpected bounds %v", pixels.Bounds())
	}

	small, _, err := d.Decode(pngBytes(t, 32, 16))
	if err != nil {
		t.Fatal(err)
	}
	if small.Bounds() != image.Rect(0, 0, 32, 16) {
		t.Errorf("image that fits was resized to %v", small.Bounds())
	}
}

func TestDecodeFormats(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 5, 3))

	var jpg, bm bytes.Buffer
	if err := jpeg.Encode(&jpg, src, nil); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bm, src); err != nil {
		t.Fatal(err)
	}

	for name, data := range map[string][]byte{"jpeg": jpg.Bytes(), "bmp": bm.Bytes()} {
		pixels, format, err := Decoder{}.Decode(data)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if format != name || pixels.Bounds().Dx() != 5 || pixels.Bounds().Dy() != 3 {
			t.Errorf("%s: got format %q bounds %v", name, format, pixels.Bounds())
		}
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, _, err := (Decoder{}).Decode([]byte("definitely not an image")); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestScalerByName(t *testing.T) {
	cases := map[string]draw.Interpolator{
		"nearest":        draw.NearestNeighbor,
		"ApproxBiLinear": draw.ApproxBiLinear,
		"bilinear":       draw.BiLinear,
		"":               draw.CatmullRom,
	}
	for name, expected := range cases {
		got, err := ScalerByName(name)
		if err != nil {
			t.Errorf("%q: %v", name, err)
		}
		if got != expected {
			t.Errorf("%q: wrong interpolator", name)
		}
	}
	if _, err := ScalerByName("lanczos"); !errors.Is(err, ErrUnknownScaler) {
		t.Errorf("expected ErrUnknownScaler, got %v", err)
	}
}
