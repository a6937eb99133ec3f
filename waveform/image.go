// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/gpio"
)

// ImageOpts represents the options available to draw a diagram into an
// image.
type ImageOpts struct {
	// Scale is the width in pixels of one clock unit. 0 means 4.
	Scale float64
	// RowHeight is the height in pixels of a line's row. 0 means 40.
	RowHeight float64
	// FontSize of the labels in points. 0 means 14.
	FontSize float64
}

const margin = 60.0

// Image draws the diagram of samples.
func Image(samples []Sample, opts *ImageOpts) (image.Image, error) {
	dc, err := draw(samples, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// SavePNG draws the diagram of samples into the PNG file path.
func SavePNG(path string, samples []Sample, opts *ImageOpts) error {
	dc, err := draw(samples, opts)
	if err != nil {
		return err
	}
	return dc.SavePNG(path)
}

func draw(samples []Sample, opts *ImageOpts) (*gg.Context, error) {
	o := ImageOpts{Scale: 4, RowHeight: 40, FontSize: 14}
	if opts != nil {
		if opts.Scale > 0 {
			o.Scale = opts.Scale
		}
		if opts.RowHeight > 0 {
			o.RowHeight = opts.RowHeight
		}
		if opts.FontSize > 0 {
			o.FontSize = opts.FontSize
		}
	}
	total := Duration(samples)
	if total == 0 {
		return nil, fmt.Errorf("waveform: nothing to draw")
	}
	w := int(margin + float64(total)*o.Scale + margin/2)
	h := int(o.RowHeight*float64(len(Lines)) + margin/2)

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: o.FontSize}))

	for row, l := range Lines {
		top := margin/4 + float64(row)*o.RowHeight
		hi := top + o.RowHeight*0.2
		lo := top + o.RowHeight*0.8
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(l.String(), margin/2, (hi+lo)/2, 0.5, 0.5)

		dc.SetRGB(0, 0.5, 0)
		dc.SetLineWidth(2)
		y := lo
		for i := range samples {
			s := &samples[i]
			x0 := margin + float64(s.Start)*o.Scale
			x1 := x0 + float64(s.Clocks)*o.Scale
			ny := lo
			if s.Level(l) == gpio.High {
				ny = hi
			}
			if i == 0 {
				dc.MoveTo(x0, ny)
			} else if ny != y {
				dc.LineTo(x0, ny)
			}
			dc.LineTo(x1, ny)
			y = ny
		}
		dc.Stroke()
	}
	return dc, nil
}
