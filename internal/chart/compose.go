package chart

import (
	"bytes"
	"image"
	"image/png"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/draw"
)

// stack decodes PNG panels and draws them top to bottom on one canvas
func stack(panels [][]byte, background drawing.Color) ([]byte, error) {
	images := make([]image.Image, 0, len(panels))
	width, height := 0, 0
	for i, p := range panels {
		img, err := png.Decode(bytes.NewReader(p))
		if err != nil {
			return nil, errors.Wrapf(ErrRender, "decode panel %d: %v", i, err)
		}
		b := img.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
		images = append(images, img)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	y := 0
	for _, img := range images {
		b := img.Bounds()
		draw.Draw(canvas, image.Rect(0, y, b.Dx(), y+b.Dy()), img, b.Min, draw.Over)
		y += b.Dy()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, errors.Wrapf(ErrRender, "encode: %v", err)
	}
	return buf.Bytes(), nil
}
