package convert

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

// imageBackend decodes with the Go image library. It handles JPEG and PNG;
// HEIC has no pure Go decoder and fails here so the chain can fall through.
type imageBackend struct {
	quality      int
	maxDimension uint
}

// NewImageBackend returns the in-process decoder backend. maxDimension > 0
// downscales the long edge.
func NewImageBackend(quality, maxDimension int) Backend {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	if maxDimension < 0 {
		maxDimension = 0
	}
	return &imageBackend{quality: quality, maxDimension: uint(maxDimension)}
}

func (b *imageBackend) Name() string    { return "image" }
func (b *imageBackend) Available() bool { return true }

func (b *imageBackend) Convert(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	img, format, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	if b.maxDimension > 0 {
		bounds := img.Bounds()
		if uint(bounds.Dx()) > b.maxDimension || uint(bounds.Dy()) > b.maxDimension {
			img = resize.Thumbnail(b.maxDimension, b.maxDimension, img, resize.Lanczos3)
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(out, flatten(img), &jpeg.Options{Quality: b.quality}); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("encode %s source as jpeg: %w", format, err)
	}
	return out.Close()
}

// flatten composites transparent images onto white, since JPEG has no alpha.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); !ok || o.Opaque() {
		return img
	}
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Over)
	return canvas
}
