// Package imaging holds the shared image decode and resize plumbing
// used by the color estimator and the classifier preprocessing.
package imaging

import (
	"fmt"
	"image"
	"os"

	"golang.org/x/image/draw"

	// Register the decoders for the supported media extensions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// Decode reads and decodes the image file at path.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Scale resizes src to w by h with bilinear interpolation.
func Scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// CenterCrop copies the centered w by h region of src into a new image
// anchored at the origin.
func CenterCrop(src *image.RGBA, w, h int) *image.RGBA {
	b := src.Bounds()
	x0 := b.Min.X + (b.Dx()-w)/2
	y0 := b.Min.Y + (b.Dy()-h)/2

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Copy(dst, image.Point{}, src, image.Rect(x0, y0, x0+w, y0+h), draw.Src, nil)
	return dst
}
