// Package colors estimates the dominant color of an image and maps it
// onto a small palette of human-friendly names.
package colors

import (
	"image"

	"github.com/lehigh-university-libraries/tagger/internal/imaging"
)

// Unknown is stored whenever the dominant color cannot be computed.
const Unknown = "unknown"

// sampleSize is the square the image is reduced to before averaging.
const sampleSize = 150

type namedColor struct {
	name    string
	r, g, b int
}

// Listed order breaks distance ties: the earlier name wins.
var palette = []namedColor{
	{"red", 255, 0, 0},
	{"green", 0, 255, 0},
	{"blue", 0, 0, 255},
	{"black", 0, 0, 0},
	{"white", 255, 255, 255},
	{"yellow", 255, 255, 0},
	{"purple", 128, 0, 128},
	{"orange", 255, 165, 0},
	{"brown", 165, 42, 42},
	{"pink", 255, 192, 203},
	{"gray", 128, 128, 128},
}

// Dominant estimates the dominant color of the image at path. On any
// failure it returns Unknown alongside the error so callers can log it
// and store the sentinel without aborting.
func Dominant(path string) (string, error) {
	img, err := imaging.Decode(path)
	if err != nil {
		return Unknown, err
	}
	return Of(img), nil
}

// Of reduces the image to a single representative color and names it.
func Of(img image.Image) string {
	small := imaging.Scale(img, sampleSize, sampleSize)

	var r, g, b uint64
	pix := small.Pix
	for i := 0; i < len(pix); i += 4 {
		r += uint64(pix[i])
		g += uint64(pix[i+1])
		b += uint64(pix[i+2])
	}
	n := uint64(sampleSize * sampleSize)
	return Nearest(int(r/n), int(g/n), int(b/n))
}

// Nearest returns the palette name closest to the RGB triple by squared
// Euclidean distance.
func Nearest(r, g, b int) string {
	best := palette[0].name
	bestDist := -1
	for _, c := range palette {
		d := sq(r-c.r) + sq(g-c.g) + sq(b-c.b)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = c.name
		}
	}
	return best
}

func sq(v int) int {
	return v * v
}
