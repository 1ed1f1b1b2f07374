package classifier

import (
	"image"
	"math"

	"github.com/lehigh-university-libraries/tagger/internal/imaging"
)

// Preprocessing constants for ImageNet-trained backbones: scale the
// shortest side to 256, center-crop 224, normalize per channel.
const (
	resizeShortSide = 256
	cropSize        = 224
)

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Tensor is a CHW float32 image tensor ready for a scoring model.
type Tensor struct {
	Data   []float32
	Height int
	Width  int
}

// Prepare decodes the image at path and converts it into a normalized
// tensor.
func Prepare(path string) (*Tensor, error) {
	img, err := imaging.Decode(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// FromImage converts an already decoded image into a normalized tensor.
func FromImage(img image.Image) *Tensor {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var nw, nh int
	if w <= h {
		nw = resizeShortSide
		nh = int(math.Round(float64(h) * resizeShortSide / float64(w)))
	} else {
		nh = resizeShortSide
		nw = int(math.Round(float64(w) * resizeShortSide / float64(h)))
	}

	scaled := imaging.Scale(img, nw, nh)
	crop := imaging.CenterCrop(scaled, cropSize, cropSize)

	t := &Tensor{
		Data:   make([]float32, 3*cropSize*cropSize),
		Height: cropSize,
		Width:  cropSize,
	}
	plane := cropSize * cropSize
	for y := 0; y < cropSize; y++ {
		for x := 0; x < cropSize; x++ {
			i := crop.PixOffset(x, y)
			pos := y*cropSize + x
			t.Data[pos] = (float32(crop.Pix[i])/255 - imagenetMean[0]) / imagenetStd[0]
			t.Data[plane+pos] = (float32(crop.Pix[i+1])/255 - imagenetMean[1]) / imagenetStd[1]
			t.Data[2*plane+pos] = (float32(crop.Pix[i+2])/255 - imagenetMean[2]) / imagenetStd[2]
		}
	}
	return t
}
