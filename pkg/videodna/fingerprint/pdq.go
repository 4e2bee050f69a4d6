package fingerprint

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

const (
	// MinHashableDimension is the smallest width or height a frame may have.
	MinHashableDimension = 5

	// DownscaleDimension is the frame size requested from the decoder by default.
	DownscaleDimension = 64

	dctHashSide    = 16 // 16x16 DCT coefficients = 256 bits
	qualityDivisor = 90
)

// PDQHasher hashes RGB24 frames into 256-bit DCT hashes with a PDQ-style
// gradient quality score. It keeps no state between frames.
type PDQHasher struct{}

func NewPDQHasher() *PDQHasher {
	return &PDQHasher{}
}

func (h *PDQHasher) HashFrame(frame Frame) (Hash256, int, error) {
	if frame.Width < MinHashableDimension || frame.Height < MinHashableDimension {
		return Hash256{}, 0, fmt.Errorf("%w: %dx%d (minimum %d)", ErrUnhashableFrame, frame.Width, frame.Height, MinHashableDimension)
	}
	if want := frame.Width * frame.Height * 3; len(frame.Pix) != want {
		return Hash256{}, 0, fmt.Errorf("frame buffer has %d bytes, want %d for %dx%d RGB24", len(frame.Pix), want, frame.Width, frame.Height)
	}

	ext, err := goimagehash.ExtPerceptionHash(toRGBA(frame), dctHashSide, dctHashSide)
	if err != nil {
		return Hash256{}, 0, fmt.Errorf("dct hash: %w", err)
	}

	return hashFromWords(ext.GetHash()), frameQuality(frame), nil
}

func toRGBA(frame Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i, j := 0, 0; i < len(frame.Pix); i, j = i+3, j+4 {
		img.Pix[j] = frame.Pix[i]
		img.Pix[j+1] = frame.Pix[i+1]
		img.Pix[j+2] = frame.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// frameQuality sums absolute neighbour differences of the downscaled luma
// plane, scaled to percent of full range, and maps the total onto [0,100].
// Uniform frames score 0.
func frameQuality(frame Frame) int {
	luma, rows, cols := downscaleLuma(frame, DownscaleDimension)

	sum := 0
	for i := 0; i < rows-1; i++ {
		for j := 0; j < cols; j++ {
			sum += absInt(int((luma[i*cols+j] - luma[(i+1)*cols+j]) * 100 / 255))
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols-1; j++ {
			sum += absInt(int((luma[i*cols+j] - luma[i*cols+j+1]) * 100 / 255))
		}
	}

	quality := sum / qualityDivisor
	if quality > MaxQuality {
		quality = MaxQuality
	}
	return quality
}

// downscaleLuma box-filters the frame to at most side x side Rec.601 luma values.
func downscaleLuma(frame Frame, side int) ([]float64, int, int) {
	rows := min(frame.Height, side)
	cols := min(frame.Width, side)
	out := make([]float64, rows*cols)

	for oy := 0; oy < rows; oy++ {
		y0 := oy * frame.Height / rows
		y1 := (oy + 1) * frame.Height / rows
		for ox := 0; ox < cols; ox++ {
			x0 := ox * frame.Width / cols
			x1 := (ox + 1) * frame.Width / cols

			var acc float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					p := (y*frame.Width + x) * 3
					acc += 0.299*float64(frame.Pix[p]) + 0.587*float64(frame.Pix[p+1]) + 0.114*float64(frame.Pix[p+2])
				}
			}
			out[oy*cols+ox] = acc / float64((y1-y0)*(x1-x0))
		}
	}
	return out, rows, cols
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
