package libio

import (
	"unsafe"

	goimg "image"

	"github.com/chewxy/math32"
)

const MagicNumberHDRF = 0x7e03a1c9

// MaxFrameDimension bounds decoded frame sizes so a corrupt header cannot
// drive the allocation.
const MaxFrameDimension = 1 << 15

type FrameVersion uint32

const (
	FrameVersion1_000_000 = FrameVersion(1_000_000)
)

type FrameCompression uint32

const (
	FrameCompressionNone = FrameCompression(iota)
	FrameCompressionFixedPoint16Lz4
)

type frame struct {
	Channels      int
	Width, Height int
}

// Calculates the tuple index into the frame's data.
//
// Note that the origin (0,0) is in the bottom left, as opposed to Go's top left origin
func (f *frame) Index(x, y int) int {
	return x*f.Channels + y*f.Channels*f.Width
}

func (f *frame) Count() int {
	return f.Width * f.Height
}

type FrameHeader struct {
	Check         uint32
	Version       FrameVersion
	Width, Height uint32
	Channels      uint8
	Compression   FrameCompression
	Unused        [14]uint8
}

// FloatImage is a CPU-resident HDR frame, channels interleaved, no upper bound
// on channel values.
type FloatImage struct {
	frame
	Pix []float32
}

func NewFloatImage(pix []float32, channels int, width, height int) *FloatImage {
	return &FloatImage{
		Pix: pix,
		frame: frame{
			Channels: channels,
			Width:    width,
			Height:   height,
		},
	}
}

// NewUniformFloatImage fills every pixel with the given channel values.
func NewUniformFloatImage(channels, width, height int, values ...float32) *FloatImage {
	pix := make([]float32, channels*width*height)
	for i := range pix {
		if c := i % channels; c < len(values) {
			pix[i] = values[c]
		}
	}
	return NewFloatImage(pix, channels, width, height)
}

func (img *FloatImage) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&img.Pix[0])
}

func (img *FloatImage) Bytes() int {
	return img.Width * img.Height * img.Channels * 4
}

// ToIntImage gamma-encodes and scales the frame into 8-bit, clamping to [0,1].
func (img *FloatImage) ToIntImage(gamma, scale float32) *IntImage {
	pix := make([]uint8, len(img.Pix))

	inv := 1.0 / gamma
	for i := 0; i < len(img.Pix); i++ {
		v := math32.Pow(img.Pix[i], inv) * scale
		v = math32.Min(math32.Max(0.0, v), 1.0)
		pix[i] = uint8(v * 0xff)
	}

	return NewIntImage(pix, img.Channels, img.Width, img.Height)
}

type IntImage struct {
	frame
	Pix []uint8
}

func NewIntImage(pix []uint8, channels int, width, height int) *IntImage {
	return &IntImage{
		Pix: pix,
		frame: frame{
			Channels: channels,
			Width:    width,
			Height:   height,
		},
	}
}

func (img *IntImage) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&img.Pix[0])
}

func (img *IntImage) Bytes() int {
	return img.Width * img.Height * img.Channels
}

func (img *IntImage) ToRGBA() *goimg.RGBA {
	rgba := goimg.NewRGBA(goimg.Rect(0, 0, img.Width, img.Height))

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (x + y*img.Width) * img.Channels
			// flipped vertically
			j := (x + (img.Height-y-1)*img.Width) * 4
			for c := 0; c < img.Channels && c < 4; c++ {
				rgba.Pix[j+c] = img.Pix[i+c]
			}
			for c := img.Channels; c < 3; c++ {
				rgba.Pix[j+c] = 0
			}
			if img.Channels < 4 {
				rgba.Pix[j+3] = 0xff
			}
		}
	}

	return rgba
}
