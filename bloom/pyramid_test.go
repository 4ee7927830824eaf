package bloom_test

import (
	"math"
	"testing"

	"bloomfx/bloom"
	"bloomfx/libio"

	"github.com/chewxy/math32"
)

func uniformFrame(width, height int, value float32) *libio.FloatImage {
	return libio.NewUniformFloatImage(bloom.FrameChannels, width, height, value, value, value, value)
}

func emptyFrame(width, height int) *libio.FloatImage {
	pix := make([]float32, bloom.FrameChannels*width*height)
	return libio.NewFloatImage(pix, bloom.FrameChannels, width, height)
}

func TestBrightPassBelowThreshold(t *testing.T) {
	cfg := bloom.Config{Threshold: 1.0, Intensity: 1.0}
	src := uniformFrame(16, 16, 0.75)
	dst := emptyFrame(16, 16)

	bloom.BrightPass(cfg, src, dst)

	for i, v := range dst.Pix {
		if v != 0 {
			t.Fatalf("sample %d should be 0 but is %v\n", i, v)
		}
	}
}

func TestBrightPassAboveThreshold(t *testing.T) {
	cfg := bloom.Config{Threshold: 1.0, Intensity: 1.5}
	src := uniformFrame(16, 16, 3)
	dst := emptyFrame(16, 16)

	bloom.BrightPass(cfg, src, dst)

	should := math32.Pow(3, 1.5) - 1
	for i, v := range dst.Pix {
		if math.Abs(float64(v-should)) > 0.0001 {
			t.Fatalf("sample %d should be %v but is %v\n", i, should, v)
		}
	}
}

func TestDownsampleConstant(t *testing.T) {
	src := uniformFrame(64, 64, 1.5)
	dst := emptyFrame(32, 32)

	bloom.Downsample(src, dst)

	for i, v := range dst.Pix {
		if math.Abs(float64(v-1.5)) > 0.0001 {
			t.Fatalf("sample %d should be 1.5 but is %v\n", i, v)
		}
	}
}

func TestUpsampleConstant(t *testing.T) {
	fine := uniformFrame(32, 32, 2)
	coarse := uniformFrame(16, 16, 2)
	dst := emptyFrame(32, 32)

	bloom.Upsample(fine, coarse, dst)

	// the collapse step preserves a constant field exactly
	for i, v := range dst.Pix {
		if math.Abs(float64(v-2)) > 0.0001 {
			t.Fatalf("sample %d should be 2 but is %v\n", i, v)
		}
	}
}

func TestDownUpRoundTripConstant(t *testing.T) {
	level := uniformFrame(64, 64, 0.75)
	half := emptyFrame(32, 32)
	back := emptyFrame(64, 64)

	bloom.Downsample(level, half)
	bloom.Upsample(level, half, back)

	for i, v := range back.Pix {
		if math.Abs(float64(v-0.75)) > 0.0001 {
			t.Fatalf("sample %d should be 0.75 but is %v\n", i, v)
		}
	}
}
