package bloom_test

import (
	"math"
	"testing"

	"bloomfx/bloom"
	"bloomfx/libio"
)

func assertKernelNormalized(t *testing.T, name string, taps []bloom.FilterTap) {
	t.Helper()

	sum := float32(0)
	for _, tap := range taps {
		sum += tap.Weight()
	}
	if math.Abs(float64(sum-1)) > 0.0001 {
		t.Errorf("%s weights should sum to 1 but sum to %v\n", name, sum)
	}
}

func TestKernelsNormalized(t *testing.T) {
	assertKernelNormalized(t, "downsample 13 tap", bloom.DownsampleTaps13)
	assertKernelNormalized(t, "downsample 5 tap", bloom.DownsampleTaps5)
	assertKernelNormalized(t, "upsample 9 tap", bloom.UpsampleTaps9)
	assertKernelNormalized(t, "upsample 4 tap", bloom.UpsampleTaps4)
}

func TestSampleBilinearClamp(t *testing.T) {
	img := libio.NewFloatImage([]float32{
		0, 0, 0, 0 /**/, 1, 1, 1, 1,
		2, 2, 2, 2 /**/, 3, 3, 3, 3,
	}, 4, 2, 2)

	var out [4]float32

	cases := []struct {
		x, y   float32
		should float32
	}{
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, 2},
		{0.5, 0, 0.5},
		{0.5, 0.5, 1.5},
		// coordinates clamp to the edge texels
		{-5, 0, 0},
		{5, 5, 3},
		{0.5, -1, 0.5},
	}

	for _, c := range cases {
		bloom.SampleBilinearClamp(img, c.x, c.y, &out)
		for ch := 0; ch < 4; ch++ {
			if math.Abs(float64(out[ch]-c.should)) > 0.0001 {
				t.Errorf("sample at (%v,%v) channel %d should be %v but is %v\n", c.x, c.y, ch, c.should, out[ch])
				break
			}
		}
	}
}
