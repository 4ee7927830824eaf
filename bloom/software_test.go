package bloom_test

import (
	"math"
	"testing"

	"bloomfx/bloom"
	"bloomfx/libio"

	"github.com/chewxy/math32"
)

func renderUniform(t *testing.T, cfg bloom.Config, values ...float32) *libio.FloatImage {
	t.Helper()

	r, err := bloom.NewSwRenderer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	img := libio.NewUniformFloatImage(bloom.FrameChannels, cfg.Width, cfg.Height, values...)
	result, err := r.Render(img)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func assertUniform(t *testing.T, img *libio.FloatImage, should float32) {
	t.Helper()

	probes := [][2]int{
		{0, 0},
		{img.Width - 1, 0},
		{0, img.Height - 1},
		{img.Width - 1, img.Height - 1},
		{img.Width / 2, img.Height / 2},
		{img.Width / 3, (2 * img.Height) / 3},
	}

	for _, p := range probes {
		i := img.Index(p[0], p[1])
		for c := 0; c < img.Channels; c++ {
			is := img.Pix[i+c]
			if math.Abs(float64(is-should)) > 0.0001 {
				t.Errorf("pixel (%d,%d) channel %d should be %.4f but is %.4f\n", p[0], p[1], c, should, is)
				return
			}
		}
	}
}

func TestRenderUniformSw(t *testing.T) {
	result := renderUniform(t, bloom.Config{
		Width:     256,
		Height:    256,
		Levels:    4,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	}, 2, 2, 2, 2)

	// bright pass yields 1, the pyramid preserves the constant, so the
	// composite is pow((2 + 1) * 1, 2.2) everywhere
	assertUniform(t, result, math32.Pow(3, bloom.GammaExponent))
}

func TestRenderBelowThresholdSw(t *testing.T) {
	result := renderUniform(t, bloom.Config{
		Width:     128,
		Height:    128,
		Levels:    4,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	}, 0.5, 0.5, 0.5, 0.5)

	// nothing survives the bright pass, the output is gamma encoding only
	assertUniform(t, result, math32.Pow(0.5, bloom.GammaExponent))
}

func TestRenderZeroSw(t *testing.T) {
	result := renderUniform(t, bloom.Config{
		Width:     64,
		Height:    64,
		Levels:    3,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	}, 0, 0, 0, 0)

	assertUniform(t, result, 0)
}

func TestRenderIntensitySw(t *testing.T) {
	result := renderUniform(t, bloom.Config{
		Width:     64,
		Height:    64,
		Levels:    3,
		Threshold: 0.0,
		Intensity: 0.5,
		Exposure:  1.0,
	}, 4, 4, 4, 4)

	// bright = pow(4, 0.5) = 2, final = pow(4 + 2, 2.2)
	assertUniform(t, result, math32.Pow(6, bloom.GammaExponent))
}

func TestRenderExposureSw(t *testing.T) {
	result := renderUniform(t, bloom.Config{
		Width:     64,
		Height:    64,
		Levels:    2,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  0.5,
	}, 2, 2, 2, 2)

	assertUniform(t, result, math32.Pow(1.5, bloom.GammaExponent))
}

func TestRenderDegenerateSw(t *testing.T) {
	// a single level skips the blur entirely, bright feeds compose directly
	result := renderUniform(t, bloom.Config{
		Width:     32,
		Height:    32,
		Levels:    1,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	}, 2, 2, 2, 2)

	assertUniform(t, result, math32.Pow(3, bloom.GammaExponent))
}

func TestRenderChannelMismatchSw(t *testing.T) {
	r, err := bloom.NewSwRenderer(bloom.Config{
		Width:     32,
		Height:    32,
		Levels:    2,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	img := libio.NewUniformFloatImage(3, 32, 32, 1, 1, 1)
	if _, err := r.Render(img); err == nil {
		t.Error("expected an error for a 3 channel input")
	}
}

func TestRenderResizeSw(t *testing.T) {
	r, err := bloom.NewSwRenderer(bloom.Config{
		Width:     64,
		Height:    64,
		Levels:    3,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	big := libio.NewUniformFloatImage(bloom.FrameChannels, 64, 64, 2, 2, 2, 2)
	result, err := r.Render(big)
	if err != nil {
		t.Fatal(err)
	}
	if result.Width != 64 || result.Height != 64 {
		t.Fatalf("result should be 64x64 but is %dx%d\n", result.Width, result.Height)
	}

	small := libio.NewUniformFloatImage(bloom.FrameChannels, 32, 48, 2, 2, 2, 2)
	result, err = r.Render(small)
	if err != nil {
		t.Fatal(err)
	}
	if result.Width != 32 || result.Height != 48 {
		t.Fatalf("result should be 32x48 but is %dx%d\n", result.Width, result.Height)
	}
	assertUniform(t, result, math32.Pow(3, bloom.GammaExponent))
}

func TestRenderResizeRejectedSw(t *testing.T) {
	r, err := bloom.NewSwRenderer(bloom.Config{
		Width:     64,
		Height:    64,
		Levels:    4,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	// too small for four levels, the rebuild must be rejected
	tiny := libio.NewUniformFloatImage(bloom.FrameChannels, 4, 4, 2, 2, 2, 2)
	if _, err := r.Render(tiny); err == nil {
		t.Fatal("expected an error for a frame too small for the pyramid")
	}

	// the renderer still works at its previous resolution
	img := libio.NewUniformFloatImage(bloom.FrameChannels, 64, 64, 2, 2, 2, 2)
	result, err := r.Render(img)
	if err != nil {
		t.Fatal(err)
	}
	if result.Width != 64 || result.Height != 64 {
		t.Fatalf("result should be 64x64 but is %dx%d\n", result.Width, result.Height)
	}
	assertUniform(t, result, math32.Pow(3, bloom.GammaExponent))
}

func TestRenderLocalizedSw(t *testing.T) {
	cfg := bloom.Config{
		Width:     64,
		Height:    64,
		Levels:    4,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	}
	r, err := bloom.NewSwRenderer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	img := libio.NewUniformFloatImage(bloom.FrameChannels, 64, 64, 0.5, 0.5, 0.5, 1)
	i := img.Index(32, 32)
	img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 16, 16, 16

	result, err := r.Render(img)
	if err != nil {
		t.Fatal(err)
	}

	// the blur must spread the emitter's energy beyond its own pixel
	gammaOnly := math32.Pow(0.5, bloom.GammaExponent)
	j := result.Index(36, 32)
	if result.Pix[j] <= gammaOnly+0.0001 {
		t.Errorf("bloom should spill onto neighbors, pixel (36,32) is %.4f\n", result.Pix[j])
	}
	// but a far corner stays dark
	k := result.Index(1, 1)
	if math.Abs(float64(result.Pix[k]-gammaOnly)) > 0.01 {
		t.Errorf("corner pixel should stay near %.4f but is %.4f\n", gammaOnly, result.Pix[k])
	}
	// the emitter itself must remain the brightest spot
	if result.Pix[j] >= result.Pix[result.Index(32, 32)] {
		t.Errorf("emitter pixel should outshine its neighbors\n")
	}
}
