package main

import (
	"math"
	"testing"

	"bloomfx/bloom"
	"bloomfx/libio"

	"github.com/chewxy/math32"
)

func TestPlaceholderConfig(t *testing.T) {
	for levels := 1; levels <= 10; levels++ {
		args := applyArgs{threshold: 1, intensity: 1, exposure: 1, levels: levels}
		cfg := placeholderConfig(args)
		if err := cfg.Validate(); err != nil {
			t.Errorf("levels %d should produce a buildable config: %v\n", levels, err)
		}
	}
}

func TestPlaceholderRender(t *testing.T) {
	args := applyArgs{threshold: 1, intensity: 1, exposure: 1, levels: 5}

	renderer, err := bloom.NewSwRenderer(placeholderConfig(args))
	if err != nil {
		t.Fatal(err)
	}
	defer renderer.Release()

	// the renderer adopts the frame's real resolution
	img := libio.NewUniformFloatImage(bloom.FrameChannels, 64, 48, 2, 2, 2, 2)
	result, err := renderer.Render(img)
	if err != nil {
		t.Fatal(err)
	}
	if result.Width != 64 || result.Height != 48 {
		t.Fatalf("result should be 64x48 but is %dx%d\n", result.Width, result.Height)
	}

	should := math32.Pow(3, bloom.GammaExponent)
	is := result.Pix[result.Index(32, 24)]
	if math.Abs(float64(is-should)) > 0.0001 {
		t.Errorf("center pixel should be %.4f but is %.4f\n", should, is)
	}
}

func TestImplFlag(t *testing.T) {
	var i impl
	for _, s := range []string{"opencl", "opengl", "software"} {
		if err := i.Set(s); err != nil {
			t.Errorf("%q should be a valid implementation: %v\n", s, err)
		}
		if i.String() != s {
			t.Errorf("flag should read back %q but reads %q\n", s, i.String())
		}
	}
	if err := i.Set("vulkan"); err == nil {
		t.Error("expected an error for an unknown implementation")
	}
}
