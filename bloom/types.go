package bloom

import (
	"fmt"

	"bloomfx/libio"

	"github.com/chewxy/math32"
)

// FrameChannels is the pixel layout of every stage: rgba, float, HDR.
const FrameChannels = 4

// GammaExponent is the fixed encoding exponent of the compose stage.
const GammaExponent = 2.2

// Config describes one bloom pipeline build. It is validated once at build
// time; invalid values are rejected, never clamped.
type Config struct {
	// Base resolution of the HDR color input and of pyramid level 0.
	Width, Height int
	// Number of pyramid levels including level 0. Levels == 1 is the
	// degenerate pipeline without any blur.
	Levels int

	// Hard cutoff of the bright pass.
	Threshold float32
	// Exponent shaping the bright pass falloff above the threshold.
	Intensity float32
	// Linear scale applied before gamma encoding in the compose stage.
	Exposure float32
}

func (cfg *Config) Validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("base resolution %dx%d is not positive", cfg.Width, cfg.Height)
	}
	if cfg.Levels < 1 {
		return fmt.Errorf("pyramid depth %d is below 1", cfg.Levels)
	}
	if w, h := cfg.Width>>(cfg.Levels-1), cfg.Height>>(cfg.Levels-1); w < 1 || h < 1 {
		return fmt.Errorf("pyramid depth %d produces a zero-pixel level for base resolution %dx%d",
			cfg.Levels, cfg.Width, cfg.Height)
	}
	for _, v := range []struct {
		name  string
		value float32
	}{
		{"threshold", cfg.Threshold},
		{"intensity", cfg.Intensity},
		{"exposure", cfg.Exposure},
	} {
		if math32.IsNaN(v.value) || math32.IsInf(v.value, 0) {
			return fmt.Errorf("%s %v is not finite", v.name, v.value)
		}
	}
	if cfg.Intensity < 0 {
		return fmt.Errorf("intensity %v is negative", cfg.Intensity)
	}
	if cfg.Exposure < 0 {
		return fmt.Errorf("exposure %v is negative", cfg.Exposure)
	}
	return nil
}

// PyramidLevel pairs a level index with its resolution. Level k+1 has half the
// linear resolution of level k, floored, never below one pixel.
type PyramidLevel struct {
	Index         int
	Width, Height int
}

func (cfg *Config) PyramidLevels() []PyramidLevel {
	levels := make([]PyramidLevel, cfg.Levels)
	for k := range levels {
		w, h := cfg.Width>>k, cfg.Height>>k
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		levels[k] = PyramidLevel{Index: k, Width: w, Height: h}
	}
	return levels
}

// Renderer applies the full bright-pass / blur-pyramid / compose chain to one
// HDR frame. Implementations own their intermediate pyramid storage and
// recreate it wholesale when the base resolution changes.
type Renderer interface {
	Render(hdr *libio.FloatImage) (*libio.FloatImage, error)
	Release()
}
