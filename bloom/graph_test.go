package bloom_test

import (
	"testing"

	"bloomfx/bloom"

	"github.com/chewxy/math32"
)

func TestBuildPassList(t *testing.T) {
	cfg := bloom.Config{
		Width:     256,
		Height:    192,
		Levels:    4,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	}

	passes, err := bloom.BuildPassList(&cfg)
	if err != nil {
		t.Fatal(err)
	}

	kinds := []bloom.PassKind{
		bloom.PassBright,
		bloom.PassDownsample, bloom.PassDownsample, bloom.PassDownsample,
		bloom.PassUpsample, bloom.PassUpsample, bloom.PassUpsample,
		bloom.PassCompose,
	}
	if len(passes) != len(kinds) {
		t.Fatalf("expected %d passes, got %d\n", len(kinds), len(passes))
	}
	for i, k := range kinds {
		if passes[i].Kind != k {
			t.Errorf("pass %d should be %v but is %v\n", i, k, passes[i].Kind)
		}
	}

	// every resource has exactly one writer and all reads come after it
	written := map[string]bool{"color": true}
	for i, p := range passes {
		for _, in := range p.Inputs {
			if !written[in] {
				t.Errorf("pass %d (%s) reads %q before it is written\n", i, p.Name, in)
			}
		}
		if written[p.Output] {
			t.Errorf("pass %d (%s) writes %q twice\n", i, p.Name, p.Output)
		}
		written[p.Output] = true
	}

	if passes[0].Output != "down0" {
		t.Errorf("bright pass should write down0, writes %q\n", passes[0].Output)
	}
	last := passes[len(passes)-1]
	if last.Output != "final" {
		t.Errorf("compose pass should write final, writes %q\n", last.Output)
	}
	if last.Width != 256 || last.Height != 192 {
		t.Errorf("compose output should be 256x192 but is %dx%d\n", last.Width, last.Height)
	}

	// downsample passes halve the resolution each level
	for _, p := range passes {
		if p.Kind != bloom.PassDownsample {
			continue
		}
		if p.Width != 256>>p.Level || p.Height != 192>>p.Level {
			t.Errorf("level %d should be %dx%d but is %dx%d\n",
				p.Level, 256>>p.Level, 192>>p.Level, p.Width, p.Height)
		}
	}
}

func TestBuildPassListDegenerate(t *testing.T) {
	cfg := bloom.Config{
		Width:     32,
		Height:    32,
		Levels:    1,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	}

	passes, err := bloom.BuildPassList(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(passes) != 2 {
		t.Fatalf("expected 2 passes, got %d\n", len(passes))
	}
	if passes[0].Kind != bloom.PassBright || passes[1].Kind != bloom.PassCompose {
		t.Errorf("a single level pipeline should be bright then compose\n")
	}
	if passes[1].Inputs[1] != "down0" {
		t.Errorf("compose should read the bright output directly, reads %q\n", passes[1].Inputs[1])
	}
}

func TestConfigValidate(t *testing.T) {
	valid := bloom.Config{
		Width:     64,
		Height:    64,
		Levels:    3,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	}
	if err := valid.Validate(); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		mutate func(cfg *bloom.Config)
	}{
		{"zero width", func(cfg *bloom.Config) { cfg.Width = 0 }},
		{"negative height", func(cfg *bloom.Config) { cfg.Height = -1 }},
		{"zero levels", func(cfg *bloom.Config) { cfg.Levels = 0 }},
		{"too deep", func(cfg *bloom.Config) { cfg.Levels = 8 }},
		{"nan threshold", func(cfg *bloom.Config) { cfg.Threshold = math32.NaN() }},
		{"inf exposure", func(cfg *bloom.Config) { cfg.Exposure = math32.Inf(1) }},
		{"negative intensity", func(cfg *bloom.Config) { cfg.Intensity = -0.5 }},
		{"negative exposure", func(cfg *bloom.Config) { cfg.Exposure = -1 }},
	}

	for _, c := range cases {
		cfg := valid
		c.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s should not validate\n", c.name)
		}
	}
}

func TestPyramidLevels(t *testing.T) {
	cfg := bloom.Config{Width: 100, Height: 60, Levels: 3}

	levels := cfg.PyramidLevels()
	expected := [][2]int{{100, 60}, {50, 30}, {25, 15}}
	for k, e := range expected {
		if levels[k].Width != e[0] || levels[k].Height != e[1] {
			t.Errorf("level %d should be %dx%d but is %dx%d\n",
				k, e[0], e[1], levels[k].Width, levels[k].Height)
		}
	}
}
