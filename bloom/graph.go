package bloom

import "fmt"

type PassKind int

const (
	PassBright PassKind = iota
	PassDownsample
	PassUpsample
	PassCompose
)

func (k PassKind) String() string {
	switch k {
	case PassBright:
		return "bright"
	case PassDownsample:
		return "downsample"
	case PassUpsample:
		return "upsample"
	case PassCompose:
		return "compose"
	}
	return fmt.Sprintf("PassKind(%d)", int(k))
}

// PassDescriptor binds one fragment program to its inputs and its output
// target. Descriptors are constructed once at pipeline build time and reused
// every frame, never mutated.
//
// Resource names: "color" is the external HDR input, "down<k>" the pyramid
// levels ("down0" is the bright pass output at base resolution), "up<k>" the
// collapsed levels, "final" the composed output.
type PassDescriptor struct {
	Kind   PassKind
	Name   string
	Level  int
	Inputs []string
	Output string
	// resolution of the output target
	Width, Height int
}

// BuildPassList derives the strict linear pass order of one frame:
// Bright -> Downsample(0..N-2) -> Upsample(N-2..0) -> Compose. The list is a
// directed chain; every intermediate resource has exactly one writer, and all
// of its readers come strictly after that writer.
func BuildPassList(cfg *Config) ([]PassDescriptor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	levels := cfg.PyramidLevels()
	n := len(levels)
	passes := make([]PassDescriptor, 0, 2*n+1)

	passes = append(passes, PassDescriptor{
		Kind:   PassBright,
		Name:   "bright",
		Inputs: []string{"color"},
		Output: "down0",
		Width:  levels[0].Width,
		Height: levels[0].Height,
	})

	for k := 0; k < n-1; k++ {
		passes = append(passes, PassDescriptor{
			Kind:   PassDownsample,
			Name:   fmt.Sprintf("downsample%d", k+1),
			Level:  k + 1,
			Inputs: []string{fmt.Sprintf("down%d", k)},
			Output: fmt.Sprintf("down%d", k+1),
			Width:  levels[k+1].Width,
			Height: levels[k+1].Height,
		})
	}

	// the coarsest level enters the collapse unfiltered
	coarse := fmt.Sprintf("down%d", n-1)
	for k := n - 2; k >= 0; k-- {
		passes = append(passes, PassDescriptor{
			Kind:   PassUpsample,
			Name:   fmt.Sprintf("upsample%d", k),
			Level:  k,
			Inputs: []string{fmt.Sprintf("down%d", k), coarse},
			Output: fmt.Sprintf("up%d", k),
			Width:  levels[k].Width,
			Height: levels[k].Height,
		})
		coarse = fmt.Sprintf("up%d", k)
	}

	passes = append(passes, PassDescriptor{
		Kind:   PassCompose,
		Name:   "compose",
		Inputs: []string{"color", coarse},
		Output: "final",
		Width:  cfg.Width,
		Height: cfg.Height,
	})

	return passes, nil
}
