package bloom

import (
	"fmt"

	"bloomfx/libio"

	"github.com/chewxy/math32"
)

// swRenderer is the CPU reference implementation. It is the numerical
// contract the GPU implementations are validated against.
type swRenderer struct {
	cfg    Config
	passes []PassDescriptor
	images map[string]*libio.FloatImage
}

func NewSwRenderer(cfg Config) (Renderer, error) {
	r := &swRenderer{cfg: cfg}
	if err := r.rebuild(); err != nil {
		return nil, err
	}
	return r, nil
}

// rebuild recreates the pass list and every intermediate frame. Called at
// construction and again whenever the base resolution changes; the old set is
// dropped wholesale so no pass can read a stale-resolution frame.
func (r *swRenderer) rebuild() error {
	passes, err := BuildPassList(&r.cfg)
	if err != nil {
		return err
	}
	images := make(map[string]*libio.FloatImage, len(passes))
	for _, p := range passes {
		pix := make([]float32, FrameChannels*p.Width*p.Height)
		images[p.Output] = libio.NewFloatImage(pix, FrameChannels, p.Width, p.Height)
	}
	r.passes = passes
	r.images = images
	return nil
}

func (r *swRenderer) Release() {
	r.passes = nil
	r.images = nil
}

func (r *swRenderer) Render(hdr *libio.FloatImage) (*libio.FloatImage, error) {
	if hdr.Channels != FrameChannels {
		return nil, fmt.Errorf("expected %d channels, got %d", FrameChannels, hdr.Channels)
	}
	if hdr.Width != r.cfg.Width || hdr.Height != r.cfg.Height {
		prevWidth, prevHeight := r.cfg.Width, r.cfg.Height
		r.cfg.Width, r.cfg.Height = hdr.Width, hdr.Height
		if err := r.rebuild(); err != nil {
			// the old frame set is still live, keep reporting its size
			r.cfg.Width, r.cfg.Height = prevWidth, prevHeight
			return nil, err
		}
	}

	lookup := func(name string) *libio.FloatImage {
		if name == "color" {
			return hdr
		}
		return r.images[name]
	}

	for i := range r.passes {
		p := &r.passes[i]
		dst := r.images[p.Output]
		switch p.Kind {
		case PassBright:
			r.brightPass(lookup(p.Inputs[0]), dst)
		case PassDownsample:
			downsample(lookup(p.Inputs[0]), dst)
		case PassUpsample:
			upsample(lookup(p.Inputs[0]), lookup(p.Inputs[1]), dst)
		case PassCompose:
			r.compose(lookup(p.Inputs[0]), lookup(p.Inputs[1]), dst)
		}
	}

	return r.images["final"], nil
}

// brightPass keeps only the bloom-contributing signal:
// max(pow(c, intensity) - threshold, 0) per channel. No upper clamp, the
// output stays HDR.
func (r *swRenderer) brightPass(src, dst *libio.FloatImage) {
	threshold, intensity := r.cfg.Threshold, r.cfg.Intensity
	for i := 0; i < len(src.Pix); i++ {
		v := math32.Pow(src.Pix[i], intensity) - threshold
		if v < 0 {
			v = 0
		}
		dst.Pix[i] = v
	}
}

func downsample(src, dst *libio.FloatImage) {
	kx := float32(src.Width) / float32(dst.Width)
	ky := float32(src.Height) / float32(dst.Height)
	var acc, tap [FrameChannels]float32

	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			// the corner shared by the source block of this output pixel
			sx := (float32(x)+0.5)*kx - 0.5
			sy := (float32(y)+0.5)*ky - 0.5

			acc = [FrameChannels]float32{}
			for _, t := range downsampleTaps {
				sampleBilinearClamp(src, sx+t.du, sy+t.dv, &tap)
				for c := 0; c < FrameChannels; c++ {
					acc[c] += tap[c] * t.weight
				}
			}

			copy(dst.Pix[dst.Index(x, y):], acc[:])
		}
	}
}

// upsample filters the coarse level with a tent kernel and blends it onto the
// fine level's existing content, one step of the pyramid collapse. The blend
// averages the two contributions so a constant field passes through every
// collapse step unchanged.
func upsample(fine, coarse, dst *libio.FloatImage) {
	kx := float32(coarse.Width) / float32(dst.Width)
	ky := float32(coarse.Height) / float32(dst.Height)
	var acc, tap [FrameChannels]float32

	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			cx := (float32(x)+0.5)*kx - 0.5
			cy := (float32(y)+0.5)*ky - 0.5

			acc = [FrameChannels]float32{}
			for _, t := range upsampleTaps {
				sampleBilinearClamp(coarse, cx+t.du, cy+t.dv, &tap)
				for c := 0; c < FrameChannels; c++ {
					acc[c] += tap[c] * t.weight
				}
			}

			i := dst.Index(x, y)
			j := fine.Index(x, y)
			for c := 0; c < FrameChannels; c++ {
				dst.Pix[i+c] = (fine.Pix[j+c] + acc[c]) * 0.5
			}
		}
	}
}

// compose adds the bloom signal to the base color, scales by exposure and
// gamma-encodes. The base color is an exact texel fetch on the original
// grid; the bloom frame is filter-sampled since its resolution may differ.
func (r *swRenderer) compose(color, bloom, dst *libio.FloatImage) {
	exposure := r.cfg.Exposure
	kx := float32(bloom.Width) / float32(dst.Width)
	ky := float32(bloom.Height) / float32(dst.Height)
	var tap [FrameChannels]float32

	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			sampleBilinearClamp(bloom, (float32(x)+0.5)*kx-0.5, (float32(y)+0.5)*ky-0.5, &tap)

			i := dst.Index(x, y)
			j := color.Index(x, y)
			for c := 0; c < FrameChannels; c++ {
				dst.Pix[i+c] = math32.Pow((color.Pix[j+c]+tap[c])*exposure, GammaExponent)
			}
		}
	}
}

// sampleBilinearClamp reads the frame at a continuous texel-center coordinate
// (the value of texel i sits at coordinate i) with clamp-to-edge addressing.
func sampleBilinearClamp(img *libio.FloatImage, x, y float32, out *[FrameChannels]float32) {
	if x < 0 {
		x = 0
	}
	if mx := float32(img.Width - 1); x > mx {
		x = mx
	}
	if y < 0 {
		y = 0
	}
	if my := float32(img.Height - 1); y > my {
		y = my
	}

	xfloor, xfrac := math32.Modf(x)
	yfloor, yfrac := math32.Modf(y)
	x0, y0 := int(xfloor), int(yfloor)
	x1, y1 := x0+1, y0+1
	if x1 >= img.Width {
		x1 = img.Width - 1
	}
	if y1 >= img.Height {
		y1 = img.Height - 1
	}

	o00 := img.Index(x0, y0)
	o10 := img.Index(x1, y0)
	o01 := img.Index(x0, y1)
	o11 := img.Index(x1, y1)

	for c := 0; c < FrameChannels; c++ {
		h0 := img.Pix[o00+c]*(1-xfrac) + img.Pix[o10+c]*xfrac
		h1 := img.Pix[o01+c]*(1-xfrac) + img.Pix[o11+c]*xfrac
		out[c] = h0*(1-yfrac) + h1*yfrac
	}
}
