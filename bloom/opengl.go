package bloom

import (
	_ "embed"
	"fmt"

	"bloomfx/libgl"
	"bloomfx/libio"
	"bloomfx/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed fullscreen.vert
var fullscreenVertSrc string

//go:embed bright.frag
var brightFragSrc string

//go:embed downsample.frag
var downsampleFragSrc string

//go:embed upsample.frag
var upsampleFragSrc string

//go:embed compose.frag
var composeFragSrc string

// GlEffect runs the pipeline on live textures inside an existing context. The
// parameter fields may be changed between frames; the resolution may not, use
// Resize for that.
type GlEffect struct {
	Threshold float32
	Intensity float32
	Exposure  float32

	cfg     Config
	passes  []PassDescriptor
	targets map[string]libgl.UnboundTexture
	shaders map[PassKind]libgl.UnboundShaderPipeline
	sampler libgl.UnboundSampler
	fbo     libgl.UnboundFramebuffer
}

func NewGlEffect(cfg Config) (effect *GlEffect, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	cleanup := []libutil.Deleter{}
	defer func() {
		if err != nil {
			libutil.DeleteAll(cleanup)
		}
	}()

	sampler := libgl.NewSampler()
	sampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	sampler.FilterMode(gl.LINEAR, gl.LINEAR)
	sampler.SetDebugLabel("bloom")
	cleanup = append(cleanup, sampler)

	fbo := libgl.NewFramebuffer()
	fbo.BindTargets(0)
	fbo.SetDebugLabel("bloom")
	cleanup = append(cleanup, fbo)

	vsh := libgl.NewShader(fullscreenVertSrc, gl.VERTEX_SHADER)
	if err = vsh.Compile(); err != nil {
		return nil, err
	}
	cleanup = append(cleanup, vsh)

	fragSrcs := map[PassKind]string{
		PassBright:     brightFragSrc,
		PassDownsample: downsampleFragSrc,
		PassUpsample:   upsampleFragSrc,
		PassCompose:    composeFragSrc,
	}
	shaders := make(map[PassKind]libgl.UnboundShaderPipeline, len(fragSrcs))
	for kind, src := range fragSrcs {
		fsh := libgl.NewShader(src, gl.FRAGMENT_SHADER)
		if err = fsh.Compile(); err != nil {
			return nil, err
		}
		cleanup = append(cleanup, fsh)

		pipeline := libgl.NewPipeline()
		pipeline.Attach(vsh, gl.VERTEX_SHADER_BIT)
		pipeline.Attach(fsh, gl.FRAGMENT_SHADER_BIT)
		pipeline.SetDebugLabel(kind.String())
		cleanup = append(cleanup, pipeline)
		shaders[kind] = pipeline
	}

	effect = &GlEffect{
		Threshold: cfg.Threshold,
		Intensity: cfg.Intensity,
		Exposure:  cfg.Exposure,
		cfg:       cfg,
		shaders:   shaders,
		sampler:   sampler,
		fbo:       fbo,
	}
	if err = effect.rebuild(); err != nil {
		return nil, err
	}
	return effect, nil
}

// rebuild recreates the pass list and all render targets, dropping the old
// set wholesale so no pass can draw into a stale-resolution target.
func (effect *GlEffect) rebuild() error {
	passes, err := BuildPassList(&effect.cfg)
	if err != nil {
		return err
	}
	for _, tex := range effect.targets {
		tex.Delete()
	}
	targets := make(map[string]libgl.UnboundTexture, len(passes))
	for _, p := range passes {
		tex := libgl.NewTexture(gl.TEXTURE_2D)
		tex.Allocate(1, gl.RGBA16F, p.Width, p.Height)
		tex.SetDebugLabel("bloom " + p.Output)
		targets[p.Output] = tex
	}
	effect.passes = passes
	effect.targets = targets
	return nil
}

func (effect *GlEffect) Resize(width, height int) error {
	if width == effect.cfg.Width && height == effect.cfg.Height {
		return nil
	}
	prevWidth, prevHeight := effect.cfg.Width, effect.cfg.Height
	effect.cfg.Width = width
	effect.cfg.Height = height
	if err := effect.rebuild(); err != nil {
		// the old target set is still live, keep reporting its size
		effect.cfg.Width, effect.cfg.Height = prevWidth, prevHeight
		return err
	}
	return nil
}

// Render draws the whole pass chain and returns the composed ldr target. The
// input texture must match the configured resolution; the result stays owned
// by the effect and is valid until the next Render or Resize.
func (effect *GlEffect) Render(hdrColorTexture libgl.UnboundTexture) libgl.UnboundTexture {
	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 999, -1, gl.Str("Draw Bloom\x00"))
	defer gl.PopDebugGroup()

	libgl.State.SetEnabled()
	effect.sampler.Bind(0)
	effect.sampler.Bind(1)
	effect.fbo.Bind(gl.DRAW_FRAMEBUFFER)

	lookup := func(name string) libgl.UnboundTexture {
		if name == "color" {
			return hdrColorTexture
		}
		return effect.targets[name]
	}

	for i := range effect.passes {
		p := &effect.passes[i]
		shader := effect.shaders[p.Kind]
		shader.Bind()

		frag := shader.FragmentStage()
		switch p.Kind {
		case PassBright:
			frag.SetUniform("u_threshold", effect.Threshold)
			frag.SetUniform("u_intensity", effect.Intensity)
		case PassDownsample:
			src := lookup(p.Inputs[0])
			frag.SetUniform("u_resolution", mgl32.Vec2{float32(src.Width()), float32(src.Height())})
		case PassUpsample:
			coarse := lookup(p.Inputs[1])
			frag.SetUniform("u_resolution", mgl32.Vec2{float32(coarse.Width()), float32(coarse.Height())})
		case PassCompose:
			frag.SetUniform("u_exposure", effect.Exposure)
		}

		for unit, name := range p.Inputs {
			lookup(name).Bind(unit)
		}

		effect.fbo.AttachTexture(0, effect.targets[p.Output])
		libgl.State.Viewport(0, 0, p.Width, p.Height)
		libutil.DrawTriangle()
	}

	return effect.targets["final"]
}

func (effect *GlEffect) Release() {
	for _, tex := range effect.targets {
		tex.Delete()
	}
	effect.targets = nil
	vsh := effect.shaders[PassBright].VertexStage()
	for _, shader := range effect.shaders {
		shader.FragmentStage().Delete()
		shader.Delete()
	}
	vsh.Delete()
	effect.shaders = nil
	effect.sampler.Delete()
	effect.fbo.Delete()
}

// glRenderer adapts GlEffect to the frame-in frame-out Renderer interface:
// upload, draw, read back. A current context is required on the calling
// thread.
type glRenderer struct {
	effect *GlEffect
	input  libgl.UnboundTexture
}

func NewGlRenderer(cfg Config) (Renderer, error) {
	effect, err := NewGlEffect(cfg)
	if err != nil {
		return nil, err
	}
	return &glRenderer{effect: effect}, nil
}

func (r *glRenderer) Render(hdr *libio.FloatImage) (*libio.FloatImage, error) {
	if hdr.Channels != FrameChannels {
		return nil, fmt.Errorf("expected %d channels, got %d", FrameChannels, hdr.Channels)
	}
	if err := r.effect.Resize(hdr.Width, hdr.Height); err != nil {
		return nil, err
	}

	if r.input == nil || r.input.Width() != hdr.Width || r.input.Height() != hdr.Height {
		if r.input != nil {
			r.input.Delete()
		}
		r.input = libgl.NewTexture(gl.TEXTURE_2D)
		r.input.Allocate(1, gl.RGBA32F, hdr.Width, hdr.Height)
		r.input.SetDebugLabel("bloom input")
	}
	r.input.Load(0, hdr.Width, hdr.Height, gl.RGBA, hdr.Pix)

	final := r.effect.Render(r.input)

	pix := make([]float32, FrameChannels*hdr.Width*hdr.Height)
	final.Fetch(0, gl.RGBA, pix, len(pix)*4)
	return libio.NewFloatImage(pix, FrameChannels, hdr.Width, hdr.Height), nil
}

func (r *glRenderer) Release() {
	if r.input != nil {
		r.input.Delete()
		r.input = nil
	}
	r.effect.Release()
}
