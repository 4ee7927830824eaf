package main

import (
	_ "embed"
	"flag"
	"log"
	"math/rand"
	"runtime"
	"unsafe"

	"bloomfx/bloom"
	"bloomfx/libgl"
	"bloomfx/libio"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	im "github.com/inkyblackness/imgui-go/v4"
)

//go:embed imgui.vert
var Res_ImguiVshSrc string

//go:embed imgui.frag
var Res_ImguiFshSrc string

var Arguments struct {
	EnableCompatibilityProfile bool
	Levels                     int
}

func main() {
	flag.BoolVar(&Arguments.EnableCompatibilityProfile, "enable-compatibility-profile", Arguments.EnableCompatibilityProfile, "")
	flag.IntVar(&Arguments.Levels, "levels", 6, "the number of blur pyramid levels")
	flag.Parse()

	runtime.LockOSThread()
	err := glfw.Init()
	check(err)

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	if Arguments.EnableCompatibilityProfile {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCompatProfile)
	} else {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	}
	ctx, err := glfw.CreateWindow(1280, 720, "Bloom Demo", nil, nil)
	check(err)
	ctx.MakeContextCurrent()

	gl.Init()
	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	check(err)

	libgl.State = libgl.NewGlStateManager()

	imguiShader := libgl.NewPipeline()
	vsh := libgl.NewShader(Res_ImguiVshSrc, gl.VERTEX_SHADER)
	check(vsh.Compile())
	imguiShader.Attach(vsh, gl.VERTEX_SHADER_BIT)
	fsh := libgl.NewShader(Res_ImguiFshSrc, gl.FRAGMENT_SHADER)
	check(fsh.Compile())
	imguiShader.Attach(fsh, gl.FRAGMENT_SHADER_BIT)

	gui := NewImGui(imguiShader)

	width, height := ctx.GetFramebufferSize()

	effect, err := bloom.NewGlEffect(bloom.Config{
		Width:     width,
		Height:    height,
		Levels:    Arguments.Levels,
		Threshold: 1.0,
		Intensity: 1.0,
		Exposure:  1.0,
	})
	check(err)

	input := uploadTestFrame(nil, width, height)

	blitFbo := libgl.NewFramebuffer()
	blitFbo.SetDebugLabel("blit")

	ctx.SetFramebufferSizeCallback(func(w *glfw.Window, newWidth, newHeight int) {
		if newWidth == 0 || newHeight == 0 {
			return
		}
		if err := effect.Resize(newWidth, newHeight); err != nil {
			log.Printf("cannot resize: %v\n", err)
			return
		}
		input = uploadTestFrame(input, newWidth, newHeight)
		width, height = newWidth, newHeight
	})

	levels := int32(Arguments.Levels)

	for !ctx.ShouldClose() {
		glfw.PollEvents()

		final := effect.Render(input)

		blitFbo.AttachTexture(0, final)
		libgl.State.BindReadFramebuffer(blitFbo.Id())
		libgl.State.BindDrawFramebuffer(0)
		gl.BlitFramebuffer(0, 0, int32(width), int32(height), 0, 0, int32(width), int32(height), gl.COLOR_BUFFER_BIT, gl.NEAREST)

		im.NewFrame()
		im.Begin("bloom")

		im.SliderFloat("Threshold", &effect.Threshold, 0, 5)
		im.SliderFloat("Intensity", &effect.Intensity, 0, 5)
		im.SliderFloat("Exposure", &effect.Exposure, 0, 4)
		if im.SliderInt("Levels", &levels, 1, 10) {
			next, err := bloom.NewGlEffect(bloom.Config{
				Width:     width,
				Height:    height,
				Levels:    int(levels),
				Threshold: effect.Threshold,
				Intensity: effect.Intensity,
				Exposure:  effect.Exposure,
			})
			if err != nil {
				log.Printf("cannot set levels: %v\n", err)
			} else {
				effect.Release()
				effect = next
			}
		}

		im.End()

		gui.Draw()

		ctx.SwapBuffers()
	}
}

// uploadTestFrame builds a procedural hdr scene, a dim base with a handful of
// bright emitters, and uploads it. The old texture is replaced on resize.
func uploadTestFrame(old libgl.UnboundTexture, width, height int) libgl.UnboundTexture {
	if old != nil {
		old.Delete()
	}

	frame := makeTestFrame(width, height)

	tex := libgl.NewTexture(gl.TEXTURE_2D)
	tex.Allocate(1, gl.RGBA32F, width, height)
	tex.Load(0, width, height, gl.RGBA, frame.Pix)
	tex.SetDebugLabel("test scene")
	return tex
}

func makeTestFrame(width, height int) *libio.FloatImage {
	img := libio.NewUniformFloatImage(bloom.FrameChannels, width, height, 0.05, 0.05, 0.08, 1.0)

	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 24; n++ {
		cx := rng.Float32() * float32(width)
		cy := rng.Float32() * float32(height)
		radius := 4 + rng.Float32()*24
		color := [3]float32{
			2 + rng.Float32()*30,
			2 + rng.Float32()*30,
			2 + rng.Float32()*30,
		}

		x0, x1 := int(cx-3*radius), int(cx+3*radius)
		y0, y1 := int(cy-3*radius), int(cy+3*radius)
		for y := max(y0, 0); y <= min(y1, height-1); y++ {
			for x := max(x0, 0); x <= min(x1, width-1); x++ {
				dx := (float32(x) - cx) / radius
				dy := (float32(y) - cy) / radius
				falloff := math32.Exp(-(dx*dx + dy*dy))
				i := img.Index(x, y)
				for c := 0; c < 3; c++ {
					img.Pix[i+c] += color[c] * falloff
				}
			}
		}
	}

	return img
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func check(err error) {
	if err != nil {
		log.Panic(err)
	}
}
