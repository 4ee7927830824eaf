package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unsafe"

	"bloomfx/bloom"
	"bloomfx/libgl"
	"bloomfx/libio"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type applyArgs struct {
	commonArgs
	threshold float64
	intensity float64
	exposure  float64
	levels    int
	impl      impl
	device    device
}

func createApplyCommand() *command {

	args := applyArgs{
		commonArgs: commonArgs{
			ext:    ".f32",
			suffix: "_bloom",
		},
		threshold: 1.0,
		intensity: 1.0,
		exposure:  1.0,
		levels:    5,
		impl:      implCl,
		device:    deviceGpu,
	}

	flags := flag.NewFlagSet("apply", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.Float64Var(&args.threshold, "threshold", args.threshold, "the bright pass cutoff")
	flags.Float64Var(&args.intensity, "intensity", args.intensity, "the bright pass falloff exponent")
	flags.Float64Var(&args.exposure, "exposure", args.exposure, "the exposure scale of the compose pass")
	flags.IntVar(&args.levels, "levels", args.levels, "the number of blur pyramid levels")
	flags.Var(&args.impl, "impl", "the render implementation; opencl, opengl or software")
	flags.Var(&args.device, "device", "the preferred opencl device; gpu or cpu")

	return &command{
		Name: "apply",
		Help: "apply the bloom pipeline to hdr frames",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 || args.levels < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runApply(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runApply(args applyArgs, inputFiles []string) {

	runtime.LockOSThread()

	ext := cargs.suffix + cargs.ext

	cfg := placeholderConfig(args)

	var err error
	var renderer bloom.Renderer

	switch args.impl {
	case implGl:
		renderer, err = createGlRenderer(cfg)
		if err == nil {
			if !cargs.quiet {
				fmt.Println("Using OpenGL implementation")
			}
			break
		}
		softerr(err)
		if !cargs.quiet {
			fmt.Println("Falling back to OpenCL implementation")
		}
		fallthrough
	case implCl:
		preferred := bloom.DeviceTypeGPU
		if args.device == deviceCpu {
			preferred = bloom.DeviceTypeCPU
		}
		renderer, err = bloom.NewClRenderer(cfg, preferred)
		if err == nil {
			if !cargs.quiet {
				fmt.Println("Using OpenCL implementation")
			}
			break
		}
		softerr(err)
		if !cargs.quiet {
			fmt.Println("Falling back to software implementation")
		}
		fallthrough
	case implSw:
		renderer, err = bloom.NewSwRenderer(cfg)
		harderr(err)
		if !cargs.quiet {
			fmt.Println("Using software implementation")
		}
	}
	defer renderer.Release()

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := applyFile(p, ext, renderer)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Processed %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

// placeholderConfig builds a pipeline configuration that is valid for the
// requested depth. The real resolution comes from the first frame; every
// renderer rebuilds its pyramid when it sees it.
func placeholderConfig(args applyArgs) bloom.Config {
	size := 1 << (args.levels - 1)
	return bloom.Config{
		Width:     size,
		Height:    size,
		Levels:    args.levels,
		Threshold: float32(args.threshold),
		Intensity: float32(args.intensity),
		Exposure:  float32(args.exposure),
	}
}

// createGlRenderer brings up a hidden window for its gl context.
func createGlRenderer(cfg bloom.Config) (bloom.Renderer, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	ctx, err := glfw.CreateWindow(640, 480, "bloomtool", nil, nil)
	if err != nil {
		return nil, err
	}
	ctx.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	if err != nil {
		return nil, err
	}

	libgl.State = libgl.NewGlStateManager()
	return bloom.NewGlRenderer(cfg)
}

func applyFile(p string, ext string, renderer bloom.Renderer) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	hdr, err := libio.DecodeFloatImage(inFile)
	if err != nil {
		return err
	}

	if hdr.Width == 0 || hdr.Height == 0 {
		return fmt.Errorf("frame has zero size %dx%d", hdr.Width, hdr.Height)
	}

	result, err := renderer.Render(hdr)
	if err != nil {
		return err
	}

	outFilename := filepath.Join(cargs.out, strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))+ext)
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}

	compression := libio.FrameCompressionNone
	if cargs.compress > 0 {
		compression = libio.FrameCompressionFixedPoint16Lz4
	}

	err = libio.EncodeFloatImage(outFile, result, compression)
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}

	return nil
}
