package bloom

import (
	_ "embed"
	"fmt"
	"unsafe"

	"bloomfx/libio"

	"github.com/Qendolin/go-opencl/cl"
	"golang.org/x/exp/slices"
)

//go:embed bloom.cl
var openclBloomSrc string

type DeviceType = cl.DeviceType

const (
	DeviceTypeCPU         = DeviceType(cl.DeviceTypeCPU)
	DeviceTypeGPU         = DeviceType(cl.DeviceTypeGPU)
	DeviceTypeAccelerator = DeviceType(cl.DeviceTypeAccelerator)
)

type clCore struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
}

func newClCore(preferredDevice DeviceType, programs ...string) (core *clCore, err error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, err
	}

	var devices []*cl.Device
	for _, p := range platforms {
		devs, err := p.GetDevices(cl.DeviceTypeAll)
		if err != nil {
			continue
		}
		devices = append(devices, devs...)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no opencl devices found")
	}

	slices.SortFunc(devices, func(a, b *cl.Device) int {
		if a.Type() == preferredDevice && b.Type() != preferredDevice {
			return -1
		}
		if a.Type() != preferredDevice && b.Type() == preferredDevice {
			return 1
		}

		aPower := a.MaxComputeUnits() * a.MaxClockFrequency()
		bPower := b.MaxComputeUnits() * b.MaxClockFrequency()

		return aPower - bPower
	})

	device := devices[0]

	ctx, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, err
	}

	queue, err := ctx.CreateCommandQueue(device, 0)
	if err != nil {
		return nil, err
	}

	prog, err := ctx.CreateProgramWithSource(programs)
	if err != nil {
		return nil, err
	}
	err = prog.BuildProgram(nil, "")
	if err != nil {
		return nil, err
	}

	return &clCore{
		context: ctx,
		queue:   queue,
		program: prog,
	}, nil
}

type clRenderer struct {
	clCore
	cfg     Config
	kernels map[PassKind]*cl.Kernel
	passes  []PassDescriptor
	images  map[string]*cl.MemObject
}

func NewClRenderer(cfg Config, preferredDevice DeviceType) (r Renderer, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	core, err := newClCore(preferredDevice, openclBloomSrc)
	if err != nil {
		return nil, err
	}

	kernelNames := map[PassKind]string{
		PassBright:     "bright_pass",
		PassDownsample: "downsample",
		PassUpsample:   "upsample",
		PassCompose:    "compose",
	}
	kernels := make(map[PassKind]*cl.Kernel, len(kernelNames))
	for kind, name := range kernelNames {
		kernel, err := core.program.CreateKernel(name)
		if err != nil {
			return nil, err
		}
		kernels[kind] = kernel
	}

	renderer := &clRenderer{
		clCore:  *core,
		cfg:     cfg,
		kernels: kernels,
	}
	if err = renderer.rebuild(); err != nil {
		return nil, err
	}
	return renderer, nil
}

// rebuild recreates the pass list and every device-side frame. The old set is
// released wholesale so no pass can read a stale-resolution image.
func (r *clRenderer) rebuild() error {
	passes, err := BuildPassList(&r.cfg)
	if err != nil {
		return err
	}
	for _, img := range r.images {
		img.Release()
	}
	images := make(map[string]*cl.MemObject, len(passes))
	for _, p := range passes {
		img, err := r.context.CreateImage(cl.MemReadWrite, cl.ImageFormat{
			ChannelOrder:    cl.ChannelOrderRGBA,
			ChannelDataType: cl.ChannelDataTypeFloat,
		}, cl.ImageDescription{
			Type:   cl.MemObjectTypeImage2D,
			Width:  p.Width,
			Height: p.Height,
		}, p.Width*p.Height*FrameChannels*4, nil)
		if err != nil {
			return err
		}
		images[p.Output] = img
	}
	r.passes = passes
	r.images = images
	return nil
}

func (r *clRenderer) Render(hdr *libio.FloatImage) (*libio.FloatImage, error) {
	if hdr.Channels != FrameChannels {
		return nil, fmt.Errorf("expected %d channels, got %d", FrameChannels, hdr.Channels)
	}
	if hdr.Width != r.cfg.Width || hdr.Height != r.cfg.Height {
		prevWidth, prevHeight := r.cfg.Width, r.cfg.Height
		r.cfg.Width, r.cfg.Height = hdr.Width, hdr.Height
		if err := r.rebuild(); err != nil {
			// the old image set is still live, keep reporting its size
			r.cfg.Width, r.cfg.Height = prevWidth, prevHeight
			return nil, err
		}
	}

	srcImage, err := r.context.CreateImage(cl.MemReadOnly|cl.MemCopyHostPtr, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRGBA,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:   cl.MemObjectTypeImage2D,
		Width:  hdr.Width,
		Height: hdr.Height,
	}, len(hdr.Pix)*4, unsafe.Pointer(&hdr.Pix[0]))
	if err != nil {
		return nil, err
	}
	defer srcImage.Release()

	lookup := func(name string) *cl.MemObject {
		if name == "color" {
			return srcImage
		}
		return r.images[name]
	}

	for i := range r.passes {
		p := &r.passes[i]
		kernel := r.kernels[p.Kind]

		arg := 0
		for _, name := range p.Inputs {
			if err := kernel.SetArgBuffer(arg, lookup(name)); err != nil {
				return nil, err
			}
			arg++
		}
		if err := kernel.SetArgBuffer(arg, r.images[p.Output]); err != nil {
			return nil, err
		}
		arg++

		switch p.Kind {
		case PassBright:
			if err := kernel.SetArgFloat32(arg, r.cfg.Threshold); err != nil {
				return nil, err
			}
			if err := kernel.SetArgFloat32(arg+1, r.cfg.Intensity); err != nil {
				return nil, err
			}
		case PassCompose:
			if err := kernel.SetArgFloat32(arg, r.cfg.Exposure); err != nil {
				return nil, err
			}
		}

		localWorkSize := []int{16, 16, 1}
		globalWorkSize := []int{
			roundUpKernelSize(localWorkSize[0], p.Width),
			roundUpKernelSize(localWorkSize[1], p.Height),
			1,
		}

		_, err = r.queue.EnqueueNDRangeKernel(kernel, []int{0, 0, 0}, globalWorkSize, localWorkSize, nil)
		if err != nil {
			return nil, err
		}
	}

	result := make([]float32, FrameChannels*hdr.Width*hdr.Height)
	_, err = r.queue.EnqueueReadImage(r.images["final"], true, [3]int{}, [3]int{hdr.Width, hdr.Height, 1}, 0, 0, unsafe.Pointer(&result[0]), nil)
	if err != nil {
		return nil, err
	}

	return libio.NewFloatImage(result, FrameChannels, hdr.Width, hdr.Height), nil
}

func (r *clRenderer) Release() {
	for _, img := range r.images {
		img.Release()
	}
	r.images = nil
	for _, kernel := range r.kernels {
		kernel.Release()
	}
	r.kernels = nil
	r.program.Release()
	r.queue.Release()
	r.context.Release()
}

func roundUpKernelSize(groupSize, globalSize int) int {
	r := globalSize % groupSize
	if r == 0 {
		return globalSize
	}
	return globalSize + groupSize - r
}
