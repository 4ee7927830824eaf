package bloom

import "bloomfx/libio"

// these are only exported when running tests

type FilterTap = filterTap

var DownsampleTaps13 = downsampleTaps13
var DownsampleTaps5 = downsampleTaps5
var UpsampleTaps9 = upsampleTaps9
var UpsampleTaps4 = upsampleTaps4

func (t filterTap) Weight() float32 {
	return t.weight
}

var SampleBilinearClamp = sampleBilinearClamp
var Downsample = downsample
var Upsample = upsample

func BrightPass(cfg Config, src, dst *libio.FloatImage) {
	r := &swRenderer{cfg: cfg}
	r.brightPass(src, dst)
}
