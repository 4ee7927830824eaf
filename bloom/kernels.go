package bloom

// filterTap is one bilinear sample of a blur kernel, offset in texels of the
// sampled level, weight pre-normalized so each kernel sums to exactly 1 and
// constant fields pass through unchanged.
type filterTap struct {
	du, dv float32
	weight float32
}

// downsampleTaps13 is the canonical minification kernel: the inner 2x2 box
// plus four overlapping outer boxes, 13 bilinear taps total. Offsets are
// relative to the corner shared by the 2x2 source block of each output pixel.
var downsampleTaps13 = []filterTap{
	{0, 0, 0.125},

	{-1, -1, 0.125},
	{1, -1, 0.125},
	{-1, 1, 0.125},
	{1, 1, 0.125},

	{-2, 0, 0.0625},
	{2, 0, 0.0625},
	{0, -2, 0.0625},
	{0, 2, 0.0625},

	{-2, -2, 0.03125},
	{2, -2, 0.03125},
	{-2, 2, 0.03125},
	{2, 2, 0.03125},
}

// downsampleTaps5 is the cheaper dual-filter variant: center weighted 4 plus
// the four diagonal half-texel taps, normalized by 8.
var downsampleTaps5 = []filterTap{
	{0, 0, 4.0 / 8.0},
	{-1, -1, 1.0 / 8.0},
	{1, -1, 1.0 / 8.0},
	{-1, 1, 1.0 / 8.0},
	{1, 1, 1.0 / 8.0},
}

// upsampleTaps9 is the canonical tent kernel over the coarser level:
// 1-2-1 / 2-4-2 / 1-2-1, normalized by its weight sum.
var upsampleTaps9 = []filterTap{
	{-1, -1, 1.0 / 16.0},
	{0, -1, 2.0 / 16.0},
	{1, -1, 1.0 / 16.0},
	{-1, 0, 2.0 / 16.0},
	{0, 0, 4.0 / 16.0},
	{1, 0, 2.0 / 16.0},
	{-1, 1, 1.0 / 16.0},
	{0, 1, 2.0 / 16.0},
	{1, 1, 1.0 / 16.0},
}

// upsampleTaps4 is the cheaper variant: four half-texel taps weighted 2,
// normalized by 8.
var upsampleTaps4 = []filterTap{
	{-0.5, -0.5, 2.0 / 8.0},
	{0.5, -0.5, 2.0 / 8.0},
	{-0.5, 0.5, 2.0 / 8.0},
	{0.5, 0.5, 2.0 / 8.0},
}

// the kernels selected by every renderer implementation
var (
	downsampleTaps = downsampleTaps13
	upsampleTaps   = upsampleTaps9
)
