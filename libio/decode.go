package libio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/pierrec/lz4/v4"
)

func DecodeFloatImage(r io.Reader) (img *FloatImage, err error) {
	br := &BinaryReader{
		Src:   r,
		Order: binary.LittleEndian,
	}

	defer func() {
		if br.Err != nil && err == nil {
			err = br.Err
		}
	}()

	header := FrameHeader{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected frame header; byte 0x%08x", br.LastIndex)
	}

	if header.Check != MagicNumberHDRF {
		return nil, fmt.Errorf("frame header is corrupt; byte 0x%08x", br.LastIndex)
	}

	if header.Version != FrameVersion1_000_000 {
		return nil, fmt.Errorf("frame version %d unsupported; byte 0x%08x", header.Version, br.LastIndex)
	}

	if header.Width > MaxFrameDimension || header.Height > MaxFrameDimension {
		return nil, fmt.Errorf("frame size %dx%d out of range; byte 0x%08x", header.Width, header.Height, br.LastIndex)
	}

	channels := int(header.Channels)
	count := int(header.Width) * int(header.Height)

	var data []float32

	switch header.Compression {
	case FrameCompressionNone:
		data = make([]float32, count*channels)
		br.ReadRef(data)
		err = br.Err
	case FrameCompressionFixedPoint16Lz4:
		buf := make([]byte, 4*2*channels+count*channels*2)
		lzr := lz4.NewReader(br.Src)
		_, err = io.ReadFull(lzr, buf)
		if err != nil {
			break
		}
		data = decompressFixedPoint16(channels, count, buf)
	default:
		return nil, fmt.Errorf("unknown frame compression %d", header.Compression)
	}

	if err != nil {
		return nil, fmt.Errorf("could not decompress frame pixels: %w", err)
	}

	return NewFloatImage(data, channels, int(header.Width), int(header.Height)), nil
}

func decompressFixedPoint16(channels, count int, data []byte) []float32 {
	result := make([]float32, count*channels)
	br := &BinaryReader{
		Src:   bytes.NewBuffer(data),
		Order: binary.LittleEndian,
	}

	for ch := 0; ch < channels; ch++ {
		var imin, imax int
		br.ReadUInt32(&imin)
		br.ReadUInt32(&imax)

		min := math32.Float32frombits(uint32(imin))
		max := math32.Float32frombits(uint32(imax))

		raw := make([]uint16, count)
		br.ReadRef(raw)

		r := max - min
		for i := 0; i < count; i++ {
			result[i*channels+ch] = (float32(raw[i])/0xffff)*r + min
		}
	}

	return result
}
