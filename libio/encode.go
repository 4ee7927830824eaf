package libio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/pierrec/lz4/v4"
)

// EncodeFloatImage writes a .f32 frame container. The fixed-point compression
// stores each channel remapped to uint16 over its own min/max range, then
// LZ4-compresses the result.
func EncodeFloatImage(w io.Writer, img *FloatImage, compression FrameCompression) (err error) {
	bw := &BinaryWriter{
		Dst:   w,
		Order: binary.LittleEndian,
	}

	defer func() {
		if bw.Err != nil && err == nil {
			err = bw.Err
		}
	}()

	header := FrameHeader{
		Check:       MagicNumberHDRF,
		Version:     FrameVersion1_000_000,
		Width:       uint32(img.Width),
		Height:      uint32(img.Height),
		Channels:    uint8(img.Channels),
		Compression: compression,
	}

	if !bw.WriteRef(header) {
		return fmt.Errorf("could not write frame header: %w", bw.Err)
	}

	switch compression {
	case FrameCompressionNone:
		if !bw.WriteRef(img.Pix) {
			return fmt.Errorf("could not write frame pixels: %w", bw.Err)
		}
		return nil
	case FrameCompressionFixedPoint16Lz4:
		data := compressFixedPoint16(img)
		buf := bytes.NewBuffer(nil)
		lzw := lz4.NewWriter(buf)
		lzw.Apply(lz4.CompressionLevelOption(lz4.Fast))
		if _, err = lzw.Write(data); err != nil {
			return fmt.Errorf("could not compress frame pixels: %w", err)
		}
		if err = lzw.Close(); err != nil {
			return fmt.Errorf("could not compress frame pixels: %w", err)
		}
		if !bw.WriteBytes(buf.Bytes()) {
			return fmt.Errorf("could not write frame pixels: %w", bw.Err)
		}
		return nil
	}

	return fmt.Errorf("unknown frame compression %d", compression)
}

func compressFixedPoint16(img *FloatImage) []byte {
	channels, count := img.Channels, img.Count()
	buf := bytes.NewBuffer(make([]byte, 0, 4*2*channels+count*channels*2))
	bw := &BinaryWriter{Order: binary.LittleEndian, Dst: buf}

	for ch := 0; ch < channels; ch++ {
		min, max := math32.Inf(1), math32.Inf(-1)
		for i := 0; i < count; i++ {
			v := img.Pix[i*channels+ch]
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}

		bw.WriteUInt32(math32.Float32bits(min))
		bw.WriteUInt32(math32.Float32bits(max))

		r := max - min
		if r == 0 {
			// constant channel, every sample maps to min
			r = 1
		}
		for i := 0; i < count; i++ {
			flt := img.Pix[i*channels+ch]
			bw.WriteUInt16(uint16(((flt - min) / r) * 0xffff))
		}
	}

	return buf.Bytes()
}
