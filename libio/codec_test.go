package libio_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"bloomfx/libio"
)

func makeTestImage(channels, width, height int) *libio.FloatImage {
	rng := rand.New(rand.NewSource(7))
	pix := make([]float32, channels*width*height)
	for i := range pix {
		pix[i] = rng.Float32() * 24
	}
	return libio.NewFloatImage(pix, channels, width, height)
}

func TestEncodeDecodeNone(t *testing.T) {
	img := makeTestImage(4, 48, 32)

	buf := bytes.NewBuffer(nil)
	err := libio.EncodeFloatImage(buf, img, libio.FrameCompressionNone)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := libio.DecodeFloatImage(buf)
	if err != nil {
		t.Fatal(err)
	}

	if decoded.Width != img.Width || decoded.Height != img.Height || decoded.Channels != img.Channels {
		t.Fatalf("decoded frame should be 48x32x4 but is %dx%dx%d\n",
			decoded.Width, decoded.Height, decoded.Channels)
	}
	for i := range img.Pix {
		if decoded.Pix[i] != img.Pix[i] {
			t.Fatalf("sample %d should be %v but is %v\n", i, img.Pix[i], decoded.Pix[i])
		}
	}
}

func TestEncodeDecodeFixedPoint(t *testing.T) {
	img := makeTestImage(4, 48, 32)

	buf := bytes.NewBuffer(nil)
	err := libio.EncodeFloatImage(buf, img, libio.FrameCompressionFixedPoint16Lz4)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := libio.DecodeFloatImage(buf)
	if err != nil {
		t.Fatal(err)
	}

	// 16 bit fixed point over a 0..24 range resolves to about 4e-4
	for i := range img.Pix {
		if math.Abs(float64(decoded.Pix[i]-img.Pix[i])) > 0.001 {
			t.Fatalf("sample %d should be %v but is %v\n", i, img.Pix[i], decoded.Pix[i])
		}
	}
}

func TestEncodeDecodeConstantChannel(t *testing.T) {
	img := libio.NewUniformFloatImage(4, 16, 16, 0.25, 0.5, 0.75, 1)

	buf := bytes.NewBuffer(nil)
	err := libio.EncodeFloatImage(buf, img, libio.FrameCompressionFixedPoint16Lz4)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := libio.DecodeFloatImage(buf)
	if err != nil {
		t.Fatal(err)
	}

	for i := range img.Pix {
		if math.Abs(float64(decoded.Pix[i]-img.Pix[i])) > 0.0001 {
			t.Fatalf("sample %d should be %v but is %v\n", i, img.Pix[i], decoded.Pix[i])
		}
	}
}

func TestDecodeCorruptHeader(t *testing.T) {
	img := makeTestImage(4, 8, 8)

	buf := bytes.NewBuffer(nil)
	if err := libio.EncodeFloatImage(buf, img, libio.FrameCompressionNone); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	data[0] ^= 0xff

	if _, err := libio.DecodeFloatImage(bytes.NewBuffer(data)); err == nil {
		t.Error("expected an error for a corrupt magic number")
	}
}

func TestDecodeTruncated(t *testing.T) {
	img := makeTestImage(4, 8, 8)

	buf := bytes.NewBuffer(nil)
	if err := libio.EncodeFloatImage(buf, img, libio.FrameCompressionNone); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	if _, err := libio.DecodeFloatImage(bytes.NewBuffer(data[:16])); err == nil {
		t.Error("expected an error for a truncated stream")
	}
}

func TestDecodeOversizedHeader(t *testing.T) {
	header := libio.FrameHeader{
		Check:       libio.MagicNumberHDRF,
		Version:     libio.FrameVersion1_000_000,
		Width:       0xffffffff,
		Height:      0xffffffff,
		Channels:    4,
		Compression: libio.FrameCompressionNone,
	}

	buf := bytes.NewBuffer(nil)
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		t.Fatal(err)
	}

	// the stated size must be rejected before anything is allocated
	if _, err := libio.DecodeFloatImage(buf); err == nil {
		t.Error("expected an error for an oversized frame header")
	}
}

func TestEncodeUnknownCompression(t *testing.T) {
	img := makeTestImage(4, 8, 8)

	buf := bytes.NewBuffer(nil)
	if err := libio.EncodeFloatImage(buf, img, libio.FrameCompression(99)); err == nil {
		t.Error("expected an error for an unknown compression")
	}
}
