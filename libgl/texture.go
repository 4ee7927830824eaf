package libgl

import (
	"log"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type texture struct {
	glId   uint32
	target uint32
	width  int32
	height int32
	levels int32
}

type UnboundTexture interface {
	LabeledGlObject
	Id() uint32
	Type() uint32
	Width() int
	Height() int
	Bind(unit int) BoundTexture
	Allocate(levels int, internalFormat uint32, width, height int)
	Load(level int, width, height int, format uint32, data any)
	Fetch(level int, format uint32, data any, size int)
	MipmapLevels(base, max int)
	GenerateMipmap()
	Delete()
}

type BoundTexture interface {
	UnboundTexture
}

func NewTexture(target uint32) UnboundTexture {
	var id uint32
	gl.CreateTextures(target, 1, &id)
	return &texture{
		glId:   id,
		target: target,
	}
}

func (tex *texture) Id() uint32 {
	return tex.glId
}

func (tex *texture) Type() uint32 {
	return tex.target
}

func (tex *texture) Width() int {
	return int(tex.width)
}

func (tex *texture) Height() int {
	return int(tex.height)
}

func (tex *texture) SetDebugLabel(label string) {
	setObjectLabel(gl.TEXTURE, tex.glId, label)
}

func (tex *texture) Bind(unit int) BoundTexture {
	State.BindTextureUnit(unit, tex.glId)
	return BoundTexture(tex)
}

func (tex *texture) Allocate(levels int, internalFormat uint32, width, height int) {
	if levels == 0 {
		max := width
		if height > max {
			max = height
		}
		for levels = 1; max>>levels > 0; levels++ {
		}
	}
	tex.width = int32(width)
	tex.height = int32(height)
	tex.levels = int32(levels)
	gl.TextureStorage2D(tex.glId, int32(levels), internalFormat, int32(width), int32(height))
}

func (tex *texture) Load(level int, width, height int, format uint32, data any) {
	gl.TextureSubImage2D(tex.glId, int32(level), 0, 0, int32(width), int32(height), format, glTypeOf(data), Pointer(data))
}

// Fetch reads the full level back into client memory; size is in bytes.
func (tex *texture) Fetch(level int, format uint32, data any, size int) {
	gl.GetTextureImage(tex.glId, int32(level), format, glTypeOf(data), int32(size), Pointer(data))
}

func (tex *texture) GenerateMipmap() {
	gl.GenerateTextureMipmap(tex.glId)
}

func (tex *texture) MipmapLevels(base, max int) {
	gl.TextureParameteri(tex.glId, gl.TEXTURE_BASE_LEVEL, int32(base))
	gl.TextureParameteri(tex.glId, gl.TEXTURE_MAX_LEVEL, int32(max))
}

func (tex *texture) Delete() {
	gl.DeleteTextures(1, &tex.glId)
	tex.glId = 0
}

func glTypeOf(data any) uint32 {
	switch data.(type) {
	case byte, []byte, *byte:
		return gl.UNSIGNED_BYTE
	case int8, []int8, *int8:
		return gl.BYTE
	case int16, []int16, *int16:
		return gl.SHORT
	case uint16, []uint16, *uint16:
		return gl.UNSIGNED_SHORT
	case int32, []int32, *int32:
		return gl.INT
	case uint32, []uint32, *uint32:
		return gl.UNSIGNED_INT
	case float32, []float32, *float32, mgl32.Vec2, []mgl32.Vec2, mgl32.Vec3, []mgl32.Vec3, mgl32.Vec4, []mgl32.Vec4:
		return gl.FLOAT
	}
	log.Panicf("invalid type: %T", data)
	return 0
}

type sampler struct {
	glId uint32
}

type UnboundSampler interface {
	LabeledGlObject
	Id() uint32
	Bind(unit int) BoundSampler
	FilterMode(min, mag int32)
	WrapMode(s, t int32)
	BorderColor(color mgl32.Vec4)
	Delete()
}

type BoundSampler interface {
	UnboundSampler
}

func NewSampler() UnboundSampler {
	var id uint32
	gl.CreateSamplers(1, &id)
	return &sampler{
		glId: id,
	}
}

func (s *sampler) Id() uint32 {
	return s.glId
}

func (s *sampler) SetDebugLabel(label string) {
	setObjectLabel(gl.SAMPLER, s.glId, label)
}

func (s *sampler) Bind(unit int) BoundSampler {
	State.BindSampler(unit, s.glId)
	return BoundSampler(s)
}

func (s *sampler) FilterMode(min, mag int32) {
	if min != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (sampler *sampler) WrapMode(s, t int32) {
	if s != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_T, t)
	}
}

func (sampler *sampler) BorderColor(color mgl32.Vec4) {
	gl.SamplerParameterfv(sampler.glId, gl.TEXTURE_BORDER_COLOR, &color[0])
}

func (sampler *sampler) Delete() {
	gl.DeleteSamplers(1, &sampler.glId)
	sampler.glId = 0
}
