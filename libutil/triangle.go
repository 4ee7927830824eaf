package libutil

import (
	"bloomfx/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
)

var sharedTriangleVao libgl.UnboundVertexArray

// DrawTriangle issues one attribute-less fullscreen triangle. The vertex
// shader derives position and uv from gl_VertexID, so the vao stays empty.
func DrawTriangle() {
	if sharedTriangleVao == nil {
		sharedTriangleVao = libgl.NewVertexArray()
	}

	sharedTriangleVao.Bind()
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}
