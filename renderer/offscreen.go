package renderer

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// offscreenTarget is the render target for record mode: a color-only
// RGBA8 FBO the size of the output video.
type offscreenTarget struct {
	fbo       uint32
	textureID uint32
	width     int
	height    int
}

func newOffscreenTarget(width, height int) (*offscreenTarget, error) {
	ot := &offscreenTarget{width: width, height: height}

	gl.GenFramebuffers(1, &ot.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, ot.fbo)
	gl.GenTextures(1, &ot.textureID)
	gl.BindTexture(gl.TEXTURE_2D, ot.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, ot.textureID, 0)
	if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return nil, fmt.Errorf("offscreen fbo is not complete")
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	return ot, nil
}

// ReadFrame reads the target into tightly packed RGBA rows. GL returns
// the bottom scanline first, so the rows are flipped into image order
// on the way out.
func (ot *offscreenTarget) ReadFrame() []byte {
	pixels := make([]byte, ot.width*ot.height*4)
	gl.BindFramebuffer(gl.FRAMEBUFFER, ot.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.ReadPixels(0, 0, int32(ot.width), int32(ot.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	flipRows(pixels, ot.width, ot.height)
	return pixels
}

func (ot *offscreenTarget) Destroy() {
	gl.DeleteFramebuffers(1, &ot.fbo)
	gl.DeleteTextures(1, &ot.textureID)
}

// flipRows reverses the scanline order of tightly packed RGBA pixels in
// place.
func flipRows(pixels []byte, width, height int) {
	stride := width * 4
	tmp := make([]byte, stride)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pixels[top*stride : (top+1)*stride]
		b := pixels[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
