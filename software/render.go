package software

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/chewxy/math32"

	"github.com/anemolab/anemoscope/shader"
	"github.com/anemolab/anemoscope/signal"
)

// QuadVertex returns the clip-space position and texture coordinate of
// one of the four vertices of the full-screen strip, mirroring the
// vertex stage of the WGSL program. Index 0 is the bottom-left corner;
// the strip order is left column bottom-to-top, then right column.
func QuadVertex(index int) (position [4]float32, uv [2]float32) {
	corners := [4][2]float32{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	uvs := [4][2]float32{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	c := corners[index]
	return [4]float32{c[0], c[1], 0, 1}, uvs[index]
}

// Shade evaluates the difference-matrix fragment program at texture
// coordinate (u, v): sample both signals, take the absolute difference,
// and map it through -log(d)/10 so close agreement renders bright. The
// column where u falls within the marker half-width of delay is flooded
// red. Alpha is always zero; hosts composite the image opaquely.
func Shade(u, v float32, horizontal, vertical *signal.Buffer1D, delay float32) Color {
	h := horizontal.Sample(u)
	vs := vertical.Sample(v)
	d := math32.Abs(vs - h)
	intensity := -math32.Log(math32.Max(d, shader.MinDifference)) / shader.IntensityDivisor
	c := Color{R: intensity, G: intensity, B: intensity, A: 0}
	if math32.Abs(u-delay) < shader.MarkerHalfWidth {
		c.R = 1.0
	}
	return c
}

// Renderer rasterizes the difference matrix into a pixmap, splitting
// rows across worker goroutines.
type Renderer struct {
	width   int
	height  int
	workers int
}

// NewRenderer creates a renderer for the given output size. It uses one
// worker per CPU.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		width:   width,
		height:  height,
		workers: runtime.NumCPU(),
	}
}

// Render rasterizes one frame into a freshly allocated pixmap.
func (r *Renderer) Render(horizontal, vertical *signal.Buffer1D, delay float32) *Pixmap {
	pm := NewPixmap(r.width, r.height)
	// Size always matches a freshly allocated pixmap.
	_ = r.RenderInto(pm, horizontal, vertical, delay)
	return pm
}

// RenderInto rasterizes one frame into an existing pixmap, reusing its
// storage. The pixmap dimensions must match the renderer's.
func (r *Renderer) RenderInto(pm *Pixmap, horizontal, vertical *signal.Buffer1D, delay float32) error {
	if pm.Width() != r.width || pm.Height() != r.height {
		return fmt.Errorf("pixmap is %dx%d, renderer expects %dx%d",
			pm.Width(), pm.Height(), r.width, r.height)
	}

	workers := r.workers
	if workers > r.height {
		workers = r.height
	}
	if workers < 1 {
		workers = 1
	}

	rowsPer := (r.height + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		y0 := w * rowsPer
		y1 := min(y0+rowsPer, r.height)
		if y0 >= y1 {
			break
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			r.renderRows(pm, horizontal, vertical, delay, y0, y1)
		}(y0, y1)
	}
	wg.Wait()
	return nil
}

// renderRows shades the pixel rows [y0, y1). Pixel centers map to
// texture coordinates the same way the GPU rasterizes the quad: u grows
// rightward, v grows upward, and row 0 is the top scanline.
func (r *Renderer) renderRows(pm *Pixmap, horizontal, vertical *signal.Buffer1D, delay float32, y0, y1 int) {
	for y := y0; y < y1; y++ {
		v := 1 - (float32(y)+0.5)/float32(r.height)
		for x := 0; x < r.width; x++ {
			u := (float32(x) + 0.5) / float32(r.width)
			pm.SetPixel(x, y, Shade(u, v, horizontal, vertical, delay))
		}
	}
}
