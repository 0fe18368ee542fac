package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/anemolab/anemoscope/shader"
)

// renderFormat is the offscreen target format. RGBA8Unorm keeps the
// readback bytes directly usable as raw video frames.
const renderFormat = wgpu.TextureFormatRGBA8Unorm

// signalTexture is one 1-D R32Float texture and its view.
type signalTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   int
}

func newSignalTexture(ctx *Context, label string, width int) (*signalTexture, error) {
	t, err := ctx.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             1,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension1D,
		Format:        wgpu.TextureFormatR32Float,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s texture: %w", label, err)
	}
	view, err := t.CreateView(nil)
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("creating %s texture view: %w", label, err)
	}
	return &signalTexture{texture: t, view: view, width: width}, nil
}

func (st *signalTexture) write(ctx *Context, samples []float32) error {
	return ctx.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  st.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
		},
		wgpu.ToBytes(samples),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(4 * len(samples)),
			RowsPerImage: 1,
		},
		&wgpu.Extent3D{
			Width:              uint32(len(samples)),
			Height:             1,
			DepthOrArrayLayers: 1,
		},
	)
}

func (st *signalTexture) release() {
	if st == nil {
		return
	}
	if st.view != nil {
		st.view.Release()
		st.view = nil
	}
	if st.texture != nil {
		st.texture.Release()
		st.texture = nil
	}
}

// Host draws the difference matrix into an offscreen texture and copies
// it back to the CPU. The binding layout matches the WGSL program: the
// horizontal and vertical signals as 1-D R32Float textures, a
// non-filtering sampler, and the delay scalar in a 4-byte uniform, all
// in group 0 and visible to the fragment stage only.
//
// Signal textures are sized on first upload and recreated if a later
// upload changes length, so a Host follows the Computer's window sizes
// without configuration.
type Host struct {
	ctx    *Context
	width  int
	height int

	pipeline   *wgpu.RenderPipeline
	bindLayout *wgpu.BindGroupLayout
	sampler    *wgpu.Sampler
	delayBuf   *wgpu.Buffer

	horizontal *signalTexture
	vertical   *signalTexture
	bindGroup  *wgpu.BindGroup

	target       *wgpu.Texture
	targetView   *wgpu.TextureView
	readback     *wgpu.Buffer
	paddedRow    uint32
	readbackSize uint64
}

// NewHost builds the pipeline and an offscreen target of the given
// pixel size on ctx.
func NewHost(ctx *Context, width, height int) (*Host, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	h := &Host{ctx: ctx, width: width, height: height}
	if err := h.init(); err != nil {
		h.Release()
		return nil, err
	}
	return h, nil
}

func (h *Host) init() error {
	dev := h.ctx.device

	sampler, err := dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "signal-sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("creating sampler: %w", err)
	}
	h.sampler = sampler

	delayBuf, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "delay",
		Size:  4,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating delay uniform: %w", err)
	}
	h.delayBuf = delayBuf

	layout, err := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "difference-matrix",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    shader.BindingHorizontal,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
					ViewDimension: wgpu.TextureViewDimension1D,
				},
			},
			{
				Binding:    shader.BindingVertical,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
					ViewDimension: wgpu.TextureViewDimension1D,
				},
			},
			{
				Binding:    shader.BindingSampler,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeNonFiltering,
				},
			},
			{
				Binding:    shader.BindingDelay,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 4,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating bind group layout: %w", err)
	}
	h.bindLayout = layout

	module, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "difference-matrix",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shader.GetMatrixShaderWGSL()},
	})
	if err != nil {
		return fmt.Errorf("compiling shader module: %w", err)
	}
	defer module.Release()

	plLayout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "difference-matrix",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("creating pipeline layout: %w", err)
	}
	defer plLayout.Release()

	pipeline, err := dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "difference-matrix",
		Layout: plLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: shader.VertexEntryPoint,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleStrip,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: shader.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{{
				Format:    renderFormat,
				Blend:     &wgpu.BlendStateReplace,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("creating render pipeline: %w", err)
	}
	h.pipeline = pipeline

	target, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "render-target",
		Size: wgpu.Extent3D{
			Width:              uint32(h.width),
			Height:             uint32(h.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        renderFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("creating render target: %w", err)
	}
	h.target = target
	targetView, err := target.CreateView(nil)
	if err != nil {
		return fmt.Errorf("creating render target view: %w", err)
	}
	h.targetView = targetView

	// Texture to buffer copies need rows padded to the copy alignment.
	h.paddedRow = alignUp(uint32(h.width*4), wgpu.CopyBytesPerRowAlignment)
	h.readbackSize = uint64(h.paddedRow) * uint64(h.height)
	readback, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  h.readbackSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating readback buffer: %w", err)
	}
	h.readback = readback
	return nil
}

func alignUp(n, align uint32) uint32 {
	return (n + align - 1) &^ (align - 1)
}

// Width returns the render target width in pixels.
func (h *Host) Width() int { return h.width }

// Height returns the render target height in pixels.
func (h *Host) Height() int { return h.height }

// WriteSignals uploads both signal windows. The horizontal signal is
// addressed by the fragment's u coordinate and the vertical signal by
// v. Texture storage is recreated when a signal changes length, which
// invalidates and rebuilds the bind group.
func (h *Host) WriteSignals(horizontal, vertical []float32) error {
	if len(horizontal) == 0 || len(vertical) == 0 {
		return fmt.Errorf("empty signal (horizontal %d, vertical %d samples)", len(horizontal), len(vertical))
	}
	var err error
	if h.horizontal, err = h.ensureTexture(h.horizontal, "horizontal-signal", len(horizontal)); err != nil {
		return err
	}
	if h.vertical, err = h.ensureTexture(h.vertical, "vertical-signal", len(vertical)); err != nil {
		return err
	}
	if err := h.horizontal.write(h.ctx, horizontal); err != nil {
		return fmt.Errorf("writing horizontal signal: %w", err)
	}
	if err := h.vertical.write(h.ctx, vertical); err != nil {
		return fmt.Errorf("writing vertical signal: %w", err)
	}
	if h.bindGroup == nil {
		return h.createBindGroup()
	}
	return nil
}

func (h *Host) ensureTexture(st *signalTexture, label string, width int) (*signalTexture, error) {
	if st != nil && st.width == width {
		return st, nil
	}
	st.release()
	if h.bindGroup != nil {
		h.bindGroup.Release()
		h.bindGroup = nil
	}
	return newSignalTexture(h.ctx, label, width)
}

func (h *Host) createBindGroup() error {
	bg, err := h.ctx.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "difference-matrix",
		Layout: h.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: shader.BindingHorizontal, TextureView: h.horizontal.view},
			{Binding: shader.BindingVertical, TextureView: h.vertical.view},
			{Binding: shader.BindingSampler, Sampler: h.sampler},
			{Binding: shader.BindingDelay, Buffer: h.delayBuf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("creating bind group: %w", err)
	}
	h.bindGroup = bg
	return nil
}

// SetDelay writes the normalized marker position into the uniform
// buffer. Values outside [0, 1] move the marker off the image.
func (h *Host) SetDelay(delay float32) error {
	if err := h.ctx.queue.WriteBuffer(h.delayBuf, 0, wgpu.ToBytes([]float32{delay})); err != nil {
		return fmt.Errorf("writing delay uniform: %w", err)
	}
	return nil
}

// Render draws the quad and queues a copy of the target into the
// readback buffer. Call ReadPixels to collect the frame.
func (h *Host) Render() error {
	if h.bindGroup == nil {
		return fmt.Errorf("no signals uploaded")
	}
	encoder, err := h.ctx.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("creating command encoder: %w", err)
	}
	rp := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       h.targetView,
			LoadOp:     wgpu.LoadOpClear,
			ClearValue: wgpu.Color{},
			StoreOp:    wgpu.StoreOpStore,
		}},
	})
	rp.SetPipeline(h.pipeline)
	rp.SetBindGroup(0, h.bindGroup, nil)
	rp.Draw(shader.QuadVertexCount, 1, 0, 0)
	rp.End()

	err = encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  h.target,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
		},
		&wgpu.ImageCopyBuffer{
			Buffer: h.readback,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  h.paddedRow,
				RowsPerImage: uint32(h.height),
			},
		},
		&wgpu.Extent3D{
			Width:              uint32(h.width),
			Height:             uint32(h.height),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		rp.Release()
		encoder.Release()
		return fmt.Errorf("copying target to readback buffer: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		rp.Release()
		encoder.Release()
		return fmt.Errorf("finishing command encoder: %w", err)
	}
	h.ctx.queue.Submit(cmd)
	cmd.Release()
	rp.Release()
	encoder.Release()
	return nil
}

// ReadPixels maps the readback buffer and returns the frame as tightly
// packed RGBA rows, top row first. It blocks until the device finishes
// the copy queued by Render.
func (h *Host) ReadPixels() ([]byte, error) {
	var status wgpu.BufferMapAsyncStatus
	err := h.readback.MapAsync(wgpu.MapModeRead, 0, h.readbackSize, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if err != nil {
		return nil, fmt.Errorf("mapping readback buffer: %w", err)
	}
	h.ctx.WaitDone()
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("mapping readback buffer: status %v", status)
	}
	defer h.readback.Unmap()

	mapped := h.readback.GetMappedRange(0, uint(h.readbackSize))
	rowBytes := h.width * 4
	pixels := make([]byte, rowBytes*h.height)
	for y := 0; y < h.height; y++ {
		copy(pixels[y*rowBytes:(y+1)*rowBytes], mapped[y*int(h.paddedRow):])
	}
	return pixels, nil
}

// Frame uploads the signals and delay, renders, and reads the pixels
// back in one call.
func (h *Host) Frame(horizontal, vertical []float32, delay float32) ([]byte, error) {
	if err := h.WriteSignals(horizontal, vertical); err != nil {
		return nil, err
	}
	if err := h.SetDelay(delay); err != nil {
		return nil, err
	}
	if err := h.Render(); err != nil {
		return nil, err
	}
	return h.ReadPixels()
}

// Release frees all GPU resources owned by the host. The shared
// context is not released.
func (h *Host) Release() {
	if h.bindGroup != nil {
		h.bindGroup.Release()
		h.bindGroup = nil
	}
	h.horizontal.release()
	h.horizontal = nil
	h.vertical.release()
	h.vertical = nil
	if h.readback != nil {
		h.readback.Release()
		h.readback = nil
	}
	if h.targetView != nil {
		h.targetView.Release()
		h.targetView = nil
	}
	if h.target != nil {
		h.target.Release()
		h.target = nil
	}
	if h.pipeline != nil {
		h.pipeline.Release()
		h.pipeline = nil
	}
	if h.bindLayout != nil {
		h.bindLayout.Release()
		h.bindLayout = nil
	}
	if h.delayBuf != nil {
		h.delayBuf.Release()
		h.delayBuf = nil
	}
	if h.sampler != nil {
		h.sampler.Release()
		h.sampler = nil
	}
}
