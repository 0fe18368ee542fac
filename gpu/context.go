// Package gpu renders the difference matrix through WebGPU without a
// window. It binds the two signal textures, the sampler, and the delay
// uniform in the group layout the WGSL program declares, draws the quad
// into an offscreen target, and reads the pixels back for tests and for
// video export.
package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/anemolab/anemoscope"
)

// Context owns the WebGPU instance, adapter, device, and queue shared
// by every Host created from it.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// NewContext opens the default high-performance adapter. It fails when
// the platform has no usable WebGPU backend; callers fall back to
// another render backend rather than treating that as fatal.
func NewContext() (*Context, error) {
	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("requesting adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("requesting device: %w", err)
	}
	anemoscope.Logger().Debug("webgpu device ready")
	return &Context{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
	}, nil
}

// Device returns the wgpu device.
func (c *Context) Device() *wgpu.Device { return c.device }

// Queue returns the wgpu queue.
func (c *Context) Queue() *wgpu.Queue { return c.queue }

// WaitDone blocks until the device has finished all submitted work.
func (c *Context) WaitDone() {
	c.device.Poll(true, nil)
}

// Release frees everything in reverse creation order. The context must
// not be used afterwards.
func (c *Context) Release() {
	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}
