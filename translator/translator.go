// Package translator vends the process-wide shader translator used to
// turn the ESSL rendition of the difference program into the dialect
// the active OpenGL context accepts.
package translator

import (
	"context"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// Get returns the shared shader translator, instantiating it on first
// use. The translator boots a wasm build of ANGLE, so the first call is
// slow; every later call returns the same instance.
func Get() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, initErr
}
