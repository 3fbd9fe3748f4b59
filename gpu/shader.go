package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/rendergraph"
	"github.com/gogpu/wgpu/hal"
)

// Shader errors.
var (
	// ErrEmptyShader is returned when a ShaderStage is created without source.
	ErrEmptyShader = errors.New("gpu: shader source is empty")

	// ErrNotCompiled is returned when rendering a ShaderStage before Init.
	ErrNotCompiled = errors.New("gpu: shader not compiled, call Init first")
)

// CompileWGSL compiles WGSL source to a SPIR-V uint32 slice.
func CompileWGSL(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return spirvCode, nil
}

// ShaderStage is a rendergraph.Stage backed by a WGSL shader. Init compiles
// the source to SPIR-V through naga and, when a device is present, creates
// the hal shader module. Update stores the data map as shader parameters.
//
// The stage forwards its first input texture as its output (it implements
// rendergraph.OutputForwarder, so the graph obtains no pooled target for
// it). TODO(render-pass): bind the input view and the target into a bind
// group and issue the full-screen pass, then drop the forwarding.
type ShaderStage struct {
	device hal.Device
	label  string
	wgsl   string

	spirv  []uint32
	module hal.ShaderModule

	params map[string]any

	inputs []rendergraph.Buffer
	result rendergraph.Buffer
}

// NewShaderStage creates a shader stage. The device may be nil; the stage
// then compiles and validates the shader without creating GPU resources.
func NewShaderStage(device hal.Device, label, wgslSource string) *ShaderStage {
	return &ShaderStage{device: device, label: label, wgsl: wgslSource}
}

// NewShaderStageFromProvider creates a shader stage on the device exposed by
// the host's DeviceHandle. Providers without direct HAL access yield a
// stage that compiles and validates the shader without GPU resources.
func NewShaderStageFromProvider(handle DeviceHandle, label, wgslSource string) *ShaderStage {
	return NewShaderStage(halDeviceOf(handle), label, wgslSource)
}

// SPIRV returns the compiled SPIR-V words, or nil before Init.
func (s *ShaderStage) SPIRV() []uint32 { return s.spirv }

// Init compiles the WGSL source and creates the shader module.
func (s *ShaderStage) Init() error {
	if s.wgsl == "" {
		return ErrEmptyShader
	}
	spirv, err := CompileWGSL(s.wgsl)
	if err != nil {
		return fmt.Errorf("shader %q: %w", s.label, err)
	}
	s.spirv = spirv

	if s.device == nil {
		return nil
	}
	module, err := s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: s.label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return fmt.Errorf("create shader module %q: %w", s.label, err)
	}
	s.module = module
	return nil
}

// Update stores per-frame shader parameters. Any non-empty data map is
// assumed to change bindings and requests a re-render.
func (s *ShaderStage) Update(data map[string]any) bool {
	s.params = data
	return len(data) > 0
}

// SetInputs implements rendergraph.Stage.
func (s *ShaderStage) SetInputs(bufs []rendergraph.Buffer) { s.inputs = bufs }

// SetOutput implements rendergraph.Stage. The target is ignored while the
// stage forwards its input.
func (s *ShaderStage) SetOutput(rendergraph.Buffer) {}

// Output returns the buffer forwarded by the last Render, or nil before the
// first frame.
func (s *ShaderStage) Output() rendergraph.Buffer { return s.result }

// ForwardsOutput implements rendergraph.OutputForwarder.
func (s *ShaderStage) ForwardsOutput() bool { return true }

// Render validates that the shader is compiled and forwards the first input
// texture as the stage output. The extra reference keeps the forwarded
// buffer alive past the graph's per-consumer release.
func (s *ShaderStage) Render() error {
	if s.spirv == nil {
		return ErrNotCompiled
	}
	if len(s.inputs) == 0 {
		return fmt.Errorf("shader %q: %w", s.label, rendergraph.ErrMissingInput)
	}
	s.result = s.inputs[0]
	s.result.IncreaseRef(1)
	return nil
}

// Release destroys the shader module.
func (s *ShaderStage) Release() error {
	if s.module != nil && s.device != nil {
		s.device.DestroyShaderModule(s.module)
		s.module = nil
	}
	s.spirv = nil
	return nil
}
