// Package gpu provides GPU-resident buffers for rendergraph pipelines,
// backed by gogpu/wgpu textures.
//
// TexturePool implements rendergraph.BufferPool over an optional hal.Device
// with a byte budget and eviction of idle textures. When no device is
// present the pool runs in stub mode: logical textures are tracked (sizes,
// budget, recycling) without GPU resources, which keeps the scheduler and
// pooling logic testable on machines without a GPU.
//
// ShaderStage is a rendergraph.Stage whose WGSL program is compiled to
// SPIR-V via gogpu/naga at Init time. Until its render pass is wired up it
// forwards its input texture (see rendergraph.OutputForwarder).
//
// Hosts that own a GPU context hand it over through a DeviceHandle; the
// FromProvider constructors resolve the hal device from it.
package gpu
