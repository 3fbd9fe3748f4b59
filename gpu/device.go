package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (e.g. a gogpu.App) owns the device and queue; rendergraph
// receives them, it does not create them. This keeps GPU resources shared
// between the pipeline and the rest of the application.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// rendergraph-specific name while staying compatible with the gpucontext
// ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// halDeviceOf extracts the hal device from a provider. Providers that expose
// direct HAL access implement HalDevice() any returning a hal.Device; any
// other provider (including NullDeviceHandle) yields nil.
func halDeviceOf(handle DeviceHandle) hal.Device {
	type halProvider interface {
		HalDevice() any
	}
	hp, ok := handle.(halProvider)
	if !ok {
		return nil
	}
	device, _ := hp.HalDevice().(hal.Device)
	return device
}

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only pipelines where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo returns unknown adapter info for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

// textureDescriptor builds the hal descriptor for a pooled 2D color texture.
func textureDescriptor(label string, width, height int, format Format, usage gputypes.TextureUsage) *hal.TextureDescriptor {
	return &hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format.ToWGPUFormat(),
		Usage:         usage,
	}
}
