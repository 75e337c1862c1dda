package frame

import (
	"encoding/binary"
	"os"
	"unsafe"

	"github.com/pkg/errors"
	lin "github.com/xlab/linmath"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// Format is the layout of a vertex attribute or a render target texel.
type Format int

const (
	FormatUnknown Format = iota
	FormatR8G8B8A8Unorm
	FormatR32G32B32Float
	FormatR32G32B32A32Float
)

// Size returns the size of one element in bytes.
func (f Format) Size() uint32 {
	switch f {
	case FormatR8G8B8A8Unorm:
		return 4
	case FormatR32G32B32Float:
		return 12
	case FormatR32G32B32A32Float:
		return 16
	}
	return 0
}

// VertexAttribute is one element of the input layout.
type VertexAttribute struct {
	Semantic string
	Location uint32
	Format   Format
	Offset   uint32
}

// PipelineDesc describes the graphics pipeline state. It is created at
// startup but no draw call ever uses it.
type PipelineDesc struct {
	VertexShader []byte
	PixelShader  []byte
	InputLayout  []VertexAttribute
	Stride       uint32
	Topology     Topology

	RenderTargetFormat Format
	DepthEnable        bool
}

// PosColorVertex is the vertex the pipeline's input layout describes.
type PosColorVertex struct {
	Pos   lin.Vec3
	Color lin.Vec4
}

// PosColorLayout returns the input layout of PosColorVertex.
func PosColorLayout() []VertexAttribute {
	var v PosColorVertex
	return []VertexAttribute{
		{Semantic: "POSITION", Location: 0, Format: FormatR32G32B32Float, Offset: uint32(unsafe.Offsetof(v.Pos))},
		{Semantic: "COLOR", Location: 1, Format: FormatR32G32B32A32Float, Offset: uint32(unsafe.Offsetof(v.Color))},
	}
}

// NewPosColorPipelineDesc builds the triangle pipeline description from the
// two shader blobs.
func NewPosColorPipelineDesc(vs, ps []byte) *PipelineDesc {
	return &PipelineDesc{
		VertexShader:       vs,
		PixelShader:        ps,
		InputLayout:        PosColorLayout(),
		Stride:             uint32(unsafe.Sizeof(PosColorVertex{})),
		Topology:           TopologyTriangleList,
		RenderTargetFormat: FormatR8G8B8A8Unorm,
		DepthEnable:        false,
	}
}

// Validate checks that both shaders are SPIR-V and the layout fits the
// stride.
func (d *PipelineDesc) Validate() error {
	if err := ValidateShader(d.VertexShader); err != nil {
		return errors.Wrap(err, "vertex shader")
	}
	if err := ValidateShader(d.PixelShader); err != nil {
		return errors.Wrap(err, "pixel shader")
	}
	for _, a := range d.InputLayout {
		if a.Format.Size() == 0 {
			return errors.Wrapf(ErrInvalidOperation, "attribute %s has no format", a.Semantic)
		}
		if a.Offset+a.Format.Size() > d.Stride {
			return errors.Wrapf(ErrInvalidOperation, "attribute %s ends past stride %d", a.Semantic, d.Stride)
		}
	}
	return nil
}

// ValidateShader checks the SPIR-V header of a shader blob.
func ValidateShader(code []byte) error {
	if len(code) < 20 || len(code)%4 != 0 {
		return errors.Wrapf(ErrInvalidOperation, "shader blob of %d bytes is not SPIR-V", len(code))
	}
	if binary.LittleEndian.Uint32(code) != SPIRVMagic {
		return errors.Wrap(ErrInvalidOperation, "shader blob has no SPIR-V magic")
	}
	return nil
}

// LoadShader reads a precompiled shader from disk.
func LoadShader(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Fail("load shader", errors.Wrap(ErrNotFound, path))
		}
		return nil, Fail("load shader", errors.Wrap(err, path))
	}
	if err := ValidateShader(code); err != nil {
		return nil, Fail("load shader", errors.Wrap(err, path))
	}
	return code, nil
}
