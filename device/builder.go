// Package device executes the stencil kernels on an OCCA device
// (Serial, OpenMP, CUDA, ...) through gocca. The per-cell math is the
// same as the host kernels in package kernels; here it is emitted as
// OKL source specialized for the launch geometry, compiled per device,
// and run over whole-field buffers.
package device

import (
	"fmt"
	"strings"

	"github.com/structgrid/mgkernel/grid"
)

// DataType represents the precision of numerical data.
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	Int32
)

// Size returns the width of the type in bytes.
func (dt DataType) Size() int64 {
	switch dt {
	case Float32, Int32:
		return 4
	default:
		return 8
	}
}

// Config holds configuration for creating a Builder or Runner.
type Config struct {
	// FloatType selects the real type used for every field value and
	// scalar coefficient on the device. Defaults to Float64.
	FloatType DataType
}

// Builder generates the OKL preamble shared by all kernels: type
// definitions plus one flattened-index macro per registered field,
// with the field's covering box baked in as literal strides.
type Builder struct {
	FloatType DataType

	// fields in registration order, for deterministic preambles
	fieldNames []string
	fields     map[string]fieldMeta

	KernelPreamble string
}

type fieldMeta struct {
	box grid.Box
	dt  DataType
}

// NewBuilder creates a new Builder instance.
func NewBuilder(cfg Config) *Builder {
	floatType := cfg.FloatType
	if floatType == 0 {
		floatType = Float64
	}
	return &Builder{
		FloatType: floatType,
		fields:    make(map[string]fieldMeta),
	}
}

// RegisterField records a field's covering box and element type so the
// preamble can emit its index macro. The box must be non-empty.
func (kb *Builder) RegisterField(name string, bx grid.Box, dt DataType) error {
	if bx.IsEmpty() {
		return fmt.Errorf("field %s has empty extent %v", name, bx)
	}
	if _, exists := kb.fields[name]; exists {
		return fmt.Errorf("field %s already registered", name)
	}
	if dt == Float32 || dt == Float64 {
		if dt != kb.FloatType {
			return fmt.Errorf("field %s type does not match builder float type", name)
		}
	}
	kb.fieldNames = append(kb.fieldNames, name)
	kb.fields[name] = fieldMeta{box: bx, dt: dt}
	return nil
}

// FieldBox returns the covering box of a registered field.
func (kb *Builder) FieldBox(name string) (grid.Box, bool) {
	meta, ok := kb.fields[name]
	return meta.box, ok
}

// GeneratePreamble generates type definitions and per-field index
// macros. Called before every kernel build so late-registered fields
// are picked up.
func (kb *Builder) GeneratePreamble() string {
	var sb strings.Builder

	sb.WriteString(kb.generateTypeDefinitions())
	sb.WriteString(kb.generateIndexMacros())

	kb.KernelPreamble = sb.String()
	return kb.KernelPreamble
}

// generateTypeDefinitions creates type definitions based on precision settings
func (kb *Builder) generateTypeDefinitions() string {
	var sb strings.Builder

	floatTypeStr := "double"
	floatSuffix := ""
	if kb.FloatType == Float32 {
		floatTypeStr = "float"
		floatSuffix = "f"
	}

	sb.WriteString(fmt.Sprintf("typedef %s real_t;\n", floatTypeStr))
	sb.WriteString("typedef int mask_t;\n")
	sb.WriteString(fmt.Sprintf("#define REAL_ZERO 0.0%s\n", floatSuffix))
	sb.WriteString(fmt.Sprintf("#define REAL_TWO 2.0%s\n", floatSuffix))
	sb.WriteString(fmt.Sprintf("#define OMEGA 1.15%s\n", floatSuffix))
	sb.WriteString("\n")

	return sb.String()
}

// generateIndexMacros emits IDX_<name>(i,j,k) for each field, flattening
// a 3D index into the field's backing buffer with i fastest.
func (kb *Builder) generateIndexMacros() string {
	var sb strings.Builder

	sb.WriteString("// Field index macros\n")
	for _, name := range kb.fieldNames {
		bx := kb.fields[name].box
		strideJ := bx.Length(grid.X)
		strideK := strideJ * bx.Length(grid.Y)
		sb.WriteString(fmt.Sprintf(
			"#define IDX_%s(i,j,k) (((k) - (%d))*%d + ((j) - (%d))*%d + ((i) - (%d)))\n",
			name, bx.Lo[grid.Z], strideK, bx.Lo[grid.Y], strideJ, bx.Lo[grid.X]))
	}
	sb.WriteString("\n")

	return sb.String()
}
