package device

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"

	"github.com/structgrid/mgkernel/grid"
)

// kernelDef records the compiled kernels behind one logical operation
// and the field arguments they take, in argument order.
type kernelDef struct {
	kernelNames []string // one entry, except boundary flux (two slabs)
	fieldArgs   []string
}

// Runner owns the device-side state for one launch geometry: field
// buffers, compiled kernels, and the generated preamble. Fields are
// whole-buffer allocations covering their ghost-extended boxes; every
// kernel is specialized to its sweep box at build time.
type Runner struct {
	*Builder
	Device  *gocca.OCCADevice
	Kernels map[string]*gocca.OCCAKernel
	Memory  map[string]*gocca.OCCAMemory

	defs map[string]*kernelDef
}

// NewRunner creates a new Runner instance.
func NewRunner(device *gocca.OCCADevice, cfg Config) *Runner {
	if device == nil {
		panic("device cannot be nil")
	}
	return &Runner{
		Builder: NewBuilder(cfg),
		Device:  device,
		Kernels: make(map[string]*gocca.OCCAKernel),
		Memory:  make(map[string]*gocca.OCCAMemory),
		defs:    make(map[string]*kernelDef),
	}
}

// AllocField allocates a device buffer for a real field covering bx.
func (r *Runner) AllocField(name string, bx grid.Box) error {
	return r.alloc(name, bx, r.FloatType)
}

// AllocMaskField allocates a device buffer for an integer mask field.
func (r *Runner) AllocMaskField(name string, bx grid.Box) error {
	return r.alloc(name, bx, Int32)
}

func (r *Runner) alloc(name string, bx grid.Box, dt DataType) error {
	if err := r.RegisterField(name, bx, dt); err != nil {
		return err
	}
	bytes := int64(bx.NumPts()) * dt.Size()
	r.Memory[name] = r.Device.Malloc(bytes, nil, nil)
	return nil
}

// WriteField copies a host slice to a field's device buffer,
// converting between float32 and float64 when the host precision does
// not match the device's. Accepts []float64, []float32, or []int32.
func (r *Runner) WriteField(name string, data interface{}) error {
	mem, meta, err := r.fieldMem(name)
	if err != nil {
		return err
	}
	n := meta.box.NumPts()

	switch d := data.(type) {
	case []float64:
		if meta.dt == Int32 {
			return fmt.Errorf("field %s is a mask field", name)
		}
		if len(d) != n {
			return fmt.Errorf("field %s: host slice has %d values, need %d", name, len(d), n)
		}
		if r.FloatType == Float32 {
			converted := make([]float32, n)
			for i, v := range d {
				converted[i] = float32(v)
			}
			mem.CopyFrom(unsafe.Pointer(&converted[0]), int64(n*4))
		} else {
			mem.CopyFrom(unsafe.Pointer(&d[0]), int64(n*8))
		}
	case []float32:
		if meta.dt == Int32 {
			return fmt.Errorf("field %s is a mask field", name)
		}
		if len(d) != n {
			return fmt.Errorf("field %s: host slice has %d values, need %d", name, len(d), n)
		}
		if r.FloatType == Float64 {
			converted := make([]float64, n)
			for i, v := range d {
				converted[i] = float64(v)
			}
			mem.CopyFrom(unsafe.Pointer(&converted[0]), int64(n*8))
		} else {
			mem.CopyFrom(unsafe.Pointer(&d[0]), int64(n*4))
		}
	case []int32:
		if meta.dt != Int32 {
			return fmt.Errorf("field %s is not a mask field", name)
		}
		if len(d) != n {
			return fmt.Errorf("field %s: host slice has %d values, need %d", name, len(d), n)
		}
		mem.CopyFrom(unsafe.Pointer(&d[0]), int64(n*4))
	default:
		return fmt.Errorf("field %s: unsupported host slice type %T", name, data)
	}
	return nil
}

// ReadField copies a field's device buffer back to a host slice, with
// the same precision conversion rules as WriteField.
func (r *Runner) ReadField(name string, data interface{}) error {
	mem, meta, err := r.fieldMem(name)
	if err != nil {
		return err
	}
	n := meta.box.NumPts()

	switch d := data.(type) {
	case []float64:
		if meta.dt == Int32 {
			return fmt.Errorf("field %s is a mask field", name)
		}
		if len(d) != n {
			return fmt.Errorf("field %s: host slice has %d values, need %d", name, len(d), n)
		}
		if r.FloatType == Float32 {
			deviceData := make([]float32, n)
			mem.CopyTo(unsafe.Pointer(&deviceData[0]), int64(n*4))
			for i, v := range deviceData {
				d[i] = float64(v)
			}
		} else {
			mem.CopyTo(unsafe.Pointer(&d[0]), int64(n*8))
		}
	case []float32:
		if meta.dt == Int32 {
			return fmt.Errorf("field %s is a mask field", name)
		}
		if len(d) != n {
			return fmt.Errorf("field %s: host slice has %d values, need %d", name, len(d), n)
		}
		if r.FloatType == Float64 {
			deviceData := make([]float64, n)
			mem.CopyTo(unsafe.Pointer(&deviceData[0]), int64(n*8))
			for i, v := range deviceData {
				d[i] = float32(v)
			}
		} else {
			mem.CopyTo(unsafe.Pointer(&d[0]), int64(n*4))
		}
	case []int32:
		if meta.dt != Int32 {
			return fmt.Errorf("field %s is not a mask field", name)
		}
		if len(d) != n {
			return fmt.Errorf("field %s: host slice has %d values, need %d", name, len(d), n)
		}
		mem.CopyTo(unsafe.Pointer(&d[0]), int64(n*4))
	default:
		return fmt.Errorf("field %s: unsupported host slice type %T", name, data)
	}
	return nil
}

func (r *Runner) fieldMem(name string) (*gocca.OCCAMemory, fieldMeta, error) {
	meta, exists := r.fields[name]
	if !exists {
		return nil, fieldMeta{}, fmt.Errorf("field %s not allocated", name)
	}
	return r.Memory[name], meta, nil
}

// real converts a scalar to the device's real width.
func (r *Runner) real(v float64) interface{} {
	if r.FloatType == Float32 {
		return float32(v)
	}
	return v
}

// buildOne compiles one kernel from source with the shared preamble.
func (r *Runner) buildOne(source, kernelName string) error {
	r.GeneratePreamble()
	fullSource := r.KernelPreamble + "\n" + source

	var kernel *gocca.OCCAKernel
	var err error

	if r.Device.Mode() == "OpenMP" {
		// Workaround for OCCA bug: OpenMP doesn't get default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = r.Device.BuildKernelFromString(fullSource, kernelName, props)
	} else {
		kernel, err = r.Device.BuildKernelFromString(fullSource, kernelName, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return fmt.Errorf("kernel build returned nil for %s", kernelName)
	}

	r.Kernels[kernelName] = kernel
	return nil
}

func (r *Runner) checkFields(names ...string) error {
	for _, name := range names {
		if _, exists := r.fields[name]; !exists {
			return fmt.Errorf("field %s not allocated", name)
		}
	}
	return nil
}

// BuildADotX compiles the operator-apply kernel over bx writing y from
// x and a. Scalars (alpha, dhx, dhy, dhz) arrive at run time.
func (r *Runner) BuildADotX(name string, bx grid.Box, y, x, a string) error {
	if err := r.checkFields(y, x, a); err != nil {
		return err
	}
	if err := r.buildOne(adotxSource(name, bx, y, x, a), name); err != nil {
		return err
	}
	r.defs[name] = &kernelDef{kernelNames: []string{name}, fieldArgs: []string{y, x, a}}
	return nil
}

// BuildNormalize compiles the diagonal-normalize kernel over bx.
func (r *Runner) BuildNormalize(name string, bx grid.Box, x, a string) error {
	if err := r.checkFields(x, a); err != nil {
		return err
	}
	if err := r.buildOne(normalizeSource(name, bx, x, a), name); err != nil {
		return err
	}
	r.defs[name] = &kernelDef{kernelNames: []string{name}, fieldArgs: []string{x, a}}
	return nil
}

// BuildFlux compiles the full-box flux-reconstruction kernel along ax.
func (r *Runner) BuildFlux(name string, bx grid.Box, ax grid.Axis, f, sol string) error {
	if err := r.checkFields(f, sol); err != nil {
		return err
	}
	if err := r.buildOne(fluxSource(name, bx, ax, f, sol), name); err != nil {
		return err
	}
	r.defs[name] = &kernelDef{kernelNames: []string{name}, fieldArgs: []string{f, sol}}
	return nil
}

// BuildFluxFace compiles the boundary-only flux variant: two kernels
// over the low face slab of bx along ax and the slab offset by length,
// run back to back by RunKernel.
func (r *Runner) BuildFluxFace(name string, bx grid.Box, ax grid.Axis, f, sol string, length int) error {
	if err := r.checkFields(f, sol); err != nil {
		return err
	}
	slab := bx.FaceSlab(grid.LowFace(ax))

	loName := name + "_lo"
	hiName := name + "_hi"
	if err := r.buildOne(fluxSource(loName, slab, ax, f, sol), loName); err != nil {
		return err
	}
	if err := r.buildOne(fluxSource(hiName, slab.Shift(ax, length), ax, f, sol), hiName); err != nil {
		return err
	}
	r.defs[name] = &kernelDef{kernelNames: []string{loName, hiName}, fieldArgs: []string{f, sol}}
	return nil
}

// BuildGSRB compiles one smoother kernel over sweep box bx with valid
// box vbox. flux and mask are the per-face boundary arrays indexed by
// grid.Face; the color flag is a run-time argument.
func (r *Runner) BuildGSRB(name string, bx, vbox grid.Box, phi, rhs, a string,
	flux, mask [grid.NumFaces]string) error {

	fieldArgs := []string{phi, rhs, a}
	for fc := grid.XLo; fc < grid.NumFaces; fc++ {
		fieldArgs = append(fieldArgs, flux[fc], mask[fc])
	}
	if err := r.checkFields(fieldArgs...); err != nil {
		return err
	}
	if err := r.buildOne(gsrbSource(name, bx, vbox, phi, rhs, a, flux, mask), name); err != nil {
		return err
	}
	r.defs[name] = &kernelDef{kernelNames: []string{name}, fieldArgs: fieldArgs}
	return nil
}

// RunADotX launches a kernel built with BuildADotX.
func (r *Runner) RunADotX(name string, alpha, dhx, dhy, dhz float64) error {
	return r.run(name, r.real(alpha), r.real(dhx), r.real(dhy), r.real(dhz))
}

// RunNormalize launches a kernel built with BuildNormalize. dhfac is
// the constant diagonal part 2*(dhx+dhy+dhz).
func (r *Runner) RunNormalize(name string, alpha, dhfac float64) error {
	return r.run(name, r.real(alpha), r.real(dhfac))
}

// RunFlux launches a kernel built with BuildFlux or BuildFluxFace.
func (r *Runner) RunFlux(name string, fac float64) error {
	return r.run(name, r.real(fac))
}

// RunGSRB launches one color of a kernel built with BuildGSRB. A full
// sweep is two calls, redblack=0 then 1; each launch ends with a device
// Finish, which is the required barrier between the colors.
func (r *Runner) RunGSRB(name string, alpha, dhx, dhy, dhz float64, redblack int) error {
	return r.run(name, r.real(alpha), r.real(dhx), r.real(dhy), r.real(dhz), int32(redblack))
}

func (r *Runner) run(name string, scalars ...interface{}) error {
	def, exists := r.defs[name]
	if !exists {
		return fmt.Errorf("kernel %s not built", name)
	}

	args := make([]interface{}, 0, len(def.fieldArgs)+len(scalars))
	for _, field := range def.fieldArgs {
		args = append(args, r.Memory[field])
	}
	args = append(args, scalars...)

	for _, kernelName := range def.kernelNames {
		kernel := r.Kernels[kernelName]
		if kernel == nil {
			return fmt.Errorf("kernel %s not compiled", kernelName)
		}
		if err := kernel.RunWithArgs(args...); err != nil {
			return fmt.Errorf("kernel %s execution failed: %w", kernelName, err)
		}
	}
	r.Device.Finish()
	return nil
}

// Free releases all kernels and device memory.
func (r *Runner) Free() {
	for _, kernel := range r.Kernels {
		kernel.Free()
	}
	for _, mem := range r.Memory {
		mem.Free()
	}
}
