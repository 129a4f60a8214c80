package device

import (
	"fmt"
	"strings"

	"github.com/structgrid/mgkernel/grid"
)

// Kernel sources are specialized per launch geometry: the sweep box is
// baked into the loop bounds as literals, and field addressing goes
// through the IDX_<name> macros from the preamble. The k range carries
// @outer, the i range @inner, with j as a serial loop in between, so
// one work-item handles one (i,k) column.

// loopOpen emits the standard sweep nest over bx.
func loopOpen(bx grid.Box) string {
	return fmt.Sprintf(
		"    for (int k = %d; k <= %d; ++k; @outer) {\n"+
			"        for (int i = %d; i <= %d; ++i; @inner) {\n"+
			"            for (int j = %d; j <= %d; ++j) {\n",
		bx.Lo[grid.Z], bx.Hi[grid.Z],
		bx.Lo[grid.X], bx.Hi[grid.X],
		bx.Lo[grid.Y], bx.Hi[grid.Y])
}

const loopClose = "            }\n        }\n    }\n}\n"

// adotxSource generates the operator-apply kernel y = alpha*a*x - beta*lap(x).
func adotxSource(kernelName string, bx grid.Box, y, x, a string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`@kernel void %s(real_t* %s_g,
                const real_t* %s_g,
                const real_t* %s_g,
                const real_t alpha,
                const real_t dhx,
                const real_t dhy,
                const real_t dhz) {
`, kernelName, y, x, a))
	sb.WriteString(loopOpen(bx))
	sb.WriteString(fmt.Sprintf(
		"                const real_t xc = %[2]s_g[IDX_%[2]s(i,j,k)];\n"+
			"                %[1]s_g[IDX_%[1]s(i,j,k)] = alpha*%[3]s_g[IDX_%[3]s(i,j,k)]*xc\n"+
			"                    - dhx*(%[2]s_g[IDX_%[2]s(i-1,j,k)] - REAL_TWO*xc + %[2]s_g[IDX_%[2]s(i+1,j,k)])\n"+
			"                    - dhy*(%[2]s_g[IDX_%[2]s(i,j-1,k)] - REAL_TWO*xc + %[2]s_g[IDX_%[2]s(i,j+1,k)])\n"+
			"                    - dhz*(%[2]s_g[IDX_%[2]s(i,j,k-1)] - REAL_TWO*xc + %[2]s_g[IDX_%[2]s(i,j,k+1)]);\n",
		y, x, a))
	sb.WriteString(loopClose)

	return sb.String()
}

// normalizeSource generates the diagonal-normalize kernel.
func normalizeSource(kernelName string, bx grid.Box, x, a string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`@kernel void %s(real_t* %s_g,
                const real_t* %s_g,
                const real_t alpha,
                const real_t dhfac) {
`, kernelName, x, a))
	sb.WriteString(loopOpen(bx))
	sb.WriteString(fmt.Sprintf(
		"                %[1]s_g[IDX_%[1]s(i,j,k)] /= alpha*%[2]s_g[IDX_%[2]s(i,j,k)] + dhfac;\n",
		x, a))
	sb.WriteString(loopClose)

	return sb.String()
}

// fluxSource generates the flux-reconstruction kernel along ax over bx.
// The boundary-only variant is two launches of this kernel over the two
// face slabs, so no separate source is needed.
func fluxSource(kernelName string, bx grid.Box, ax grid.Axis, f, sol string) string {
	e := grid.Unit(ax)
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`@kernel void %s(real_t* %s_g,
                const real_t* %s_g,
                const real_t fac) {
`, kernelName, f, sol))
	sb.WriteString(loopOpen(bx))
	sb.WriteString(fmt.Sprintf(
		"                %[1]s_g[IDX_%[1]s(i,j,k)] = -fac*(%[2]s_g[IDX_%[2]s(i,j,k)] - %[2]s_g[IDX_%[2]s(i-%[3]d,j-%[4]d,k-%[5]d)]);\n",
		f, sol, e[0], e[1], e[2]))
	sb.WriteString(loopClose)

	return sb.String()
}

// gsrbSource generates one color of the red-black smoother. The valid
// box bounds are baked in; redblack arrives as a kernel argument so the
// two colors share one compiled kernel with a launch boundary between
// them.
func gsrbSource(kernelName string, bx, vbox grid.Box, phi, rhs, a string,
	flux, mask [grid.NumFaces]string) string {

	vlo := vbox.Lo
	vhi := vbox.Hi

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("@kernel void %s(real_t* %s_g,\n", kernelName, phi))
	sb.WriteString(fmt.Sprintf("                const real_t* %s_g,\n", rhs))
	sb.WriteString(fmt.Sprintf("                const real_t* %s_g,\n", a))
	for fc := grid.XLo; fc < grid.NumFaces; fc++ {
		sb.WriteString(fmt.Sprintf("                const real_t* %s_g,\n", flux[fc]))
		sb.WriteString(fmt.Sprintf("                const mask_t* %s_g,\n", mask[fc]))
	}
	sb.WriteString(`                const real_t alpha,
                const real_t dhx,
                const real_t dhy,
                const real_t dhz,
                const int redblack) {
`)
	sb.WriteString(loopOpen(bx))
	sb.WriteString("                if ((i + j + k + redblack) % 2 == 0) {\n")

	// face corrections, -x -y -z +x +y +z
	cf := func(v int, cond, maskAt, fluxAt string, fc grid.Face) string {
		return fmt.Sprintf(
			"                    const real_t cf%d = (%s && %s_g[IDX_%s%s] > 0)\n"+
				"                        ? %s_g[IDX_%s%s] : REAL_ZERO;\n",
			v, cond, mask[fc], mask[fc], maskAt, flux[fc], flux[fc], fluxAt)
	}
	sb.WriteString(cf(0, fmt.Sprintf("i == %d", vlo[grid.X]),
		fmt.Sprintf("(%d,j,k)", vlo[grid.X]-1), fmt.Sprintf("(%d,j,k)", vlo[grid.X]), grid.XLo))
	sb.WriteString(cf(1, fmt.Sprintf("j == %d", vlo[grid.Y]),
		fmt.Sprintf("(i,%d,k)", vlo[grid.Y]-1), fmt.Sprintf("(i,%d,k)", vlo[grid.Y]), grid.YLo))
	sb.WriteString(cf(2, fmt.Sprintf("k == %d", vlo[grid.Z]),
		fmt.Sprintf("(i,j,%d)", vlo[grid.Z]-1), fmt.Sprintf("(i,j,%d)", vlo[grid.Z]), grid.ZLo))
	sb.WriteString(cf(3, fmt.Sprintf("i == %d", vhi[grid.X]),
		fmt.Sprintf("(%d,j,k)", vhi[grid.X]+1), fmt.Sprintf("(%d,j,k)", vhi[grid.X]), grid.XHi))
	sb.WriteString(cf(4, fmt.Sprintf("j == %d", vhi[grid.Y]),
		fmt.Sprintf("(i,%d,k)", vhi[grid.Y]+1), fmt.Sprintf("(i,%d,k)", vhi[grid.Y]), grid.YHi))
	sb.WriteString(cf(5, fmt.Sprintf("k == %d", vhi[grid.Z]),
		fmt.Sprintf("(i,j,%d)", vhi[grid.Z]+1), fmt.Sprintf("(i,j,%d)", vhi[grid.Z]), grid.ZHi))

	sb.WriteString(fmt.Sprintf(
		"                    const real_t gamma = alpha*%[1]s_g[IDX_%[1]s(i,j,k)] + REAL_TWO*(dhx + dhy + dhz);\n"+
			"                    const real_t g_m_d = gamma - dhx*(cf0 + cf3) - dhy*(cf1 + cf4) - dhz*(cf2 + cf5);\n"+
			"                    const real_t rho = dhx*(%[2]s_g[IDX_%[2]s(i-1,j,k)] + %[2]s_g[IDX_%[2]s(i+1,j,k)])\n"+
			"                        + dhy*(%[2]s_g[IDX_%[2]s(i,j-1,k)] + %[2]s_g[IDX_%[2]s(i,j+1,k)])\n"+
			"                        + dhz*(%[2]s_g[IDX_%[2]s(i,j,k-1)] + %[2]s_g[IDX_%[2]s(i,j,k+1)]);\n"+
			"                    const real_t res = %[3]s_g[IDX_%[3]s(i,j,k)] - (gamma*%[2]s_g[IDX_%[2]s(i,j,k)] - rho);\n"+
			"                    %[2]s_g[IDX_%[2]s(i,j,k)] += OMEGA/g_m_d*res;\n",
		a, phi, rhs))
	sb.WriteString("                }\n")
	sb.WriteString(loopClose)

	return sb.String()
}
