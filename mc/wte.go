package mc

import (
	"fmt"
	"math"

	imp "github.com/rmera/goimp"
	"gonum.org/v1/gonum/floats"
)

//WTE is a well-tempered ensemble bias on the total score. The bias is kept on a
//grid of nbin points between emin and emax, spaced sigma/4. Outside the grid the
//bias is constant.
type WTE struct {
	emin, emax float64
	sigma      float64
	gamma      float64
	w0         float64
	dx         float64
	nbin       int
	bias       []float64
	deriv      []float64
}

//NewWTE returns a zero bias. gamma is the bias factor and must be larger than 1,
//and w0 is the initial height of the gaussians.
func NewWTE(emin, emax, sigma, gamma, w0 float64) (*WTE, error) {
	if !(emax > emin) || !(sigma > 0) || !(gamma > 1) {
		return nil, imp.NewError(fmt.Sprintf("invalid WTE parameters emin=%g emax=%g sigma=%g gamma=%g", emin, emax, sigma, gamma), "", true)
	}
	W := &WTE{emin: emin, emax: emax, sigma: sigma, gamma: gamma, w0: w0, dx: sigma / 4}
	W.nbin = int(math.Floor((emax-emin)/W.dx)) + 1
	W.bias = make([]float64, W.nbin)
	W.deriv = make([]float64, W.nbin)
	return W, nil
}

//NBin returns the number of grid points.
func (W *WTE) NBin() int { return W.nbin }

//Bias returns the bias at energy e. Between grid points it is the cubic Hermite
//interpolation of the grid values and slopes.
func (W *WTE) Bias(e float64) float64 {
	if math.IsNaN(e) {
		return e
	}
	if e <= W.emin {
		return W.bias[0]
	}
	i := int(math.Floor((e - W.emin) / W.dx))
	if i >= W.nbin-1 {
		return W.bias[W.nbin-1]
	}
	t := (e - W.emin - float64(i)*W.dx) / W.dx
	t2, t3 := t*t, t*t*t
	return (2*t3-3*t2+1)*W.bias[i] + (t3-2*t2+t)*W.dx*W.deriv[i] +
		(3*t2-2*t3)*W.bias[i+1] + (t3-t2)*W.dx*W.deriv[i+1]
}

//Derivative returns the slope of the bias at the grid point closest to e.
func (W *WTE) Derivative(e float64) float64 {
	i := int(math.Round((e - W.emin) / W.dx))
	if i < 0 || i >= W.nbin {
		return 0
	}
	return W.deriv[i]
}

//Update adds a gaussian centered at e, of width sigma and height
//w0*exp(-V(e)/(kT*(gamma-1))). Energies outside the grid don't change the bias.
func (W *WTE) Update(e, kT float64) {
	if math.IsNaN(e) || e < W.emin || e > W.emax || kT <= 0 {
		return
	}
	h := W.w0 * math.Exp(-W.Bias(e)/(kT*(W.gamma-1)))
	s2 := W.sigma * W.sigma
	for i := range W.bias {
		d := W.emin + float64(i)*W.dx - e
		g := h * math.Exp(-d*d/(2*s2))
		W.bias[i] += g
		W.deriv[i] -= g * d / s2
	}
}

//Buffer returns a copy of the bias grid followed by its slopes, 2*NBin floats.
func (W *WTE) Buffer() []float64 {
	ret := make([]float64, 0, 2*W.nbin)
	ret = append(ret, W.bias...)
	return append(ret, W.deriv...)
}

//SetBuffer replaces the bias with one obtained from Buffer. It fails with a
//critical error if the length doesn't match.
func (W *WTE) SetBuffer(buf []float64) error {
	if len(buf) != 2*W.nbin {
		return imp.NewError(fmt.Sprintf("bias buffer of length %d, expected %d", len(buf), 2*W.nbin), "", true)
	}
	copy(W.bias, buf[:W.nbin])
	copy(W.deriv, buf[W.nbin:])
	return nil
}

//Integral returns the integral of the bias over the grid, the exact one for
//the interpolation Bias uses.
func (W *WTE) Integral() float64 {
	n := W.nbin - 1
	if n == 0 {
		return 0
	}
	trap := floats.Sum(W.bias) - (W.bias[0]+W.bias[n])/2
	return W.dx*trap + W.dx*W.dx*(W.deriv[0]-W.deriv[n])/12
}
