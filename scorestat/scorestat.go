//Package scorestat has statistics of score series, such as the ones sampled at each
//temperature index of a replica-exchange run.
package scorestat

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

//AutoCorrelation returns the normalized autocorrelation of x for lags 0 to
//len(x)-1, computed by FFT on a zero-padded copy of x. The value at lag 0 is 1.
//A constant series gives 1 at lag 0 and 0 elsewhere. dst is used if it has the right length.
func AutoCorrelation(x []float64, dst ...[]float64) []float64 {
	n := len(x)
	var ret []float64
	if len(dst) > 0 && len(dst[0]) == n {
		ret = dst[0]
	} else {
		ret = make([]float64, n)
	}
	if n == 0 {
		return ret
	}
	mean, variance := stat.PopMeanVariance(x, nil)
	if variance == 0 || math.IsNaN(variance) {
		for i := range ret {
			ret[i] = 0
		}
		ret[0] = 1
		return ret
	}
	pad := make([]complex128, 2*n)
	for i, v := range x {
		pad[i] = complex(v-mean, 0)
	}
	f := fourier.NewCmplxFFT(len(pad))
	f.Coefficients(pad, pad)
	for i, v := range pad {
		pad[i] = v * cmplx.Conj(v)
	}
	f.Sequence(pad, pad)
	//the inverse transform is not normalized.
	norm := float64(len(pad)) * float64(n) * variance
	for i := range ret {
		ret[i] = real(pad[i]) / norm
	}
	return ret
}

//IntegratedTime returns the integrated autocorrelation time 1+2*sum(ac[k]), with the
//sum going from lag 1 up to, not including, the first lag with a non-positive value.
//Uncorrelated samples give 1.
func IntegratedTime(ac []float64) float64 {
	tau := 1.0
	for _, v := range ac[min(1, len(ac)):] {
		if v <= 0 {
			break
		}
		tau += 2 * v
	}
	return tau
}

//Column returns the series of values of the index column of a [round][index] table.
func Column(table [][]float64, index int) []float64 {
	ret := make([]float64, 0, len(table))
	for _, row := range table {
		ret = append(ret, row[index])
	}
	return ret
}

//Efficiency returns, for each column of table, the number of rounds per independent
//sample, as the integrated autocorrelation time of the column. Non-finite values are
//left out of each series.
func Efficiency(table [][]float64) []float64 {
	if len(table) == 0 {
		return nil
	}
	ret := make([]float64, len(table[0]))
	for i := range ret {
		col := Column(table, i)
		finite := col[:0]
		for _, v := range col {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				finite = append(finite, v)
			}
		}
		ret[i] = IntegratedTime(AutoCorrelation(finite))
	}
	return ret
}
