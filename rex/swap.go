package rex

import "math"

//SwapProbability is the acceptance probability for exchanging the temperatures of
//replica I, at kTI, with energy eI, and replica J, at kTJ, with energy eJ.
//deltaWTE is the bias correction from WTEDelta, or 0. A NaN energy never swaps.
func SwapProbability(eI, eJ, kTI, kTJ, deltaWTE float64) float64 {
	x := (eI-eJ)*(1/kTI-1/kTJ) + deltaWTE
	if math.IsNaN(x) {
		return 0
	}
	if x >= 0 {
		return 1
	}
	return math.Exp(x)
}

//Bias is an energy-dependent bias.
type Bias interface {
	Bias(e float64) float64
}

//WTEDelta returns the bias correction to the exchange criterion. The bias of each
//temperature stays with the temperature, so it is [VI(eI)-VI(eJ)]/kTI + [VJ(eJ)-VJ(eI)]/kTJ.
//A nil bias counts as zero.
func WTEDelta(biasI, biasJ Bias, eI, eJ, kTI, kTJ float64) float64 {
	var d float64
	if biasI != nil {
		d += (biasI.Bias(eI) - biasI.Bias(eJ)) / kTI
	}
	if biasJ != nil {
		d += (biasJ.Bias(eJ) - biasJ.Bias(eI)) / kTJ
	}
	return d
}
