package core

//UnaryFunction is a function of one variable, with its derivative.
type UnaryFunction interface {
	Evaluate(x float64) float64
	EvaluateWithDerivative(x float64) (float64, float64)
}

//Harmonic is K*(x-Mean)^2. Note that there is no 1/2 factor.
type Harmonic struct {
	Mean float64
	K    float64
}

func (H Harmonic) Evaluate(x float64) float64 {
	d := x - H.Mean
	return H.K * d * d
}

func (H Harmonic) EvaluateWithDerivative(x float64) (float64, float64) {
	d := x - H.Mean
	return H.K * d * d, 2 * H.K * d
}

//HarmonicUpperBound is harmonic above Mean and 0 below it.
type HarmonicUpperBound struct {
	Mean float64
	K    float64
}

func (H HarmonicUpperBound) Evaluate(x float64) float64 {
	s, _ := H.EvaluateWithDerivative(x)
	return s
}

func (H HarmonicUpperBound) EvaluateWithDerivative(x float64) (float64, float64) {
	if x <= H.Mean {
		return 0, 0
	}
	return Harmonic(H).EvaluateWithDerivative(x)
}

//HarmonicLowerBound is harmonic below Mean and 0 above it.
type HarmonicLowerBound struct {
	Mean float64
	K    float64
}

func (H HarmonicLowerBound) Evaluate(x float64) float64 {
	s, _ := H.EvaluateWithDerivative(x)
	return s
}

func (H HarmonicLowerBound) EvaluateWithDerivative(x float64) (float64, float64) {
	if x >= H.Mean {
		return 0, 0
	}
	return Harmonic(H).EvaluateWithDerivative(x)
}

//Linear is Slope*(x-Offset).
type Linear struct {
	Offset float64
	Slope  float64
}

func (L Linear) Evaluate(x float64) float64 { return L.Slope * (x - L.Offset) }

func (L Linear) EvaluateWithDerivative(x float64) (float64, float64) {
	return L.Slope * (x - L.Offset), L.Slope
}
