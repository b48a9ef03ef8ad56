package imp

import "math"

//DerivativeAccumulator scales the derivatives that restraints add to the model,
//so nested and weighted restraints contribute consistently. A nil accumulator
//means that no derivatives are being computed, and all its methods can be
//called on nil.
type DerivativeAccumulator struct {
	weight float64
}

func NewDerivativeAccumulator(weight float64) *DerivativeAccumulator {
	return &DerivativeAccumulator{weight: weight}
}

//Scaled returns an accumulator whose weight is the receiver's times w.
func (D *DerivativeAccumulator) Scaled(w float64) *DerivativeAccumulator {
	if D == nil {
		return nil
	}
	return &DerivativeAccumulator{weight: D.weight * w}
}

//Weight returns the accumulators weight, 0 for nil.
func (D *DerivativeAccumulator) Weight() float64 {
	if D == nil {
		return 0
	}
	return D.weight
}

//AddToDerivative adds v times the weight to the derivative of k for p.
func (D *DerivativeAccumulator) AddToDerivative(m *Model, k FloatKey, p ParticleIndex, v float64) {
	if D == nil {
		return
	}
	m.addToDerivative(k, p, D.weight*v)
}

//Restraint is a scoring term. UnprotectedEvaluate returns the score and, if da
//is not nil, adds the derivatives of the score to the model through da.
//Restraints are evaluated through a ScoringFunction, or the Evaluate functions
//in this package, which take care of inactive particles and of the last score.
type Restraint interface {
	ModelObject
	Model() *Model
	UnprotectedEvaluate(da *DerivativeAccumulator) float64
	LastScore() float64
	SetLastScore(s float64)
}

//IfGoodEvaluator is implemented by restraints that can stop the computation
//early once the score is known to be larger than max. If the return value
//is smaller than or equal to max, it must be the score. If it is larger, the
//score must be larger too.
type IfGoodEvaluator interface {
	UnprotectedEvaluateIfGood(da *DerivativeAccumulator, max float64) float64
}

//NonNegativeRestraint is implemented by restraints that can tell if their
//score can never be negative.
type NonNegativeRestraint interface {
	NonNegative() bool
}

//Decomposer is implemented by composite restraints. Decompose returns
//atomic restraints whose last scores add up to the last score of the receiver.
type Decomposer interface {
	Decompose() []Restraint
}

//RestraintBase provides the state that all restraints need. Embed a pointer to it.
type RestraintBase struct {
	m    *Model
	name string
	last float64
}

func NewRestraintBase(m *Model, name string) *RestraintBase {
	return &RestraintBase{m: m, name: name, last: math.NaN()}
}

func (R *RestraintBase) Model() *Model          { return R.m }
func (R *RestraintBase) Name() string           { return R.name }
func (R *RestraintBase) LastScore() float64     { return R.last }
func (R *RestraintBase) SetLastScore(s float64) { R.last = s }

//InputsActive returns false if any particle read directly by the restraint
//is inactive.
func InputsActive(r Restraint) bool {
	m := r.Model()
	for _, d := range r.Descriptor().inputs {
		if !d.isObject && !m.IsActive(d.particle) {
			return false
		}
	}
	return true
}

//Evaluate evaluates r with da, records and returns the score. A restraint
//reading an inactive particle scores 0.
func Evaluate(r Restraint, da *DerivativeAccumulator) float64 {
	if !InputsActive(r) {
		r.SetLastScore(0)
		return 0
	}
	s := r.UnprotectedEvaluate(da)
	r.SetLastScore(s)
	return s
}

//EvaluateIfGood is like Evaluate, but lets restraints implementing
//IfGoodEvaluator stop early when the score exceeds max.
func EvaluateIfGood(r Restraint, da *DerivativeAccumulator, max float64) float64 {
	if !InputsActive(r) {
		r.SetLastScore(0)
		return 0
	}
	var s float64
	if ig, ok := r.(IfGoodEvaluator); ok {
		s = ig.UnprotectedEvaluateIfGood(da, max)
	} else {
		s = r.UnprotectedEvaluate(da)
	}
	r.SetLastScore(s)
	return s
}

//IsNonNegative returns true if r declares that it never scores below 0.
func IsNonNegative(r Restraint) bool {
	nn, ok := r.(NonNegativeRestraint)
	return ok && nn.NonNegative()
}

//Decompose returns the current per-term breakdown of r. Atomic restraints
//decompose into themselves.
func Decompose(r Restraint) []Restraint {
	if d, ok := r.(Decomposer); ok {
		return d.Decompose()
	}
	return []Restraint{r}
}

//Term is one weighted term in a decomposition.
type Term struct {
	*RestraintBase
	r      Restraint
	weight float64
}

//NewTerm wraps r with the weight w. Its last score is w times the last score of r.
func NewTerm(r Restraint, w float64) *Term {
	t := &Term{RestraintBase: NewRestraintBase(r.Model(), r.Descriptor().name), r: r, weight: w}
	t.last = w * r.LastScore()
	return t
}

func (T *Term) Descriptor() Descriptor { return T.r.Descriptor() }

//Restraint returns the wrapped restraint.
func (T *Term) Restraint() Restraint { return T.r }
func (T *Term) Weight() float64      { return T.weight }

func (T *Term) UnprotectedEvaluate(da *DerivativeAccumulator) float64 {
	return T.weight * Evaluate(T.r, da.Scaled(T.weight))
}

func (T *Term) NonNegative() bool { return T.weight >= 0 && IsNonNegative(T.r) }
