package imp

import (
	"math"
	"sort"
)

//IncrementalScoringFunction is a ScoringFunction that, after a move, only
//re-evaluates the restraints that depend on the moved particles. The total is the
//sum of the cached per-restraint scores.
type IncrementalScoringFunction struct {
	*ScoringFunction
	valid     bool
	prev      []float64
	total     float64
	prevTotal float64
	upstream  [][]ParticleIndex
	upVersion int
	dirty     []bool
}

//NewIncrementalScoringFunction returns an incremental scoring function over rs.
func NewIncrementalScoringFunction(ctx *SamplingContext, m *Model, name string, rs ...Restraint) *IncrementalScoringFunction {
	return &IncrementalScoringFunction{ScoringFunction: NewScoringFunction(ctx, m, name, rs...), upVersion: -1}
}

//AddRestraint adds r with weight w and drops the cache.
func (I *IncrementalScoringFunction) AddRestraint(r Restraint, w float64) {
	I.ScoringFunction.AddRestraint(r, w)
	I.valid = false
}

//Evaluate does a full evaluation and refreshes the cache.
func (I *IncrementalScoringFunction) Evaluate(calcDerivs bool) float64 {
	I.total = I.ScoringFunction.Evaluate(calcDerivs)
	I.valid = true
	I.prev = nil
	return I.total
}

//EvaluateIfGood evaluates the whole function. The cache is only kept if the
//evaluation was complete.
func (I *IncrementalScoringFunction) EvaluateIfGood(calcDerivs bool, max float64) float64 {
	s := I.ScoringFunction.EvaluateIfGood(calcDerivs, max)
	I.valid = s <= max
	if I.valid {
		I.total = s
	}
	I.prev = nil
	return s
}

func (I *IncrementalScoringFunction) refreshUpstream() {
	v := I.m.DependencyVersion()
	if I.upVersion == v && len(I.upstream) == len(I.ids) {
		return
	}
	I.upstream = make([][]ParticleIndex, len(I.ids))
	for i, id := range I.ids {
		up := I.m.UpstreamParticles(id)
		I.upstream[i] = append(up[:0:0], up...)
	}
	I.upVersion = v
	I.dirty = make([]bool, len(I.ids))
}

//intersects assumes both slices are sorted
func intersects(a, b []ParticleIndex) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}

//EvaluateMoved returns the score after the particles in moved changed. Only the
//restraints that depend on them are evaluated. If the cache is not valid, or
//derivatives are requested, it does a full evaluation. The previous cache is kept
//until Commit or Revert is called.
func (I *IncrementalScoringFunction) EvaluateMoved(moved []ParticleIndex, calcDerivs bool) float64 {
	prev := append(I.prev[:0], I.last...)
	prevTotal := I.total
	wasValid := I.valid
	if !I.valid || calcDerivs {
		I.Evaluate(calcDerivs)
	} else {
		I.refreshUpstream()
		mv := append([]ParticleIndex(nil), moved...)
		sort.Slice(mv, func(i, j int) bool { return mv[i] < mv[j] })
		for i := range I.dirty {
			I.dirty[i] = intersects(I.upstream[i], mv)
		}
		I.run(false, math.Inf(1), false, I.dirty)
		I.total = 0
		for _, s := range I.last {
			I.total += s
		}
		if I.ctx.Checks(CheckInternal) {
			I.validate()
		}
	}
	if wasValid {
		I.prev = prev
		I.prevTotal = prevTotal
	}
	return I.total
}

//validate compares the incremental total with a full evaluation.
func (I *IncrementalScoringFunction) validate() {
	inc := I.total
	cached := append([]float64(nil), I.last...)
	full := I.ScoringFunction.Evaluate(false)
	if math.Abs(full-inc) > .001+.1*math.Abs(full) {
		I.ctx.Logf(0, "incremental score %f, full evaluation %f", inc, full)
		panic(ErrIncremental)
	}
	copy(I.last, cached)
}

//Commit keeps the scores of the last EvaluateMoved.
func (I *IncrementalScoringFunction) Commit() {
	I.prev = I.prev[:0]
}

//Revert restores the cached scores from before the last EvaluateMoved. The caller
//is responsible for restoring the model itself.
func (I *IncrementalScoringFunction) Revert() {
	if len(I.prev) != len(I.last) {
		//nothing to go back to, so the next call will do a full evaluation.
		I.valid = false
		return
	}
	copy(I.last, I.prev)
	I.total = I.prevTotal
	I.prev = I.prev[:0]
}

//Total returns the current cached total.
func (I *IncrementalScoringFunction) Total() float64 { return I.total }
