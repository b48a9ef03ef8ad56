package imp

import (
	"math"
	"time"
)

//ScoringFunction is the weighted sum of a list of restraints. It takes care of
//updating the score states the restraints need, in dependency order.
type ScoringFunction struct {
	ctx        *SamplingContext
	m          *Model
	name       string
	restraints []Restraint
	weights    []float64
	ids        []ObjectID
	states     []ScoreState
	version    int //dependency version for which states is valid
	last       []float64
	timing     bool
	timings    []time.Duration
}

//NewScoringFunction returns a scoring function over the given restraints, all
//with weight 1. Restraints not yet registered in m are registered.
func NewScoringFunction(ctx *SamplingContext, m *Model, name string, rs ...Restraint) *ScoringFunction {
	S := &ScoringFunction{ctx: ctx, m: m, name: name, version: -1}
	for _, r := range rs {
		S.AddRestraint(r, 1)
	}
	if ctx != nil {
		m.SetCheckLevel(ctx.Check)
	}
	return S
}

//AddRestraint adds r with the weight w.
func (S *ScoringFunction) AddRestraint(r Restraint, w float64) {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		panic(ErrBadWeight)
	}
	S.restraints = append(S.restraints, r)
	S.weights = append(S.weights, w)
	S.ids = append(S.ids, S.m.ensureObject(r))
	S.last = append(S.last, math.NaN())
	S.timings = append(S.timings, 0)
	S.version = -1
}

func (S *ScoringFunction) Name() string                { return S.name }
func (S *ScoringFunction) Model() *Model               { return S.m }
func (S *ScoringFunction) Context() *SamplingContext   { return S.ctx }
func (S *ScoringFunction) Restraints() []Restraint     { return append([]Restraint(nil), S.restraints...) }
func (S *ScoringFunction) Weight(i int) float64        { return S.weights[i] }
func (S *ScoringFunction) SetWeight(i int, w float64)  { S.weights[i] = w }
func (S *ScoringFunction) RestraintIDs() []ObjectID    { return append([]ObjectID(nil), S.ids...) }

//LastScores returns the weighted score of each restraint in the last evaluation.
//If that was an EvaluateIfGood that stopped early, the restraints not evaluated
//are NaN, and the last one evaluated may be only a lower bound of its score.
func (S *ScoringFunction) LastScores() []float64 { return append([]float64(nil), S.last...) }

//SetTiming turns on or off the accumulation of evaluation time per restraint.
func (S *ScoringFunction) SetTiming(t bool) { S.timing = t }

//Timings returns the time spent evaluating each restraint since timing was turned on.
func (S *ScoringFunction) Timings() []time.Duration { return append([]time.Duration(nil), S.timings...) }

//ScoreStates returns the score states updated before each evaluation, in order.
func (S *ScoringFunction) ScoreStates() []ScoreState {
	if S.version == S.m.DependencyVersion() {
		return S.states
	}
	sids := S.m.RequiredScoreStates(S.ids...)
	S.states = S.states[:0]
	for _, id := range sids {
		S.states = append(S.states, S.m.Object(id).(ScoreState))
	}
	S.version = S.m.DependencyVersion()
	S.ctx.Logf(2, "scoring function %s: %d restraints, %d score states", S.name, len(S.ids), len(S.states))
	return S.states
}

//Evaluate returns the total score and, if calcDerivs is true, leaves the derivatives
//of the score in the model.
func (S *ScoringFunction) Evaluate(calcDerivs bool) float64 {
	return S.run(calcDerivs, math.Inf(1), false, nil)
}

//EvaluateIfGood is like Evaluate, but may stop early. If it returns a value not
//larger than max, the value is the score; otherwise, the score is larger than max.
func (S *ScoringFunction) EvaluateIfGood(calcDerivs bool, max float64) float64 {
	return S.run(calcDerivs, max, true, nil)
}

func (S *ScoringFunction) nonNegative() bool {
	for i, r := range S.restraints {
		if S.weights[i] < 0 || !IsNonNegative(r) {
			return false
		}
	}
	return true
}

//run does the staged evaluation. If only is not nil, only the restraints i for which
//only[i] is true are evaluated, the others keep their last scores.
func (S *ScoringFunction) run(calcDerivs bool, max float64, ifGood bool, only []bool) float64 {
	states := S.ScoreStates()
	m := S.m
	m.enterStage(BeforeEvaluating)
	defer m.enterStage(NotEvaluating)
	var da *DerivativeAccumulator
	if calcDerivs {
		m.ZeroDerivatives()
		da = NewDerivativeAccumulator(1)
	}
	for _, s := range states {
		s.BeforeEvaluate(m)
	}
	m.enterStage(Evaluating)
	canStop := ifGood && S.nonNegative()
	var total float64
	for i, r := range S.restraints {
		w := S.weights[i]
		if only != nil && !only[i] {
			total += S.last[i]
			continue
		}
		var start time.Time
		if S.timing {
			start = time.Now()
		}
		var s float64
		switch {
		case w == 0:
			s = 0
		case canStop && w > 0:
			//a later term can't lower the total, so a partial score is safe here.
			s = EvaluateIfGood(r, da.Scaled(w), (max-total)/w)
		default:
			s = Evaluate(r, da.Scaled(w))
		}
		if S.timing {
			S.timings[i] += time.Since(start)
		}
		S.last[i] = w * s
		total += S.last[i]
		if canStop && total > max {
			for j := i + 1; j < len(S.last); j++ {
				S.last[j] = math.NaN()
			}
			break
		}
	}
	m.enterStage(AfterEvaluating)
	for i := len(states) - 1; i >= 0; i-- {
		states[i].AfterEvaluate(m, da)
	}
	return total
}
