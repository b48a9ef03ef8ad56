package imp

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

//zRestraint is k*(z-z0)^2 on one particle.
type zRestraint struct {
	*RestraintBase
	desc  Descriptor
	p     ParticleIndex
	z0, k float64
}

func newZRestraint(m *Model, p ParticleIndex, z0, k float64) *zRestraint {
	name := fmt.Sprintf("z%d", p)
	return &zRestraint{
		RestraintBase: NewRestraintBase(m, name),
		desc:          NewDescriptor(name, RestraintKind, OnParticles(p), nil),
		p:             p, z0: z0, k: k,
	}
}

func (R *zRestraint) Descriptor() Descriptor { return R.desc }
func (R *zRestraint) NonNegative() bool      { return R.k >= 0 }

func (R *zRestraint) UnprotectedEvaluate(da *DerivativeAccumulator) float64 {
	d := R.m.Float(ZKey, R.p) - R.z0
	da.AddToDerivative(R.m, ZKey, R.p, 2*R.k*d)
	return R.k * d * d
}

//meanState puts in out the mean z of in.
func meanState(in []ParticleIndex, out ParticleIndex) *FuncState {
	return NewFuncState(fmt.Sprintf("mean->%d", out), OnParticles(in...), OnParticles(out),
		func(m *Model) {
			var z float64
			for _, p := range in {
				z += m.Float(ZKey, p)
			}
			m.SetFloat(ZKey, out, z/float64(len(in)))
		}, nil)
}

func beads(m *Model, zs ...float64) []ParticleIndex {
	ps := make([]ParticleIndex, len(zs))
	for i, z := range zs {
		ps[i] = m.AddParticle(fmt.Sprintf("b%d", i))
		SetupXYZ(m, ps[i], [3]float64{0, 0, z})
	}
	return ps
}

func TestEvaluateAndDerivatives(Te *testing.T) {
	ctx := QuietContext(1)
	m := NewModel("evaluate")
	ps := beads(m, 3)
	sf := NewScoringFunction(ctx, m, "sf")
	sf.AddRestraint(newZRestraint(m, ps[0], 1, 1), 2)
	s := sf.Evaluate(true)
	if s != 8 {
		Te.Errorf("score %f, expected 8", s)
	}
	if d := m.Derivative(ZKey, ps[0]); d != 8 {
		Te.Errorf("derivative %f, expected 8", d)
	}
	if again := sf.Evaluate(false); again != s {
		Te.Errorf("repeated evaluation gave %f and %f", s, again)
	}
	if m.Stage() != NotEvaluating {
		Te.Errorf("model left in stage %s", m.Stage())
	}
	sf.Evaluate(true)
	if d := m.Derivative(ZKey, ps[0]); d != 8 {
		Te.Errorf("derivatives not zeroed between evaluations: %f", d)
	}
}

func TestRequiredScoreStates(Te *testing.T) {
	ctx := QuietContext(1)
	m := NewModel("states")
	ps := beads(m, 1, 3, 0, 0)
	//registered in reverse dependency order on purpose
	s2 := meanState([]ParticleIndex{ps[2]}, ps[3])
	s1 := meanState(ps[:2], ps[2])
	r := newZRestraint(m, ps[3], 0, 1)
	m.AddObject(s2)
	m.AddObject(s1)
	sf := NewScoringFunction(ctx, m, "sf", r)
	states := sf.ScoreStates()
	if len(states) != 2 || states[0] != ScoreState(s1) || states[1] != ScoreState(s2) {
		Te.Fatalf("wrong score state order %v", states)
	}
	if s := sf.Evaluate(false); s != 4 {
		Te.Errorf("score %f, expected 4 after the states ran", s)
	}
	id, _ := m.ObjectID(r)
	if !m.HasDependencies(id) {
		Te.Error("dependencies not cached after evaluation")
	}
	id2, _ := m.ObjectID(s2)
	m.Replace(id2, meanState([]ParticleIndex{ps[0]}, ps[3]))
	if m.HasDependencies(id) {
		Te.Error("dependencies still valid after a replacement")
	}
	if states := sf.ScoreStates(); len(states) != 1 {
		Te.Errorf("expected 1 score state after the replacement, got %d", len(states))
	}
	if s := sf.Evaluate(false); s != 1 {
		Te.Errorf("score %f, expected 1 after the replacement", s)
	}
}

func TestDependencyCycle(Te *testing.T) {
	m := NewModel("cycle")
	ps := beads(m, 0, 0)
	m.AddObject(meanState(ps[:1], ps[1]))
	s := m.AddObject(meanState(ps[1:], ps[0]))
	mustPanic(Te, ErrDependencyCycle, func() { m.RequiredScoreStates(s) })
}

func TestNestedEvaluation(Te *testing.T) {
	ctx := QuietContext(1)
	m := NewModel("nested")
	ps := beads(m, 0)
	var sf *ScoringFunction
	st := NewFuncState("bad", nil, OnParticles(ps[0]), func(m *Model) { sf.Evaluate(false) }, nil)
	m.AddObject(st)
	r := newZRestraint(m, ps[0], 0, 1)
	sf = NewScoringFunction(ctx, m, "sf", r)
	//the state only writes ps[0], so it is upstream of the restraint
	mustPanic(Te, ErrNestedEvaluation, func() { sf.Evaluate(false) })
	if m.Stage() != NotEvaluating {
		Te.Error("a panic left the model evaluating")
	}
}

func randomSet(m *Model, r *rand.Rand, ps []ParticleIndex) (*RestraintSet, []Restraint) {
	var rs []Restraint
	for _, p := range ps {
		rs = append(rs, newZRestraint(m, p, r.NormFloat64(), 0.5+r.Float64()))
	}
	min := NewMinimumRestraint(m, "min", 2, rs[:3])
	set := NewRestraintSet(m, "set", 0.5, []Restraint{rs[3], rs[4], min}, []float64{1, 2, 1.5})
	return set, rs
}

func TestIfGoodAndDecomposition(Te *testing.T) {
	ctx := QuietContext(7)
	r := ctx.Rand
	m := NewModel("ifgood")
	ps := beads(m, 0, 0, 0, 0, 0)
	set, _ := randomSet(m, r, ps)
	sf := NewScoringFunction(ctx, m, "sf", set)
	for i := 0; i < 200; i++ {
		for _, p := range ps {
			MustXYZ(m, p).SetCoordinates([3]float64{0, 0, 3 * r.NormFloat64()})
		}
		full := sf.Evaluate(false)
		var sum float64
		for _, t := range Decompose(set) {
			sum += t.LastScore()
		}
		if math.Abs(sum-full) > 1e-9*math.Max(1, full) {
			Te.Errorf("decomposition adds to %f, score is %f", sum, full)
		}
		max := full * 2 * r.Float64()
		s := sf.EvaluateIfGood(false, max)
		if s <= max && s != full {
			Te.Errorf("EvaluateIfGood returned %f <= max %f but the score is %f", s, max, full)
		}
		if s > max && full <= max {
			Te.Errorf("EvaluateIfGood returned %f > max %f but the score is %f", s, max, full)
		}
	}
}

func TestInactiveRestraintSkipped(Te *testing.T) {
	ctx := QuietContext(1)
	m := NewModel("skip")
	ps := beads(m, 2, 2)
	sf := NewScoringFunction(ctx, m, "sf", newZRestraint(m, ps[0], 0, 1), newZRestraint(m, ps[1], 0, 1))
	if s := sf.Evaluate(false); s != 8 {
		Te.Errorf("score %f, expected 8", s)
	}
	m.RemoveParticle(ps[0])
	if s := sf.Evaluate(true); s != 4 {
		Te.Errorf("score %f, expected 4 with one inactive particle", s)
	}
}

func TestIncrementalMatchesFull(Te *testing.T) {
	ctx := QuietContext(11)
	ctx.Check = CheckInternal
	r := ctx.Rand
	m := NewModel("incremental")
	ps := beads(m, 0, 0, 0, 0, 0, 0, 0)
	s := meanState(ps[:2], ps[6])
	m.AddObject(s)
	set, rs := randomSet(m, r, ps[:5])
	inc := NewIncrementalScoringFunction(ctx, m, "inc", set, newZRestraint(m, ps[6], 1, 1), rs[0])
	inc.Evaluate(false)
	for i := 0; i < 300; i++ {
		p := ps[r.Intn(5)]
		x := MustXYZ(m, p)
		snaps := x.Snapshot()
		before := inc.Total()
		x.Translate([3]float64{0, 0, r.NormFloat64()})
		got := inc.EvaluateMoved([]ParticleIndex{p}, false)
		full := NewScoringFunction(ctx, m, "check", set, inc.Restraints()[1], rs[0]).Evaluate(false)
		if math.Abs(got-full) > 1e-9*math.Max(1, math.Abs(full)) {
			Te.Fatalf("step %d: incremental %f, full %f", i, got, full)
		}
		if r.Intn(2) == 0 {
			m.Restore(snaps)
			inc.Revert()
			if inc.Total() != before {
				Te.Fatalf("step %d: revert gave %f, expected %f", i, inc.Total(), before)
			}
		} else {
			inc.Commit()
		}
	}
}

//mutable breaks the descriptor contract on purpose.
type mutable struct {
	desc Descriptor
}

func (M *mutable) Descriptor() Descriptor { return M.desc }

func TestStaleDescriptor(Te *testing.T) {
	m := NewModel("stale")
	ps := beads(m, 0, 0)
	o := &mutable{NewDescriptor("c", ContainerKind, OnParticles(ps[0]), nil)}
	id := m.AddObject(o)
	m.SetCheckLevel(CheckInternal)
	if in := m.Inputs(id); len(in) != 1 || in[0].Particle() != ps[0] {
		Te.Errorf("wrong inputs %v", in)
	}
	o.desc = NewDescriptor("c", ContainerKind, OnParticles(ps...), nil)
	mustPanic(Te, ErrStaleDependencies, func() { m.Inputs(id) })
	mustPanic(Te, ErrDoubleObject, func() { m.AddObject(o) })
	m.RemoveObject(id)
	mustPanic(Te, ErrUnknownObject, func() { m.Object(id) })
}

//A negative weight after a non-negative set must not let a partial score pass as good.
func TestIfGoodMixedSigns(Te *testing.T) {
	ctx := QuietContext(1)
	m := NewModel("mixed")
	ps := beads(m, 2, 2, 2)
	set := NewRestraintSet(m, "set", 1, []Restraint{newZRestraint(m, ps[0], 0, 1), newZRestraint(m, ps[1], 0, 1)}, nil)
	sf := NewScoringFunction(ctx, m, "sf", set)
	sf.AddRestraint(newZRestraint(m, ps[2], 0, 1), -1)
	full := sf.Evaluate(false)
	if full != 4 {
		Te.Fatalf("score %f, expected 4", full)
	}
	for _, max := range []float64{2, 3.9, 4, 10} {
		s := sf.EvaluateIfGood(false, max)
		if s <= max && s != full {
			Te.Errorf("EvaluateIfGood returned %f <= max %f but the score is %f", s, max, full)
		}
		if s > max && full <= max {
			Te.Errorf("EvaluateIfGood returned %f > max %f but the score is %f", s, max, full)
		}
	}
}

func TestLastScoresAfterEarlyStop(Te *testing.T) {
	ctx := QuietContext(1)
	m := NewModel("early")
	ps := beads(m, 3, 1, 1)
	sf := NewScoringFunction(ctx, m, "sf", newZRestraint(m, ps[0], 0, 1), newZRestraint(m, ps[1], 0, 1), newZRestraint(m, ps[2], 0, 1))
	if s := sf.Evaluate(false); s != 11 {
		Te.Fatalf("score %f, expected 11", s)
	}
	if s := sf.EvaluateIfGood(false, 5); s <= 5 {
		Te.Fatalf("EvaluateIfGood returned %f, expected more than 5", s)
	}
	last := sf.LastScores()
	if last[0] != 9 || !math.IsNaN(last[1]) || !math.IsNaN(last[2]) {
		Te.Errorf("wrong scores after an early stop %v", last)
	}
	sf.Evaluate(false)
	if last = sf.LastScores(); last[1] != 1 || last[2] != 1 {
		Te.Errorf("wrong scores after a full evaluation %v", last)
	}
}

func TestRemoveObjectInUse(Te *testing.T) {
	m := NewModel("inuse")
	ps := beads(m, 0, 0)
	c := &mutable{NewDescriptor("c", ContainerKind, OnParticles(ps...), nil)}
	cid := m.AddObject(c)
	r := &mutable{NewDescriptor("r", RestraintKind, []Dep{OnObject(cid)}, nil)}
	rid := m.AddObject(r)
	mustPanic(Te, ErrObjectInUse, func() { m.RemoveObject(cid) })
	if m.Object(cid) != ModelObject(c) {
		Te.Fatal("a refused removal changed the object")
	}
	m.RemoveObject(rid)
	m.RemoveObject(cid)
	other := m.AddObject(meanState(ps[:1], ps[1]))
	if got := m.Object(other); got == ModelObject(c) {
		Te.Error("the removed container is still in the model")
	}
	if _, ok := m.ObjectID(r); ok {
		Te.Error("the removed restraint is still registered")
	}
}
