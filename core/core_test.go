package core

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	imp "github.com/rmera/goimp"
)

//numDerivative is the central finite difference of the score on k for p.
func numDerivative(sf *imp.ScoringFunction, k imp.FloatKey, p imp.ParticleIndex) float64 {
	m := sf.Model()
	h := 1e-6
	v := m.Float(k, p)
	m.SetFloat(k, p, v+h)
	up := sf.Evaluate(false)
	m.SetFloat(k, p, v-h)
	down := sf.Evaluate(false)
	m.SetFloat(k, p, v)
	return (up - down) / (2 * h)
}

//checkDerivatives compares the analytic and numeric derivatives of sf for all
//the coordinates of ps.
func checkDerivatives(Te *testing.T, sf *imp.ScoringFunction, ps []imp.ParticleIndex) {
	Te.Helper()
	m := sf.Model()
	for _, p := range ps {
		for _, k := range imp.XYZKeys {
			sf.Evaluate(true)
			an := m.Derivative(k, p)
			nu := numDerivative(sf, k, p)
			if math.Abs(an-nu) > 1e-4*math.Max(1, math.Abs(nu)) {
				Te.Errorf("particle %d %s: analytic derivative %f, numeric %f", p, k.Name(), an, nu)
			}
		}
	}
}

func spheres(m *imp.Model, r float64, cs ...[3]float64) []imp.ParticleIndex {
	var ps []imp.ParticleIndex
	for i, c := range cs {
		p := m.AddParticle(fmt.Sprintf("s%d", i))
		imp.SetupXYZR(m, p, c, r)
		ps = append(ps, p)
	}
	return ps
}

func TestUnaryFunctions(Te *testing.T) {
	fs := []UnaryFunction{Harmonic{1, 3}, HarmonicUpperBound{1, 3}, HarmonicLowerBound{1, 3}, Linear{1, -2}}
	for _, f := range fs {
		for _, x := range []float64{-2, 0.5, 1.5, 4} {
			s, ds := f.EvaluateWithDerivative(x)
			if s != f.Evaluate(x) {
				Te.Errorf("%T: Evaluate and EvaluateWithDerivative differ at %f", f, x)
			}
			h := 1e-6
			nu := (f.Evaluate(x+h) - f.Evaluate(x-h)) / (2 * h)
			if math.Abs(nu-ds) > 1e-5 {
				Te.Errorf("%T at %f: derivative %f, numeric %f", f, x, ds, nu)
			}
		}
	}
	if (HarmonicUpperBound{1, 3}).Evaluate(0) != 0 || (HarmonicLowerBound{1, 3}).Evaluate(2) != 0 {
		Te.Error("bounds are not flat on the allowed side")
	}
}

func TestDistanceRestraint(Te *testing.T) {
	ctx := imp.QuietContext(1)
	m := imp.NewModel("distance")
	ps := spheres(m, 1, [3]float64{0, 0, 0}, [3]float64{1, 2, 2})
	r := NewDistanceRestraint(m, "d", Harmonic{Mean: 1, K: 2}, ps[0], ps[1])
	sf := imp.NewScoringFunction(ctx, m, "sf", r)
	if s := sf.Evaluate(false); math.Abs(s-8) > 1e-12 {
		Te.Errorf("score %f, expected 8", s)
	}
	checkDerivatives(Te, sf, ps)
	if !r.NonNegative() {
		Te.Error("harmonic distance restraint should be non negative")
	}
}

func randomSpheres(m *imp.Model, r *rand.Rand, n int, side float64) []imp.ParticleIndex {
	var ps []imp.ParticleIndex
	for i := 0; i < n; i++ {
		p := m.AddParticle(fmt.Sprintf("s%d", i))
		imp.SetupXYZR(m, p, [3]float64{side * r.Float64(), side * r.Float64(), side * r.Float64()}, 0.2+r.Float64())
		ps = append(ps, p)
	}
	return ps
}

func TestFindersAgree(Te *testing.T) {
	r := rand.New(rand.NewSource(3))
	m := imp.NewModel("finders")
	ps := randomSpheres(m, r, 300, 20)
	var c [][3]float64
	var rad []float64
	for _, p := range ps {
		x := imp.MustXYZR(m, p)
		c = append(c, x.Coordinates())
		rad = append(rad, x.Radius())
	}
	for _, d := range []float64{0, 0.5, 2} {
		q := QuadraticFinder{}.ClosePairs(c, rad, d)
		k := KDTreeFinder{}.ClosePairs(c, rad, d)
		fmt.Println("distance", d, "pairs", len(q))
		if len(q) != len(k) {
			Te.Fatalf("distance %f: quadratic finder gave %d pairs, kd-tree %d", d, len(q), len(k))
		}
		for i := range q {
			if q[i] != k[i] {
				Te.Fatalf("distance %f: pair %d differs: %v %v", d, i, q[i], k[i])
			}
		}
	}
}

func TestClosePairContainerSlack(Te *testing.T) {
	r := rand.New(rand.NewSource(5))
	m := imp.NewModel("slack")
	ps := randomSpheres(m, r, 60, 10)
	C := NewClosePairContainer(m, "close", ps, 0.5, 1, nil)
	C.Pairs()
	if C.Builds() != 1 {
		Te.Fatalf("%d builds, expected 1", C.Builds())
	}
	for step := 0; step < 50; step++ {
		p := ps[r.Intn(len(ps))]
		imp.MustXYZ(m, p).Translate([3]float64{0.3 * r.NormFloat64(), 0.3 * r.NormFloat64(), 0.3 * r.NormFloat64()})
		in := make(map[Pair]bool)
		for _, v := range C.Pairs() {
			in[v] = true
		}
		for i, a := range ps {
			for _, b := range ps[i+1:] {
				xa, xb := imp.MustXYZR(m, a), imp.MustXYZR(m, b)
				if within(xa.Coordinates(), xb.Coordinates(), xa.Radius(), xb.Radius(), 0.5) && !in[ordered(a, b)] {
					Te.Fatalf("step %d: close pair %d-%d missing from the container", step, a, b)
				}
			}
		}
	}
	fmt.Println("builds in 50 steps:", C.Builds())
	if C.Builds() == 51 {
		Te.Error("the container was rebuilt on every step")
	}
	before := C.Builds()
	C.Pairs()
	if C.Builds() != before {
		Te.Error("the container was rebuilt without any move")
	}
}

func TestExcludedVolume(Te *testing.T) {
	ctx := imp.QuietContext(1)
	m := imp.NewModel("ev")
	ps := spheres(m, 1, [3]float64{0, 0, 0}, [3]float64{1.5, 0, 0}, [3]float64{10, 0, 0})
	ev := NewExcludedVolumeRestraint(m, "ev", ps, 1, 0.5, nil)
	sf := imp.NewScoringFunction(ctx, m, "sf", ev)
	if s := sf.Evaluate(false); math.Abs(s-0.25) > 1e-12 {
		Te.Errorf("score %f, expected 0.25", s)
	}
	checkDerivatives(Te, sf, ps[:2])
	if s := sf.EvaluateIfGood(false, 0.1); s <= 0.1 {
		Te.Errorf("EvaluateIfGood returned %f under the max 0.1", s)
	}
	m2 := imp.NewModel("ev excluded")
	ps2 := spheres(m2, 1, [3]float64{0, 0, 0}, [3]float64{1.5, 0, 0})
	ev2 := NewExcludedVolumeRestraint(m2, "ev", ps2, 1, 0.5, ChainPairs(ps2))
	if s := imp.NewScoringFunction(ctx, m2, "sf", ev2).Evaluate(false); s != 0 {
		Te.Errorf("excluded pair scored %f", s)
	}
}

func TestPredicateRestraint(Te *testing.T) {
	ctx := imp.QuietContext(1)
	m := imp.NewModel("predicate")
	ps := spheres(m, 0.5, [3]float64{0, 0, 0}, [3]float64{0, 0, 2}, [3]float64{0, 0, 4})
	c := NewListPairContainer(m, "all", []Pair{{ps[0], ps[1]}, {ps[0], ps[2]}, {ps[1], ps[2]}})
	//class: the index distance between the particles
	pred := func(m *imp.Model, p Pair) int { return int(p[1] - p[0]) }
	pr := NewPredicateRestraint(m, "pred", pred, c)
	pr.SetScore(1, NewDistancePairScore(Harmonic{Mean: 0, K: 1}))
	sf := imp.NewScoringFunction(ctx, m, "sf", pr)
	//only the two neighbor pairs, 4 each
	if s := sf.Evaluate(false); math.Abs(s-8) > 1e-12 {
		Te.Errorf("score %f, expected 8", s)
	}
	checkDerivatives(Te, sf, ps)
}

func TestBoxAndPlanes(Te *testing.T) {
	ctx := imp.QuietContext(1)
	m := imp.NewModel("box")
	ps := spheres(m, 1, [3]float64{0, 0, 12}, [3]float64{-1, 5, 5}, [3]float64{2, 2, 2})
	c := NewListSingletonContainer(m, "all", ps)
	box := NewBoundingBoxRestraint(m, "box", c, [3]float64{0, 0, 0}, [3]float64{10, 10, 10}, 1)
	z := NewZAxialRestraint(m, "z", c, 3, 10, 2)
	sf := imp.NewScoringFunction(ctx, m, "sf", box, z)
	sf.Evaluate(false)
	ls := sf.LastScores()
	//box: 2^2 for the first, 1^2 for the second
	if math.Abs(ls[0]-5) > 1e-12 {
		Te.Errorf("box score %f, expected 5", ls[0])
	}
	//z: 2*2^2 for the first, 2*1^2 for the third
	if math.Abs(ls[1]-10) > 1e-12 {
		Te.Errorf("z score %f, expected 10", ls[1])
	}
	checkDerivatives(Te, sf, ps)
	m.RemoveParticle(ps[0])
	sf.Evaluate(false)
	if ls := sf.LastScores(); math.Abs(ls[0]-1) > 1e-12 || math.Abs(ls[1]-2) > 1e-12 {
		Te.Errorf("inactive particle still scored: %v", ls)
	}
}

func TestCentroidState(Te *testing.T) {
	ctx := imp.QuietContext(1)
	m := imp.NewModel("centroid")
	ps := spheres(m, 1, [3]float64{0, 0, 0}, [3]float64{2, 0, 0}, [3]float64{0, 0, 0}, [3]float64{1, 3, 0})
	members, cen, anchor := ps[:2], ps[2], ps[3]
	m.AddObject(NewCentroidState(m, "centroid", members, cen))
	r := NewDistanceRestraint(m, "d", Harmonic{Mean: 0, K: 1}, cen, anchor)
	sf := imp.NewScoringFunction(ctx, m, "sf", r)
	if s := sf.Evaluate(false); math.Abs(s-9) > 1e-12 {
		Te.Errorf("score %f, expected 9", s)
	}
	if c := imp.MustXYZ(m, cen).Coordinates(); c != [3]float64{1, 0, 0} {
		Te.Errorf("centroid at %v", c)
	}
	checkDerivatives(Te, sf, members)
	inc := imp.NewIncrementalScoringFunction(ctx, m, "inc", r)
	inc.Evaluate(false)
	imp.MustXYZ(m, members[0]).Translate([3]float64{0, 2, 0})
	got := inc.EvaluateMoved(members[:1], false)
	if full := sf.Evaluate(false); math.Abs(got-full) > 1e-12 {
		Te.Errorf("incremental %f, full %f after moving a member", got, full)
	}
}
