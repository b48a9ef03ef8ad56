package core

import (
	imp "github.com/rmera/goimp"
)

//isNonNegative reports whether f is known to never be negative.
func isNonNegative(f UnaryFunction) bool {
	switch g := f.(type) {
	case Harmonic:
		return g.K >= 0
	case HarmonicUpperBound:
		return g.K >= 0
	case HarmonicLowerBound:
		return g.K >= 0
	}
	return false
}

//DistanceRestraint applies a unary function to the distance between two particles.
type DistanceRestraint struct {
	*imp.RestraintBase
	desc imp.Descriptor
	ps   *DistancePairScore
	p    Pair
}

func NewDistanceRestraint(m *imp.Model, name string, f UnaryFunction, a, b imp.ParticleIndex) *DistanceRestraint {
	return &DistanceRestraint{
		RestraintBase: imp.NewRestraintBase(m, name),
		desc:          imp.NewDescriptor(name, imp.RestraintKind, imp.OnParticles(a, b), nil),
		ps:            NewDistancePairScore(f),
		p:             Pair{a, b},
	}
}

func (D *DistanceRestraint) Descriptor() imp.Descriptor { return D.desc }
func (D *DistanceRestraint) NonNegative() bool          { return isNonNegative(D.ps.F) }

func (D *DistanceRestraint) UnprotectedEvaluate(da *imp.DerivativeAccumulator) float64 {
	return D.ps.EvaluatePair(D.Model(), D.p, da)
}

//PairsRestraint sums a pair score over the pairs of a container.
type PairsRestraint struct {
	*imp.RestraintBase
	desc        imp.Descriptor
	score       PairScore
	c           PairContainer
	nonNegative bool
}

//NewPairsRestraint returns a restraint applying score to every pair in c. Set
//nonNegative if the pair score never goes below 0, which allows early stops.
func NewPairsRestraint(m *imp.Model, name string, score PairScore, c PairContainer, nonNegative bool) *PairsRestraint {
	return &PairsRestraint{
		RestraintBase: imp.NewRestraintBase(m, name),
		desc:          imp.NewDescriptor(name, imp.RestraintKind, []imp.Dep{imp.OnObject(c.ID())}, nil),
		score:         score,
		c:             c,
		nonNegative:   nonNegative,
	}
}

func (P *PairsRestraint) Descriptor() imp.Descriptor { return P.desc }
func (P *PairsRestraint) NonNegative() bool          { return P.nonNegative }
func (P *PairsRestraint) Container() PairContainer   { return P.c }

func (P *PairsRestraint) UnprotectedEvaluate(da *imp.DerivativeAccumulator) float64 {
	var sum float64
	m := P.Model()
	for _, p := range P.c.Pairs() {
		sum += P.score.EvaluatePair(m, p, da)
	}
	return sum
}

func (P *PairsRestraint) UnprotectedEvaluateIfGood(da *imp.DerivativeAccumulator, max float64) float64 {
	if !P.nonNegative {
		return P.UnprotectedEvaluate(da)
	}
	var sum float64
	m := P.Model()
	for _, p := range P.c.Pairs() {
		sum += P.score.EvaluatePair(m, p, da)
		if sum > max {
			return sum
		}
	}
	return sum
}

//NewExcludedVolumeRestraint penalizes the overlaps between the spheres ps, with
//a harmonic of constant k on the overlap. The pairs in excluded (typically the
//bonded ones) are not considered.
func NewExcludedVolumeRestraint(m *imp.Model, name string, ps []imp.ParticleIndex, k, slack float64, excluded []Pair) *PairsRestraint {
	c := NewClosePairContainer(m, name+" pairs", ps, 0, slack, KDTreeFinder{})
	c.ExcludePairs(excluded)
	return NewPairsRestraint(m, name, SoftSpherePairScore(k), c, k >= 0)
}

//PairPredicate assigns a class to a pair.
type PairPredicate func(m *imp.Model, p Pair) int

//PredicateRestraint scores each pair of a container with the pair score
//assigned to the class the predicate gives it. Pairs of unknown classes score 0.
type PredicateRestraint struct {
	*imp.RestraintBase
	desc   imp.Descriptor
	pred   PairPredicate
	scores map[int]PairScore
	c      PairContainer
}

func NewPredicateRestraint(m *imp.Model, name string, pred PairPredicate, c PairContainer) *PredicateRestraint {
	return &PredicateRestraint{
		RestraintBase: imp.NewRestraintBase(m, name),
		desc:          imp.NewDescriptor(name, imp.RestraintKind, []imp.Dep{imp.OnObject(c.ID())}, nil),
		pred:          pred,
		scores:        make(map[int]PairScore),
		c:             c,
	}
}

//SetScore sets the score for the pairs of class class.
func (P *PredicateRestraint) SetScore(class int, score PairScore) { P.scores[class] = score }

func (P *PredicateRestraint) Descriptor() imp.Descriptor { return P.desc }

func (P *PredicateRestraint) UnprotectedEvaluate(da *imp.DerivativeAccumulator) float64 {
	var sum float64
	m := P.Model()
	for _, p := range P.c.Pairs() {
		if s, ok := P.scores[P.pred(m, p)]; ok {
			sum += s.EvaluatePair(m, p, da)
		}
	}
	return sum
}

//BoundingBoxRestraint keeps the particles of a container in an axis-aligned
//box, with a harmonic penalty of constant k on each coordinate outside it.
type BoundingBoxRestraint struct {
	*imp.RestraintBase
	desc   imp.Descriptor
	c      SingletonContainer
	lo, hi [3]float64
	k      float64
}

func NewBoundingBoxRestraint(m *imp.Model, name string, c SingletonContainer, lo, hi [3]float64, k float64) *BoundingBoxRestraint {
	for i := range lo {
		if lo[i] > hi[i] {
			panic(imp.PanicMsg("goimp/core: bounding box with lower corner above the upper one"))
		}
	}
	return &BoundingBoxRestraint{
		RestraintBase: imp.NewRestraintBase(m, name),
		desc:          imp.NewDescriptor(name, imp.RestraintKind, []imp.Dep{imp.OnObject(c.ID())}, nil),
		c:             c,
		lo:            lo,
		hi:            hi,
		k:             k,
	}
}

func (B *BoundingBoxRestraint) Descriptor() imp.Descriptor { return B.desc }
func (B *BoundingBoxRestraint) NonNegative() bool          { return B.k >= 0 }

func (B *BoundingBoxRestraint) UnprotectedEvaluate(da *imp.DerivativeAccumulator) float64 {
	var sum float64
	m := B.Model()
	for _, p := range B.c.Particles() {
		x := imp.MustXYZ(m, p)
		c := x.Coordinates()
		var d [3]float64
		for i := range c {
			s, ds := boxTerm(c[i], B.lo[i], B.hi[i], B.k)
			sum += s
			d[i] = ds
		}
		x.AddDerivatives(d, da)
	}
	return sum
}

//boxTerm is the harmonic penalty for v outside [lo, hi]
func boxTerm(v, lo, hi, k float64) (float64, float64) {
	if v < lo {
		return HarmonicLowerBound{Mean: lo, K: k}.EvaluateWithDerivative(v)
	}
	return HarmonicUpperBound{Mean: hi, K: k}.EvaluateWithDerivative(v)
}

//ZAxialRestraint keeps the z coordinate of the particles of a container between
//two planes perpendicular to the z axis.
type ZAxialRestraint struct {
	*imp.RestraintBase
	desc         imp.Descriptor
	c            SingletonContainer
	lower, upper float64
	k            float64
}

func NewZAxialRestraint(m *imp.Model, name string, c SingletonContainer, lower, upper, k float64) *ZAxialRestraint {
	if lower > upper {
		panic(imp.PanicMsg("goimp/core: lower z plane above the upper one"))
	}
	return &ZAxialRestraint{
		RestraintBase: imp.NewRestraintBase(m, name),
		desc:          imp.NewDescriptor(name, imp.RestraintKind, []imp.Dep{imp.OnObject(c.ID())}, nil),
		c:             c,
		lower:         lower,
		upper:         upper,
		k:             k,
	}
}

func (Z *ZAxialRestraint) Descriptor() imp.Descriptor { return Z.desc }
func (Z *ZAxialRestraint) NonNegative() bool          { return Z.k >= 0 }

func (Z *ZAxialRestraint) UnprotectedEvaluate(da *imp.DerivativeAccumulator) float64 {
	var sum float64
	m := Z.Model()
	for _, p := range Z.c.Particles() {
		s, ds := boxTerm(m.Float(imp.ZKey, p), Z.lower, Z.upper, Z.k)
		sum += s
		da.AddToDerivative(m, imp.ZKey, p, ds)
	}
	return sum
}
