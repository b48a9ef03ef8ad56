package core

import (
	"math"

	imp "github.com/rmera/goimp"
	v3 "github.com/rmera/goimp/v3"
)

//Pair is an ordered pair of particles.
type Pair [2]imp.ParticleIndex

//PairScore scores a pair of particles and, if da is not nil, adds
//the derivatives of the score to the model.
type PairScore interface {
	EvaluatePair(m *imp.Model, p Pair, da *imp.DerivativeAccumulator) float64
}

//DistancePairScore applies a unary function to the distance between the
//centers of the particles.
type DistancePairScore struct {
	F UnaryFunction
}

func NewDistancePairScore(f UnaryFunction) *DistancePairScore {
	return &DistancePairScore{F: f}
}

func (D *DistancePairScore) EvaluatePair(m *imp.Model, p Pair, da *imp.DerivativeAccumulator) float64 {
	return distanceScore(m, p, 0, D.F, da)
}

//SphereDistancePairScore applies a unary function to the distance between the
//surfaces of two spheres, which is negative when they overlap.
type SphereDistancePairScore struct {
	F UnaryFunction
}

func NewSphereDistancePairScore(f UnaryFunction) *SphereDistancePairScore {
	return &SphereDistancePairScore{F: f}
}

func (S *SphereDistancePairScore) EvaluatePair(m *imp.Model, p Pair, da *imp.DerivativeAccumulator) float64 {
	a := imp.MustXYZR(m, p[0])
	b := imp.MustXYZR(m, p[1])
	return distanceScore(m, p, a.Radius()+b.Radius(), S.F, da)
}

//SoftSpherePairScore returns the score used for excluded volume: a harmonic
//lower bound at 0 on the distance between surfaces, so only overlaps are penalized.
func SoftSpherePairScore(k float64) *SphereDistancePairScore {
	return &SphereDistancePairScore{F: HarmonicLowerBound{Mean: 0, K: k}}
}

//distanceScore evaluates f(|a-b|-offset) and its derivatives.
func distanceScore(m *imp.Model, p Pair, offset float64, f UnaryFunction, da *imp.DerivativeAccumulator) float64 {
	a := imp.MustXYZ(m, p[0])
	b := imp.MustXYZ(m, p[1])
	ca, cb := a.Coordinates(), b.Coordinates()
	d := v3.Distance(ca, cb)
	if da == nil {
		return f.Evaluate(d - offset)
	}
	s, ds := f.EvaluateWithDerivative(d - offset)
	//the gradient is not defined for coincident centers.
	if d == 0 || ds == 0 || math.IsNaN(ds) {
		return s
	}
	var g [3]float64
	for i := range g {
		g[i] = ds * (ca[i] - cb[i]) / d
	}
	a.AddDerivatives(g, da)
	b.AddDerivatives([3]float64{-g[0], -g[1], -g[2]}, da)
	return s
}
