package mc

import (
	"fmt"
	"math"
	"math/rand"

	imp "github.com/rmera/goimp"
	v3 "github.com/rmera/goimp/v3"
)

//pick returns n particles of ps chosen at random without repetition,
//or all of them if n is not in (0, len(ps)).
func pick(r *rand.Rand, ps []imp.ParticleIndex, n int) []imp.ParticleIndex {
	if n <= 0 || n >= len(ps) {
		return ps
	}
	ret := make([]imp.ParticleIndex, n)
	for i, j := range r.Perm(len(ps))[:n] {
		ret[i] = ps[j]
	}
	return ret
}

//inBall returns a vector uniformly distributed in a ball of radius rad.
func inBall(r *rand.Rand, rad float64) [3]float64 {
	for {
		v := [3]float64{2*r.Float64() - 1, 2*r.Float64() - 1, 2*r.Float64() - 1}
		if v[0]*v[0]+v[1]*v[1]+v[2]*v[2] <= 1 {
			return [3]float64{rad * v[0], rad * v[1], rad * v[2]}
		}
	}
}

//BallMover displaces n random particles (all if n is 0) uniformly within a
//ball of radius Radius.
type BallMover struct {
	Stats
	ps     []imp.ParticleIndex
	n      int
	Radius float64
}

func NewBallMover(ps []imp.ParticleIndex, n int, radius float64) *BallMover {
	if radius <= 0 || math.IsNaN(radius) {
		panic(imp.PanicMsg(fmt.Sprintf("goimp/mc: invalid ball radius %f", radius)))
	}
	return &BallMover{ps: append([]imp.ParticleIndex(nil), ps...), n: n, Radius: radius}
}

func (B *BallMover) Propose(m *imp.Model, ctx *imp.SamplingContext) ProposedMove {
	var mv ProposedMove
	mv.Weight = 1
	for _, p := range pick(ctx.Rand, B.ps, B.n) {
		x, ok := imp.XYZOf(m, p)
		if !ok || !x.CoordinatesAreOptimized() {
			continue
		}
		mv.Touched = append(mv.Touched, x.Snapshot()...)
		x.Translate(inBall(ctx.Rand, B.Radius))
	}
	return mv
}

//NormalMover adds a gaussian step of standard deviation Sigma to the given
//float keys of n random particles (all if n is 0). Only optimized attributes are moved.
type NormalMover struct {
	Stats
	ps    []imp.ParticleIndex
	keys  []imp.FloatKey
	n     int
	Sigma float64
}

func NewNormalMover(ps []imp.ParticleIndex, keys []imp.FloatKey, n int, sigma float64) *NormalMover {
	if sigma <= 0 || math.IsNaN(sigma) {
		panic(imp.PanicMsg(fmt.Sprintf("goimp/mc: invalid step %f", sigma)))
	}
	return &NormalMover{
		ps:    append([]imp.ParticleIndex(nil), ps...),
		keys:  append([]imp.FloatKey(nil), keys...),
		n:     n,
		Sigma: sigma,
	}
}

func (N *NormalMover) Propose(m *imp.Model, ctx *imp.SamplingContext) ProposedMove {
	var mv ProposedMove
	mv.Weight = 1
	for _, p := range pick(ctx.Rand, N.ps, N.n) {
		for _, k := range N.keys {
			if !m.HasAttribute(k, p) || !m.IsOptimized(k, p) {
				continue
			}
			mv.Touched = append(mv.Touched, m.Snapshot(k, p))
			m.SetFloat(k, p, m.Float(k, p)+N.Sigma*ctx.Rand.NormFloat64())
		}
	}
	return mv
}

//NuisanceMover moves a bounded Scale with gaussian steps. A proposal that
//would leave the bounds is not applied, and has weight 0.
type NuisanceMover struct {
	Stats
	p     imp.ParticleIndex
	Sigma float64
}

func NewNuisanceMover(m *imp.Model, p imp.ParticleIndex, sigma float64) *NuisanceMover {
	if _, ok := imp.ScaleOf(m, p); !ok {
		panic(imp.ErrAttributeAbsent)
	}
	return &NuisanceMover{p: p, Sigma: sigma}
}

func (N *NuisanceMover) Propose(m *imp.Model, ctx *imp.SamplingContext) ProposedMove {
	s, ok := imp.ScaleOf(m, N.p)
	if !ok {
		return ProposedMove{}
	}
	v := s.Value() + N.Sigma*ctx.Rand.NormFloat64()
	if !s.InBounds(v) {
		return ProposedMove{}
	}
	mv := ProposedMove{Touched: []imp.Snapshot{m.Snapshot(imp.ScaleKey, N.p)}, Weight: 1}
	s.SetValue(v)
	return mv
}

//RigidMover rotates a group of particles around its centroid, by a random
//angle up to MaxAngle about a random axis, and then translates it within a ball of
//radius MaxTranslation.
type RigidMover struct {
	Stats
	ps             []imp.ParticleIndex
	MaxTranslation float64
	MaxAngle       float64
	c              *v3.Matrix
}

func NewRigidMover(ps []imp.ParticleIndex, maxTranslation, maxAngle float64) *RigidMover {
	if len(ps) == 0 {
		panic(imp.PanicMsg("goimp/mc: rigid mover for no particles"))
	}
	return &RigidMover{ps: append([]imp.ParticleIndex(nil), ps...), MaxTranslation: maxTranslation, MaxAngle: maxAngle}
}

func (R *RigidMover) Propose(m *imp.Model, ctx *imp.SamplingContext) ProposedMove {
	var mv ProposedMove
	for _, p := range R.ps {
		mv.Touched = append(mv.Touched, imp.MustXYZ(m, p).Snapshot()...)
	}
	mv.Weight = 1
	R.c = imp.Coords(m, R.ps, R.c)
	center := R.c.Centroid()
	angle := R.MaxAngle * (2*ctx.Rand.Float64() - 1)
	rot := v3.RotationMatrix(v3.RandomAxis(ctx.Rand), angle)
	R.c.Rotate(R.c, rot, center)
	if R.MaxTranslation > 0 {
		R.c.AddVec(R.c, inBall(ctx.Rand, R.MaxTranslation))
	}
	imp.SetCoords(m, R.ps, R.c)
	return mv
}

//SerialMover uses one of its movers per proposal, in turn.
type SerialMover struct {
	movers []Mover
	next   int
	last   int
}

func NewSerialMover(movers ...Mover) *SerialMover {
	if len(movers) == 0 {
		panic(imp.PanicMsg("goimp/mc: serial mover with no movers"))
	}
	return &SerialMover{movers: movers, last: -1}
}

func (S *SerialMover) Propose(m *imp.Model, ctx *imp.SamplingContext) ProposedMove {
	S.last = S.next
	S.next = (S.next + 1) % len(S.movers)
	return S.movers[S.last].Propose(m, ctx)
}

//ResetStatistics resets the statistics of the movers that keep them.
func (S *SerialMover) ResetStatistics() {
	for _, mv := range S.movers {
		if r, ok := mv.(statsResetter); ok {
			r.ResetStatistics()
		}
	}
}

//Accepted passes the result on to the mover that made the last proposal.
func (S *SerialMover) Accepted(ok bool) {
	if S.last < 0 {
		return
	}
	if o, is := S.movers[S.last].(AcceptanceObserver); is {
		o.Accepted(ok)
	}
}
