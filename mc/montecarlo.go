/*
 * montecarlo.go, part of goimp.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package mc

import (
	"math"

	imp "github.com/rmera/goimp"
)

//Metropolis decides on a move from a state of energy e0 to one of energy e1, at
//temperature kT, for a proposal of weight w, using the uniform random number u.
//NaN energies are always rejected, and at kT <= 0 only moves that don't increase the energy
//are accepted.
func Metropolis(e0, e1, kT, w, u float64) bool {
	if math.IsNaN(e1) || math.IsNaN(w) {
		return false
	}
	if e1 <= e0 && w > 0 {
		return true
	}
	if kT <= 0 {
		return false
	}
	return u < w*math.Exp(-(e1-e0)/kT)
}

//Scorer is what MonteCarlo needs from a scoring function.
type Scorer interface {
	Model() *imp.Model
	Evaluate(calcDerivs bool) float64
	EvaluateIfGood(calcDerivs bool, max float64) float64
}

//IncrementalScorer can re-evaluate only what depends on the moved particles.
//*imp.IncrementalScoringFunction implements it.
type IncrementalScorer interface {
	Scorer
	EvaluateMoved(moved []imp.ParticleIndex, calcDerivs bool) float64
	Commit()
	Revert()
}

//Biaser is an energy-dependent bias added to the score for the acceptance
//decisions, and updated after every step.
type Biaser interface {
	Bias(e float64) float64
	Update(e, kT float64)
}

//MonteCarlo is a Metropolis Monte Carlo optimizer. In each step, all the movers
//propose a move, and the combined move is accepted or rejected as a whole.
type MonteCarlo struct {
	ctx        *imp.SamplingContext
	m          *imp.Model
	sf         Scorer
	inc        IncrementalScorer
	movers     []Mover
	kT         float64
	maxDiff    float64
	returnBest bool
	bias       Biaser
	threshold  float64
	forward    int
	backward   int
	upward     int
	last       float64
	valid      bool
	best       float64
}

//New returns an optimizer for m, scored by sf, at kT 1. If sf is an
//IncrementalScorer, moves are scored incrementally.
func New(ctx *imp.SamplingContext, m *imp.Model, sf Scorer) *MonteCarlo {
	M := &MonteCarlo{ctx: ctx, m: m, sf: sf, kT: 1, maxDiff: math.Inf(1), threshold: math.Inf(-1)}
	if inc, ok := sf.(IncrementalScorer); ok {
		M.inc = inc
	}
	return M
}

func (M *MonteCarlo) AddMover(mv Mover) { M.movers = append(M.movers, mv) }
func (M *MonteCarlo) Movers() []Mover   { return append([]Mover(nil), M.movers...) }

func (M *MonteCarlo) SetKT(kT float64) { M.kT = kT }
func (M *MonteCarlo) KT() float64      { return M.kT }

//SetMaxDifference sets the largest energy increase considered. Moves that raise the
//score by more are rejected, and the evaluation can stop early.
func (M *MonteCarlo) SetMaxDifference(d float64) { M.maxDiff = d }

//SetReturnBest makes Optimize leave the model in the best state it saw.
func (M *MonteCarlo) SetReturnBest(b bool) { M.returnBest = b }

//SetBias sets a bias on the acceptance. nil removes it.
func (M *MonteCarlo) SetBias(b Biaser) { M.bias = b }

//SetScoreThreshold stops Optimize as soon as the score is below t.
func (M *MonteCarlo) SetScoreThreshold(t float64) { M.threshold = t }

//Forward returns the number of accepted steps. Forward()+Backward() is the
//number of steps run since the last ResetStatistics.
func (M *MonteCarlo) Forward() int { return M.forward }

//Backward returns the number of rejected steps.
func (M *MonteCarlo) Backward() int { return M.backward }

//Upward returns the number of accepted steps that increased the score.
func (M *MonteCarlo) Upward() int { return M.upward }

func (M *MonteCarlo) ResetStatistics() {
	M.forward, M.backward, M.upward = 0, 0, 0
	for _, mv := range M.movers {
		if r, ok := mv.(statsResetter); ok {
			r.ResetStatistics()
		}
	}
}

//LastScore returns the score of the current state, as of the last step.
func (M *MonteCarlo) LastScore() float64 { return M.last }

//Invalidate forces a full evaluation at the beginning of the next Optimize.
//It must be called if the model is changed outside the optimizer.
func (M *MonteCarlo) Invalidate() { M.valid = false }

func (M *MonteCarlo) score() float64 {
	if M.inc != nil {
		return M.inc.Evaluate(false)
	}
	return M.sf.Evaluate(false)
}

func (M *MonteCarlo) biased(e float64) float64 {
	if M.bias == nil {
		return e
	}
	return e + M.bias.Bias(e)
}

//optimizedState captures every optimized float attribute of the model.
func optimizedState(m *imp.Model) []imp.Snapshot {
	var ret []imp.Snapshot
	for _, p := range m.Particles() {
		for _, k := range m.AttributeKeys(p) {
			if fk, ok := k.(imp.FloatKey); ok && m.IsOptimized(fk, p) {
				ret = append(ret, m.Snapshot(fk, p))
			}
		}
	}
	return ret
}

//Optimize runs n steps and returns the score of the final state.
func (M *MonteCarlo) Optimize(n int) float64 {
	if !M.valid {
		M.last = M.score()
		M.valid = true
	}
	e := M.last
	M.best = e
	var bestState []imp.Snapshot
	if M.returnBest {
		bestState = optimizedState(M.m)
	}
	moves := make([]ProposedMove, len(M.movers))
	for step := 0; step < n; step++ {
		w := 1.0
		var moved []imp.ParticleIndex
		for i, mv := range M.movers {
			moves[i] = mv.Propose(M.m, M.ctx)
			w *= moves[i].Weight
			if M.inc != nil {
				moved = append(moved, moves[i].Particles()...)
			}
		}
		//always drawn, so the random sequence doesn't depend on the evaluation path.
		u := M.ctx.Rand.Float64()
		var e1 float64
		accept := false
		if w > 0 {
			switch {
			case M.inc != nil:
				e1 = M.inc.EvaluateMoved(moved, false)
			case !math.IsInf(M.maxDiff, 1):
				e1 = M.sf.EvaluateIfGood(false, e+M.maxDiff)
			default:
				e1 = M.sf.Evaluate(false)
			}
			accept = e1-e <= M.maxDiff && Metropolis(M.biased(e), M.biased(e1), M.kT, w, u)
		}
		if accept {
			for i := range moves {
				moves[i].Commit(M.m)
			}
			if M.inc != nil {
				M.inc.Commit()
			}
			M.forward++
			if e1 > e {
				M.upward++
			}
			e = e1
			if e < M.best {
				M.best = e
				if M.returnBest {
					bestState = optimizedState(M.m)
				}
			}
		} else {
			for i := len(moves) - 1; i >= 0; i-- {
				moves[i].Rollback(M.m)
			}
			if M.inc != nil && w > 0 {
				M.inc.Revert()
			}
			M.backward++
		}
		for _, mv := range M.movers {
			if o, ok := mv.(AcceptanceObserver); ok {
				o.Accepted(accept)
			}
		}
		if M.bias != nil {
			M.bias.Update(e, M.kT)
		}
		M.ctx.Logf(3, "mc step %d score %f accepted %t", step, e, accept)
		if e < M.threshold {
			break
		}
	}
	if M.returnBest && M.best < e {
		M.m.Restore(bestState)
		e = M.score()
	}
	M.last = e
	return e
}

//Best returns the lowest score seen in the last Optimize call.
func (M *MonteCarlo) Best() float64 { return M.best }
