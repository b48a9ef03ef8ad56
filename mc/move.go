/*
 * move.go, part of goimp.
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
	"sort"

	imp "github.com/rmera/goimp"
)

//ProposedMove is what a mover returns. Touched has the state, before the move,
//of everything the mover changed. Weight is the ratio of the proposal
//probabilities (1 for symmetric movers). A move with Weight 0 must be rejected.
type ProposedMove struct {
	Touched []imp.Snapshot
	Weight  float64
}

//Particles returns the particles touched by the move, sorted, without repetitions.
func (P ProposedMove) Particles() []imp.ParticleIndex {
	seen := make(map[imp.ParticleIndex]bool, len(P.Touched))
	ret := make([]imp.ParticleIndex, 0, len(P.Touched))
	for _, s := range P.Touched {
		if !seen[s.Particle] {
			seen[s.Particle] = true
			ret = append(ret, s.Particle)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

//Commit accepts the move. The snapshots are dropped.
func (P *ProposedMove) Commit(m *imp.Model) {
	P.Touched = nil
}

//Rollback undoes the move, bit by bit.
func (P *ProposedMove) Rollback(m *imp.Model) {
	m.Restore(P.Touched)
	P.Touched = nil
}

//Mover proposes a random change to a model. The change is applied when Propose returns.
type Mover interface {
	Propose(m *imp.Model, ctx *imp.SamplingContext) ProposedMove
}

//AcceptanceObserver is implemented by movers that want to know if
//their last proposal was accepted.
type AcceptanceObserver interface {
	Accepted(ok bool)
}

type statsResetter interface {
	ResetStatistics()
}

//Stats counts proposals and acceptances. Movers embed it to implement AcceptanceObserver.
type Stats struct {
	proposed int
	accepted int
}

func (S *Stats) Accepted(ok bool) {
	S.proposed++
	if ok {
		S.accepted++
	}
}

//AcceptanceRate returns the fraction of accepted proposals, or 0 if none was made.
func (S *Stats) AcceptanceRate() float64 {
	if S.proposed == 0 {
		return 0
	}
	return float64(S.accepted) / float64(S.proposed)
}

//Proposals returns the number of proposals decided so far.
func (S *Stats) Proposals() int { return S.proposed }

func (S *Stats) ResetStatistics() {
	S.proposed = 0
	S.accepted = 0
}
