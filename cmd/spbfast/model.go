package main

import (
	"fmt"
	"math"

	imp "github.com/rmera/goimp"
	"github.com/rmera/goimp/config"
	"github.com/rmera/goimp/core"
	"github.com/rmera/goimp/mc"
	"github.com/rmera/goimp/rex"
)

//chainBuilder returns a builder for a chain of cfg.NBeads beads of radius
//cfg.BeadRadius, bonded to their neighbors, with excluded volume between the rest,
//kept in a cubic box of side cfg.BoxSide centered on the origin and pulled to the
//z_target plane. The ends of the chain are kept within half a box of each other,
//with a constant kappa. Every replica starts from the same straight chain.
func chainBuilder(cfg *config.Config) rex.Builder {
	return func(rank int, sctx *imp.SamplingContext) (*rex.Walker, error) {
		n := cfg.NBeads
		if n < 1 {
			return nil, fmt.Errorf("chain of %d beads", n)
		}
		bond := 2 * cfg.BeadRadius
		half := cfg.BoxSide / 2
		if float64(n-1)*bond > cfg.BoxSide*math.Sqrt(3) {
			sctx.Logf(1, "the extended chain (%.2f) doesn't fit in the box", float64(n-1)*bond)
		}
		m := imp.NewModel(fmt.Sprintf("spb%d", rank))
		ps := make([]imp.ParticleIndex, n)
		x0 := -float64(n-1) * bond / 2
		for i := range ps {
			ps[i] = m.AddParticle(fmt.Sprintf("bead%d", i))
			imp.SetupXYZR(m, ps[i], [3]float64{x0 + bond*float64(i), 0, cfg.ZTarget}, cfg.BeadRadius)
		}
		chain := core.ChainPairs(ps)
		rs := []imp.Restraint{
			core.NewExcludedVolumeRestraint(m, "excluded volume", ps, cfg.KEV, bond, chain),
		}
		if n > 1 {
			bonds := core.NewListPairContainer(m, "bonds", chain)
			rs = append(rs,
				core.NewPairsRestraint(m, "bonds", core.NewSphereDistancePairScore(core.Harmonic{Mean: 0, K: cfg.KBond}), bonds, true),
				core.NewDistanceRestraint(m, "ends", core.HarmonicUpperBound{Mean: half, K: cfg.Kappa}, ps[0], ps[n-1]),
			)
		}
		all := core.NewListSingletonContainer(m, "beads", ps)
		rs = append(rs,
			core.NewBoundingBoxRestraint(m, "box", all, [3]float64{-half, -half, -half}, [3]float64{half, half, half}, cfg.KBox),
			core.NewZAxialRestraint(m, "membrane", all, cfg.ZTarget-cfg.BeadRadius, cfg.ZTarget+cfg.BeadRadius, cfg.KZ),
		)
		sf := imp.NewIncrementalScoringFunction(sctx, m, "spb", rs...)
		M := mc.New(sctx, m, sf)
		M.AddMover(mc.NewBallMover(ps, 1, cfg.Dx))
		M.AddMover(mc.NewRigidMover(ps, cfg.Dx, math.Pi/12))
		return &rex.Walker{Model: m, MC: M, Scorer: sf, Particles: ps}, nil
	}
}
