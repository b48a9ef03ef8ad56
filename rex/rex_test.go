package rex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	imp "github.com/rmera/goimp"
	"github.com/rmera/goimp/config"
	"github.com/rmera/goimp/core"
	"github.com/rmera/goimp/mc"
	"github.com/rmera/goimp/store"
	"github.com/rmera/goimp/traj/stf"
)

func TestLadders(Te *testing.T) {
	g, err := GeometricLadder(1, 8, 4)
	if err != nil {
		Te.Fatal(err)
	}
	for i, want := range []float64{1, 2, 4, 8} {
		if math.Abs(g[i]-want) > 1e-12 {
			Te.Errorf("geometric ladder %v", g)
		}
	}
	l, _ := LinearLadder(1, 4, 4)
	if l[1] != 2 || l[3] != 4 {
		Te.Errorf("linear ladder %v", l)
	}
	if one, _ := GeometricLadder(2, 5, 1); len(one) != 1 || one[0] != 2 {
		Te.Errorf("one temperature gave %v", one)
	}
	for _, bad := range [][]float64{nil, {1, 3, 2}, {0, 1}, {-1, 2}} {
		if _, err := ExplicitLadder(bad); err == nil {
			Te.Errorf("accepted ladder %v", bad)
		}
	}
	if _, err := GeometricLadder(3, 2, 4); err == nil {
		Te.Error("accepted tmax < tmin")
	}
}

func TestPartners(Te *testing.T) {
	r := rand.New(rand.NewSource(3))
	for n := 1; n < 8; n++ {
		for it := 0; it < 4; it++ {
			for _, pairs := range [][][2]int{Partners(it, n), RandomPairs(r, n)} {
				seen := make(map[int]bool)
				for _, p := range pairs {
					if p[0] >= p[1] || p[1] >= n || seen[p[0]] || seen[p[1]] {
						Te.Fatalf("n %d iteration %d: bad pairing %v", n, it, pairs)
					}
					seen[p[0]], seen[p[1]] = true, true
				}
			}
			for _, p := range Partners(it, n) {
				if p[1] != p[0]+1 || p[0]%2 != it%2 {
					Te.Errorf("n %d iteration %d: bad alternating pair %v", n, it, p)
				}
				if PartnerOf(p[0], it, n) != p[1] || PartnerOf(p[1], it, n) != p[0] {
					Te.Errorf("PartnerOf disagrees with Partners for %v", p)
				}
			}
		}
	}
	if PartnerOf(0, 1, 4) != -1 || PartnerOf(3, 1, 4) != -1 || PartnerOf(3, 0, 4) != 2 {
		Te.Error("wrong partners at the ends of the ladder")
	}
}

type constBias float64

func (c constBias) Bias(e float64) float64 { return float64(c) * e }

func TestSwapProbability(Te *testing.T) {
	//the cold replica has the higher energy: always swap
	if p := SwapProbability(5, 1, 1, 2, 0); p != 1 {
		Te.Errorf("probability %f, expected 1", p)
	}
	want := math.Exp((1 - 5) * (1 - 0.5))
	if p := SwapProbability(1, 5, 1, 2, 0); math.Abs(p-want) > 1e-12 {
		Te.Errorf("probability %f, expected %f", p, want)
	}
	if p := SwapProbability(math.NaN(), 5, 1, 2, 0); p != 0 {
		Te.Errorf("NaN energy gave probability %f", p)
	}
	//linear biases: VI = 0.5 E, VJ = 0.25 E
	d := WTEDelta(constBias(0.5), constBias(0.25), 1, 5, 1, 2)
	if wantd := 0.5*(1-5)/1 + 0.25*(5-1)/2; math.Abs(d-wantd) > 1e-12 {
		Te.Errorf("WTE delta %f, expected %f", d, wantd)
	}
	if d := WTEDelta(nil, nil, 1, 5, 1, 2); d != 0 {
		Te.Errorf("nil biases gave %f", d)
	}
}

func TestBiasFiles(Te *testing.T) {
	dir := Te.TempDir()
	w, err := mc.NewWTE(0, 10, 1, 10, 0.5)
	if err != nil {
		Te.Fatal(err)
	}
	for _, e := range []float64{1, 2, 2.5, 7} {
		w.Update(e, 1)
	}
	path := BiasFile(dir, 3)
	if err := WriteBias(path, w.Buffer()); err != nil {
		Te.Fatal(err)
	}
	buf, err := ReadBias(path, 2*w.NBin())
	if err != nil {
		Te.Fatal(err)
	}
	for i, v := range w.Buffer() {
		if math.Abs(buf[i]-v) > 1e-10*math.Max(1, math.Abs(v)) {
			Te.Errorf("value %d: read %g, wrote %g", i, buf[i], v)
		}
	}
	_, err = ReadBias(path, 2*w.NBin()+1)
	var rerr *Error
	if !errors.As(err, &rerr) || !rerr.Critical() {
		Te.Errorf("length mismatch gave %v", err)
	}
}

//beads builds a walker: a chain of beads kept in a box, with bonds and excluded volume.
func beads(n int) Builder {
	return func(rank int, sctx *imp.SamplingContext) (*Walker, error) {
		m := imp.NewModel(fmt.Sprintf("replica%d", rank))
		ps := make([]imp.ParticleIndex, n)
		for i := range ps {
			ps[i] = m.AddParticle(fmt.Sprintf("bead%d", i))
			imp.SetupXYZR(m, ps[i], [3]float64{1.2 * float64(i), 0, 0}, 0.5)
		}
		bonds := core.NewListPairContainer(m, "bonds", core.ChainPairs(ps))
		br := core.NewPairsRestraint(m, "bonds", core.NewDistancePairScore(core.Harmonic{Mean: 1.2, K: 10}), bonds, true)
		ev := core.NewExcludedVolumeRestraint(m, "ev", ps, 10, 1, core.ChainPairs(ps))
		all := core.NewListSingletonContainer(m, "all", ps)
		box := core.NewBoundingBoxRestraint(m, "box", all, [3]float64{-2, -2, -2}, [3]float64{8, 2, 2}, 10)
		sf := imp.NewIncrementalScoringFunction(sctx, m, "sf", br, ev, box)
		M := mc.New(sctx, m, sf)
		M.AddMover(mc.NewBallMover(ps, 1, 0.4))
		return &Walker{Model: m, MC: M, Scorer: sf, Particles: ps}, nil
	}
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.NReplicas = 4
	cfg.TMin, cfg.TMax = 1, 4
	cfg.NSteps = 12
	cfg.NExc = 10
	cfg.NHot = 20
	cfg.NWrite = 3
	cfg.OutDir = dir
	cfg.ScoreCutoff = 5
	return cfg
}

func quiet(E *Exchange) *Exchange {
	E.Log = log.New(io.Discard, "", 0)
	return E
}

func TestRunKeepsPermutation(Te *testing.T) {
	dir := Te.TempDir()
	cfg := testConfig(dir)
	st := store.NewMemoryStore()
	if err := st.Init(context.Background()); err != nil {
		Te.Fatal(err)
	}
	E := quiet(NewExchange(cfg, beads(5)))
	E.Ladder = []float64{1, 2, 3, 4}
	E.Store = st
	S, err := E.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if S.Rounds != cfg.NSteps || len(S.Holders) != cfg.NSteps {
		Te.Fatalf("%d rounds recorded, expected %d", S.Rounds, cfg.NSteps)
	}
	for round, h := range S.Holders {
		seen := make([]bool, len(h))
		for _, rank := range h {
			if seen[rank] {
				Te.Fatalf("round %d: not a permutation %v", round, h)
			}
			seen[rank] = true
		}
		for idx, s := range S.Scores[round] {
			if math.IsNaN(s) || s < 0 {
				Te.Errorf("round %d index %d: score %f", round, idx, s)
			}
		}
	}
	fmt.Println("acceptance", S.Acceptance(), "good", S.Good, "best", S.Best)
	recs, ok, err := st.GetRecords(context.Background(), S.RunID)
	if err != nil || !ok || len(recs) != cfg.NSteps*cfg.NReplicas {
		Te.Fatalf("store has %d records (%v %v)", len(recs), ok, err)
	}
	if _, ok, _ := st.GetRun(context.Background(), S.RunID); !ok {
		Te.Error("run summary not stored")
	}
	//per-rank log: one line per round, with the three restraint groups
	b, err := os.ReadFile(filepath.Join(dir, cfg.LogFile+"0"))
	if err != nil {
		Te.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != cfg.NSteps || len(strings.Fields(lines[0])) != 4+3 {
		Te.Errorf("wrong per-rank log:\n%s", b)
	}
	b, err = os.ReadFile(filepath.Join(dir, cfg.RexFile))
	if err != nil {
		Te.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(b)), "\n"); len(lines) != cfg.NSteps || len(strings.Fields(lines[0])) != 5 {
		Te.Errorf("wrong exchange log:\n%s", b)
	}
	//frames every 3 rounds: 0, 3, 6, 9
	r, _, err := stf.New(filepath.Join(dir, cfg.TrajFile+"2.stf"))
	if err != nil {
		Te.Fatal(err)
	}
	_, indexes, err := r.ReadAll()
	if err != nil || len(indexes) != 4 || indexes[3] != 9 {
		Te.Errorf("trajectory frames %v (%v)", indexes, err)
	}
	if _, err := os.Stat(filepath.Join(dir, HistogramFile)); err != nil {
		Te.Error(err)
	}
	var counted int
	for i := 0; i < S.Histos.Len(); i++ {
		counted += S.Histos.View(i).Total() + S.Histos.View(i).Outside()
	}
	if counted != cfg.NSteps*cfg.NReplicas {
		Te.Errorf("%d scores in the histograms", counted)
	}
}

func TestRunWTE(Te *testing.T) {
	dir := Te.TempDir()
	cfg := testConfig(dir)
	cfg.DoWTE = true
	cfg.WTEEMin, cfg.WTEEMax = 0, 50
	cfg.Pairing = "random"
	cfg.TrajFile = ""
	S, err := quiet(NewExchange(cfg, beads(4))).Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	w, _ := mc.NewWTE(cfg.WTEEMin, cfg.WTEEMax, cfg.WTESigma, cfg.WTEGamma, cfg.WTEW0)
	for i := range S.Ladder {
		buf, err := ReadBias(BiasFile(dir, i), 2*w.NBin())
		if err != nil {
			Te.Fatal(err)
		}
		var sum float64
		for _, v := range buf[:w.NBin()] {
			sum += v
		}
		if !(sum > 0) {
			Te.Errorf("index %d: no bias deposited", i)
		}
		w.SetBuffer(buf)
		if len(S.BiasArea) != len(S.Ladder) || math.Abs(S.BiasArea[i]-w.Integral()) > 1e-6 || !(S.BiasArea[i] > 0) {
			Te.Errorf("index %d: wrong bias integral in the summary %v", i, S.BiasArea)
		}
	}
	//a restart reads the checkpoints back
	cfg.WTERestart = true
	cfg.NSteps = 2
	if _, err := quiet(NewExchange(cfg, beads(4))).Run(context.Background()); err != nil {
		Te.Fatal(err)
	}
}

func TestBiasMismatchAborts(Te *testing.T) {
	cfg := testConfig(Te.TempDir())
	cfg.DoWTE = true
	build := beads(4)
	E := quiet(NewExchange(cfg, func(rank int, sctx *imp.SamplingContext) (*Walker, error) {
		w, err := build(rank, sctx)
		if err != nil || rank != 2 {
			return w, err
		}
		//a different grid for one replica
		w.Bias, err = mc.NewWTE(cfg.WTEEMin, cfg.WTEEMax/2, cfg.WTESigma, cfg.WTEGamma, cfg.WTEW0)
		return w, err
	}))
	_, err := E.Run(context.Background())
	var rerr *Error
	if !errors.As(err, &rerr) || !rerr.Critical() {
		Te.Fatalf("expected a critical rex error, got %v", err)
	}
	fmt.Println("aborted with:", err)
}

func TestRunCancelled(Te *testing.T) {
	cfg := testConfig(Te.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := quiet(NewExchange(cfg, beads(3))).Run(ctx); err == nil {
		Te.Error("a cancelled run returned no error")
	}
}
