/*
 * rex.go, part of goimp.
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

//Package rex runs replica-exchange Monte Carlo. Each replica samples its own
//model in its own goroutine. A single coordinator owns the round counter and
//the assignment of temperatures to replicas. In each round it sends every
//replica a command, waits for all the reports, and then decides the swaps.
package rex

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	imp "github.com/rmera/goimp"
	"github.com/rmera/goimp/config"
	"github.com/rmera/goimp/histo"
	"github.com/rmera/goimp/mc"
	"github.com/rmera/goimp/store"
	"github.com/rmera/goimp/traj/stf"
)

//HistogramFile is the name, in the output directory, of the score histograms.
const HistogramFile = "histograms.json"

//number of bins of the score histograms
const histoBins = 50

//Summary is what a run leaves behind, apart from the files.
type Summary struct {
	RunID     string
	Started   time.Time
	Ladder    []float64
	Rounds    int
	Attempted []int       //swap attempts for each pair of neighboring indexes (i, i+1)
	Accepted  []int       //accepted swaps for each pair of neighboring indexes
	Scores    [][]float64 //[round][index] score sampled at the index in the round
	Holders   [][]int     //[round][index] replica holding the index, after the swaps
	Good      []int       //good_count of each replica
	Best      float64
	Histos    *histo.Set //scores per temperature index
	BiasArea  []float64  //integral of the WTE bias of each index, nil without WTE
}

//Acceptance returns the swap acceptance ratio for each pair of neighboring
//indexes. Pairs never attempted get 0.
func (S *Summary) Acceptance() []float64 {
	ret := make([]float64, len(S.Attempted))
	for i, a := range S.Attempted {
		if a > 0 {
			ret[i] = float64(S.Accepted[i]) / float64(a)
		}
	}
	return ret
}

//Exchange holds a replica-exchange run to be started with Run.
type Exchange struct {
	Config    *config.Config
	Build     Builder
	Log       *log.Logger
	Verbosity int
	Store     store.Store //if nil, one is created from Config.Store, if that is not empty.
	Ladder    []float64   //if nil, built from the configuration.
}

//Run runs the replica exchange described by cfg, with walkers from build,
//logging to stderr.
func Run(ctx context.Context, cfg *config.Config, build Builder) (*Summary, error) {
	return NewExchange(cfg, build).Run(ctx)
}

//NewExchange returns an exchange that logs to stderr with verbosity 1.
func NewExchange(cfg *config.Config, build Builder) *Exchange {
	return &Exchange{Config: cfg, Build: build, Log: log.New(os.Stderr, "rex: ", log.LstdFlags), Verbosity: 1}
}

func (E *Exchange) logf(level int, format string, v ...interface{}) {
	if E.Log == nil || level > E.Verbosity {
		return
	}
	E.Log.Printf(format, v...)
}

func (E *Exchange) ladder() ([]float64, error) {
	cfg := E.Config
	if E.Ladder != nil {
		if len(E.Ladder) != cfg.NReplicas {
			return nil, newError(fmt.Sprintf("%d temperatures for %d replicas", len(E.Ladder), cfg.NReplicas), -1, -1, nil)
		}
		return ExplicitLadder(E.Ladder)
	}
	if cfg.Ladder == "linear" {
		return LinearLadder(cfg.TMin, cfg.TMax, cfg.NReplicas)
	}
	return GeometricLadder(cfg.TMin, cfg.TMax, cfg.NReplicas)
}

func (E *Exchange) newWTE() (*mc.WTE, error) {
	c := E.Config
	return mc.NewWTE(c.WTEEMin, c.WTEEMax, c.WTESigma, c.WTEGamma, c.WTEW0)
}

//coordinator is the state of a run. Only the goroutine that calls Run touches it.
type coordinator struct {
	*Exchange
	kts      []float64
	holder   []int //holder[index] is the replica holding the temperature index
	indexOf  []int //indexOf[replica] is the index the replica holds
	wtes     []*mc.WTE
	reps     []*replica
	reports  chan report
	scores   []float64 //by replica
	groups   [][]float64
	summary  *Summary
	rng      *rand.Rand
	rexf     *os.File
	rexw     *bufio.Writer
	st       store.Store
	ownStore bool
}

//Run does the whole run: the initialization, the hot start, the sampling
//rounds and the finalization. The bias and histogram files are written only
//if the sampling finished. A critical error in any replica cancels the run.
func (E *Exchange) Run(ctx context.Context) (*Summary, error) {
	if E.Config == nil || E.Build == nil {
		return nil, newError("nil configuration or builder", -1, -1, nil)
	}
	if err := E.Config.Validate(); err != nil {
		return nil, newError("invalid configuration", -1, -1, err)
	}
	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	var wg sync.WaitGroup
	C := &coordinator{Exchange: E}
	defer func() {
		cancel()
		wg.Wait()
		C.closeFiles()
	}()
	if err := C.init(); err != nil {
		return nil, err
	}
	for _, r := range C.reps {
		wg.Add(1)
		r.started = true
		go r.run(ctx, C.reports, &wg)
	}
	if err := C.hotStart(ctx); err != nil {
		return nil, err
	}
	for round := 0; round < E.Config.NSteps; round++ {
		if err := C.round(ctx, round); err != nil {
			return nil, err
		}
	}
	cancel()
	wg.Wait()
	for _, r := range C.reps {
		if r.cerr != nil {
			return nil, newError("closing replica files", r.rank, -1, r.cerr)
		}
	}
	if err := C.finalize(parent); err != nil {
		return nil, err
	}
	C.logf(1, "run %s finished: %d rounds, acceptance %v", C.summary.RunID, C.summary.Rounds, C.summary.Acceptance())
	return C.summary, nil
}

func (C *coordinator) outPath(name string, rank ...int) string {
	if len(rank) > 0 {
		name += strconv.Itoa(rank[0])
	}
	return filepath.Join(C.Config.OutDir, name)
}

func (C *coordinator) init() error {
	cfg := C.Config
	kts, err := C.ladder()
	if err != nil {
		return err
	}
	n := len(kts)
	C.kts = kts
	C.rng = rand.New(rand.NewSource(cfg.Seed))
	C.holder = make([]int, n)
	C.indexOf = make([]int, n)
	for i := range C.holder {
		C.holder[i] = i
		C.indexOf[i] = i
	}
	C.reports = make(chan report, n)
	C.scores = make([]float64, n)
	C.groups = make([][]float64, n)
	C.summary = &Summary{
		RunID:     store.NewRunID(),
		Started:   time.Now(),
		Ladder:    append([]float64(nil), kts...),
		Attempted: make([]int, max(n-1, 0)),
		Accepted:  make([]int, max(n-1, 0)),
		Good:      make([]int, n),
		Best:      math.Inf(1),
		Histos:    histo.NewSet(n, histo.Uniform(cfg.WTEEMin, cfg.WTEEMax, histoBins)),
	}
	if cfg.DoWTE {
		C.wtes = make([]*mc.WTE, n)
		for i := range C.wtes {
			if C.wtes[i], err = C.newWTE(); err != nil {
				return newCritical("invalid WTE parameters", -1, -1, err)
			}
			if cfg.WTERestart {
				buf, err := ReadBias(BiasFile(cfg.OutDir, i), 2*C.wtes[i].NBin())
				if err != nil {
					return err
				}
				if err := C.wtes[i].SetBuffer(buf); err != nil {
					return newCritical("can't restart the bias", -1, -1, err)
				}
			}
		}
	}
	for rank := 0; rank < n; rank++ {
		if err := C.addReplica(rank); err != nil {
			return err
		}
	}
	if cfg.RexFile != "" {
		if C.rexf, err = os.Create(C.outPath(cfg.RexFile)); err != nil {
			return newError("can't create the exchange log", -1, -1, err)
		}
		C.rexw = bufio.NewWriter(C.rexf)
	}
	C.st = C.Store
	if C.st == nil && cfg.Store != "" {
		if C.st, err = store.NewStore(cfg.Store, C.outPath(cfg.StorePath)); err != nil {
			return newError("can't create the run store", -1, -1, err)
		}
		C.ownStore = true
	}
	if C.st != nil && C.ownStore {
		if err := C.st.Init(context.Background()); err != nil {
			return newError("can't initialize the run store", -1, -1, err)
		}
	}
	C.logf(1, "run %s: %d replicas, temperatures %v", C.summary.RunID, n, kts)
	return nil
}

func (C *coordinator) addReplica(rank int) error {
	cfg := C.Config
	sctx := imp.NewSamplingContext(cfg.Seed + int64(rank) + 1)
	sctx.Verbosity = C.Verbosity
	if C.Log != nil {
		sctx.Log = log.New(C.Log.Writer(), fmt.Sprintf("replica %d: ", rank), C.Log.Flags())
	} else {
		sctx.Log = log.New(io.Discard, "", 0)
	}
	w, err := C.Build(rank, sctx)
	if err != nil {
		return newError("can't build the walker", rank, -1, err)
	}
	if w == nil || w.Model == nil || w.MC == nil || w.Scorer == nil {
		return newError("incomplete walker", rank, -1, nil)
	}
	if cfg.DoWTE {
		if w.Bias == nil {
			if w.Bias, err = C.newWTE(); err != nil {
				return newCritical("invalid WTE parameters", rank, -1, err)
			}
		}
		w.MC.SetBias(w.Bias)
	} else {
		w.Bias = nil
	}
	R := &replica{rank: rank, w: w, sctx: sctx, cut: cfg.ScoreCutoff, cmds: make(chan command, 1)}
	C.reps = append(C.reps, R)
	if cfg.LogFile != "" {
		if R.log, err = os.Create(C.outPath(cfg.LogFile, rank)); err != nil {
			return newError("can't create the log", rank, -1, err)
		}
		R.logw = bufio.NewWriter(R.log)
	}
	if cfg.TrajFile != "" && len(w.Particles) > 0 {
		header := map[string]string{"replica": strconv.Itoa(rank), "run": C.summary.RunID}
		if R.traj, err = stf.NewWriter(C.outPath(cfg.TrajFile, rank)+".stf", len(w.Particles), header); err != nil {
			return newError("can't create the trajectory", rank, -1, err)
		}
	}
	return nil
}

//send gives c to the replica r, unless the run is cancelled.
func (C *coordinator) send(ctx context.Context, r *replica, c command) error {
	if err := ctx.Err(); err != nil {
		return newError("run cancelled", -1, c.round, err)
	}
	select {
	case <-ctx.Done():
		return newError("run cancelled", -1, c.round, ctx.Err())
	case r.cmds <- c:
	}
	return nil
}

//gather waits for one report from every replica, which is the barrier between rounds.
func (C *coordinator) gather(ctx context.Context, round int) error {
	for range C.reps {
		var rep report
		select {
		case <-ctx.Done():
			return newError("run cancelled", -1, round, ctx.Err())
		case rep = <-C.reports:
		}
		if rep.err != nil {
			return rep.err
		}
		C.scores[rep.rank] = rep.score
		C.groups[rep.rank] = rep.groups
		if C.wtes != nil && rep.bias != nil {
			if err := C.wtes[C.indexOf[rep.rank]].SetBuffer(rep.bias); err != nil {
				return newCritical("bias buffer mismatch", rep.rank, round, err)
			}
		}
	}
	return nil
}

func (C *coordinator) hotStart(ctx context.Context) error {
	cfg := C.Config
	if cfg.NHot <= 0 {
		return nil
	}
	for _, r := range C.reps {
		if err := C.send(ctx, r, command{round: -1, index: C.indexOf[r.rank], kT: cfg.TMax, steps: cfg.NHot, hot: true}); err != nil {
			return err
		}
	}
	if err := C.gather(ctx, -1); err != nil {
		return err
	}
	C.logf(1, "hot start done, scores %v", C.scores)
	return nil
}

func (C *coordinator) round(ctx context.Context, round int) error {
	cfg := C.Config
	n := len(C.kts)
	for _, r := range C.reps {
		idx := C.indexOf[r.rank]
		c := command{round: round, index: idx, kT: C.kts[idx], steps: cfg.NExc, write: round%cfg.NWrite == 0}
		if C.wtes != nil {
			c.bias = C.wtes[idx].Buffer()
		}
		if err := C.send(ctx, r, c); err != nil {
			return err
		}
	}
	if err := C.gather(ctx, round); err != nil {
		return err
	}
	for rank, s := range C.scores {
		C.summary.Histos.AddData(C.indexOf[rank], s)
		if s < C.summary.Best {
			C.summary.Best = s
		}
	}
	before := append([]int(nil), C.indexOf...)
	var pairs [][2]int
	if cfg.Pairing == "random" {
		pairs = RandomPairs(C.rng, n)
	} else {
		pairs = Partners(round, n)
	}
	accepted := make([]bool, n) //by replica
	for _, p := range pairs {
		a, b := p[0], p[1]
		I, J := C.holder[a], C.holder[b]
		var delta float64
		if C.wtes != nil {
			delta = WTEDelta(C.wtes[a], C.wtes[b], C.scores[I], C.scores[J], C.kts[a], C.kts[b])
		}
		prob := SwapProbability(C.scores[I], C.scores[J], C.kts[a], C.kts[b], delta)
		u := C.rng.Float64()
		if b == a+1 {
			C.summary.Attempted[a]++
		}
		if u < prob {
			C.holder[a], C.holder[b] = J, I
			C.indexOf[I], C.indexOf[J] = b, a
			accepted[I], accepted[J] = true, true
			if b == a+1 {
				C.summary.Accepted[a]++
			}
			C.logf(2, "round %d: replicas %d and %d swapped indexes %d and %d", round, I, J, a, b)
		}
	}
	if err := C.checkPermutation(round); err != nil {
		return err
	}
	scores := make([]float64, n)
	for rank, idx := range before {
		scores[idx] = C.scores[rank]
	}
	C.summary.Scores = append(C.summary.Scores, scores)
	C.summary.Holders = append(C.summary.Holders, append([]int(nil), C.holder...))
	C.summary.Rounds = round + 1
	if C.rexw != nil {
		fmt.Fprintf(C.rexw, "%8d", round)
		for _, rank := range C.holder {
			fmt.Fprintf(C.rexw, " %4d", rank)
		}
		C.rexw.WriteString("\n")
	}
	return C.saveRecords(ctx, round, before, accepted)
}

//checkPermutation makes sure that every replica holds exactly one index.
func (C *coordinator) checkPermutation(round int) error {
	seen := make([]bool, len(C.holder))
	for idx, rank := range C.holder {
		if rank < 0 || rank >= len(seen) || seen[rank] || C.indexOf[rank] != idx {
			return newCritical(fmt.Sprintf("temperature assignment is not a permutation: %v", C.holder), -1, round, nil)
		}
		seen[rank] = true
	}
	return nil
}

//saveRecords stores one record per replica, with the index it sampled at in the round.
func (C *coordinator) saveRecords(ctx context.Context, round int, before []int, accepted []bool) error {
	if C.st == nil {
		return nil
	}
	recs := make([]store.Record, 0, len(C.reps))
	for rank, s := range C.scores {
		idx := before[rank]
		recs = append(recs, store.Record{Round: round, Replica: rank, Index: idx, KT: C.kts[idx],
			Score: s, Groups: C.groups[rank], Accepted: accepted[rank]})
	}
	if err := C.st.SaveRecords(ctx, C.summary.RunID, recs); err != nil {
		return newError("can't save the round records", -1, round, err)
	}
	return nil
}

func (C *coordinator) finalize(ctx context.Context) error {
	cfg := C.Config
	for i, w := range C.wtes {
		if err := WriteBias(BiasFile(cfg.OutDir, i), w.Buffer()); err != nil {
			return err
		}
		C.summary.BiasArea = append(C.summary.BiasArea, w.Integral())
		C.logf(2, "index %d: bias integral %.4f", i, w.Integral())
	}
	b, err := json.Marshal(C.summary.Histos)
	if err != nil {
		return newError("can't encode the histograms", -1, -1, err)
	}
	if err := os.WriteFile(C.outPath(HistogramFile), b, 0644); err != nil {
		return newError("can't write the histograms", -1, -1, err)
	}
	for i, r := range C.reps {
		C.summary.Good[i] = r.good
	}
	for i := 0; i < C.summary.Histos.Len(); i++ {
		h := C.summary.Histos.View(i)
		C.logf(2, "index %d: %d scores in the histogram, %d outside, flatness %.3f", i, h.Total(), h.Outside(), h.Flatness())
	}
	if C.st != nil {
		run := store.Run{ID: C.summary.RunID, Started: C.summary.Started, Replicas: len(C.reps), Rounds: C.summary.Rounds,
			Ladder: C.summary.Ladder, Acceptance: C.summary.Acceptance(), BestScore: C.summary.Best}
		if err := C.st.SaveRun(ctx, run); err != nil {
			return newError("can't save the run", -1, -1, err)
		}
	}
	return nil
}

func (C *coordinator) closeFiles() {
	if C.rexw != nil {
		C.rexw.Flush()
		C.rexf.Close()
		C.rexw = nil
	}
	if C.ownStore && C.st != nil {
		store.CloseIfSupported(C.st)
		C.st = nil
	}
	//the replica files are closed by their goroutines, or here if they never started
	for _, r := range C.reps {
		if !r.started {
			r.close()
		}
	}
}
