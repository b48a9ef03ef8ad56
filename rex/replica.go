package rex

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	imp "github.com/rmera/goimp"
	"github.com/rmera/goimp/mc"
	"github.com/rmera/goimp/traj/stf"
)

//GroupScorer is a scoring function that can report the score of each of its
//restraints. *imp.ScoringFunction and *imp.IncrementalScoringFunction implement it.
type GroupScorer interface {
	mc.Scorer
	LastScores() []float64
}

//Walker is what one replica samples. The Model, and everything attached to it,
//is used only by the goroutine of its replica once the run starts.
type Walker struct {
	Model     *imp.Model
	MC        *mc.MonteCarlo
	Scorer    GroupScorer
	Particles []imp.ParticleIndex //written to the trajectory, in order
	Bias      *mc.WTE             //if nil and the run uses WTE, one is created from the configuration
}

//Builder returns the walker for a replica. It is called once per replica, from
//the coordinator, before any replica starts.
type Builder func(rank int, sctx *imp.SamplingContext) (*Walker, error)

//command is what the coordinator sends to a replica for each round.
type command struct {
	round int
	index int
	kT    float64
	steps int
	bias  []float64
	hot   bool
	write bool
}

//report is the answer of a replica to a command.
type report struct {
	rank   int
	score  float64
	groups []float64
	bias   []float64
	err    error
}

type replica struct {
	rank    int
	w       *Walker
	sctx    *imp.SamplingContext
	good    int
	log     *os.File
	logw    *bufio.Writer
	traj    *stf.StfW
	cut     float64
	cerr    error //set when closing, read after the goroutine ends
	cmds    chan command
	started bool
}

func (R *replica) run(ctx context.Context, reports chan<- report, wg *sync.WaitGroup) {
	defer wg.Done()
	defer R.close()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-R.cmds:
			reports <- R.do(c)
		}
	}
}

//do runs one command. Panics in the sampling are reported as errors, so one bad
//replica does not leave the coordinator waiting.
func (R *replica) do(c command) (rep report) {
	rep.rank = R.rank
	defer func() {
		if r := recover(); r != nil {
			rep.err = newCritical(fmt.Sprintf("replica panicked: %v", r), R.rank, c.round, nil)
		}
	}()
	M := R.w.MC
	if c.hot {
		//the hot start doesn't touch the bias
		M.SetBias(nil)
		M.SetKT(c.kT)
		M.Optimize(c.steps)
		if R.w.Bias != nil {
			M.SetBias(R.w.Bias)
		}
		rep.score = R.w.Scorer.Evaluate(false)
		return rep
	}
	if R.w.Bias != nil && c.bias != nil {
		if err := R.w.Bias.SetBuffer(c.bias); err != nil {
			rep.err = newCritical("bias buffer mismatch", R.rank, c.round, err)
			return rep
		}
	}
	M.SetKT(c.kT)
	M.Optimize(c.steps)
	rep.score = R.w.Scorer.Evaluate(false)
	rep.groups = R.w.Scorer.LastScores()
	if R.w.Bias != nil {
		rep.bias = R.w.Bias.Buffer()
	}
	if rep.score <= R.cut {
		R.good++
	}
	if R.logw != nil {
		fmt.Fprintf(R.logw, "%10d %10d %4d %12.6f", R.good, c.round, c.index, rep.score)
		for _, g := range rep.groups {
			fmt.Fprintf(R.logw, " %12.6f", g)
		}
		R.logw.WriteString("\n")
	}
	if c.write && R.traj != nil {
		if err := R.traj.WriteModel(R.w.Model, R.w.Particles, c.round); err != nil {
			rep.err = newCritical("can't write trajectory frame", R.rank, c.round, err)
			return rep
		}
	}
	R.sctx.Logf(2, "round %d index %d kT %.3f score %.4f", c.round, c.index, c.kT, rep.score)
	return rep
}

func (R *replica) close() {
	if R.logw != nil {
		if err := R.logw.Flush(); err != nil && R.cerr == nil {
			R.cerr = err
		}
	}
	if R.log != nil {
		if err := R.log.Close(); err != nil && R.cerr == nil {
			R.cerr = err
		}
	}
	if R.traj != nil {
		if err := R.traj.Close(); err != nil && R.cerr == nil {
			R.cerr = err
		}
	}
}
