package mc

import (
	"errors"
	"fmt"
	"math"
)

//AnnealStage is a number of MC steps at a given temperature.
type AnnealStage struct {
	KT    float64
	Steps int
}

//GeometricSchedule returns n stages going from kT0 to kT1 geometrically, each with
//steps steps.
func GeometricSchedule(kT0, kT1 float64, n, steps int) []AnnealStage {
	ret := make([]AnnealStage, n)
	for i := range ret {
		kT := kT0
		if n > 1 {
			kT = kT0 * math.Pow(kT1/kT0, float64(i)/float64(n-1))
		}
		ret[i] = AnnealStage{KT: kT, Steps: steps}
	}
	return ret
}

//ConvergenceError is returned when an annealing doesn't reach the cutoff score.
type ConvergenceError struct {
	Best     float64
	Cutoff   float64
	Attempts int
}

func (err *ConvergenceError) Error() string {
	return fmt.Sprintf("annealing didn't converge after %d attempt(s): best score %g, cutoff %g", err.Attempts, err.Best, err.Cutoff)
}

//Anneal runs the schedule on M, keeping the best state. It returns the best score and,
//if it is above cutoff, a *ConvergenceError.
func Anneal(M *MonteCarlo, schedule []AnnealStage, cutoff float64) (float64, error) {
	if len(schedule) == 0 {
		return 0, errors.New("empty annealing schedule")
	}
	rb := M.returnBest
	M.SetReturnBest(true)
	defer M.SetReturnBest(rb)
	var best float64
	for i, st := range schedule {
		M.SetKT(st.KT)
		s := M.Optimize(st.Steps)
		if i == 0 || s < best {
			best = s
		}
		M.ctx.Logf(2, "annealing stage %d kT %.4f score %.4f", i, st.KT, s)
	}
	if best > cutoff {
		return best, &ConvergenceError{Best: best, Cutoff: cutoff, Attempts: 1}
	}
	return best, nil
}

//AnnealWithRetry calls Anneal up to attempts times, doubling the steps of
//the schedule after every convergence failure. Other errors are returned at once.
func AnnealWithRetry(M *MonteCarlo, schedule []AnnealStage, cutoff float64, attempts int) (float64, error) {
	if attempts < 1 {
		attempts = 1
	}
	sch := append([]AnnealStage(nil), schedule...)
	var s float64
	var err error
	for a := 1; a <= attempts; a++ {
		s, err = Anneal(M, sch, cutoff)
		var cerr *ConvergenceError
		if !errors.As(err, &cerr) {
			return s, err
		}
		cerr.Attempts = a
		for i := range sch {
			sch[i].Steps *= 2
		}
	}
	return s, err
}
