package rex

import (
	"fmt"
	"math"
	"sort"
)

//GeometricLadder returns n temperatures from tmin to tmax, with a constant
//ratio between neighbors. n == 1 gives [tmin].
func GeometricLadder(tmin, tmax float64, n int) ([]float64, error) {
	if err := checkRange(tmin, tmax, n); err != nil {
		return nil, err
	}
	ret := make([]float64, n)
	ret[0] = tmin
	for i := 1; i < n; i++ {
		ret[i] = tmin * math.Pow(tmax/tmin, float64(i)/float64(n-1))
	}
	if n > 1 {
		ret[n-1] = tmax
	}
	return ret, nil
}

//LinearLadder returns n evenly spaced temperatures from tmin to tmax. n == 1 gives [tmin].
func LinearLadder(tmin, tmax float64, n int) ([]float64, error) {
	if err := checkRange(tmin, tmax, n); err != nil {
		return nil, err
	}
	ret := make([]float64, n)
	ret[0] = tmin
	for i := 1; i < n; i++ {
		ret[i] = tmin + (tmax-tmin)*float64(i)/float64(n-1)
	}
	return ret, nil
}

//ExplicitLadder checks that ts is a valid ladder (positive and ascending) and returns a copy.
func ExplicitLadder(ts []float64) ([]float64, error) {
	if len(ts) == 0 {
		return nil, newError("empty temperature ladder", -1, -1, nil)
	}
	for i, t := range ts {
		if !(t > 0) || math.IsInf(t, 1) {
			return nil, newError(fmt.Sprintf("temperature %d (%g) is not positive and finite", i, t), -1, -1, nil)
		}
	}
	if !sort.Float64sAreSorted(ts) {
		return nil, newError("temperature ladder is not ascending", -1, -1, nil)
	}
	return append([]float64(nil), ts...), nil
}

func checkRange(tmin, tmax float64, n int) error {
	switch {
	case n < 1:
		return newError(fmt.Sprintf("invalid number of temperatures %d", n), -1, -1, nil)
	case !(tmin > 0) || math.IsInf(tmax, 1):
		return newError(fmt.Sprintf("invalid temperature range %g-%g", tmin, tmax), -1, -1, nil)
	case !(tmax >= tmin):
		return newError(fmt.Sprintf("tmax %g smaller than tmin %g", tmax, tmin), -1, -1, nil)
	}
	return nil
}
