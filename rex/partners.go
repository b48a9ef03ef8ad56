package rex

import "math/rand"

//Partners returns the pairs of temperature indexes that attempt an exchange in
//the given iteration, as gromacs does: even iterations pair (0,1), (2,3)...
//and odd ones (1,2), (3,4)... so a replica moves at most one step per iteration.
func Partners(iteration, n int) [][2]int {
	var ret [][2]int
	for i := iteration % 2; i+1 < n; i += 2 {
		ret = append(ret, [2]int{i, i + 1})
	}
	return ret
}

//PartnerOf returns the index paired with index in the given iteration, or -1 if it
//has no partner.
func PartnerOf(index, iteration, n int) int {
	if index < 0 || index >= n {
		return -1
	}
	var p int
	if (index-iteration%2)%2 == 0 {
		p = index + 1
	} else {
		p = index - 1
	}
	if p < 0 || p >= n {
		return -1
	}
	return p
}

//RandomPairs returns a random pairing of the n indexes. With an odd n, one index
//is left out. Each pair has the lower index first.
func RandomPairs(r *rand.Rand, n int) [][2]int {
	perm := r.Perm(n)
	ret := make([][2]int, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		a, b := perm[i], perm[i+1]
		if a > b {
			a, b = b, a
		}
		ret = append(ret, [2]int{a, b})
	}
	return ret
}
