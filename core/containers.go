package core

import (
	"fmt"
	"math"
	"sort"

	imp "github.com/rmera/goimp"
	v3 "github.com/rmera/goimp/v3"
)

//SingletonContainer is a model object that holds a set of particles.
type SingletonContainer interface {
	imp.ModelObject
	ID() imp.ObjectID
	//Particles returns the active particles in the container.
	Particles() []imp.ParticleIndex
}

//PairContainer is a model object that holds a set of particle pairs.
type PairContainer interface {
	imp.ModelObject
	ID() imp.ObjectID
	//Pairs returns the pairs of active particles in the container.
	Pairs() []Pair
}

//ListSingletonContainer is a fixed list of particles.
type ListSingletonContainer struct {
	m    *imp.Model
	id   imp.ObjectID
	desc imp.Descriptor
	ps   []imp.ParticleIndex
}

//NewListSingletonContainer returns a container with the particles ps, registered in m.
func NewListSingletonContainer(m *imp.Model, name string, ps []imp.ParticleIndex) *ListSingletonContainer {
	L := &ListSingletonContainer{
		m:    m,
		desc: imp.NewDescriptor(name, imp.ContainerKind, imp.OnParticles(ps...), nil),
		ps:   append([]imp.ParticleIndex(nil), ps...),
	}
	L.id = m.AddObject(L)
	return L
}

func (L *ListSingletonContainer) Descriptor() imp.Descriptor { return L.desc }
func (L *ListSingletonContainer) ID() imp.ObjectID           { return L.id }

func (L *ListSingletonContainer) Particles() []imp.ParticleIndex {
	ret := make([]imp.ParticleIndex, 0, len(L.ps))
	for _, p := range L.ps {
		if L.m.IsActive(p) {
			ret = append(ret, p)
		}
	}
	return ret
}

//ListPairContainer is a fixed list of pairs, such as the bonds of a chain.
type ListPairContainer struct {
	m     *imp.Model
	id    imp.ObjectID
	desc  imp.Descriptor
	pairs []Pair
}

func NewListPairContainer(m *imp.Model, name string, pairs []Pair) *ListPairContainer {
	seen := make(map[imp.ParticleIndex]bool)
	var ps []imp.ParticleIndex
	for _, p := range pairs {
		for _, v := range p {
			if !seen[v] {
				seen[v] = true
				ps = append(ps, v)
			}
		}
	}
	L := &ListPairContainer{
		m:     m,
		desc:  imp.NewDescriptor(name, imp.ContainerKind, imp.OnParticles(ps...), nil),
		pairs: append([]Pair(nil), pairs...),
	}
	L.id = m.AddObject(L)
	return L
}

//ChainPairs returns the pairs of consecutive particles in ps.
func ChainPairs(ps []imp.ParticleIndex) []Pair {
	var ret []Pair
	for i := 1; i < len(ps); i++ {
		ret = append(ret, Pair{ps[i-1], ps[i]})
	}
	return ret
}

func (L *ListPairContainer) Descriptor() imp.Descriptor { return L.desc }
func (L *ListPairContainer) ID() imp.ObjectID           { return L.id }

func (L *ListPairContainer) Pairs() []Pair {
	ret := make([]Pair, 0, len(L.pairs))
	for _, p := range L.pairs {
		if L.m.IsActive(p[0]) && L.m.IsActive(p[1]) {
			ret = append(ret, p)
		}
	}
	return ret
}

//ClosePairContainer keeps the pairs of particles whose surfaces are closer than
//a distance. The list is built with distance+slack, and rebuilt only when some
//particle has moved more than half the slack since the last build, so it is
//always a superset of the pairs within distance.
type ClosePairContainer struct {
	m        *imp.Model
	id       imp.ObjectID
	desc     imp.Descriptor
	ps       []imp.ParticleIndex
	distance float64
	slack    float64
	finder   CloseFinder
	excluded map[Pair]bool
	ref      map[imp.ParticleIndex][3]float64
	pairs    []Pair
	builds   int
}

//NewClosePairContainer returns a close pairs container over ps, registered in m.
//If finder is nil, a KDTreeFinder is used.
func NewClosePairContainer(m *imp.Model, name string, ps []imp.ParticleIndex, distance, slack float64, finder CloseFinder) *ClosePairContainer {
	if distance < 0 || slack < 0 || math.IsNaN(distance+slack) {
		panic(imp.PanicMsg(fmt.Sprintf("goimp/core: invalid distance %f or slack %f for container %s", distance, slack, name)))
	}
	if finder == nil {
		finder = KDTreeFinder{}
	}
	C := &ClosePairContainer{
		m:        m,
		desc:     imp.NewDescriptor(name, imp.ContainerKind, imp.OnParticles(ps...), nil),
		ps:       append([]imp.ParticleIndex(nil), ps...),
		distance: distance,
		slack:    slack,
		finder:   finder,
		excluded: make(map[Pair]bool),
	}
	C.id = m.AddObject(C)
	return C
}

func (C *ClosePairContainer) Descriptor() imp.Descriptor { return C.desc }
func (C *ClosePairContainer) ID() imp.ObjectID           { return C.id }

//Builds returns the number of times the pair list has been computed.
func (C *ClosePairContainer) Builds() int { return C.builds }

//Exclude prevents the pair from ever being in the container.
func (C *ClosePairContainer) Exclude(a, b imp.ParticleIndex) {
	C.excluded[ordered(a, b)] = true
	C.ref = nil
}

//ExcludePairs excludes all the given pairs.
func (C *ClosePairContainer) ExcludePairs(pairs []Pair) {
	for _, p := range pairs {
		C.Exclude(p[0], p[1])
	}
}

func ordered(a, b imp.ParticleIndex) Pair {
	if a > b {
		return Pair{b, a}
	}
	return Pair{a, b}
}

//needsBuild returns true if some particle moved more than slack/2
//or the set of active particles changed.
func (C *ClosePairContainer) needsBuild() bool {
	if C.ref == nil {
		return true
	}
	n := 0
	lim := C.slack * C.slack / 4
	for _, p := range C.ps {
		if !C.m.IsActive(p) {
			continue
		}
		n++
		r, ok := C.ref[p]
		if !ok || v3.Distance2(r, imp.MustXYZ(C.m, p).Coordinates()) > lim {
			return true
		}
	}
	return n != len(C.ref)
}

func (C *ClosePairContainer) build() {
	var ps []imp.ParticleIndex
	var coords [][3]float64
	var radii []float64
	C.ref = make(map[imp.ParticleIndex][3]float64, len(C.ps))
	for _, p := range C.ps {
		if !C.m.IsActive(p) {
			continue
		}
		x := imp.MustXYZ(C.m, p)
		var r float64
		if xr, ok := imp.XYZROf(C.m, p); ok {
			r = xr.Radius()
		}
		ps = append(ps, p)
		coords = append(coords, x.Coordinates())
		radii = append(radii, r)
		C.ref[p] = x.Coordinates()
	}
	C.pairs = C.pairs[:0]
	for _, ij := range C.finder.ClosePairs(coords, radii, C.distance+C.slack) {
		p := ordered(ps[ij[0]], ps[ij[1]])
		if !C.excluded[p] {
			C.pairs = append(C.pairs, p)
		}
	}
	C.builds++
}

//Pairs returns the current pair list, rebuilding it if needed.
func (C *ClosePairContainer) Pairs() []Pair {
	if C.needsBuild() {
		C.build()
	}
	return C.pairs
}

//CloseFinder finds the pairs of spheres, with centers c and radii r, whose
//surfaces are within dist of each other. The pairs are returned as indexes
//into c, with the first smaller than the second, sorted.
type CloseFinder interface {
	ClosePairs(c [][3]float64, r []float64, dist float64) [][2]int
}

func sortIndexPairs(pairs [][2]int) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
}

func within(ci, cj [3]float64, ri, rj, dist float64) bool {
	lim := dist + ri + rj
	return v3.Distance2(ci, cj) <= lim*lim
}

//QuadraticFinder checks all pairs. Fine for small systems.
type QuadraticFinder struct{}

func (Q QuadraticFinder) ClosePairs(c [][3]float64, r []float64, dist float64) [][2]int {
	var ret [][2]int
	for i := range c {
		for j := i + 1; j < len(c); j++ {
			if within(c[i], c[j], r[i], r[j], dist) {
				ret = append(ret, [2]int{i, j})
			}
		}
	}
	return ret
}
