package imp

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

//The dependency graph has a node for each live object and for each particle
//that some object reads or writes. Edges go from what is read to the reader,
//and from a writer to what is written. It is rebuilt lazily when the arena
//version changes.

type depGraph struct {
	version int
	built   bool
	g       *simple.DirectedGraph
	order   map[ObjectID]int //topological position of each object
}

func objectNode(id ObjectID) int64       { return 2 * int64(id) }
func particleNode(p ParticleIndex) int64 { return 2*int64(p) + 1 }

func isObjectNode(n int64) bool { return n%2 == 0 }

func nodeObject(n int64) ObjectID       { return ObjectID(n / 2) }
func nodeParticle(n int64) ParticleIndex { return ParticleIndex((n - 1) / 2) }

func depNode(d Dep) int64 {
	if d.isObject {
		return objectNode(d.object)
	}
	return particleNode(d.particle)
}

func addNode(g *simple.DirectedGraph, id int64) graph.Node {
	if n := g.Node(id); n != nil {
		return n
	}
	n := simple.Node(id)
	g.AddNode(n)
	return n
}

//dependencies returns the graph for the current arena version, building it if needed.
func (M *Model) dependencies() *depGraph {
	G := &M.graph
	if G.built && G.version == M.objects.version {
		return G
	}
	g := simple.NewDirectedGraph()
	for i, s := range M.objects.slots {
		if !s.live {
			continue
		}
		id := ObjectID(i)
		on := addNode(g, objectNode(id))
		written := make(map[int64]bool, len(s.desc.outputs))
		for _, d := range s.desc.outputs {
			dn := depNode(d)
			if dn == on.ID() {
				continue
			}
			written[dn] = true
			g.SetEdge(g.NewEdge(on, addNode(g, dn)))
		}
		for _, d := range s.desc.inputs {
			dn := depNode(d)
			//an object that updates something in place is a writer of it only
			if dn == on.ID() || written[dn] {
				continue
			}
			g.SetEdge(g.NewEdge(addNode(g, dn), on))
		}
	}
	sorted, err := topo.Sort(g)
	if err != nil {
		panic(ErrDependencyCycle)
	}
	order := make(map[ObjectID]int, len(sorted))
	for i, n := range sorted {
		if isObjectNode(n.ID()) {
			order[nodeObject(n.ID())] = i
		}
	}
	G.g = g
	G.order = order
	G.version = M.objects.version
	G.built = true
	for i := range M.objects.slots {
		if M.objects.slots[i].live {
			M.objects.slots[i].deps = true
		}
	}
	return G
}

//upstream walks the graph against the edges starting at the object node and
//calls f for every node reached (excluding the start).
func (G *depGraph) upstream(start int64, f func(n int64)) {
	seen := map[int64]bool{start: true}
	stack := []int64{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		to := G.g.To(cur)
		for to.Next() {
			n := to.Node().ID()
			if seen[n] {
				continue
			}
			seen[n] = true
			f(n)
			stack = append(stack, n)
		}
	}
}

func (M *Model) refreshCache(id ObjectID) *slot {
	G := M.dependencies()
	s := M.slot(id)
	if s.reqVersion == G.version && s.required != nil {
		return s
	}
	var states []ObjectID
	var particles []ParticleIndex
	G.upstream(objectNode(id), func(n int64) {
		if !isObjectNode(n) {
			particles = append(particles, nodeParticle(n))
			return
		}
		oid := nodeObject(n)
		if M.objects.slots[oid].desc.kind == ScoreStateKind {
			states = append(states, oid)
		}
	})
	sort.Slice(states, func(i, j int) bool { return G.order[states[i]] < G.order[states[j]] })
	sort.Slice(particles, func(i, j int) bool { return particles[i] < particles[j] })
	s.required = append(make([]ObjectID, 0, len(states)), states...)
	s.upstream = particles
	s.reqVersion = G.version
	return s
}

//RequiredScoreStates returns the score states that have to be updated, in order,
//before the given objects can be evaluated. The result is cached until the set of
//objects in the model changes. A cycle in the dependency graph is a usage error.
func (M *Model) RequiredScoreStates(ids ...ObjectID) []ObjectID {
	G := M.dependencies()
	set := make(map[ObjectID]bool)
	var ret []ObjectID
	for _, id := range ids {
		for _, sid := range M.refreshCache(id).required {
			if !set[sid] {
				set[sid] = true
				ret = append(ret, sid)
			}
		}
	}
	sort.Slice(ret, func(i, j int) bool { return G.order[ret[i]] < G.order[ret[j]] })
	return ret
}

//UpstreamParticles returns all the particles the object depends on, directly or
//through other objects, sorted by index.
func (M *Model) UpstreamParticles(id ObjectID) []ParticleIndex {
	return M.refreshCache(id).upstream
}

//DependencyVersion changes every time the set of objects in the model changes.
func (M *Model) DependencyVersion() int {
	return M.objects.version
}
