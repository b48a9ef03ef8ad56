package imp

import "fmt"

//Stage is the evaluation stage a Model is in.
type Stage int

const (
	NotEvaluating Stage = iota
	BeforeEvaluating
	Evaluating
	AfterEvaluating
)

func (s Stage) String() string {
	return [...]string{"NotEvaluating", "BeforeEvaluating", "Evaluating", "AfterEvaluating"}[s]
}

//Model owns the particles, all their attributes and the model objects
//(restraints, score states, containers) that read and write them.
//A Model is not safe for concurrent use. Each walker in a sampling run
//owns its own.
type Model struct {
	name    string
	names   []string
	active  []bool
	attrs   attributeStore
	objects arena
	stage   Stage
	evals   int
	check   CheckLevel
	graph   depGraph
}

//NewModel returns an empty model.
func NewModel(name string) *Model {
	M := new(Model)
	M.name = name
	M.check = CheckUsage
	return M
}

func (M *Model) Name() string { return M.name }

func (M *Model) String() string {
	return fmt.Sprintf("Model %s: %d particles, %d objects", M.name, len(M.names), M.objects.live())
}

//AddParticle adds a new particle, with no attributes, and returns its index.
func (M *Model) AddParticle(name string) ParticleIndex {
	M.names = append(M.names, name)
	M.active = append(M.active, true)
	return ParticleIndex(len(M.names) - 1)
}

//NumberOfParticles returns the number of particles ever added, including inactive ones.
func (M *Model) NumberOfParticles() int { return len(M.names) }

//Particles returns the indexes of the active particles.
func (M *Model) Particles() []ParticleIndex {
	ret := make([]ParticleIndex, 0, len(M.names))
	for i, a := range M.active {
		if a {
			ret = append(ret, ParticleIndex(i))
		}
	}
	return ret
}

//ParticleName returns the name given to p.
func (M *Model) ParticleName(p ParticleIndex) string {
	M.checkRange(p)
	return M.names[p]
}

//IsActive returns true if p is a live particle. It never panics.
func (M *Model) IsActive(p ParticleIndex) bool {
	return p >= 0 && int(p) < len(M.active) && M.active[p]
}

//RemoveParticle marks p as inactive and drops all its attributes.
//The index is never reused, so other particles are not affected.
func (M *Model) RemoveParticle(p ParticleIndex) {
	M.checkRange(p)
	if !M.active[p] {
		panic(ErrInactiveParticle)
	}
	M.checkNotEvaluating()
	for _, k := range M.attrs.keysOf(p) {
		M.attrs.remove(k, p)
	}
	M.active[p] = false
}

func (M *Model) checkRange(p ParticleIndex) {
	if p < 0 || int(p) >= len(M.names) {
		panic(ErrParticleRange)
	}
}

//Attributes

//AddAttribute adds the value v for the key k to particle p. It panics if
//the particle already has a value for k. If given and true, optimized marks
//a float attribute as optimized.
func (M *Model) AddAttribute(k Key, p ParticleIndex, v Value, optimized ...bool) {
	M.checkRange(p)
	opt := len(optimized) > 0 && optimized[0]
	M.attrs.add(k, p, v, opt)
}

//Attribute returns the value of k for p, panics if absent.
func (M *Model) Attribute(k Key, p ParticleIndex) Value {
	return M.attrs.get(k, p)
}

//AttributeOr returns the value of k for p, or fill if absent.
func (M *Model) AttributeOr(k Key, p ParticleIndex, fill Value) Value {
	if !M.attrs.has(k, p) {
		return fill
	}
	return M.attrs.get(k, p)
}

//SetAttribute overwrites the value of k for p. The attribute must exist.
func (M *Model) SetAttribute(k Key, p ParticleIndex, v Value) {
	M.attrs.set(k, p, v)
}

//HasAttribute never fails.
func (M *Model) HasAttribute(k Key, p ParticleIndex) bool {
	return M.attrs.has(k, p)
}

//RemoveAttribute drops the value of k for p. The attribute must exist.
func (M *Model) RemoveAttribute(k Key, p ParticleIndex) {
	M.attrs.remove(k, p)
}

//AttributeKeys returns all the keys for which p has a value.
func (M *Model) AttributeKeys(p ParticleIndex) []Key {
	return M.attrs.keysOf(p)
}

//Float is a fast path for Attribute(k,p).Float()
func (M *Model) Float(k FloatKey, p ParticleIndex) float64 {
	c := M.attrs.col(k, false)
	if !c.present(p) {
		panic(ErrAttributeAbsent)
	}
	return c.vals[p].f
}

//SetFloat is a fast path for SetAttribute(k,p,FloatValue(f))
func (M *Model) SetFloat(k FloatKey, p ParticleIndex, f float64) {
	c := M.attrs.col(k, false)
	if !c.present(p) {
		panic(ErrAttributeAbsent)
	}
	c.vals[p].f = f
}

func (M *Model) Int(k IntKey, p ParticleIndex) int { return M.attrs.get(k, p).Int() }

func (M *Model) SetInt(k IntKey, p ParticleIndex, i int) { M.attrs.set(k, p, IntValue(i)) }

//IsOptimized returns whether the float attribute is flagged as optimized.
//Returns false if absent.
func (M *Model) IsOptimized(k FloatKey, p ParticleIndex) bool {
	c := M.attrs.col(k, false)
	return c.present(p) && c.opt[p]
}

//SetIsOptimized sets the optimized flag of an existing float attribute.
func (M *Model) SetIsOptimized(k FloatKey, p ParticleIndex, opt bool) {
	c := M.attrs.col(k, false)
	if !c.present(p) {
		panic(ErrAttributeAbsent)
	}
	c.opt[p] = opt
}

//Derivative returns the accumulated derivative of the score with respect to
//the float attribute k of p.
func (M *Model) Derivative(k FloatKey, p ParticleIndex) float64 {
	c := M.attrs.col(k, false)
	if !c.present(p) {
		panic(ErrAttributeAbsent)
	}
	return c.deriv[p]
}

func (M *Model) addToDerivative(k FloatKey, p ParticleIndex, v float64) {
	c := M.attrs.col(k, false)
	if !c.present(p) {
		panic(ErrAttributeAbsent)
	}
	c.deriv[p] += v
}

//ZeroDerivatives sets all the accumulated derivatives to 0.
func (M *Model) ZeroDerivatives() {
	M.attrs.zeroDerivatives()
}

//Snapshot captures the current state of k for p.
func (M *Model) Snapshot(k Key, p ParticleIndex) Snapshot {
	s := Snapshot{Key: k, Particle: p}
	if M.attrs.has(k, p) {
		s.Present = true
		s.Value = M.attrs.get(k, p)
		switch s.Value.tag {
		case FloatsTag:
			s.Value = FloatsValue(s.Value.fs)
		case FloatTag:
			s.Optimized = M.IsOptimized(k.(FloatKey), p)
		}
	}
	return s
}

//Restore reapplies the snapshots, last first, so restoring a list of snapshots
//where the same attribute appears more than once leaves the oldest value.
func (M *Model) Restore(snaps []Snapshot) {
	for i := len(snaps) - 1; i >= 0; i-- {
		s := snaps[i]
		has := M.attrs.has(s.Key, s.Particle)
		switch {
		case s.Present && has:
			M.attrs.set(s.Key, s.Particle, s.Value)
		case s.Present:
			M.attrs.add(s.Key, s.Particle, s.Value, s.Optimized)
		case has:
			M.attrs.remove(s.Key, s.Particle)
		}
	}
}

//Evaluation stages

//Stage returns the current evaluation stage.
func (M *Model) Stage() Stage { return M.stage }

//Evaluations returns the number of evaluations done on the model so far.
func (M *Model) Evaluations() int { return M.evals }

func (M *Model) checkNotEvaluating() {
	if M.stage != NotEvaluating {
		panic(ErrWrongStage)
	}
}

//enterStage moves the model to stage s. Starting an evaluation while
//another one is running is a usage error.
func (M *Model) enterStage(s Stage) {
	if s == BeforeEvaluating {
		if M.stage != NotEvaluating {
			panic(ErrNestedEvaluation)
		}
		M.evals++
	}
	M.stage = s
}
