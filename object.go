package imp

import "fmt"

//ObjectKind is the variant of a model object.
type ObjectKind int

const (
	RestraintKind ObjectKind = iota
	ScoreStateKind
	ContainerKind
	OptimizerKind
)

func (k ObjectKind) String() string {
	return [...]string{"Restraint", "ScoreState", "Container", "Optimizer"}[k]
}

//ObjectID is the index of a model object in its Model's arena.
type ObjectID int

//NoObject is returned when an object is not registered.
const NoObject ObjectID = -1

//Dep is something a model object reads or writes: either a particle or another object.
type Dep struct {
	particle ParticleIndex
	object   ObjectID
	isObject bool
}

func OnParticle(p ParticleIndex) Dep { return Dep{particle: p, object: NoObject} }
func OnObject(id ObjectID) Dep       { return Dep{particle: NoParticle, object: id, isObject: true} }

//OnParticles returns a Dep for each particle in ps.
func OnParticles(ps ...ParticleIndex) []Dep {
	ret := make([]Dep, len(ps))
	for i, p := range ps {
		ret[i] = OnParticle(p)
	}
	return ret
}

//IsObject returns true if the dependence is on another object.
func (D Dep) IsObject() bool          { return D.isObject }
func (D Dep) Particle() ParticleIndex { return D.particle }
func (D Dep) Object() ObjectID        { return D.object }

func (D Dep) String() string {
	if D.isObject {
		return fmt.Sprintf("object %d", D.object)
	}
	return fmt.Sprintf("particle %d", D.particle)
}

//Descriptor declares the name, kind, inputs and outputs of a model object.
//It can't be changed after it is built. An object that needs to read or write
//something else has to be replaced by a new one (see Model.Replace).
type Descriptor struct {
	name    string
	kind    ObjectKind
	inputs  []Dep
	outputs []Dep
}

//NewDescriptor copies the inputs and outputs into a new descriptor.
func NewDescriptor(name string, kind ObjectKind, inputs, outputs []Dep) Descriptor {
	return Descriptor{
		name:    name,
		kind:    kind,
		inputs:  append([]Dep(nil), inputs...),
		outputs: append([]Dep(nil), outputs...),
	}
}

func (D Descriptor) Name() string     { return D.name }
func (D Descriptor) Kind() ObjectKind { return D.kind }

//Inputs returns a copy of the declared inputs.
func (D Descriptor) Inputs() []Dep { return append([]Dep(nil), D.inputs...) }

//Outputs returns a copy of the declared outputs.
func (D Descriptor) Outputs() []Dep { return append([]Dep(nil), D.outputs...) }

//InputParticles returns the particles directly read by the object.
func (D Descriptor) InputParticles() []ParticleIndex {
	return depParticles(D.inputs)
}

//OutputParticles returns the particles directly written by the object.
func (D Descriptor) OutputParticles() []ParticleIndex {
	return depParticles(D.outputs)
}

func depParticles(deps []Dep) []ParticleIndex {
	ret := make([]ParticleIndex, 0, len(deps))
	for _, d := range deps {
		if !d.isObject {
			ret = append(ret, d.particle)
		}
	}
	return ret
}

func (D Descriptor) equal(E Descriptor) bool {
	if D.name != E.name || D.kind != E.kind || len(D.inputs) != len(E.inputs) || len(D.outputs) != len(E.outputs) {
		return false
	}
	for i, v := range D.inputs {
		if v != E.inputs[i] {
			return false
		}
	}
	for i, v := range D.outputs {
		if v != E.outputs[i] {
			return false
		}
	}
	return true
}

//ModelObject is anything that lives in a Model's dependency graph.
//Implementations must be pointer types, since the Model uses them as map keys.
type ModelObject interface {
	Descriptor() Descriptor
}

type slot struct {
	obj  ModelObject
	desc Descriptor //as seen when the object was registered
	live bool
	deps bool //has_dependencies
	//cached derived data, valid while reqVersion equals the arena version
	required   []ObjectID
	upstream   []ParticleIndex
	reqVersion int
}

type arena struct {
	slots   []slot
	free    []int
	index   map[ModelObject]ObjectID
	version int
}

func (A *arena) live() int {
	return len(A.index)
}

func (A *arena) touch() {
	A.version++
	for i := range A.slots {
		A.slots[i].deps = false
	}
}

//AddObject registers o in the model and returns its ID. Registering the
//same object twice is a usage error. ScoreState-kind objects must implement ScoreState.
func (M *Model) AddObject(o ModelObject) ObjectID {
	M.checkNotEvaluating()
	if M.objects.index == nil {
		M.objects.index = make(map[ModelObject]ObjectID)
	}
	if _, ok := M.objects.index[o]; ok {
		panic(ErrDoubleObject)
	}
	d := o.Descriptor()
	if _, ok := o.(ScoreState); d.kind == ScoreStateKind && !ok {
		panic(PanicMsg("goimp: object declared as ScoreState doesn't implement ScoreState"))
	}
	M.checkDeps(d)
	var id ObjectID
	if n := len(M.objects.free); n > 0 {
		id = ObjectID(M.objects.free[n-1])
		M.objects.free = M.objects.free[:n-1]
	} else {
		M.objects.slots = append(M.objects.slots, slot{})
		id = ObjectID(len(M.objects.slots) - 1)
	}
	M.objects.slots[id] = slot{obj: o, desc: d, live: true}
	M.objects.index[o] = id
	M.objects.touch()
	return id
}

//checkDeps panics if the descriptor refers to unregistered objects or
//out of range particles.
func (M *Model) checkDeps(d Descriptor) {
	for _, deps := range [][]Dep{d.inputs, d.outputs} {
		for _, v := range deps {
			if v.isObject {
				M.slot(v.object)
			} else {
				M.checkRange(v.particle)
			}
		}
	}
}

func (M *Model) slot(id ObjectID) *slot {
	if id < 0 || int(id) >= len(M.objects.slots) || !M.objects.slots[id].live {
		panic(ErrUnknownObject)
	}
	return &M.objects.slots[id]
}

//RemoveObject drops the object from the model. Its ID may be reused. Removing an
//object that another live object reads or writes is a usage error: remove or
//replace the dependents first.
func (M *Model) RemoveObject(id ObjectID) {
	M.checkNotEvaluating()
	s := M.slot(id)
	if M.referenced(id) {
		panic(ErrObjectInUse)
	}
	delete(M.objects.index, s.obj)
	*s = slot{}
	M.objects.free = append(M.objects.free, int(id))
	M.objects.touch()
}

//referenced returns true if a live object other than id depends on id.
func (M *Model) referenced(id ObjectID) bool {
	for i, s := range M.objects.slots {
		if !s.live || ObjectID(i) == id {
			continue
		}
		for _, deps := range [][]Dep{s.desc.inputs, s.desc.outputs} {
			for _, d := range deps {
				if d.isObject && d.object == id {
					return true
				}
			}
		}
	}
	return false
}

//Replace puts o in the place of the object with the given ID, which keeps
//the ID. This is the way to change what an object reads or writes.
func (M *Model) Replace(id ObjectID, o ModelObject) {
	M.checkNotEvaluating()
	s := M.slot(id)
	if oid, ok := M.objects.index[o]; ok && oid != id {
		panic(ErrDoubleObject)
	}
	d := o.Descriptor()
	M.checkDeps(d)
	delete(M.objects.index, s.obj)
	*s = slot{obj: o, desc: d, live: true}
	M.objects.index[o] = id
	M.objects.touch()
}

//Object returns the object with the given ID.
func (M *Model) Object(id ObjectID) ModelObject {
	return M.slot(id).obj
}

//ObjectID returns the ID of o, or NoObject and false if o is not registered.
func (M *Model) ObjectID(o ModelObject) (ObjectID, bool) {
	id, ok := M.objects.index[o]
	if !ok {
		return NoObject, false
	}
	return id, true
}

//ensureObject registers o if needed and returns its ID.
func (M *Model) ensureObject(o ModelObject) ObjectID {
	if id, ok := M.ObjectID(o); ok {
		return id
	}
	return M.AddObject(o)
}

//Objects returns the IDs of the live objects of the given kind, in ID order.
func (M *Model) Objects(kind ObjectKind) []ObjectID {
	var ret []ObjectID
	for i, s := range M.objects.slots {
		if s.live && s.desc.kind == kind {
			ret = append(ret, ObjectID(i))
		}
	}
	return ret
}

//Inputs returns the declared inputs of the object. With internal checks on,
//it first validates that the object still declares what the dependency graph has.
func (M *Model) Inputs(id ObjectID) []Dep {
	s := M.validate(id)
	return s.desc.Inputs()
}

//Outputs is like Inputs, for the outputs.
func (M *Model) Outputs(id ObjectID) []Dep {
	s := M.validate(id)
	return s.desc.Outputs()
}

func (M *Model) validate(id ObjectID) *slot {
	s := M.slot(id)
	if M.check >= CheckInternal && !s.obj.Descriptor().equal(s.desc) {
		panic(ErrStaleDependencies)
	}
	return s
}

//HasDependencies returns true if the cached dependency data for the object is valid.
func (M *Model) HasDependencies(id ObjectID) bool {
	return M.slot(id).deps
}

//SetHasDependencies(id, false) drops all the cached dependency data.
//Passing true is a no-op, the data is recomputed on demand.
func (M *Model) SetHasDependencies(id ObjectID, has bool) {
	M.slot(id)
	if !has {
		M.objects.touch()
	}
}

//SetCheckLevel sets how much the model checks its usage contracts.
func (M *Model) SetCheckLevel(c CheckLevel) { M.check = c }
