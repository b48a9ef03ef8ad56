package imp

import (
	"fmt"
	"sync"
)

//Tag identifies the type of value an attribute holds.
type Tag uint8

const (
	FloatTag Tag = iota
	IntTag
	StringTag
	ParticleTag
	FloatsTag
	numTags
)

func (t Tag) String() string {
	switch t {
	case FloatTag:
		return "Float"
	case IntTag:
		return "Int"
	case StringTag:
		return "String"
	case ParticleTag:
		return "Particle"
	case FloatsTag:
		return "Floats"
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

//Key is an interned attribute name. Keys with the same type tag and name
//are equal, in any Model.
type Key interface {
	Tag() Tag
	Index() int
	Name() string
}

//registry interns key names, one namespace per tag.
//It is shared by all the models in the process, so it is locked.
type registry struct {
	mu      sync.RWMutex
	indexes [numTags]map[string]int
	names   [numTags][]string
}

var keys = newRegistry()

func newRegistry() *registry {
	r := new(registry)
	for i := range r.indexes {
		r.indexes[i] = make(map[string]int)
	}
	return r
}

func (R *registry) intern(t Tag, name string) int {
	R.mu.RLock()
	i, ok := R.indexes[t][name]
	R.mu.RUnlock()
	if ok {
		return i
	}
	R.mu.Lock()
	defer R.mu.Unlock()
	if i, ok = R.indexes[t][name]; ok {
		return i
	}
	i = len(R.names[t])
	R.indexes[t][name] = i
	R.names[t] = append(R.names[t], name)
	return i
}

func (R *registry) name(t Tag, i int) string {
	R.mu.RLock()
	defer R.mu.RUnlock()
	if i < 0 || i >= len(R.names[t]) {
		return fmt.Sprintf("%s#%d", t, i)
	}
	return R.names[t][i]
}

//KeyNames returns the names of all the keys of the given type registered so far.
func KeyNames(t Tag) []string {
	keys.mu.RLock()
	defer keys.mu.RUnlock()
	return append([]string(nil), keys.names[t]...)
}

type FloatKey int

func NewFloatKey(name string) FloatKey { return FloatKey(keys.intern(FloatTag, name)) }
func (k FloatKey) Tag() Tag            { return FloatTag }
func (k FloatKey) Index() int          { return int(k) }
func (k FloatKey) Name() string        { return keys.name(FloatTag, int(k)) }

type IntKey int

func NewIntKey(name string) IntKey { return IntKey(keys.intern(IntTag, name)) }
func (k IntKey) Tag() Tag          { return IntTag }
func (k IntKey) Index() int        { return int(k) }
func (k IntKey) Name() string      { return keys.name(IntTag, int(k)) }

type StringKey int

func NewStringKey(name string) StringKey { return StringKey(keys.intern(StringTag, name)) }
func (k StringKey) Tag() Tag             { return StringTag }
func (k StringKey) Index() int           { return int(k) }
func (k StringKey) Name() string         { return keys.name(StringTag, int(k)) }

type ParticleKey int

func NewParticleKey(name string) ParticleKey { return ParticleKey(keys.intern(ParticleTag, name)) }
func (k ParticleKey) Tag() Tag               { return ParticleTag }
func (k ParticleKey) Index() int             { return int(k) }
func (k ParticleKey) Name() string           { return keys.name(ParticleTag, int(k)) }

type FloatsKey int

func NewFloatsKey(name string) FloatsKey { return FloatsKey(keys.intern(FloatsTag, name)) }
func (k FloatsKey) Tag() Tag             { return FloatsTag }
func (k FloatsKey) Index() int           { return int(k) }
func (k FloatsKey) Name() string         { return keys.name(FloatsTag, int(k)) }
