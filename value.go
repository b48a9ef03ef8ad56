package imp

import (
	"fmt"
	"math"
)

//ParticleIndex identifies a particle (a row in all the attribute columns) in a Model.
type ParticleIndex int

//NoParticle is the fill value for particle attributes.
const NoParticle ParticleIndex = -1

//Value is a tagged union over the attribute types. The zero Value is a Float 0.
type Value struct {
	tag Tag
	f   float64
	i   int
	s   string
	p   ParticleIndex
	fs  []float64
}

func FloatValue(f float64) Value          { return Value{tag: FloatTag, f: f} }
func IntValue(i int) Value                { return Value{tag: IntTag, i: i} }
func StringValue(s string) Value          { return Value{tag: StringTag, s: s} }
func ParticleValue(p ParticleIndex) Value { return Value{tag: ParticleTag, p: p} }

//FloatsValue copies fs into a new Value.
func FloatsValue(fs []float64) Value {
	return Value{tag: FloatsTag, fs: append([]float64(nil), fs...)}
}

//Tag returns the type of the value
func (V Value) Tag() Tag { return V.tag }

func (V Value) mustBe(t Tag) {
	if V.tag != t {
		panic(ErrTypeMismatch)
	}
}

func (V Value) Float() float64 { V.mustBe(FloatTag); return V.f }
func (V Value) Int() int       { V.mustBe(IntTag); return V.i }
func (V Value) Str() string    { V.mustBe(StringTag); return V.s }
func (V Value) String() string { return V.format() }
func (V Value) Particle() ParticleIndex { V.mustBe(ParticleTag); return V.p }

//Floats returns the slice held by the value. It is not a copy.
func (V Value) Floats() []float64 { V.mustBe(FloatsTag); return V.fs }

//Equal compares values bit-wise, so NaN equals NaN if the bits match.
func (V Value) Equal(W Value) bool {
	if V.tag != W.tag {
		return false
	}
	switch V.tag {
	case FloatTag:
		return math.Float64bits(V.f) == math.Float64bits(W.f)
	case IntTag:
		return V.i == W.i
	case StringTag:
		return V.s == W.s
	case ParticleTag:
		return V.p == W.p
	case FloatsTag:
		if len(V.fs) != len(W.fs) {
			return false
		}
		for i, v := range V.fs {
			if math.Float64bits(v) != math.Float64bits(W.fs[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (V Value) format() string {
	switch V.tag {
	case FloatTag:
		return fmt.Sprintf("%g", V.f)
	case IntTag:
		return fmt.Sprintf("%d", V.i)
	case ParticleTag:
		return fmt.Sprintf("particle %d", V.p)
	case FloatsTag:
		return fmt.Sprintf("%v", V.fs)
	}
	return V.s
}
