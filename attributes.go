package imp

//The attribute store is one column per (type tag, key). Columns are created
//when a key is first used and grow only when a particle index beyond their
//length is written, so sparse keys stay cheap.

type column struct {
	vals  []Value
	has   []bool
	opt   []bool    //float columns only
	deriv []float64 //float columns only
	count int
}

func (C *column) grow(p ParticleIndex, float bool) {
	n := int(p) + 1
	if n <= len(C.vals) {
		return
	}
	if n < 2*len(C.vals) {
		n = 2 * len(C.vals)
	}
	vals := make([]Value, n)
	has := make([]bool, n)
	copy(vals, C.vals)
	copy(has, C.has)
	C.vals, C.has = vals, has
	if float {
		opt := make([]bool, n)
		deriv := make([]float64, n)
		copy(opt, C.opt)
		copy(deriv, C.deriv)
		C.opt, C.deriv = opt, deriv
	}
}

func (C *column) present(p ParticleIndex) bool {
	return C != nil && p >= 0 && int(p) < len(C.has) && C.has[p]
}

type attributeStore struct {
	cols [numTags][]*column
}

//col returns the column for k, creating it if create is true.
//It returns nil if the column doesn't exist and create is false.
func (S *attributeStore) col(k Key, create bool) *column {
	t, i := k.Tag(), k.Index()
	if i < len(S.cols[t]) && S.cols[t][i] != nil {
		return S.cols[t][i]
	}
	if !create {
		return nil
	}
	for len(S.cols[t]) <= i {
		S.cols[t] = append(S.cols[t], nil)
	}
	S.cols[t][i] = new(column)
	return S.cols[t][i]
}

func (S *attributeStore) add(k Key, p ParticleIndex, v Value, optimized bool) {
	if v.tag != k.Tag() {
		panic(ErrTypeMismatch)
	}
	c := S.col(k, true)
	if c.present(p) {
		panic(ErrAttributeExists)
	}
	c.grow(p, k.Tag() == FloatTag)
	c.vals[p] = v
	c.has[p] = true
	if c.opt != nil {
		c.opt[p] = optimized
		c.deriv[p] = 0
	}
	c.count++
}

func (S *attributeStore) get(k Key, p ParticleIndex) Value {
	c := S.col(k, false)
	if !c.present(p) {
		panic(ErrAttributeAbsent)
	}
	return c.vals[p]
}

func (S *attributeStore) has(k Key, p ParticleIndex) bool {
	return S.col(k, false).present(p)
}

func (S *attributeStore) set(k Key, p ParticleIndex, v Value) {
	if v.tag != k.Tag() {
		panic(ErrTypeMismatch)
	}
	c := S.col(k, false)
	if !c.present(p) {
		panic(ErrAttributeAbsent)
	}
	c.vals[p] = v
}

func (S *attributeStore) remove(k Key, p ParticleIndex) {
	c := S.col(k, false)
	if !c.present(p) {
		panic(ErrAttributeAbsent)
	}
	c.vals[p] = Value{}
	c.has[p] = false
	if c.opt != nil {
		c.opt[p] = false
		c.deriv[p] = 0
	}
	c.count--
}

//keysOf returns all the keys for which p has a value.
func (S *attributeStore) keysOf(p ParticleIndex) []Key {
	var ret []Key
	for t := Tag(0); t < numTags; t++ {
		for i, c := range S.cols[t] {
			if c.present(p) {
				ret = append(ret, keyFor(t, i))
			}
		}
	}
	return ret
}

func (S *attributeStore) zeroDerivatives() {
	for _, c := range S.cols[FloatTag] {
		if c == nil {
			continue
		}
		for i := range c.deriv {
			c.deriv[i] = 0
		}
	}
}

func keyFor(t Tag, i int) Key {
	switch t {
	case FloatTag:
		return FloatKey(i)
	case IntTag:
		return IntKey(i)
	case StringTag:
		return StringKey(i)
	case ParticleTag:
		return ParticleKey(i)
	}
	return FloatsKey(i)
}

//Snapshot is the value that a (key, particle) pair had at some point, including
//whether it was present at all.
type Snapshot struct {
	Key       Key
	Particle  ParticleIndex
	Value     Value
	Present   bool
	Optimized bool
}
