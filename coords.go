package imp

import (
	v3 "github.com/rmera/goimp/v3"
)

//Coords returns a matrix with the coordinates of the particles in ps, in order.
//All the particles must have coordinates. If dest is given and has the right size,
//it is used instead of allocating a new matrix.
func Coords(m *Model, ps []ParticleIndex, dest ...*v3.Matrix) *v3.Matrix {
	var c *v3.Matrix
	if len(dest) > 0 && dest[0] != nil && dest[0].NVecs() == len(ps) {
		c = dest[0]
	} else {
		c = v3.Zeros(len(ps))
	}
	for i, p := range ps {
		c.SetVec(i, MustXYZ(m, p).Coordinates())
	}
	return c
}

//SetCoords sets the coordinates of the particles in ps to the vectors of c.
func SetCoords(m *Model, ps []ParticleIndex, c *v3.Matrix) {
	if c.NVecs() != len(ps) {
		panic(v3.ErrShape)
	}
	for i, p := range ps {
		MustXYZ(m, p).SetCoordinates(c.Vec(i))
	}
}

//Centroid returns the geometric center of the particles in ps.
func Centroid(m *Model, ps []ParticleIndex) [3]float64 {
	var c [3]float64
	if len(ps) == 0 {
		return c
	}
	for _, p := range ps {
		x := MustXYZ(m, p).Coordinates()
		for j := range c {
			c[j] += x[j]
		}
	}
	for j := range c {
		c[j] /= float64(len(ps))
	}
	return c
}
