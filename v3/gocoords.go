package v3

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero.

//METHODS

//SwapVecs swaps the vectors i and j of the receiver.
func (F *Matrix) SwapVecs(i, j int) {
	if i >= F.NVecs() || j >= F.NVecs() {
		panic(ErrShape)
	}
	vi := F.Vec(i)
	F.SetVec(i, F.Vec(j))
	F.SetVec(j, vi)
}

//AddVec adds the vector vec to each vector of A, putting the result on the receiver.
//A and F can be the same matrix.
func (F *Matrix) AddVec(A *Matrix, vec [3]float64) {
	n := A.NVecs()
	if n != F.NVecs() {
		panic(ErrShape)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			F.Set(i, j, A.At(i, j)+vec[j])
		}
	}
}

//SubVec subtracts vec from each vector of A, putting the result on the receiver.
func (F *Matrix) SubVec(A *Matrix, vec [3]float64) {
	F.AddVec(A, [3]float64{-vec[0], -vec[1], -vec[2]})
}

//SetVecs sets the vectors with index n = each value on clist, in the receiver, to the
//corresponding vector of A.
func (F *Matrix) SetVecs(A *Matrix, clist []int) {
	if A.NVecs() < len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		F.SetVec(val, A.Vec(key))
	}
}

//SomeVecs puts in the receiver all the ith vectors of matrix A,
//where i are the numbers in clist. The vectors are in the same order
//than the clist.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	if F.NVecs() != len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		F.SetVec(key, A.Vec(val))
	}
}

//String returns a neat string representation of a Matrix
func (F *Matrix) String() string {
	r := F.NVecs()
	v := make([]string, 0, r)
	for i := 0; i < r; i++ {
		row := F.Vec(i)
		v = append(v, fmt.Sprintf("%6.2f %6.2f %6.2f", row[0], row[1], row[2]))
	}
	return "\n[" + strings.Join(v, "\n ") + " ]"
}

//Centroid returns the geometric center of the vectors in F.
func (F *Matrix) Centroid() [3]float64 {
	n := F.NVecs()
	if n == 0 {
		panic(ErrNoVecs)
	}
	var c [3]float64
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			c[j] += F.At(i, j)
		}
	}
	for j := range c {
		c[j] /= float64(n)
	}
	return c
}

//Rotate puts in the receiver the vectors of A rotated by rot around center.
//rot is a 3x3 rotation matrix that multiplies row vectors from the right
//(i.e. F = (A-center)*rot + center).
func (F *Matrix) Rotate(A *Matrix, rot mat.Matrix, center [3]float64) {
	n := A.NVecs()
	if n != F.NVecs() {
		panic(ErrShape)
	}
	tmp := Zeros(n)
	tmp.SubVec(A, center)
	F.Dense.Mul(tmp.Dense, rot)
	F.AddVec(F, center)
}

//FUNCTIONS

//RotationMatrix returns the 3x3 matrix that rotates row vectors by angle radians
//around axis, using the Rodrigues formula. It panics if the axis has zero norm.
func RotationMatrix(axis [3]float64, angle float64) *mat.Dense {
	n := floats.Norm(axis[:], 2)
	if n <= appzero {
		panic(ErrSingular)
	}
	x, y, z := axis[0]/n, axis[1]/n, axis[2]/n
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	//this is the usual column-vector matrix, transposed, since we multiply row vectors.
	return mat.NewDense(3, 3, []float64{
		t*x*x + c, t*x*y + s*z, t*x*z - s*y,
		t*x*y - s*z, t*y*y + c, t*y*z + s*x,
		t*x*z + s*y, t*y*z - s*x, t*z*z + c,
	})
}

//RandomAxis returns a uniformly distributed unit vector.
func RandomAxis(r *rand.Rand) [3]float64 {
	for {
		v := [3]float64{2*r.Float64() - 1, 2*r.Float64() - 1, 2*r.Float64() - 1}
		n := floats.Norm(v[:], 2)
		if n > appzero && n <= 1 {
			return [3]float64{v[0] / n, v[1] / n, v[2] / n}
		}
	}
}

//RMSD returns the root mean square deviation between the vectors of A and B,
//without superposition.
func RMSD(A, B *Matrix) float64 {
	n := A.NVecs()
	if n != B.NVecs() || n == 0 {
		panic(ErrShape)
	}
	var sq float64
	for i := 0; i < n; i++ {
		sq += Distance2(A.Vec(i), B.Vec(i))
	}
	return math.Sqrt(sq / float64(n))
}

//Distance2 returns the squared euclidean distance between a and b.
func Distance2(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

//Distance returns the euclidean distance between a and b.
func Distance(a, b [3]float64) float64 {
	return math.Sqrt(Distance2(a, b))
}

//KronekerDelta is a naive implementation of the kroneker delta function.
func KronekerDelta(a, b, epsilon float64) float64 {
	if epsilon < 0 {
		epsilon = appzero
	}
	if math.Abs(a-b) <= epsilon {
		return 1
	}
	return 0
}
