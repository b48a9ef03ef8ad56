//gonum.go contains what is needed for handling the gonum/mat types and facilities.

//All the *Vec functions will operate/produce row vectors, since the
//underlying Dense is row major.

package v3

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

//Matrix is a set of vectors in 3D space. Within the package it is understood
//that a "vector" is a row vector, i.e. the cartesian coordinates of a point in 3D space.
type Matrix struct {
	*mat.Dense
}

//Dense2Matrix wraps a Nx3 Dense. It panics if the Dense doesn't have 3 columns.
func Dense2Matrix(A *mat.Dense) *Matrix {
	if _, c := A.Dims(); c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{A}
}

//NewMatrix generates and returns a Matrix with 3 columns from data.
//The slice is not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(rows, cols, data)}, nil
}

//Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

//NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//VecView returns view of the given vector of the matrix.
//Changes in the view are reflected in F and vice-versa
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

//View returns a view of F starting from the ith vector and spanning n vectors.
func (F *Matrix) View(i, n int) *Matrix {
	r := F.Dense.Slice(i, i+n, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

//Vec returns a copy of the ith vector as an array
func (F *Matrix) Vec(i int) [3]float64 {
	return [3]float64{F.At(i, 0), F.At(i, 1), F.At(i, 2)}
}

//SetVec sets the ith vector of the receiver to v
func (F *Matrix) SetVec(i int, v [3]float64) {
	F.Set(i, 0, v[0])
	F.Set(i, 1, v[1])
	F.Set(i, 2, v[2])
}

//Mul wraps mat.Dense.Mul to take care of the case when one of the
//arguments is a Matrix, so gonum sees the underlying Dense and can
//detect aliasing.
func (F *Matrix) Mul(A, B mat.Matrix) {
	if A, ok := A.(*Matrix); ok {
		F.Mul(A.Dense, B)
		return
	}
	if B, ok := B.(*Matrix); ok {
		F.Mul(A, B.Dense)
		return
	}
	F.Dense.Mul(A, B)
}

//Copy copies A into the receiver. A must have the same number of vectors.
func (F *Matrix) Copy(A *Matrix) {
	if A.NVecs() != F.NVecs() {
		panic(ErrShape)
	}
	F.Dense.Copy(A.Dense)
}

//Errors

type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix = PanicMsg("goimp/v3: A Matrix should have 3 columns")
	ErrShape        = PanicMsg("goimp/v3: Dimension mismatch")
	ErrNoVecs       = PanicMsg("goimp/v3: Empty Matrix")
	ErrSingular     = PanicMsg("goimp/v3: Degenerate axis for rotation")
)
