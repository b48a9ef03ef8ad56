package core

import (
	v3 "github.com/rmera/goimp/v3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

//KDTreeFinder finds close pairs with a kd-tree over the sphere centers.
type KDTreeFinder struct{}

func (K KDTreeFinder) ClosePairs(c [][3]float64, r []float64, dist float64) [][2]int {
	if len(c) < 2 {
		return nil
	}
	pts := make(kdPoints, len(c))
	var maxr float64
	for i, v := range c {
		pts[i] = kdPoint{c: v, i: i}
		if r[i] > maxr {
			maxr = r[i]
		}
	}
	tree := kdtree.New(pts, false)
	var ret [][2]int
	for i, v := range c {
		q := dist + r[i] + maxr
		keep := kdtree.NewDistKeeper(q * q)
		tree.NearestSet(keep, kdPoint{c: v, i: i})
		for _, cd := range keep.Heap {
			if cd.Comparable == nil {
				continue
			}
			j := cd.Comparable.(kdPoint).i
			if j > i && within(v, c[j], r[i], r[j], dist) {
				ret = append(ret, [2]int{i, j})
			}
		}
	}
	sortIndexPairs(ret)
	return ret
}

type kdPoint struct {
	c [3]float64
	i int
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.c[d] - c.(kdPoint).c[d]
}

func (p kdPoint) Dims() int { return 3 }

//Distance is squared, as kdtree expects.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	return v3.Distance2(p.c, c.(kdPoint).c)
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p kdPoints) Len() int                              { return len(p) }
func (p kdPoints) Pivot(d kdtree.Dim) int                { return kdPlane{Dim: d, kdPoints: p}.Pivot() }
func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

//kdPlane sorts the points along one dimension.
type kdPlane struct {
	kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool { return p.kdPoints[i].c[p.Dim] < p.kdPoints[j].c[p.Dim] }
func (p kdPlane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p kdPlane) Swap(i, j int)      { p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i] }

func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}
