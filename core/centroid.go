package core

import (
	imp "github.com/rmera/goimp"
)

//CentroidState keeps a particle at the geometric center of a set of members.
//After the evaluation, the derivatives accumulated on the centroid are passed on
//to the members in equal parts.
type CentroidState struct {
	desc     imp.Descriptor
	members  []imp.ParticleIndex
	centroid imp.ParticleIndex
}

//NewCentroidState returns a state for the given members and centroid. All of them must have
//coordinates. The state is not registered in the model.
func NewCentroidState(m *imp.Model, name string, members []imp.ParticleIndex, centroid imp.ParticleIndex) *CentroidState {
	if len(members) == 0 {
		panic(imp.PanicMsg("goimp/core: centroid of no particles"))
	}
	for _, p := range members {
		imp.MustXYZ(m, p)
	}
	imp.MustXYZ(m, centroid).SetCoordinatesAreOptimized(false)
	return &CentroidState{
		desc:     imp.NewDescriptor(name, imp.ScoreStateKind, imp.OnParticles(members...), imp.OnParticles(centroid)),
		members:  append([]imp.ParticleIndex(nil), members...),
		centroid: centroid,
	}
}

func (C *CentroidState) Descriptor() imp.Descriptor { return C.desc }

func (C *CentroidState) active(m *imp.Model) []imp.ParticleIndex {
	ret := make([]imp.ParticleIndex, 0, len(C.members))
	for _, p := range C.members {
		if m.IsActive(p) {
			ret = append(ret, p)
		}
	}
	return ret
}

//BeforeEvaluate moves the centroid. Inactive members are ignored.
func (C *CentroidState) BeforeEvaluate(m *imp.Model) {
	if ps := C.active(m); len(ps) > 0 {
		imp.MustXYZ(m, C.centroid).SetCoordinates(imp.Centroid(m, ps))
	}
}

func (C *CentroidState) AfterEvaluate(m *imp.Model, da *imp.DerivativeAccumulator) {
	if da == nil {
		return
	}
	ps := C.active(m)
	if len(ps) == 0 {
		return
	}
	d := imp.MustXYZ(m, C.centroid).Derivatives()
	n := float64(len(ps))
	share := [3]float64{d[0] / n, d[1] / n, d[2] / n}
	//the derivatives in the model are already weighted
	unit := imp.NewDerivativeAccumulator(1)
	for _, p := range ps {
		imp.MustXYZ(m, p).AddDerivatives(share, unit)
	}
}
