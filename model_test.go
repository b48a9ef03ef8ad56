package imp

import (
	"fmt"
	"math"
	"testing"
)

//mustPanic runs f and fails the test if it does not panic with want.
func mustPanic(Te *testing.T, want PanicMsg, f func()) {
	Te.Helper()
	defer func() {
		r := recover()
		if r == nil {
			Te.Errorf("expected panic %q, got none", want)
			return
		}
		if p, ok := r.(PanicMsg); !ok || p != want {
			Te.Errorf("expected panic %q, got %v", want, r)
		}
	}()
	f()
}

func TestKeysInterned(Te *testing.T) {
	a := NewFloatKey("test_interned")
	b := NewFloatKey("test_interned")
	c := NewIntKey("test_interned")
	if a != b {
		Te.Errorf("same name gave different keys %d %d", a, b)
	}
	if c.Tag() == a.Tag() {
		Te.Error("int and float keys share a tag")
	}
	if a.Name() != "test_interned" {
		Te.Errorf("wrong key name %s", a.Name())
	}
}

func TestAttributeRoundTrip(Te *testing.T) {
	m := NewModel("attributes")
	fk := NewFloatKey("test_f")
	ik := NewIntKey("test_i")
	sk := NewStringKey("test_s")
	pk := NewParticleKey("test_p")
	lk := NewFloatsKey("test_l")
	var ps []ParticleIndex
	for i := 0; i < 5; i++ {
		ps = append(ps, m.AddParticle(fmt.Sprintf("p%d", i)))
	}
	//sparse: only some particles get each key
	m.AddAttribute(fk, ps[4], FloatValue(1.5), true)
	m.AddAttribute(ik, ps[0], IntValue(3))
	m.AddAttribute(sk, ps[2], StringValue("bead"))
	m.AddAttribute(pk, ps[1], ParticleValue(ps[3]))
	m.AddAttribute(lk, ps[3], FloatsValue([]float64{1, 2, 3}))
	if m.HasAttribute(fk, ps[0]) || !m.HasAttribute(fk, ps[4]) {
		Te.Error("wrong HasAttribute for a sparse float key")
	}
	if m.HasAttribute(fk, 1000) {
		Te.Error("HasAttribute must be false (and not panic) out of range")
	}
	values := []float64{0, -2.25, math.Inf(1), 1e300}
	for _, v := range values {
		m.SetAttribute(fk, ps[4], FloatValue(v))
		if got := m.Float(fk, ps[4]); got != v {
			Te.Errorf("set %g got %g", v, got)
		}
	}
	if !m.IsOptimized(fk, ps[4]) {
		Te.Error("optimized flag lost")
	}
	if m.Attribute(sk, ps[2]).Str() != "bead" || m.Attribute(pk, ps[1]).Particle() != ps[3] {
		Te.Error("wrong string or particle attribute")
	}
	if l := m.Attribute(lk, ps[3]).Floats(); len(l) != 3 || l[2] != 3 {
		Te.Errorf("wrong floats attribute %v", l)
	}
	if v := m.AttributeOr(ik, ps[1], IntValue(-1)); v.Int() != -1 {
		Te.Errorf("wrong fill value %v", v)
	}
	mustPanic(Te, ErrAttributeExists, func() { m.AddAttribute(ik, ps[0], IntValue(4)) })
	mustPanic(Te, ErrAttributeAbsent, func() { m.Attribute(ik, ps[1]) })
	mustPanic(Te, ErrAttributeAbsent, func() { m.SetAttribute(ik, ps[1], IntValue(1)) })
	mustPanic(Te, ErrTypeMismatch, func() { m.AddAttribute(ik, ps[1], FloatValue(1)) })
	m.RemoveAttribute(ik, ps[0])
	if m.HasAttribute(ik, ps[0]) {
		Te.Error("attribute still present after removal")
	}
	//removal doesn't affect the others
	if m.Float(fk, ps[4]) != 1e300 {
		Te.Error("removing an attribute changed another particle")
	}
}

func TestSnapshotRestore(Te *testing.T) {
	m := NewModel("snapshots")
	p := m.AddParticle("a")
	x := SetupXYZ(m, p, [3]float64{1, 2, 3})
	extra := NewFloatKey("test_extra")
	snaps := append(x.Snapshot(), m.Snapshot(extra, p))
	x.SetCoordinates([3]float64{math.NaN(), 7, 8})
	m.AddAttribute(extra, p, FloatValue(9))
	m.Restore(snaps)
	if c := x.Coordinates(); c != [3]float64{1, 2, 3} {
		Te.Errorf("restore gave %v", c)
	}
	if m.HasAttribute(extra, p) {
		Te.Error("attribute absent in the snapshot survived the restore")
	}
	if !x.CoordinatesAreOptimized() {
		Te.Error("restore lost the optimized flag")
	}
}

func TestInactiveParticles(Te *testing.T) {
	m := NewModel("inactive")
	a := m.AddParticle("a")
	b := m.AddParticle("b")
	SetupXYZ(m, a, [3]float64{0, 0, 0})
	SetupXYZ(m, b, [3]float64{0, 0, 1})
	m.RemoveParticle(a)
	if m.IsActive(a) || !m.IsActive(b) {
		Te.Error("wrong active flags")
	}
	if _, ok := XYZOf(m, a); ok {
		Te.Error("removed particle still has coordinates")
	}
	if ps := m.Particles(); len(ps) != 1 || ps[0] != b {
		Te.Errorf("wrong active particles %v", ps)
	}
	if c := MustXYZ(m, b).Coordinates(); c[2] != 1 {
		Te.Error("removing a particle changed another")
	}
	mustPanic(Te, ErrInactiveParticle, func() { m.RemoveParticle(a) })
}

func TestCapabilities(Te *testing.T) {
	m := NewModel("capabilities")
	p := m.AddParticle("bead")
	if _, ok := XYZROf(m, p); ok {
		Te.Error("XYZR view for a particle without attributes")
	}
	r := SetupXYZR(m, p, [3]float64{1, 1, 1}, 2)
	if _, ok := XYZOf(m, p); !ok {
		Te.Error("XYZR particle is not XYZ")
	}
	if r.Radius() != 2 {
		Te.Errorf("wrong radius %f", r.Radius())
	}
	q := m.AddParticle("sigma")
	s := SetupScale(m, q, 1, 0.1, 10)
	if s.InBounds(20) || s.InBounds(math.NaN()) || !s.InBounds(5) {
		Te.Error("wrong scale bounds")
	}
	if _, ok := MassOf(m, q); ok {
		Te.Error("mass view for a particle without mass")
	}
	SetupMass(m, q, 3)
	if mm, ok := MassOf(m, q); !ok || mm.Mass() != 3 {
		Te.Error("wrong mass")
	}
	c := Coords(m, []ParticleIndex{p})
	fmt.Println("coordinates", c)
	if c.Vec(0) != [3]float64{1, 1, 1} {
		Te.Error("wrong bulk coordinates")
	}
}
