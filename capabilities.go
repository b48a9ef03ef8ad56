package imp

import "math"

//Capabilities are typed views over a particle. A view is obtained with the
//corresponding XxxOf function, which only returns true when all the backing
//attributes are present, and the Setup functions add the attributes.

var (
	XKey          = NewFloatKey("x")
	YKey          = NewFloatKey("y")
	ZKey          = NewFloatKey("z")
	RadiusKey     = NewFloatKey("radius")
	MassKey       = NewFloatKey("mass")
	ScaleKey      = NewFloatKey("scale")
	ScaleLowerKey = NewFloatKey("scale_lower")
	ScaleUpperKey = NewFloatKey("scale_upper")
)

//XYZKeys are the keys of the cartesian coordinates, in order.
var XYZKeys = [3]FloatKey{XKey, YKey, ZKey}

//XYZ is a view over a particle with cartesian coordinates.
type XYZ struct {
	m *Model
	p ParticleIndex
}

//XYZOf returns the XYZ view of p, and false if p lacks coordinates.
func XYZOf(m *Model, p ParticleIndex) (XYZ, bool) {
	if !m.HasAttribute(XKey, p) || !m.HasAttribute(YKey, p) || !m.HasAttribute(ZKey, p) {
		return XYZ{}, false
	}
	return XYZ{m, p}, true
}

//MustXYZ is like XYZOf but panics if p lacks coordinates.
func MustXYZ(m *Model, p ParticleIndex) XYZ {
	x, ok := XYZOf(m, p)
	if !ok {
		panic(ErrAttributeAbsent)
	}
	return x
}

//SetupXYZ adds optimized coordinates c to p.
func SetupXYZ(m *Model, p ParticleIndex, c [3]float64) XYZ {
	for i, k := range XYZKeys {
		m.AddAttribute(k, p, FloatValue(c[i]), true)
	}
	return XYZ{m, p}
}

func (X XYZ) Particle() ParticleIndex { return X.p }
func (X XYZ) Model() *Model           { return X.m }

//Coordinates returns the cartesian coordinates of the particle
func (X XYZ) Coordinates() [3]float64 {
	return [3]float64{X.m.Float(XKey, X.p), X.m.Float(YKey, X.p), X.m.Float(ZKey, X.p)}
}

func (X XYZ) SetCoordinates(c [3]float64) {
	X.m.SetFloat(XKey, X.p, c[0])
	X.m.SetFloat(YKey, X.p, c[1])
	X.m.SetFloat(ZKey, X.p, c[2])
}

//Translate displaces the particle by d.
func (X XYZ) Translate(d [3]float64) {
	c := X.Coordinates()
	X.SetCoordinates([3]float64{c[0] + d[0], c[1] + d[1], c[2] + d[2]})
}

//CoordinatesAreOptimized returns true if all three coordinates are optimized.
func (X XYZ) CoordinatesAreOptimized() bool {
	return X.m.IsOptimized(XKey, X.p) && X.m.IsOptimized(YKey, X.p) && X.m.IsOptimized(ZKey, X.p)
}

func (X XYZ) SetCoordinatesAreOptimized(opt bool) {
	for _, k := range XYZKeys {
		X.m.SetIsOptimized(k, X.p, opt)
	}
}

//AddDerivatives adds d, scaled by the accumulator, to the coordinate derivatives.
func (X XYZ) AddDerivatives(d [3]float64, da *DerivativeAccumulator) {
	for i, k := range XYZKeys {
		da.AddToDerivative(X.m, k, X.p, d[i])
	}
}

//Derivatives returns the accumulated coordinate derivatives.
func (X XYZ) Derivatives() [3]float64 {
	return [3]float64{X.m.Derivative(XKey, X.p), X.m.Derivative(YKey, X.p), X.m.Derivative(ZKey, X.p)}
}

//Snapshot returns the snapshots of the three coordinates.
func (X XYZ) Snapshot() []Snapshot {
	return []Snapshot{X.m.Snapshot(XKey, X.p), X.m.Snapshot(YKey, X.p), X.m.Snapshot(ZKey, X.p)}
}

//XYZR is a view over a particle with coordinates and a radius.
type XYZR struct {
	XYZ
}

func XYZROf(m *Model, p ParticleIndex) (XYZR, bool) {
	x, ok := XYZOf(m, p)
	if !ok || !m.HasAttribute(RadiusKey, p) {
		return XYZR{}, false
	}
	return XYZR{x}, true
}

func MustXYZR(m *Model, p ParticleIndex) XYZR {
	x, ok := XYZROf(m, p)
	if !ok {
		panic(ErrAttributeAbsent)
	}
	return x
}

//SetupXYZR adds coordinates c (if absent) and radius r to p. The radius is not optimized.
func SetupXYZR(m *Model, p ParticleIndex, c [3]float64, r float64) XYZR {
	x, ok := XYZOf(m, p)
	if !ok {
		x = SetupXYZ(m, p, c)
	} else {
		x.SetCoordinates(c)
	}
	m.AddAttribute(RadiusKey, p, FloatValue(r))
	return XYZR{x}
}

func (X XYZR) Radius() float64     { return X.m.Float(RadiusKey, X.p) }
func (X XYZR) SetRadius(r float64) { X.m.SetFloat(RadiusKey, X.p, r) }

//Mass is a view over a particle with a mass.
type Mass struct {
	m *Model
	p ParticleIndex
}

func MassOf(m *Model, p ParticleIndex) (Mass, bool) {
	if !m.HasAttribute(MassKey, p) {
		return Mass{}, false
	}
	return Mass{m, p}, true
}

func SetupMass(m *Model, p ParticleIndex, mass float64) Mass {
	m.AddAttribute(MassKey, p, FloatValue(mass))
	return Mass{m, p}
}

func (M Mass) Mass() float64        { return M.m.Float(MassKey, M.p) }
func (M Mass) SetMass(mass float64) { M.m.SetFloat(MassKey, M.p, mass) }

//Scale is a bounded nuisance parameter, such as a sigma in a likelihood.
type Scale struct {
	m *Model
	p ParticleIndex
}

func ScaleOf(m *Model, p ParticleIndex) (Scale, bool) {
	if !m.HasAttribute(ScaleKey, p) || !m.HasAttribute(ScaleLowerKey, p) || !m.HasAttribute(ScaleUpperKey, p) {
		return Scale{}, false
	}
	return Scale{m, p}, true
}

//SetupScale adds an optimized scale with value v and bounds [lower, upper] to p.
//Use math.Inf for unbounded sides.
func SetupScale(m *Model, p ParticleIndex, v, lower, upper float64) Scale {
	if lower > upper || v < lower || v > upper {
		panic(PanicMsg("goimp: scale value out of its bounds"))
	}
	m.AddAttribute(ScaleKey, p, FloatValue(v), true)
	m.AddAttribute(ScaleLowerKey, p, FloatValue(lower))
	m.AddAttribute(ScaleUpperKey, p, FloatValue(upper))
	return Scale{m, p}
}

func (S Scale) Particle() ParticleIndex { return S.p }
func (S Scale) Value() float64          { return S.m.Float(ScaleKey, S.p) }
func (S Scale) SetValue(v float64)      { S.m.SetFloat(ScaleKey, S.p, v) }
func (S Scale) Lower() float64          { return S.m.Float(ScaleLowerKey, S.p) }
func (S Scale) Upper() float64          { return S.m.Float(ScaleUpperKey, S.p) }

//InBounds returns true if v is in the bounds of the scale. NaN never is.
func (S Scale) InBounds(v float64) bool {
	return !math.IsNaN(v) && v >= S.Lower() && v <= S.Upper()
}
