package imp

import (
	"math"
	"sort"
)

//RestraintSet is a weighted sum of restraints, multiplied by its own weight.
type RestraintSet struct {
	*RestraintBase
	desc     Descriptor
	children []Restraint
	weights  []float64
	weight   float64
}

//NewRestraintSet returns a set with the given children. If weights is nil, all
//children have weight 1, otherwise it must have one weight per child. The children
//are registered in the model if they are not already.
func NewRestraintSet(m *Model, name string, weight float64, children []Restraint, weights []float64) *RestraintSet {
	if weights == nil {
		weights = make([]float64, len(children))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(children) || math.IsNaN(weight) {
		panic(ErrBadWeight)
	}
	inputs := make([]Dep, 0, len(children))
	for _, c := range children {
		inputs = append(inputs, OnObject(m.ensureObject(c)))
	}
	return &RestraintSet{
		RestraintBase: NewRestraintBase(m, name),
		desc:          NewDescriptor(name, RestraintKind, inputs, nil),
		children:      append([]Restraint(nil), children...),
		weights:       append([]float64(nil), weights...),
		weight:        weight,
	}
}

func (R *RestraintSet) Descriptor() Descriptor { return R.desc }

//Restraints returns the children of the set.
func (R *RestraintSet) Restraints() []Restraint { return append([]Restraint(nil), R.children...) }

func (R *RestraintSet) Weight() float64 { return R.weight }

func (R *RestraintSet) UnprotectedEvaluate(da *DerivativeAccumulator) float64 {
	var sum float64
	for i, c := range R.children {
		w := R.weight * R.weights[i]
		sum += w * Evaluate(c, da.Scaled(w))
	}
	return sum
}

//UnprotectedEvaluateIfGood stops as soon as the partial sum exceeds max, if
//all the terms are known to be non-negative.
func (R *RestraintSet) UnprotectedEvaluateIfGood(da *DerivativeAccumulator, max float64) float64 {
	if !R.NonNegative() {
		return R.UnprotectedEvaluate(da)
	}
	var sum float64
	for i, c := range R.children {
		w := R.weight * R.weights[i]
		if w == 0 {
			continue
		}
		sum += w * EvaluateIfGood(c, da.Scaled(w), (max-sum)/w)
		if sum > max {
			return sum
		}
	}
	return sum
}

func (R *RestraintSet) NonNegative() bool {
	if R.weight < 0 {
		return false
	}
	for i, c := range R.children {
		if R.weights[i] < 0 || !IsNonNegative(c) {
			return false
		}
	}
	return true
}

//Decompose flattens the set into weighted terms.
func (R *RestraintSet) Decompose() []Restraint {
	var ret []Restraint
	for i, c := range R.children {
		w := R.weight * R.weights[i]
		for _, t := range Decompose(c) {
			ret = append(ret, NewTerm(t, w))
		}
	}
	return ret
}

//MinimumRestraint scores the sum of the n lowest scores among its children.
//Only those n restraints contribute derivatives.
type MinimumRestraint struct {
	*RestraintBase
	desc     Descriptor
	children []Restraint
	n        int
	picked   []int
}

func NewMinimumRestraint(m *Model, name string, n int, children []Restraint) *MinimumRestraint {
	if n > len(children) {
		n = len(children)
	}
	if n < 0 {
		n = 0
	}
	inputs := make([]Dep, 0, len(children))
	for _, c := range children {
		inputs = append(inputs, OnObject(m.ensureObject(c)))
	}
	return &MinimumRestraint{
		RestraintBase: NewRestraintBase(m, name),
		desc:          NewDescriptor(name, RestraintKind, inputs, nil),
		children:      append([]Restraint(nil), children...),
		n:             n,
	}
}

func (R *MinimumRestraint) Descriptor() Descriptor { return R.desc }

func (R *MinimumRestraint) UnprotectedEvaluate(da *DerivativeAccumulator) float64 {
	scores := make([]float64, len(R.children))
	idx := make([]int, len(R.children))
	for i, c := range R.children {
		scores[i] = Evaluate(c, nil)
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return scores[idx[i]] < scores[idx[j]] })
	R.picked = idx[:R.n]
	var sum float64
	for _, i := range R.picked {
		if da != nil {
			scores[i] = Evaluate(R.children[i], da)
		}
		sum += scores[i]
	}
	return sum
}

func (R *MinimumRestraint) NonNegative() bool {
	for _, c := range R.children {
		if !IsNonNegative(c) {
			return false
		}
	}
	return true
}

//Decompose returns the terms of the restraints picked in the last evaluation.
func (R *MinimumRestraint) Decompose() []Restraint {
	var ret []Restraint
	for _, i := range R.picked {
		ret = append(ret, Decompose(R.children[i])...)
	}
	return ret
}
