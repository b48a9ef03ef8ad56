package imp

//ScoreState is an object that updates the model before restraints are evaluated
//(e.g. keeping derived coordinates up to date) and, optionally, transforms the
//derivatives after evaluation.
type ScoreState interface {
	ModelObject
	BeforeEvaluate(m *Model)
	//da is nil when derivatives are not being computed.
	AfterEvaluate(m *Model, da *DerivativeAccumulator)
}

//FuncState is a ScoreState built from closures. Either function can be nil.
type FuncState struct {
	desc   Descriptor
	before func(m *Model)
	after  func(m *Model, da *DerivativeAccumulator)
}

//NewFuncState returns a score state that reads inputs and writes outputs.
func NewFuncState(name string, inputs, outputs []Dep, before func(*Model), after func(*Model, *DerivativeAccumulator)) *FuncState {
	return &FuncState{
		desc:   NewDescriptor(name, ScoreStateKind, inputs, outputs),
		before: before,
		after:  after,
	}
}

func (F *FuncState) Descriptor() Descriptor { return F.desc }

func (F *FuncState) BeforeEvaluate(m *Model) {
	if F.before != nil {
		F.before(m)
	}
}

func (F *FuncState) AfterEvaluate(m *Model, da *DerivativeAccumulator) {
	if F.after != nil {
		F.after(m, da)
	}
}
