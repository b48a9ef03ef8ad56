package imp

import (
	"fmt"
	"strings"
)

//Error is the general structure for errors returned by goimp.
//The Decorate method allows to add and retrieve info from the
//error, without changing it's type or wrapping it around something else.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

//NewError returns an Error with the given message, associated file (can be empty)
//and criticality.
func NewError(message, filename string, critical bool, deco ...string) Error {
	return Error{message: message, filename: filename, deco: deco, critical: critical}
}

func (err Error) Error() string {
	ret := err.message
	if err.filename != "" {
		ret = fmt.Sprintf("file %s: %s", err.filename, err.message)
	}
	if len(err.deco) > 0 {
		ret = ret + " (" + strings.Join(err.deco, ": ") + ")"
	}
	return ret
}

//Decorate Adds new information to the error. If given an empty
//string, it just returns the current decoration.
func (err Error) Decorate(deco string) []string {
	//Even thought this method does not use a pointer as a receiver, and tries to alter the received,
	//it should work, since err.deco is a slice, and hence a pointer itself.
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//FileName returns the file to which the error was associated, if any.
func (err Error) FileName() string { return err.filename }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

//Decorated is the interface for the errors of all goimp packages.
type Decorated interface {
	Error() string
	Decorate(string) []string
	Critical() bool
}

//errDecorate is a helper function that decorates an error with the caller's name
//if the error implements Decorated. Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(Decorated); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error. Panics signal usage errors, i.e. the caller broke the contract
//of the function.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrAttributeExists   = PanicMsg("goimp: attribute already present for the particle")
	ErrAttributeAbsent   = PanicMsg("goimp: attribute not present for the particle")
	ErrTypeMismatch      = PanicMsg("goimp: value type does not match the key type")
	ErrParticleRange     = PanicMsg("goimp: particle index out of range")
	ErrInactiveParticle  = PanicMsg("goimp: particle is not active")
	ErrNestedEvaluation  = PanicMsg("goimp: evaluation started while the model is already evaluating")
	ErrWrongStage        = PanicMsg("goimp: operation not allowed in the current evaluation stage")
	ErrDoubleObject      = PanicMsg("goimp: object already registered in the model")
	ErrUnknownObject     = PanicMsg("goimp: object not registered in the model")
	ErrObjectInUse       = PanicMsg("goimp: object still used by other objects in the model")
	ErrStaleDependencies = PanicMsg("goimp: declared inputs/outputs do not match the dependency graph")
	ErrDependencyCycle   = PanicMsg("goimp: the dependency graph contains a cycle")
	ErrIncremental       = PanicMsg("goimp: incremental score differs from the full evaluation")
	ErrBadWeight         = PanicMsg("goimp: invalid restraint weight")
)
