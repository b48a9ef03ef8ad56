package rex

import "fmt"

//Error is a replica-exchange error. Replica and Round are -1 when they don't apply.
type Error struct {
	message  string
	Replica  int
	Round    int
	err      error
	deco     []string
	critical bool
}

func newError(message string, replica, round int, err error) *Error {
	return &Error{message: message, Replica: replica, Round: round, err: err}
}

//newCritical returns an error that aborts the whole run.
func newCritical(message string, replica, round int, err error) *Error {
	E := newError(message, replica, round, err)
	E.critical = true
	return E
}

func (E *Error) Error() string {
	ret := "rex: " + E.message
	if E.Replica >= 0 {
		ret += fmt.Sprintf(" (replica %d)", E.Replica)
	}
	if E.Round >= 0 {
		ret += fmt.Sprintf(" (round %d)", E.Round)
	}
	if E.err != nil {
		ret += ": " + E.err.Error()
	}
	return ret
}

func (E *Error) Unwrap() error { return E.err }

//Decorate Adds new information to the error
func (E *Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//Critical returns true if the error is critical, false otherwise
func (E *Error) Critical() bool { return E.critical }
