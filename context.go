package imp

import (
	"io"
	"log"
	"math/rand"
	"os"
)

//CheckLevel sets how much checking of the usage contracts is done at run time.
type CheckLevel int

const (
	CheckNone     CheckLevel = iota //only the cheap checks
	CheckUsage                      //the default, checks the caller's contract
	CheckInternal                   //also validates caches against full recomputations. Slow.
)

//SamplingContext carries what would otherwise be process-wide state:
//the random number generator, the log sink and the amount of run-time checking.
//Each walker should have its own context. A SamplingContext is not safe for
//concurrent use.
type SamplingContext struct {
	Rand      *rand.Rand
	Log       *log.Logger
	Verbosity int
	Check     CheckLevel
}

//NewSamplingContext returns a context with a RNG seeded with seed, logging to
//stderr with verbosity 1 and usage checks.
func NewSamplingContext(seed int64) *SamplingContext {
	return &SamplingContext{
		Rand:      rand.New(rand.NewSource(seed)),
		Log:       log.New(os.Stderr, "", log.LstdFlags),
		Verbosity: 1,
		Check:     CheckUsage,
	}
}

//QuietContext returns a context that discards the log output. Useful for tests.
func QuietContext(seed int64) *SamplingContext {
	ctx := NewSamplingContext(seed)
	ctx.Log = log.New(io.Discard, "", 0)
	ctx.Verbosity = 0
	return ctx
}

//Logf prints to the context's log if level is not larger than the context's verbosity.
func (C *SamplingContext) Logf(level int, format string, v ...interface{}) {
	if C == nil || C.Log == nil || level > C.Verbosity {
		return
	}
	C.Log.Printf(format, v...)
}

//Checks returns true if the context requests at least the given check level.
func (C *SamplingContext) Checks(level CheckLevel) bool {
	if C == nil {
		return level <= CheckUsage
	}
	return C.Check >= level
}
