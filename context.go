package pathplan

import (
	"io"
	"log"

	"github.com/aligator/goslice-pathplan/threadpool"
)

// Context is the explicit handle replacing the process-wide singleton
// ("current_slice", "communication", "thread_pool") the original design
// carried. The planning APIs do not take a Context: a caller hands its
// Logger to the comber, the layer plan and the cooling adjuster, and
// passes recovered errors to Report. The thread pool is owned by the
// Context and is released (dropped) along with it; there is no separate
// teardown step.
type Context struct {
	Logger *log.Logger
	Pool   *threadpool.Pool
}

// NewContext returns a Context with a pool sized to hardware concurrency
// and a logger that discards output unless Logger is overwritten by the
// caller.
func NewContext() *Context {
	return &Context{
		Logger: log.New(io.Discard, "[pathplan] ", 0),
		Pool:   threadpool.New(0),
	}
}

// logf reports a recoverable condition at "warning" level. Nil-safe: a
// zero-value Context silently drops the message instead of panicking,
// matching GoSlice's habit of a Logger field that is always set by the
// constructor but never nil-checked at call sites.
func (c *Context) logf(format string, args ...any) {
	if c == nil || c.Logger == nil {
		return
	}
	c.Logger.Printf(format, args...)
}

// Report handles an error raised by the core (spec §7): a Recoverable
// error is logged as a warning and fatal=false is returned so the
// caller may discard the offending piece of geometry and keep planning
// the rest of the layer; any other error is left to the caller to
// surface as a FailureRecord and fatal=true is returned.
func (c *Context) Report(layerNr int, err *Error) (fatal bool) {
	if err == nil {
		return false
	}
	if err.Kind.Recoverable() {
		c.logf("layer %d: recovered from %v", layerNr, err)
		return false
	}
	return true
}
