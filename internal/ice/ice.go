// Package ice is the fatal channel for broken compiler invariants.
//
// A Bug is never a user error: it means a phase observed a state that the
// previous phases promised could not happen (a deferred queue left
// non-empty, a result published for the wrong owner, a definition kind
// outside the closed set). Bugf panics with a *Bug; goroutine boundaries
// use Catch or Recover to turn it back into an error.
package ice

import (
	"fmt"

	"github.com/pkg/errors"
)

// Bug is an internal compiler error.
type Bug struct {
	msg   string
	cause error
}

func (b *Bug) Error() string {
	return "internal compiler error: " + b.msg
}

// Unwrap exposes the stack-carrying cause.
func (b *Bug) Unwrap() error { return b.cause }

// StackTrace is the call stack captured when the bug was raised.
func (b *Bug) StackTrace() errors.StackTrace {
	type tracer interface{ StackTrace() errors.StackTrace }
	if st, ok := b.cause.(tracer); ok {
		return st.StackTrace()
	}
	return nil
}

// Detailed formats the bug message followed by its stack.
func (b *Bug) Detailed() string {
	return fmt.Sprintf("%s%+v", b.Error(), b.StackTrace())
}

// Bugf raises an internal compiler error. It never returns.
func Bugf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	panic(&Bug{msg: msg, cause: errors.New(msg)})
}

// Assert raises a bug when cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		Bugf(format, args...)
	}
}

// Unreachable is Bugf for switch catch-alls over closed sets.
func Unreachable(what string, v any) {
	Bugf("unexpected %s: %v", what, v)
}

// Recover converts a recovered *Bug into an error stored in *errp.
// Other panics are re-raised. Use as `defer ice.Recover(&err)`.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if bug, ok := r.(*Bug); ok {
		*errp = bug
		return
	}
	panic(r)
}

// Catch runs fn and returns the bug it raised, if any.
func Catch(fn func()) (err error) {
	defer Recover(&err)
	fn()
	return nil
}

// AsBug extracts a *Bug from err.
func AsBug(err error) (*Bug, bool) {
	var bug *Bug
	if errors.As(err, &bug) {
		return bug, true
	}
	return nil, false
}
