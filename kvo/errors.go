package kvo

import "errors"

// The observation core is exception-transparent: these are returned to the
// caller that triggered the change, never swallowed internally.
var (
	// ErrMalformedPath is a ProgrammerError: an empty path segment, a
	// leading "." with nothing after it, or similar syntactic problems.
	ErrMalformedPath = errors.New("kvo: malformed path")

	// ErrUnresolvableRoot is a ProgrammerError: an absolute/global path
	// whose root name has no registered global and no explicit root.
	// No function in this package returns it: NewChainObserver defers such
	// a path on the Queue until RegisterGlobal names its root.
	ErrUnresolvableRoot = errors.New("kvo: unresolvable observation root")

	// ErrNoObserverMethod is a ProgrammerError: a local observer method
	// name that the owner does not recognize in Notify.
	ErrNoObserverMethod = errors.New("kvo: no such observer method")
)
