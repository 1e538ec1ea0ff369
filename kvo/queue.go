package kvo

import (
	mapset "github.com/deckarep/golang-set/v2"
)

type deferredChain struct {
	rootName string
	rest []string
	target Observer
	method MethodID
	context any
	co *ChainObserver
}

// Queue is the process-wide ObserverQueue: it defers path-based observer
// attachment until referenced root objects come into being, and flushes
// pending change sets when suspension ends.
type Queue struct {
	globals map[string]Object
	pending []deferredChain

	suspendCount int
	dirty        mapset.Set[*Base]
}

// NewQueue constructs an independent queue. Most callers use DefaultQueue;
// an explicit Queue exists for tests that need isolation from the
// process-wide singleton.
func NewQueue() *Queue {
	return &Queue{
		globals: make(map[string]Object),
		dirty: mapset.NewThreadUnsafeSet[*Base](),
	}
}

// DefaultQueue is the ergonomic process-wide singleton every Base uses
// unless constructed with an explicit Queue.
var DefaultQueue = NewQueue()

// RegisterGlobal names root for global-rooted path resolution.
func (q *Queue) RegisterGlobal(name string, root Object) {
	q.globals[name] = root
	q.resolvePending()
}

func (q *Queue) deferChain(path string, target Observer, method MethodID, context any, co *ChainObserver) {
	segments, err := splitPath(path)
	if err != nil || len(segments) == 0 {
		return
	}
	rootName := segments[0]
	rest := segments[1:]
	if root, ok := q.globals[rootName]; ok {
		co.resolve(root, rest)
		return
	}
	q.pending = append(q.pending, deferredChain{rootName: rootName, rest: rest, target: target, method: method, context: context, co: co})
}

func (q *Queue) resolvePending() {
	remaining := q.pending[:0]
	for _, d := range q.pending {
		root, ok := q.globals[d.rootName]
		if !ok {
			remaining = append(remaining, d)
			continue
		}
		d.co.resolve(root, d.rest)
	}
	q.pending = remaining
}

// Flush iterates pending tuples; any whose root now resolves is installed
// and removed. Idempotent; safe to call often. receiver is accepted so
// call sites read as "flush this object's queue" even though the queue is
// shared process-wide state.
func (q *Queue) Flush(receiver *Base) {
	if len(q.pending) == 0 {
		return
	}
	remaining := q.pending[:0]
	for _, d := range q.pending {
		if root, ok := q.globals[d.rootName]; ok {
			d.co.resolve(root, d.rest)
			continue
		}
		remaining = append(remaining, d)
	}
	q.pending = remaining
}

// ObjectHasPendingChanges records that obj has a non-empty changes set
// while suspension is active, so Resume can flush it once the suspension
// count returns to zero.
func (q *Queue) ObjectHasPendingChanges(obj *Base) {
	if q.suspendCount > 0 {
		q.dirty.Add(obj)
	}
}

// Suspend increments the non-negative isObservingSuspended counter.
func (q *Queue) Suspend() { q.suspendCount++ }

// Resume decrements the counter; at zero it flushes every object that
// accumulated changes while suspended.
func (q *Queue) Resume() error {
	if q.suspendCount == 0 {
		return nil
	}
	q.suspendCount--
	if q.suspendCount > 0 {
		return nil
	}
	pending := q.dirty.ToSlice()
	q.dirty.Clear()
	for _, obj := range pending {
		if len(obj.changes) == 0 {
			continue
		}
		if err := obj.notifyPropertyObservers(); err != nil {
			return err
		}
	}
	return nil
}

// IsObservingSuspended reports whether the suspension counter is
// currently positive.
func (q *Queue) IsObservingSuspended() bool { return q.suspendCount > 0 }
