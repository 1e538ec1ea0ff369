package kvo

import (
	"reflect"
	"strings"
)

const chainNotifyMethod MethodID = "__kvo_chain__"

// ChainObserver observes a dotted path across an object graph that may
// materialize incrementally. Each node owns one path segment; it reads the
// next segment off its current value and recurses. When a segment is or
// becomes undefined the chain pauses at that node; when the value later
// becomes an Object, the chain re-wires downstream.
type ChainObserver struct {
	queue *Queue

	segments []string
	idx int

	root Object
	child *ChainObserver

	masterTarget Observer
	masterMethod MethodID
	masterContext any

	value any
	observing bool
}

// NewChainObserver builds (and wires) a chain observer for path, rooted at
// root. A leading "*" is stripped and otherwise behaves like a this-rooted
// path. A path whose root segment names a global is deferred and enqueued
// instead of wired immediately, resolving once that global is registered.
func NewChainObserver(queue *Queue, root Object, path string, target Observer, method MethodID, context any) (*ChainObserver, error) {
	raw := strings.TrimPrefix(path, "*")

	if isGlobalPath(raw) {
		co := &ChainObserver{queue: queue, masterTarget: target, masterMethod: method, masterContext: context}
		queue.deferChain(raw, target, method, context, co)
		return co, nil
	}

	segments, err := splitPath(raw)
	if err != nil {
		return nil, err
	}
	co := &ChainObserver{
		queue: queue,
		segments: segments,
		idx: 0,
		root: root,
		masterTarget: target,
		masterMethod: method,
		masterContext: context,
	}
	co.wire()
	return co, nil
}

// resolve is called by the ObserverQueue once a deferred global root
// becomes available.
func (c *ChainObserver) resolve(root Object, segments []string) {
	c.root = root
	c.segments = segments
	c.idx = 0
	c.wire()
}

func (c *ChainObserver) wire() {
	if c.root == nil || len(c.segments) == 0 {
		return
	}
	if obs, ok := c.root.(Observable); ok {
		obs.AddObserver(c.segments[c.idx], c, chainNotifyMethod, nil)
		c.observing = true
	}
	v, _ := c.root.Get(c.segments[c.idx])
	c.value = v
	c.rewireChild()
}

// Notify implements Notifiable: the segment this node is responsible for
// changed on c.root.
func (c *ChainObserver) Notify(source Object, key string, method MethodID, context any, revision uint64) {
	c.handleChange()
}

func (c *ChainObserver) handleChange() {
	v, _ := c.root.Get(c.segments[c.idx])
	if reflect.DeepEqual(v, c.value) {
		return
	}
	c.value = v

	if c.child != nil {
		c.child.DestroyChain()
		c.child = nil
	}

	if c.idx == len(c.segments)-1 {
		c.fireMaster()
		return
	}
	c.rewireChild()
	if term := c.terminalDescendant(); term != nil {
		term.fireMaster()
	}
}

// fireMaster notifies the path observer's target, reading the final segment
// off c.root so the target sees the same value a direct Get(key) would.
func (c *ChainObserver) fireMaster() {
	if n, ok := c.masterTarget.(Notifiable); ok {
		n.Notify(c.root, c.segments[c.idx], c.masterMethod, c.masterContext, 0)
	}
}

// terminalDescendant walks down the live chain to the node owning the last
// path segment, or nil if the chain is currently paused before reaching it.
func (c *ChainObserver) terminalDescendant() *ChainObserver {
	if c.idx == len(c.segments)-1 {
		return c
	}
	if c.child == nil {
		return nil
	}
	return c.child.terminalDescendant()
}

func (c *ChainObserver) rewireChild() {
	if c.idx == len(c.segments)-1 {
		return
	}
	nextRoot, ok := c.value.(Object)
	if !ok {
		c.child = nil
		return
	}
	c.child = &ChainObserver{
		queue: c.queue,
		segments: c.segments,
		idx: c.idx + 1,
		root: nextRoot,
		masterTarget: c.masterTarget,
		masterMethod: c.masterMethod,
		masterContext: c.masterContext,
	}
	c.child.wire()
}

// DestroyChain removes every KVO hookup this chain installed, recursively,
// and returns nil so callers can write `co = co.DestroyChain()`.
func (c *ChainObserver) DestroyChain() *ChainObserver {
	if c.child != nil {
		c.child.DestroyChain()
		c.child = nil
	}
	if c.observing && c.root != nil {
		if obs, ok := c.root.(Observable); ok {
			obs.RemoveObserver(c.segments[c.idx], c, chainNotifyMethod)
		}
		c.observing = false
	}
	return nil
}
