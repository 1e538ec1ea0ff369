// Package kvo implements the key-value observation substrate: computed
// properties, dependent-key invalidation, change coalescing, path-based
// (chained) observation, and a process-wide observer queue.
package kvo

// Object is the minimal capability any observable target exposes. Computed
// property functions and chain observers only ever need to Get/Set through
// this interface, never the concrete struct.
type Object interface {
	Get(key string) (any, error)
	Set(key string, value any) error
}

// Observable is the fuller capability a target exposes once it also
// accepts observer registration.
type Observable interface {
	Object
	AddObserver(key string, target Observer, method MethodID, context any) error
	RemoveObserver(key string, target Observer, method MethodID) error
	HasObserverFor(key string) bool
}

// Observer is the identity half of an ObserverSet member. Any pointer type
// works; identity is Go's own pointer equality.
type Observer any

// MethodID names the bound method an observer registered for. Go function
// values aren't comparable, so a target is looked up by MethodID and
// dispatches on it itself in Notify.
type MethodID string

// Notifiable is implemented by anything that can receive a KVO
// notification: an explicit observer registered via AddObserver, an
// object's own local observers, or a ChainObserver's master target.
type Notifiable interface {
	Notify(source Object, key string, method MethodID, context any, revision uint64)
}

// PropertyObserverHook lets an owner opt into a low-level per-notification
// hook, called for every key after per-key and wildcard observers have run.
type PropertyObserverHook interface {
	PropertyObserver(source Object, key string, revision uint64)
}

// UnknownPropertyGetter lets an owner supply fallback semantics for Get on
// an undeclared key.
type UnknownPropertyGetter interface {
	UnknownProperty(key string) (any, error)
}

// AutomaticNotifier lets an owner opt specific keys out of the automatic
// PropertyWillChange/PropertyDidChange bracketing that Set performs.
type AutomaticNotifier interface {
	AutomaticallyNotifiesObserversFor(key string) bool
}

// LocalObserverMethods lets an owner declare the fixed set of method names
// its Notify recognizes, so AddLocalObserver can reject a typo'd MethodID
// at registration time instead of silently dispatching a method Notify
// will just ignore.
type LocalObserverMethods interface {
	ObservesLocalMethod(method MethodID) bool
}

// PropertyFunc is a computed-property implementation. hasValue is false on
// a read (Get) and true on a write (Set); value is the incoming value on a
// write and nil on a read. The returned value is what Get returns; on a
// write it is cached (when Cacheable) and passed to PropertyDidChange,
// while the incoming value is what the LastSetValueKey slot records.
type PropertyFunc func(obj Object, key string, value any, hasValue bool) (any, error)

// Property is a computed-property descriptor: a callable plus caching and
// dependency metadata.
type Property struct {
	Fn PropertyFunc

	// Cacheable memoizes the read result under CacheKey until invalidated.
	Cacheable bool
	CacheKey  string

	// LastSetValueKey names the memo slot used to skip redundant writes.
	// The slot is consulted on every non-Volatile write, whether or not the
	// property is Cacheable; properties that leave it empty share one slot.
	LastSetValueKey string

	// Volatile disables both the last-set-value skip and cache reuse.
	Volatile bool

	// DependentKeys are the other keys on the same object this property's
	// cache depends on.
	DependentKeys []string
}
