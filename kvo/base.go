package kvo

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// WildcardKey is the star observer key: an observer registered under it is
// notified on every property change on the object.
const WildcardKey = "*"

// Base is the embeddable per-object KVO state. Any struct that embeds
// Base and calls Init gains get/set, computed properties, dependent-key
// invalidation, change coalescing, and path observation.
//
// Base has no prototype to share state with — Go structs don't have a
// prototype chain — so every Base is instance-owned from construction.
type Base struct {
	owner Notifiable

	revision uint64
	changeLevel int
	changes []string // pending keys, append-order; popped LIFO
	inChanges map[string]bool

	values map[string]any
	properties map[string]*Property

	cache map[string]any // keyed by Property.CacheKey
	lastSetValues map[string]any // keyed by Property.LastSetValueKey
	cacheDep map[string][]string // memoized transitive cacheable-dependent closure, keyed by changed dep
	cacheDepSeen map[string]bool // which deps have a memoized closure (nil-valid sentinel)
	dependents map[string][]string // dep -> keys whose cache depends on it

	observers map[string]*ObserverSet
	localObservers map[string][]MethodID
	observedKeys map[string]bool
	chains map[string][]*ChainObserver

	didChangeWatermarks map[any]uint64

	queue *Queue
}

// Init wires a Base to its owning struct and, optionally, a specific
// ObserverQueue. Passing a nil queue uses DefaultQueue.
func (b *Base) Init(owner Notifiable, queue *Queue) {
	b.owner = owner
	if queue == nil {
		queue = DefaultQueue
	}
	b.queue = queue
	b.values = make(map[string]any)
	b.properties = make(map[string]*Property)
	b.cache = make(map[string]any)
	b.lastSetValues = make(map[string]any)
	b.cacheDep = make(map[string][]string)
	b.cacheDepSeen = make(map[string]bool)
	b.dependents = make(map[string][]string)
	b.observers = make(map[string]*ObserverSet)
	b.localObservers = make(map[string][]MethodID)
	b.observedKeys = make(map[string]bool)
	b.chains = make(map[string][]*ChainObserver)
	b.inChanges = make(map[string]bool)
	b.didChangeWatermarks = make(map[any]uint64)
}

// DefineProperty registers a computed-property descriptor for key.
func (b *Base) DefineProperty(key string, p *Property) {
	b.properties[key] = p
}

// Revision returns the monotonic per-object revision counter.
func (b *Base) Revision() uint64 { return b.revision }

// --- get/set -----------------------------------------------------------

// Get dispatches to a computed property (with caching), falls back to a
// plain stored value, and finally to UnknownPropertyGetter.
func (b *Base) Get(key string) (any, error) {
	if strings.Contains(key, ".") {
		return b.GetPath(key)
	}
	if p, ok := b.properties[key]; ok {
		if p.Cacheable && !p.Volatile {
			if v, ok := b.cache[p.CacheKey]; ok {
				return v, nil
			}
		}
		ret, err := p.Fn(b.self(), key, nil, false)
		if err != nil {
			return nil, err
		}
		if p.Cacheable {
			b.cache[p.CacheKey] = ret
		}
		return ret, nil
	}
	if v, ok := b.values[key]; ok {
		return v, nil
	}
	if g, ok := b.owner.(UnknownPropertyGetter); ok {
		return g.UnknownProperty(key)
	}
	return nil, nil
}

// Set invalidates dependent caches, dispatches to a computed property or
// stores a plain value, and brackets the change with
// PropertyWillChange/PropertyDidChange unless the value is unchanged or
// the owner opts the key out via AutomaticNotifier.
func (b *Base) Set(key string, value any) error {
	if strings.Contains(key, ".") {
		return b.SetPath(key, value)
	}

	// (i) invalidate this key's cache and every cacheable transitive
	// dependent's cache, before anything else observes the mutation.
	b.invalidateDependentCaches(key)

	if p, ok := b.properties[key]; ok {
		if !p.Volatile {
			if prev, had := b.lastSetValues[p.LastSetValueKey]; had && reflect.DeepEqual(prev, value) {
				return nil
			}
		}
		ret, err := p.Fn(b.self(), key, value, true)
		if err != nil {
			return err
		}
		b.lastSetValues[p.LastSetValueKey] = value
		if !b.automaticNotifyDisabled(key) {
			b.PropertyWillChange(key)
		}
		if p.Cacheable {
			b.cache[p.CacheKey] = ret
		}
		if !b.automaticNotifyDisabled(key) {
			return b.PropertyDidChange(key, ret, true)
		}
		b.revision++
		return nil
	}

	old, existed := b.values[key]
	if existed && reflect.DeepEqual(old, value) {
		return nil
	}

	disabled := b.automaticNotifyDisabled(key)
	if !disabled {
		b.PropertyWillChange(key)
	}
	b.values[key] = value
	if disabled {
		b.revision++
		return nil
	}
	return b.PropertyDidChange(key, value, false)
}

func (b *Base) automaticNotifyDisabled(key string) bool {
	if a, ok := b.owner.(AutomaticNotifier); ok {
		return !a.AutomaticallyNotifiesObserversFor(key)
	}
	return false
}

func (b *Base) self() Object {
	if o, ok := b.owner.(Object); ok {
		return o
	}
	return b
}

// SetIfChanged writes value only if it differs from the current value,
// firing no observers and not advancing revision when unchanged.
func (b *Base) SetIfChanged(key string, value any) error {
	current, err := b.Get(key)
	if err != nil {
		return err
	}
	if reflect.DeepEqual(current, value) {
		return nil
	}
	return b.Set(key, value)
}

// --- property-change grouping -------------------------------------------

// BeginPropertyChanges increments the nesting depth of property-change
// grouping.
func (b *Base) BeginPropertyChanges() { b.changeLevel++ }

// EndPropertyChanges decrements the nesting depth; on reaching zero with
// pending changes and the queue not suspended, flushes notifications.
func (b *Base) EndPropertyChanges() error {
	b.changeLevel--
	if b.changeLevel < 0 {
		b.changeLevel = 0
	}
	if b.changeLevel == 0 && len(b.changes) > 0 && !b.queue.IsObservingSuspended() {
		return b.notifyPropertyObservers()
	}
	return nil
}

// PropertyWillChange is a hook point; the default is a no-op, preserved
// for subclasses that want to snapshot state.
func (b *Base) PropertyWillChange(key string) {}

// PropertyDidChange bumps revision, clears (or keeps) the computed-property
// cache for key, invalidates transitive cacheable dependents, and either
// queues the key or notifies immediately.
func (b *Base) PropertyDidChange(key string, value any, keepCache bool) error {
	b.revision++
	if !keepCache {
		if p, ok := b.properties[key]; ok && p.Cacheable {
			delete(b.cache, p.CacheKey)
		}
	}
	b.invalidateDependentCaches(key)

	b.enqueueChange(key)

	if b.changeLevel > 0 || b.queue.IsObservingSuspended() {
		b.queue.ObjectHasPendingChanges(b)
		return nil
	}
	return b.notifyPropertyObservers()
}

func (b *Base) enqueueChange(key string) {
	if b.inChanges[key] {
		return
	}
	b.inChanges[key] = true
	b.changes = append(b.changes, key)
}

// NotifyPropertyChange is the public entry point for forcing a
// notification without necessarily having written through Set.
func (b *Base) NotifyPropertyChange(key string, value any) error {
	return b.PropertyDidChange(key, value, false)
}

// AllPropertiesDidChange fires the wildcard key, which the notification
// routine expands to every observedKey.
func (b *Base) AllPropertiesDidChange() error {
	b.cache = make(map[string]any)
	return b.PropertyDidChange(WildcardKey, nil, true)
}

// DidChangeFor reports whether the object's revision has advanced since
// the last time this exact context token called DidChangeFor. It tracks
// one last-seen-revision watermark per context and compares the current
// revision against it; keys is accepted for call-site symmetry with
// AddObserver but doesn't narrow the comparison.
func (b *Base) DidChangeFor(context any, keys ...string) bool {
	if b.didChangeWatermarks == nil {
		b.didChangeWatermarks = make(map[any]uint64)
	}
	last, ok := b.didChangeWatermarks[context]
	b.didChangeWatermarks[context] = b.revision
	if !ok {
		return true
	}
	return last != b.revision
}

// --- dependent keys ------------------------------------------------------

// RegisterDependentKey records that key's cache depends on each of deps.
func (b *Base) RegisterDependentKey(key string, deps ...string) {
	for _, dep := range deps {
		b.dependents[dep] = append(b.dependents[dep], key)
	}
}

// computeCachedDependentsFor returns (and memoizes) the transitive closure
// of cacheable descriptors reachable from dep through the dependents
// graph, using a seen-set so a user-declared cycle cannot loop forever.
func (b *Base) computeCachedDependentsFor(dep string) []string {
	if b.cacheDepSeen[dep] {
		return b.cacheDep[dep]
	}
	// Keyed by xxhash of the property name rather than the string itself:
	// the closure walk only needs set membership, and hashing once up front
	// keeps repeated lookups on a wide dependency fan-out cheap.
	seen := map[uint64]bool{xxhash.Sum64String(dep): true}
	var out []string
	var walk func(string)
	walk = func(k string) {
		for _, next := range b.dependents[k] {
			h := xxhash.Sum64String(next)
			if seen[h] {
				continue
			}
			seen[h] = true
			if p, ok := b.properties[next]; ok && p.Cacheable {
				out = append(out, next)
			}
			walk(next)
		}
	}
	walk(dep)
	b.cacheDep[dep] = out
	b.cacheDepSeen[dep] = true
	return out
}

func (b *Base) invalidateDependentCaches(key string) {
	for _, dep := range b.computeCachedDependentsFor(key) {
		if p, ok := b.properties[dep]; ok && p.Cacheable {
			delete(b.cache, p.CacheKey)
		}
	}
	// Any memoized closures rooted anywhere that pass through key are now
	// stale; simplest correct fix is to drop every memo other than key's
	// own, since the graph is small and closures are cheap to recompute
	// lazily.
	for k := range b.cacheDepSeen {
		if k == key {
			continue
		}
		delete(b.cacheDepSeen, k)
		delete(b.cacheDep, k)
	}
}

// --- observers ------------------------------------------------------------

// AddObserver wires an observer on key. A dotted key installs a
// ChainObserver; a plain key mutates the per-key
// ObserverSet and observedKeys.
func (b *Base) AddObserver(key string, target Observer, method MethodID, context any) error {
	if strings.Contains(key, ".") {
		co, err := NewChainObserver(b.queue, b.self(), key, target, method, context)
		if err != nil {
			return err
		}
		b.chains[key] = append(b.chains[key], co)
		return nil
	}
	set, ok := b.observers[key]
	if !ok {
		set = NewObserverSet()
		b.observers[key] = set
	}
	set.Add(target, method, context)
	b.observedKeys[key] = true
	return nil
}

// RemoveObserver tears down a previously-registered observer.
func (b *Base) RemoveObserver(key string, target Observer, method MethodID) error {
	if strings.Contains(key, ".") {
		remaining := b.chains[key][:0]
		for _, co := range b.chains[key] {
			if co.masterTarget == target && co.masterMethod == method {
				co.DestroyChain()
				continue
			}
			remaining = append(remaining, co)
		}
		b.chains[key] = remaining
		return nil
	}
	if set, ok := b.observers[key]; ok {
		set.Remove(target, method)
		if set.Len() == 0 && len(b.localObservers[key]) == 0 && len(b.chains[key]) == 0 {
			delete(b.observedKeys, key)
		}
	}
	return nil
}

// AddLocalObserver registers one of the owner's own Notify-dispatched
// method names against key. If the owner implements LocalObserverMethods,
// method must be one it recognizes, or ErrNoObserverMethod is returned.
func (b *Base) AddLocalObserver(key string, method MethodID) error {
	if v, ok := b.owner.(LocalObserverMethods); ok && !v.ObservesLocalMethod(method) {
		return ErrNoObserverMethod
	}
	b.localObservers[key] = append(b.localObservers[key], method)
	b.observedKeys[key] = true
	return nil
}

// HasObserverFor reports whether key currently has any live observer,
// after flushing the queue so deferred chain attachments are accounted
// for.
func (b *Base) HasObserverFor(key string) bool {
	b.queue.Flush(b)
	if set, ok := b.observers[key]; ok && set.Len() > 0 {
		return true
	}
	if len(b.localObservers[key]) > 0 {
		return true
	}
	if len(b.chains[key]) > 0 {
		return true
	}
	return false
}

// --- notification routine -------------------------------------------------

// notifyPropertyObservers drains pending changes, expanding wildcard and
// dependent keys until stable, and pops each key LIFO to its observers.
func (b *Base) notifyPropertyObservers() error {
	b.queue.Flush(b)
	b.changeLevel++
	defer func() { b.changeLevel-- }()

	for {
		pending := b.changes
		b.changes = nil
		b.inChanges = make(map[string]bool)
		if len(pending) == 0 {
			return nil
		}

		hasStar := false
		for _, k := range pending {
			if k == WildcardKey {
				hasStar = true
				break
			}
		}
		if hasStar {
			for k := range b.observedKeys {
				pending = appendUnique(pending, k)
			}
		}

		// Expand with dependent keys until stable, clearing cacheable
		// descriptor caches for each newly discovered dependent.
		for i := 0; i < len(pending); i++ {
			k := pending[i]
			for _, dep := range b.dependents[k] {
				if p, ok := b.properties[dep]; ok && p.Cacheable {
					delete(b.cache, p.CacheKey)
				}
				pending = appendUnique(pending, dep)
			}
		}

		for len(pending) > 0 {
			key := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			if err := b.notifyKey(key); err != nil {
				return err
			}
		}
	}
}

func (b *Base) notifyKey(key string) error {
	rev := b.revision

	if set, ok := b.observers[key]; ok {
		for _, m := range set.Members() {
			if m.LastNotifiedRevision == rev {
				continue
			}
			m.LastNotifiedRevision = rev
			if n, ok := m.Target.(Notifiable); ok {
				n.Notify(b.self(), key, m.Method, m.Context, rev)
			}
		}
	}

	for _, method := range b.localObservers[key] {
		b.owner.Notify(b.self(), key, method, nil, rev)
	}

	if key != WildcardKey {
		if set, ok := b.observers[WildcardKey]; ok {
			for _, m := range set.Members() {
				if m.LastNotifiedRevision == rev {
					continue
				}
				m.LastNotifiedRevision = rev
				if n, ok := m.Target.(Notifiable); ok {
					n.Notify(b.self(), key, m.Method, m.Context, rev)
				}
			}
		}
	}

	if hook, ok := b.owner.(PropertyObserverHook); ok {
		hook.PropertyObserver(b.self(), key, rev)
	}

	return nil
}

func appendUnique(s []string, v string) []string {
	for _, existing := range s {
		if existing == v {
			return s
		}
	}
	return append(s, v)
}

// --- derived utilities -----------------------------------------------------

// GetPath resolves a dotted path by walking Get/Object at each segment.
func (b *Base) GetPath(path string) (any, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	var cur Object = b.self()
	var val any = cur
	for _, seg := range segments {
		obj, ok := val.(Object)
		if !ok {
			return nil, nil
		}
		val, err = obj.Get(seg)
		if err != nil {
			return nil, err
		}
	}
	return val, nil
}

// SetPath resolves all but the last segment, then Sets the final segment.
func (b *Base) SetPath(path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return ErrMalformedPath
	}
	var cur Object = b.self()
	for _, seg := range segments[:len(segments)-1] {
		v, err := cur.Get(seg)
		if err != nil {
			return err
		}
		obj, ok := v.(Object)
		if !ok {
			return fmt.Errorf("kvo: %q is not observable at %q", path, seg)
		}
		cur = obj
	}
	return cur.Set(segments[len(segments)-1], value)
}

// SetPathIfChanged is SetIfChanged's path-aware sibling.
func (b *Base) SetPathIfChanged(path string, value any) error {
	current, err := b.GetPath(path)
	if err != nil {
		return err
	}
	if reflect.DeepEqual(current, value) {
		return nil
	}
	return b.SetPath(path, value)
}

// GetEach reads multiple keys at once, short-circuiting on the first
// error.
func (b *Base) GetEach(keys ...string) ([]any, error) {
	out := make([]any, len(keys))
	for i, k := range keys {
		v, err := b.Get(k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// IncrementProperty/DecrementProperty/ToggleProperty are thin numeric and
// boolean convenience wrappers over Get/Set.
func (b *Base) IncrementProperty(key string) (int, error) {
	v, err := b.Get(key)
	if err != nil {
		return 0, err
	}
	n, _ := v.(int)
	n++
	return n, b.Set(key, n)
}

func (b *Base) DecrementProperty(key string) (int, error) {
	v, err := b.Get(key)
	if err != nil {
		return 0, err
	}
	n, _ := v.(int)
	n--
	return n, b.Set(key, n)
}

func (b *Base) ToggleProperty(key string, trueVal, falseVal any) (any, error) {
	v, err := b.Get(key)
	if err != nil {
		return nil, err
	}
	next := trueVal
	if reflect.DeepEqual(v, trueVal) {
		next = falseVal
	}
	return next, b.Set(key, next)
}
