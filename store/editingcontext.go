package store

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// EditingContext is a nested, copy-on-write layer over a parent Context: a
// Store or another EditingContext. Reads pull through to the parent until a
// StoreKey is made Editable, at which point the context takes a private
// shallow copy and the parent link for that key is severed until commit.
type EditingContext struct {
	mu sync.Mutex

	parent Context

	editStates map[StoreKey]EditState
	dataHashes map[StoreKey]DataHash
	statuses map[StoreKey]Status

	records map[StoreKey]*Record
}

func newEditingContext(parent Context) *EditingContext {
	return &EditingContext{
		parent: parent,
		editStates: make(map[StoreKey]EditState),
		dataHashes: make(map[StoreKey]DataHash),
		statuses: make(map[StoreKey]Status),
		records: make(map[StoreKey]*Record),
	}
}

func (c *EditingContext) typeRegistry() *TypeRegistry { return c.parent.typeRegistry() }

func (c *EditingContext) StoreKeyFor(recordType, id string) StoreKey {
	return c.parent.StoreKeyFor(recordType, id)
}

func (c *EditingContext) RecordTypeForStoreKey(sk StoreKey) (string, bool) {
	return c.parent.RecordTypeForStoreKey(sk)
}

// StoreKeyEditState reports this context's edit state for sk: Inherited
// until the key has ever been read or written here, Locked once a read has
// pulled through to the parent, Editable once this context has taken its
// own copy.
func (c *EditingContext) StoreKeyEditState(sk StoreKey) EditState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editStates[sk]
}

// ReadDataHash pulls through to the parent for both Inherited and Locked
// keys, locking Inherited keys to Locked on first read without caching a
// copy — a write anywhere up the chain is still visible here until this
// context edits the key itself. Only ReadEditableDataHash breaks that link.
func (c *EditingContext) ReadDataHash(sk StoreKey) (DataHash, error) {
	c.mu.Lock()
	state := c.editStates[sk]
	if state == Editable {
		hash := c.dataHashes[sk]
		c.mu.Unlock()
		return hash, nil
	}
	c.mu.Unlock()

	hash, err := c.parent.ReadDataHash(sk)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.editStates[sk] == Inherited {
		c.editStates[sk] = Locked
	}
	c.mu.Unlock()
	return hash, nil
}

// ReadEditableDataHash returns this context's own copy of sk's hash,
// cloning it from the pulled-through parent value the first time a key is
// touched for writing. After this call the key is Editable and insulated
// from further parent writes.
func (c *EditingContext) ReadEditableDataHash(sk StoreKey) (DataHash, error) {
	c.mu.Lock()
	if c.editStates[sk] == Editable {
		hash := c.dataHashes[sk]
		c.mu.Unlock()
		return hash, nil
	}
	c.mu.Unlock()

	base, err := c.parent.ReadDataHash(sk)
	if err != nil && err != ErrEmptyHash {
		return nil, err
	}
	clone := base.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataHashes[sk] = clone
	c.editStates[sk] = Editable
	if _, ok := c.statuses[sk]; !ok {
		c.statuses[sk] = c.parent.ReadStatus(sk)
	}
	return clone, nil
}

// WriteDataHash always writes into this context's own layer, marking sk
// Editable regardless of its prior state. Returns ErrUnknownStoreKey if sk
// was never allocated via StoreKeyFor anywhere in this context's lineage.
func (c *EditingContext) WriteDataHash(sk StoreKey, hash DataHash, status Status) error {
	if _, ok := c.RecordTypeForStoreKey(sk); !ok {
		return ErrUnknownStoreKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataHashes[sk] = hash
	c.editStates[sk] = Editable
	if status != 0 {
		c.statuses[sk] = status
	} else if _, ok := c.statuses[sk]; !ok {
		c.statuses[sk] = StatusReadyClean
	}
	return nil
}

// ReadStatus pulls through to the parent for any key this context has not
// itself written a status for.
func (c *EditingContext) ReadStatus(sk StoreKey) Status {
	c.mu.Lock()
	if st, ok := c.statuses[sk]; ok {
		c.mu.Unlock()
		return st
	}
	c.mu.Unlock()
	return c.parent.ReadStatus(sk)
}

func (c *EditingContext) WriteStatus(sk StoreKey, status Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[sk] = status
	if c.editStates[sk] == 0 {
		c.editStates[sk] = Locked
	}
	return nil
}

func (c *EditingContext) CreateEditingContext() *EditingContext {
	return newEditingContext(c)
}

// StoreKeys returns every StoreKey this context has touched, layered over
// every key its parent has ever allocated. Uses a mapset.Set the way
// ObserverSet dedups observer identities, for the same reason: membership
// only, insertion order doesn't matter here.
func (c *EditingContext) StoreKeys() []StoreKey {
	seen := mapset.NewThreadUnsafeSet[StoreKey]()
	out := make([]StoreKey, 0)
	for _, sk := range c.parent.StoreKeys() {
		if seen.Add(sk) {
			out = append(out, sk)
		}
	}
	c.mu.Lock()
	for sk := range c.editStates {
		if seen.Add(sk) {
			out = append(out, sk)
		}
	}
	c.mu.Unlock()
	return out
}

func (c *EditingContext) Find(typeName, id string) (*Record, error) {
	return findIn(c, c.records, typeName, id)
}

func (c *EditingContext) CreateRecord(typeName, id string) (*Record, error) {
	return createRecordIn(c, c.records, typeName, id)
}

func (c *EditingContext) DestroyRecord(r *Record) error {
	return destroyRecordIn(c, r)
}

func (c *EditingContext) LoadRecords(typeName string, hashes []DataHash) ([]StoreKey, error) {
	return loadRecordsIn(c, typeName, hashes)
}

// CommitRecords is a no-op sink for a nested context: nested edits reach
// their DataSource only by first being merged up to the root via
// CommitChanges. Calling CommitRecords directly on a non-root context
// reports an empty result rather than erroring, so callers that walk a
// Context uniformly don't need a type switch.
func (c *EditingContext) CommitRecords(opts CommitOptions) (*CommitResult, error) {
	return &CommitResult{Failed: map[StoreKey]error{}}, nil
}

// CommitChanges merges every Editable StoreKey in this context back into
// its parent — via the parent's WriteDataHash, passing this context's
// status for the key — and resets those keys
// to Inherited, so the context can be reused for another round of edits
// against the now-updated parent state.
func (c *EditingContext) CommitChanges() error {
	c.mu.Lock()
	dirty := make([]StoreKey, 0, len(c.editStates))
	for sk, state := range c.editStates {
		if state == Editable {
			dirty = append(dirty, sk)
		}
	}
	c.mu.Unlock()

	for _, sk := range dirty {
		c.mu.Lock()
		hash := c.dataHashes[sk]
		status := c.statuses[sk]
		c.mu.Unlock()

		if err := c.parent.WriteDataHash(sk, hash, status); err != nil {
			return err
		}

		c.mu.Lock()
		delete(c.dataHashes, sk)
		delete(c.statuses, sk)
		c.editStates[sk] = Inherited
		c.mu.Unlock()
	}
	return nil
}

func commitRecordsIn(ctx Context, ds DataSource, allKeys func() []StoreKey, opts CommitOptions) (*CommitResult, error) {
	result := &CommitResult{Failed: make(map[StoreKey]error)}
	if ds == nil {
		return result, nil
	}

	wantType := toSet(opts.RecordTypes)
	wantID := toSet(opts.IDs)
	wantKey := make(map[StoreKey]bool, len(opts.StoreKeys))
	for _, sk := range opts.StoreKeys {
		wantKey[sk] = true
	}
	filtered := len(opts.RecordTypes) > 0 || len(opts.StoreKeys) > 0

	for _, sk := range allKeys() {
		status := ctx.ReadStatus(sk)
		if !status.IsDirty() {
			continue
		}
		typeName, _ := ctx.RecordTypeForStoreKey(sk)

		if filtered {
			matches := wantKey[sk]
			if !matches && len(wantType) > 0 {
				matches = wantType[typeName]
			}
			if !matches {
				continue
			}
		}

		hash, err := ctx.ReadDataHash(sk)
		if err != nil && err != ErrEmptyHash {
			result.Failed[sk] = err
			continue
		}
		id, _ := hash["id"].(string)
		if len(wantID) > 0 && !wantID[id] {
			continue
		}

		var opErr error
		switch {
		case status == StatusReadyNew:
			opErr = ds.CreateRecord(typeName, id, hash)
		case status == StatusDestroyedDirty:
			opErr = ds.DestroyRecord(typeName, id)
		default:
			opErr = ds.UpdateRecord(typeName, id, hash)
		}

		if opErr != nil {
			result.Failed[sk] = opErr
			_ = ctx.WriteStatus(sk, StatusError)
			continue
		}
		if status == StatusDestroyedDirty {
			_ = ctx.WriteStatus(sk, StatusDestroyedClean)
		} else {
			_ = ctx.WriteStatus(sk, StatusReadyClean)
		}
		result.Succeeded = append(result.Succeeded, sk)
	}
	return result, nil
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
