package store

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Context is the capability every level of the store tree exposes: the
// root Store and every nested EditingContext. EditingContext additionally
// implements CommitChanges, since committing to nothing makes no sense at
// the root.
type Context interface {
	ReadDataHash(sk StoreKey) (DataHash, error)
	ReadEditableDataHash(sk StoreKey) (DataHash, error)
	WriteDataHash(sk StoreKey, hash DataHash, status Status) error
	ReadStatus(sk StoreKey) Status
	WriteStatus(sk StoreKey, status Status) error
	StoreKeyEditState(sk StoreKey) EditState
	StoreKeyFor(recordType, id string) StoreKey
	RecordTypeForStoreKey(sk StoreKey) (string, bool)

	Find(typeName string, id string) (*Record, error)
	CreateRecord(typeName string, id string) (*Record, error)
	DestroyRecord(r *Record) error
	LoadRecords(typeName string, hashes []DataHash) ([]StoreKey, error)

	CreateEditingContext() *EditingContext
	StoreKeys() []StoreKey
	CommitRecords(opts CommitOptions) (*CommitResult, error)

	typeRegistry() *TypeRegistry
}

// Store is the root of a store tree: it owns the parallel StoreKey-indexed
// maps (dataHashes, statuses, revisions) plus the two-level
// (recordType, id) -> StoreKey index.
type Store struct {
	mu sync.Mutex

	nextKey StoreKey

	dataHashes map[StoreKey]DataHash
	statuses map[StoreKey]Status
	revisions map[StoreKey]uint64
	recordTypesByStoreKey map[StoreKey]string
	idsByType map[string]map[string]StoreKey

	registry *TypeRegistry
	dataSource DataSource
	records map[StoreKey]*Record
}

// New constructs an empty root Store bound to registry (for resolving
// record types by name) and dataSource (for the commit pipeline).
func New(registry *TypeRegistry, dataSource DataSource) *Store {
	if registry == nil {
		registry = NewTypeRegistry()
	}
	return &Store{
		dataHashes: make(map[StoreKey]DataHash),
		statuses: make(map[StoreKey]Status),
		revisions: make(map[StoreKey]uint64),
		recordTypesByStoreKey: make(map[StoreKey]string),
		idsByType: make(map[string]map[string]StoreKey),
		registry: registry,
		dataSource: dataSource,
		records: make(map[StoreKey]*Record),
	}
}

// StoreKeyFor resolves (recordType, id) to its StoreKey, allocating one on
// first reference. An xxhash of (recordType, id) is computed and discarded;
// uniqueness and order come from nextKey, never from the hash. See DESIGN.md.
func (s *Store) StoreKeyFor(recordType, id string) StoreKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeKeyForLocked(recordType, id)
}

func (s *Store) storeKeyForLocked(recordType, id string) StoreKey {
	byID, ok := s.idsByType[recordType]
	if !ok {
		byID = make(map[string]StoreKey)
		s.idsByType[recordType] = byID
	}
	if sk, ok := byID[id]; ok {
		return sk
	}
	_ = xxhash.Sum64String(recordType + "\x00" + id) // debug seed only
	s.nextKey++
	sk := s.nextKey
	byID[id] = sk
	s.recordTypesByStoreKey[sk] = recordType
	s.statuses[sk] = StatusEmpty
	return sk
}

func (s *Store) RecordTypeForStoreKey(sk StoreKey) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.recordTypesByStoreKey[sk]
	return t, ok
}

// ReadDataHash returns the stored hash for sk, or ErrUnknownStoreKey if sk
// was never allocated via StoreKeyFor, or ErrEmptyHash if it was allocated
// but never written.
func (s *Store) ReadDataHash(sk StoreKey) (DataHash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recordTypesByStoreKey[sk]; !ok {
		return nil, ErrUnknownStoreKey
	}
	if s.statuses[sk] == StatusEmpty {
		return nil, ErrEmptyHash
	}
	return s.dataHashes[sk], nil
}

// ReadEditableDataHash at the root is the same as ReadDataHash: the root
// always owns its data directly, there is nothing to copy-on-write
// against.
func (s *Store) ReadEditableDataHash(sk StoreKey) (DataHash, error) {
	return s.ReadDataHash(sk)
}

// WriteDataHash sets sk's hash directly; status, if non-zero, is also set.
// Returns ErrUnknownStoreKey if sk was never allocated via StoreKeyFor.
func (s *Store) WriteDataHash(sk StoreKey, hash DataHash, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recordTypesByStoreKey[sk]; !ok {
		return ErrUnknownStoreKey
	}
	s.dataHashes[sk] = hash
	if status != 0 {
		s.statuses[sk] = status
	} else if s.statuses[sk] == StatusEmpty {
		s.statuses[sk] = StatusReadyClean
	}
	return nil
}

func (s *Store) ReadStatus(sk StoreKey) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[sk]
}

func (s *Store) WriteStatus(sk StoreKey, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[sk] = status
	return nil
}

// StoreKeyEditState is always Editable at the root: there is no parent to
// inherit from.
func (s *Store) StoreKeyEditState(sk StoreKey) EditState { return Editable }

func (s *Store) bumpRevision(sk StoreKey) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revisions[sk]++
	return s.revisions[sk]
}

// CreateEditingContext returns a new child EditingContext whose parent is
// this Store.
func (s *Store) CreateEditingContext() *EditingContext {
	return newEditingContext(s)
}

// StoreKeys returns every StoreKey ever allocated in this store.
func (s *Store) StoreKeys() []StoreKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoreKey, 0, len(s.recordTypesByStoreKey))
	for sk := range s.recordTypesByStoreKey {
		out = append(out, sk)
	}
	return out
}

func (s *Store) typeRegistry() *TypeRegistry { return s.registry }

// Find resolves (typeName, id) to a materialized *Record, creating and
// caching one on first reference.
func (s *Store) Find(typeName, id string) (*Record, error) {
	return findIn(s, s.records, typeName, id)
}

// CreateRecord allocates a StoreKey (if needed) and a fresh READY_NEW
// record for typeName/id.
func (s *Store) CreateRecord(typeName, id string) (*Record, error) {
	return createRecordIn(s, s.records, typeName, id)
}

// DestroyRecord transitions r's status to DESTROYED_DIRTY, or to
// DESTROYED_CLEAN when r is still READY_NEW.
func (s *Store) DestroyRecord(r *Record) error {
	return destroyRecordIn(s, r)
}

// LoadRecords bulk-loads hashes for typeName, returning their StoreKeys.
func (s *Store) LoadRecords(typeName string, hashes []DataHash) ([]StoreKey, error) {
	return loadRecordsIn(s, typeName, hashes)
}

// CommitRecords runs the commit pipeline against this Store's own dirty
// StoreKeys and its DataSource. At the root there is no parent to merge
// into; CommitRecords is the terminal sink.
func (s *Store) CommitRecords(opts CommitOptions) (*CommitResult, error) {
	return commitRecordsIn(s, s.dataSource, s.allStoreKeysWithStatus, opts)
}

func (s *Store) allStoreKeysWithStatus() []StoreKey {
	return s.StoreKeys()
}
