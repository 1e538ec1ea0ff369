// Package fixtures provides an in-memory store.DataSource plus a loader
// for literal fixture data, useful for tests and the demo CLI. It is
// deliberately mechanical: no persistence, no remote transport.
package fixtures

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/delaneyj/hub/idgen"
	"github.com/delaneyj/hub/store"
)

// Record is one fixture entry: the record type it belongs to and its raw
// attribute hash, keyed by "id" like every other DataHash.
type Record struct {
	Type string         `json:"type"`
	Hash store.DataHash `json:"hash"`
}

// DataSource is an in-memory store.DataSource: CreateRecord/UpdateRecord/
// DestroyRecord just mutate a map keyed by (recordType, id), recording a
// call log so tests can assert on what the commit pipeline actually sent.
type DataSource struct {
	mu    sync.Mutex
	byKey map[string]store.DataHash
	calls []Call
}

// Call records one DataSource invocation, for test assertions.
type Call struct {
	Op         string // "create", "update", or "destroy"
	RecordType string
	ID         string
	Hash       store.DataHash
}

// New constructs an empty in-memory DataSource.
func New() *DataSource {
	return &DataSource{byKey: make(map[string]store.DataHash)}
}

func key(recordType, id string) string { return recordType + "\x00" + id }

func (d *DataSource) CreateRecord(recordType, id string, hash store.DataHash) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byKey[key(recordType, id)] = hash.Clone()
	d.calls = append(d.calls, Call{Op: "create", RecordType: recordType, ID: id, Hash: hash})
	return nil
}

func (d *DataSource) UpdateRecord(recordType, id string, hash store.DataHash) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byKey[key(recordType, id)]; !ok {
		return fmt.Errorf("fixtures: update of unknown record %s/%s", recordType, id)
	}
	d.byKey[key(recordType, id)] = hash.Clone()
	d.calls = append(d.calls, Call{Op: "update", RecordType: recordType, ID: id, Hash: hash})
	return nil
}

func (d *DataSource) DestroyRecord(recordType, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byKey, key(recordType, id))
	d.calls = append(d.calls, Call{Op: "destroy", RecordType: recordType, ID: id})
	return nil
}

// Lookup returns the stored hash for (recordType, id), if present.
func (d *DataSource) Lookup(recordType, id string) (store.DataHash, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.byKey[key(recordType, id)]
	return h, ok
}

// Calls returns a snapshot of every operation this DataSource has recorded.
func (d *DataSource) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// Load decodes literal JSON fixture data (a top-level array of Record) and
// seeds s's own data hashes via s.LoadRecords, so the loaded records read
// back READY_CLEAN. It does not write to any DataSource. A record whose
// hash carries no "id" gets one minted via idgen.NewUUID. Records are
// deduplicated by the content hash (idgen.ContentHash) of their type and
// hash, so literal fixture data can be copy-pasted across files without
// double-loading an identical entry. The fingerprint is taken after id
// minting, so identical entries that omit "id" each get their own id and
// are all loaded.
func Load(s *store.Store, raw []byte) ([]store.StoreKey, error) {
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("fixtures: decode: %w", err)
	}

	byType := make(map[string][]store.DataHash)
	order := make([]string, 0)
	seen := make(map[string]bool)
	for _, r := range records {
		if id, ok := r.Hash["id"].(string); !ok || id == "" {
			clone := r.Hash.Clone()
			if clone == nil {
				clone = store.DataHash{}
			}
			clone["id"] = idgen.NewUUID()
			r.Hash = clone
		}

		encoded, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("fixtures: fingerprint %s: %w", r.Type, err)
		}
		fingerprint := idgen.ContentHash(encoded)
		if seen[fingerprint] {
			continue
		}
		seen[fingerprint] = true

		if _, ok := byType[r.Type]; !ok {
			order = append(order, r.Type)
		}
		byType[r.Type] = append(byType[r.Type], r.Hash)
	}

	var out []store.StoreKey
	for _, t := range order {
		sks, err := s.LoadRecords(t, byType[t])
		if err != nil {
			return nil, fmt.Errorf("fixtures: load %s: %w", t, err)
		}
		out = append(out, sks...)
	}
	return out, nil
}
