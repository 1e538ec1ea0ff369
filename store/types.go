// Package store implements a versioned, copy-on-write data-hash store and
// its nested editing contexts: a StoreKey edit-state machine, parent→child
// propagation, commit flow, and record materialization.
package store

import "fmt"

// StoreKey is a process-unique integer identifying one logical record
// across all editing contexts. Allocated on first reference,
// never reused.
type StoreKey int64

// Status is a bitfield drawn from {EMPTY, READY_CLEAN, READY_NEW,
// READY_DIRTY, DESTROYED_CLEAN, DESTROYED_DIRTY, BUSY_*, ERROR}.
type Status uint32

const (
	StatusEmpty Status = 1 << iota
	StatusReadyClean
	StatusReadyNew
	StatusReadyDirty
	StatusDestroyedClean
	StatusDestroyedDirty
	StatusBusyLoading
	StatusBusyCreating
	StatusBusyCommitting
	StatusBusyDestroying
	StatusError
)

// IsDirty reports whether status represents unflushed local work a commit
// pipeline must act on.
func (s Status) IsDirty() bool {
	return s&(StatusReadyDirty|StatusReadyNew|StatusDestroyedDirty) != 0
}

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "EMPTY"
	case StatusReadyClean:
		return "READY_CLEAN"
	case StatusReadyNew:
		return "READY_NEW"
	case StatusReadyDirty:
		return "READY_DIRTY"
	case StatusDestroyedClean:
		return "DESTROYED_CLEAN"
	case StatusDestroyedDirty:
		return "DESTROYED_DIRTY"
	case StatusBusyLoading:
		return "BUSY_LOADING"
	case StatusBusyCreating:
		return "BUSY_CREATING"
	case StatusBusyCommitting:
		return "BUSY_COMMITTING"
	case StatusBusyDestroying:
		return "BUSY_DESTROYING"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("Status(%d)", uint32(s))
	}
}

// EditState is one of {INHERITED, LOCKED, EDITABLE} per (context,
// storeKey) pair.
type EditState int

const (
	// Inherited means the context has not touched this StoreKey; reads
	// resolve to the nearest ancestor where it is LOCKED or EDITABLE.
	Inherited EditState = iota
	// Locked means the data hash reference is shared with the parent,
	// not writable here.
	Locked
	// Editable means this context owns a private data hash.
	Editable
)

func (s EditState) String() string {
	switch s {
	case Inherited:
		return "INHERITED"
	case Locked:
		return "LOCKED"
	case Editable:
		return "EDITABLE"
	default:
		return "UNKNOWN"
	}
}

// DataHash is a record's attribute snapshot. Clone copies only the
// top-level map: nested mutable values (slices, maps) are still shared
// with the snapshot they were copied from until the owning context itself
// writes a replacement for that key.
type DataHash map[string]any

// Clone returns a shallow copy.
func (h DataHash) Clone() DataHash {
	if h == nil {
		return nil
	}
	out := make(DataHash, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
