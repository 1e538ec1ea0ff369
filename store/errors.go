package store

import "errors"

// Programmer errors are surfaced synchronously via these error values;
// data-source and store-state failures are instead reported as Status
// transitions — callers branch on ReadStatus rather than an error return.
var (
	// ErrUnknownStoreKey is a ProgrammerError: a StoreKey never allocated
	// in this store's lineage.
	ErrUnknownStoreKey = errors.New("store: unknown store key")

	// ErrRecordNotFound is a ProgrammerError surfaced by Find when a
	// (type, id) pair has no data in the store (its StoreKey is still
	// EMPTY). Find does not ask a DataSource for the record.
	ErrRecordNotFound = errors.New("store: record not found")

	// ErrUnregisteredType is a ProgrammerError: Find/CreateRecord called
	// with a type name that was never registered.
	ErrUnregisteredType = errors.New("store: unregistered record type")

	// ErrEmptyHash is returned, not panicked, when a hash is requested for
	// a StoreKey still marked EMPTY, so callers can branch on it without
	// special-casing Status directly.
	ErrEmptyHash = errors.New("store: data hash requested for an empty store key")
)
