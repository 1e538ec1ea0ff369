package store

import (
	"strings"

	"github.com/delaneyj/hub/kvo"
)

// Record materializes one StoreKey against a Context: an observable
// object whose Get/Set defer to the store's data hash through the record's
// Attribute coercers, and whose mutations are funneled into
// kvo.Base.PropertyDidChange so dependent observers see every update.
type Record struct {
	kvo.Base

	ctx Context
	sk StoreKey
	recordType string
	id string
	attrs map[string]*Attribute
}

// NewRecord is the default RecordFactory.
func NewRecord(ctx Context, sk StoreKey) *Record {
	r := &Record{ctx: ctx, sk: sk}
	r.Base.Init(r, nil)
	if t, ok := ctx.RecordTypeForStoreKey(sk); ok {
		r.recordType = t
		r.attrs = ctx.typeRegistry().attrsFor(t)
	}
	return r
}

// StoreKey returns the record's identity in its owning store tree.
func (r *Record) StoreKey() StoreKey { return r.sk }

// RecordType returns the registered type name.
func (r *Record) RecordType() string { return r.recordType }

// Status reads the record's current Status through its Context.
func (r *Record) Status() Status { return r.ctx.ReadStatus(r.sk) }

// Get reads key from the underlying data hash through the record's
// Attribute coercer, falling back to kvo.Base (computed properties, or
// plain in-memory values set outside the hash) when key is absent from
// the hash.
func (r *Record) Get(key string) (any, error) {
	if strings.Contains(key, ".") {
		return r.Base.GetPath(key)
	}
	hash, err := r.ctx.ReadDataHash(r.sk)
	if err != nil {
		return nil, err
	}
	raw, ok := hash[key]
	if !ok {
		return r.Base.Get(key)
	}
	if attr, ok := r.attrs[key]; ok && attr.ToType != nil {
		return attr.ToType(raw)
	}
	return raw, nil
}

// Set writes key into the record's editable data hash through its
// Attribute coercer and funnels the change into kvo.Base's notification
// routine, so change notifications from the data hash reach the Record's
// own observers.
func (r *Record) Set(key string, value any) error {
	if strings.Contains(key, ".") {
		return r.Base.SetPath(key, value)
	}
	return r.WriteAttribute(key, value)
}

// WriteAttribute is Set's non-path-aware core, exposed directly for
// callers that already know key is a plain attribute name.
func (r *Record) WriteAttribute(key string, value any) error {
	hash, err := r.ctx.ReadEditableDataHash(r.sk)
	if err != nil {
		return err
	}
	hash = hash.Clone()

	raw := value
	if attr, ok := r.attrs[key]; ok && attr.FromType != nil {
		raw, err = attr.FromType(value)
		if err != nil {
			return err
		}
	}
	hash[key] = raw

	status := r.ctx.ReadStatus(r.sk)
	if status != StatusReadyNew {
		status = StatusReadyDirty
	}
	if err := r.ctx.WriteDataHash(r.sk, hash, status); err != nil {
		return err
	}
	return r.Base.PropertyDidChange(key, value, false)
}

// Notify satisfies kvo.Notifiable. Record declares no local observer
// methods of its own; embedders that need declarative local observers
// implement their own Notify and shadow this one.
func (r *Record) Notify(source kvo.Object, key string, method kvo.MethodID, context any, revision uint64) {
}

// --- shared helpers used by both Store and EditingContext ---------------

func findIn(ctx Context, cache map[StoreKey]*Record, typeName, id string) (*Record, error) {
	sk := ctx.StoreKeyFor(typeName, id)
	if r, ok := cache[sk]; ok {
		return r, nil
	}
	if ctx.ReadStatus(sk) == StatusEmpty {
		return nil, ErrRecordNotFound
	}
	factory, ok := ctx.typeRegistry().factory(typeName)
	if !ok {
		return nil, ErrUnregisteredType
	}
	r := factory(ctx, sk)
	r.id = id
	cache[sk] = r
	return r, nil
}

func createRecordIn(ctx Context, cache map[StoreKey]*Record, typeName, id string) (*Record, error) {
	if _, ok := ctx.typeRegistry().factory(typeName); !ok {
		return nil, ErrUnregisteredType
	}
	sk := ctx.StoreKeyFor(typeName, id)
	if err := ctx.WriteDataHash(sk, DataHash{}, StatusReadyNew); err != nil {
		return nil, err
	}
	factory, _ := ctx.typeRegistry().factory(typeName)
	r := factory(ctx, sk)
	r.id = id
	cache[sk] = r
	return r, nil
}

func destroyRecordIn(ctx Context, r *Record) error {
	status := ctx.ReadStatus(r.sk)
	if status == StatusReadyNew {
		return ctx.WriteStatus(r.sk, StatusDestroyedClean)
	}
	return ctx.WriteStatus(r.sk, StatusDestroyedDirty)
}

func loadRecordsIn(ctx Context, typeName string, hashes []DataHash) ([]StoreKey, error) {
	if _, ok := ctx.typeRegistry().factory(typeName); !ok {
		return nil, ErrUnregisteredType
	}
	out := make([]StoreKey, 0, len(hashes))
	for _, hash := range hashes {
		id, _ := hash["id"].(string)
		sk := ctx.StoreKeyFor(typeName, id)
		if err := ctx.WriteDataHash(sk, hash.Clone(), StatusReadyClean); err != nil {
			return nil, err
		}
		out = append(out, sk)
	}
	return out, nil
}
