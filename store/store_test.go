package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreKeyForIsStableAndUnique(t *testing.T) {
	s := New(NewTypeRegistry(), nil)

	k1 := s.StoreKeyFor("widget", "w1")
	k2 := s.StoreKeyFor("widget", "w1")
	k3 := s.StoreKeyFor("widget", "w2")
	k4 := s.StoreKeyFor("gadget", "w1")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
}

func TestReadDataHashOnEmptyKeyReturnsErrEmptyHash(t *testing.T) {
	s := New(NewTypeRegistry(), nil)
	sk := s.StoreKeyFor("widget", "w1")

	_, err := s.ReadDataHash(sk)
	assert.ErrorIs(t, err, ErrEmptyHash)
}

func TestReadWriteDataHashOnUnallocatedKeyReturnsErrUnknownStoreKey(t *testing.T) {
	s := New(NewTypeRegistry(), nil)
	bogus := StoreKey(99999)

	_, err := s.ReadDataHash(bogus)
	assert.ErrorIs(t, err, ErrUnknownStoreKey)

	err = s.WriteDataHash(bogus, DataHash{"name": "x"}, StatusReadyClean)
	assert.ErrorIs(t, err, ErrUnknownStoreKey)
}

func TestWriteDataHashDefaultsStatusFromEmpty(t *testing.T) {
	s := New(NewTypeRegistry(), nil)
	sk := s.StoreKeyFor("widget", "w1")

	require.NoError(t, s.WriteDataHash(sk, DataHash{"name": "a"}, 0))
	assert.Equal(t, StatusReadyClean, s.ReadStatus(sk))

	require.NoError(t, s.WriteDataHash(sk, DataHash{"name": "b"}, StatusReadyDirty))
	assert.Equal(t, StatusReadyDirty, s.ReadStatus(sk))
}

func TestStoreKeyEditStateAtRootIsAlwaysEditable(t *testing.T) {
	s := New(NewTypeRegistry(), nil)
	sk := s.StoreKeyFor("widget", "w1")
	assert.Equal(t, Editable, s.StoreKeyEditState(sk))
}

func TestCreateFindDestroyRecord(t *testing.T) {
	registry := NewTypeRegistry()
	registry.Register("widget", nil, map[string]*Attribute{"name": StringAttribute()})
	s := New(registry, nil)

	rec, err := s.CreateRecord("widget", "w1")
	require.NoError(t, err)
	assert.Equal(t, StatusReadyNew, rec.Status())

	found, err := s.Find("widget", "w1")
	require.NoError(t, err)
	assert.Same(t, rec, found)

	require.NoError(t, s.DestroyRecord(rec))
	assert.Equal(t, StatusDestroyedClean, rec.Status())
}

func TestFindUnknownRecordFails(t *testing.T) {
	s := New(NewTypeRegistry(), nil)
	_, err := s.Find("widget", "w1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestCreateRecordUnregisteredTypeFails(t *testing.T) {
	s := New(NewTypeRegistry(), nil)
	_, err := s.CreateRecord("widget", "w1")
	assert.ErrorIs(t, err, ErrUnregisteredType)
}

func TestLoadRecords(t *testing.T) {
	registry := NewTypeRegistry()
	registry.Register("widget", nil, map[string]*Attribute{"name": StringAttribute()})
	s := New(registry, nil)

	sks, err := s.LoadRecords("widget", []DataHash{
		{"id": "w1", "name": "one"},
		{"id": "w2", "name": "two"},
	})
	require.NoError(t, err)
	require.Len(t, sks, 2)

	for _, sk := range sks {
		assert.Equal(t, StatusReadyClean, s.ReadStatus(sk))
	}
}

func TestCommitRecordsRoundTrip(t *testing.T) {
	registry := NewTypeRegistry()
	registry.Register("widget", nil, map[string]*Attribute{"name": StringAttribute()})
	ds := &fakeDataSource{byKey: map[string]DataHash{}}
	s := New(registry, ds)

	rec, err := s.CreateRecord("widget", "w1")
	require.NoError(t, err)
	require.NoError(t, rec.Set("id", "w1"))
	require.NoError(t, rec.Set("name", "gizmo"))

	result, err := s.CommitRecords(CommitOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, StatusReadyClean, s.ReadStatus(result.Succeeded[0]))

	hash, ok := ds.byKey["widget\x00w1"]
	require.True(t, ok)
	assert.Equal(t, "gizmo", hash["name"])
}

type fakeDataSource struct {
	byKey map[string]DataHash
}

func (f *fakeDataSource) CreateRecord(recordType, id string, hash DataHash) error {
	f.byKey[recordType+"\x00"+id] = hash.Clone()
	return nil
}

func (f *fakeDataSource) UpdateRecord(recordType, id string, hash DataHash) error {
	f.byKey[recordType+"\x00"+id] = hash.Clone()
	return nil
}

func (f *fakeDataSource) DestroyRecord(recordType, id string) error {
	delete(f.byKey, recordType+"\x00"+id)
	return nil
}
