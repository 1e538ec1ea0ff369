package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/hub/store"
)

const sample = `[
	{"type": "widget", "hash": {"id": "w1", "name": "one"}},
	{"type": "widget", "hash": {"id": "w2", "name": "two"}},
	{"type": "gadget", "hash": {"id": "g1", "name": "three"}}
]`

func TestLoadSeedsStoreAcrossTypes(t *testing.T) {
	registry := store.NewTypeRegistry()
	registry.Register("widget", nil, map[string]*store.Attribute{"name": store.StringAttribute()})
	registry.Register("gadget", nil, map[string]*store.Attribute{"name": store.StringAttribute()})
	s := store.New(registry, nil)

	sks, err := Load(s, []byte(sample))
	require.NoError(t, err)
	require.Len(t, sks, 3)

	for _, sk := range sks {
		assert.Equal(t, store.StatusReadyClean, s.ReadStatus(sk))
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	s := store.New(store.NewTypeRegistry(), nil)
	_, err := Load(s, []byte(`not json`))
	assert.Error(t, err)
}

func TestLoadRejectsUnregisteredType(t *testing.T) {
	s := store.New(store.NewTypeRegistry(), nil)
	_, err := Load(s, []byte(`[{"type": "widget", "hash": {"id": "w1"}}]`))
	assert.ErrorIs(t, err, store.ErrUnregisteredType)
}

func TestLoadMintsIDForRecordsMissingOne(t *testing.T) {
	registry := store.NewTypeRegistry()
	registry.Register("widget", nil, map[string]*store.Attribute{"name": store.StringAttribute()})
	s := store.New(registry, nil)

	sks, err := Load(s, []byte(`[{"type": "widget", "hash": {"name": "unnamed"}}]`))
	require.NoError(t, err)
	require.Len(t, sks, 1)

	hash, err := s.ReadDataHash(sks[0])
	require.NoError(t, err)
	id, ok := hash["id"].(string)
	require.True(t, ok)
	assert.Len(t, id, 36, "a minted id is a UUID string")
}

func TestLoadDeduplicatesIdenticalEntries(t *testing.T) {
	registry := store.NewTypeRegistry()
	registry.Register("widget", nil, map[string]*store.Attribute{"name": store.StringAttribute()})
	s := store.New(registry, nil)

	sks, err := Load(s, []byte(`[
		{"type": "widget", "hash": {"id": "w1", "name": "one"}},
		{"type": "widget", "hash": {"id": "w1", "name": "one"}}
	]`))
	require.NoError(t, err)
	assert.Len(t, sks, 1, "byte-identical fixture entries load once")
}

func TestDataSourceCreateUpdateDestroy(t *testing.T) {
	ds := New()

	require.NoError(t, ds.CreateRecord("widget", "w1", store.DataHash{"name": "one"}))
	_, ok := ds.Lookup("widget", "w1")
	assert.True(t, ok)

	require.NoError(t, ds.UpdateRecord("widget", "w1", store.DataHash{"name": "one-updated"}))
	hash, ok := ds.Lookup("widget", "w1")
	require.True(t, ok)
	assert.Equal(t, "one-updated", hash["name"])

	require.NoError(t, ds.DestroyRecord("widget", "w1"))
	_, ok = ds.Lookup("widget", "w1")
	assert.False(t, ok)

	assert.Len(t, ds.Calls(), 3)
}

func TestDataSourceUpdateUnknownRecordFails(t *testing.T) {
	ds := New()
	err := ds.UpdateRecord("widget", "missing", store.DataHash{"name": "x"})
	assert.Error(t, err)
}
