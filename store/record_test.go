package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/hub/kvo"
)

func TestRecordWriteAttributeCoercesThroughSchema(t *testing.T) {
	registry := NewTypeRegistry()
	registry.Register("widget", nil, map[string]*Attribute{
		"count": IntAttribute(),
	})
	s := New(registry, nil)
	rec, err := s.CreateRecord("widget", "w1")
	require.NoError(t, err)

	require.NoError(t, rec.Set("count", 3))
	v, err := rec.Get("count")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	// simulate data arriving JSON-shaped (float64) and being coerced on read.
	hash, err := rec.ctx.ReadDataHash(rec.sk)
	require.NoError(t, err)
	hash["count"] = float64(9)
	v, err = rec.Get("count")
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestRecordGetFallsBackToBaseForKeysOutsideTheHash(t *testing.T) {
	registry := NewTypeRegistry()
	registry.Register("widget", nil, nil)
	s := New(registry, nil)
	rec, err := s.CreateRecord("widget", "w1")
	require.NoError(t, err)

	require.NoError(t, rec.Base.Set("transient", "not-persisted"))
	v, err := rec.Get("transient")
	require.NoError(t, err)
	assert.Equal(t, "not-persisted", v)
}

func TestRecordWriteAttributeTransitionsStatus(t *testing.T) {
	registry := NewTypeRegistry()
	registry.Register("widget", nil, map[string]*Attribute{"name": StringAttribute()})
	s := New(registry, nil)
	rec, err := s.CreateRecord("widget", "w1")
	require.NoError(t, err)
	assert.Equal(t, StatusReadyNew, rec.Status())

	require.NoError(t, rec.Set("name", "a"))
	assert.Equal(t, StatusReadyNew, rec.Status(), "writes on a still-new record stay READY_NEW")

	_, err = s.LoadRecords("widget", []DataHash{{"id": "w2", "name": "loaded"}})
	require.NoError(t, err)
	loaded, err := s.Find("widget", "w2")
	require.NoError(t, err)
	assert.Equal(t, StatusReadyClean, loaded.Status())

	require.NoError(t, loaded.Set("name", "changed"))
	assert.Equal(t, StatusReadyDirty, loaded.Status())
}

func TestRecordComputedPropertyObservesDependentAttributes(t *testing.T) {
	registry := NewTypeRegistry()
	factory := func(ctx Context, sk StoreKey) *Record {
		r := NewRecord(ctx, sk)
		r.DefineProperty("summary", &kvo.Property{
			Cacheable: true,
			CacheKey:  "summary",
			Fn: func(obj kvo.Object, key string, value any, hasValue bool) (any, error) {
				a, _ := obj.Get("a")
				b, _ := obj.Get("b")
				return fmt.Sprintf("%v-%v", a, b), nil
			},
			DependentKeys: []string{"a", "b"},
		})
		r.RegisterDependentKey("summary", "a", "b")
		return r
	}
	registry.Register("widget", factory, map[string]*Attribute{
		"a": StringAttribute(),
		"b": StringAttribute(),
	})
	s := New(registry, nil)
	rec, err := s.CreateRecord("widget", "w1")
	require.NoError(t, err)

	watcher := &summaryCapture{}
	watcher.Init(watcher, nil)
	require.NoError(t, rec.AddObserver("summary", watcher, "onSummary", nil))

	require.NoError(t, rec.Set("a", "x"))
	v, err := rec.Get("summary")
	require.NoError(t, err)
	assert.Equal(t, "x-<nil>", v)

	require.NoError(t, rec.Set("b", "y"))
	v, err = rec.Get("summary")
	require.NoError(t, err)
	assert.Equal(t, "x-y", v)

	assert.Equal(t, 2, watcher.fires, "one fire per attribute write that invalidates the dependent")
}

type summaryCapture struct {
	kvo.Base
	fires int
}

func (c *summaryCapture) Notify(source kvo.Object, key string, method kvo.MethodID, context any, revision uint64) {
	if method == "onSummary" {
		c.fires++
	}
}
