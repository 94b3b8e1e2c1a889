package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusesPage = `{
	"_embedded": {"elements": [
		{"id": 1, "name": "New", "isClosed": false, "isDefault": true, "position": 1},
		{"id": 2, "name": "In Progress", "isClosed": false, "position": 2},
		{"id": 3, "name": "Closed", "isClosed": true, "position": 3},
		{"id": 4, "name": "Rejected", "isClosed": true, "position": 4}
	]},
	"total": 4, "pageSize": 100, "offset": 0
}`

func TestStatusesServedFromCache(t *testing.T) {
	var fetches atomic.Int32
	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte(statusesPage))
	}))

	ctx := context.Background()

	first, err := srv.GetWorkPackageStatuses(ctx, true)
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := srv.GetWorkPackageStatuses(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, int32(1), fetches.Load(), "повторный вызов должен обслуживаться из кэша")
}

func TestStatusesBypassRefreshesCache(t *testing.T) {
	var fetches atomic.Int32
	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte(statusesPage))
	}))

	ctx := context.Background()

	_, err := srv.GetWorkPackageStatuses(ctx, true)
	require.NoError(t, err)

	_, err = srv.GetWorkPackageStatuses(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load(), "useCache=false всегда идёт на сервер")

	// обход кэша перезаписал запись: следующее чтение снова из кэша
	_, err = srv.GetWorkPackageStatuses(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load())
}

func TestStatusAndTypeCachesAreIndependent(t *testing.T) {
	var statusFetches, typeFetches atomic.Int32
	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/statuses":
			statusFetches.Add(1)
			_, _ = w.Write([]byte(statusesPage))
		case "/api/v3/types":
			typeFetches.Add(1)
			_, _ = w.Write([]byte(`{
				"_embedded": {"elements": [{"id": 1, "name": "Task"}, {"id": 2, "name": "Milestone"}]},
				"total": 2, "pageSize": 100, "offset": 0
			}`))
		default:
			http.NotFound(w, r)
		}
	}))

	ctx := context.Background()

	_, err := srv.GetWorkPackageStatuses(ctx, true)
	require.NoError(t, err)

	types, err := srv.GetWorkPackageTypes(ctx, true)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Task", types[0].Name)

	_, err = srv.GetWorkPackageTypes(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, int32(1), statusFetches.Load())
	assert.Equal(t, int32(1), typeFetches.Load())
}

func TestReferenceCacheReturnsCopies(t *testing.T) {
	cache := newReferenceCache()
	cache.put("statuses", []json.RawMessage{json.RawMessage(`{"id": 1}`)})

	got, ok := cache.get("statuses")
	require.True(t, ok)
	require.Len(t, got, 1)

	got[0] = json.RawMessage(`{"id": 999}`)

	fresh, ok := cache.get("statuses")
	require.True(t, ok)
	assert.JSONEq(t, `{"id": 1}`, string(fresh[0]))
}

func TestReferenceCacheInvalidate(t *testing.T) {
	cache := newReferenceCache()
	cache.put("types", []json.RawMessage{json.RawMessage(`{"id": 1}`)})

	cache.invalidate("types")

	_, ok := cache.get("types")
	assert.False(t, ok)
}
