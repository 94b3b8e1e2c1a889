package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/OpenProjectTools/internal/services"
)

// newTestToolServer поднимает сервер инструментов поверх тестового
// бэкенда OpenProject; журнал вызовов отключён.
func newTestToolServer(t *testing.T, backend http.Handler) *httptest.Server {
	t.Helper()

	api := httptest.NewServer(backend)
	t.Cleanup(api.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opSrv := services.Init(services.OpenProjectOpts{
		BaseURL:  api.URL,
		ApiToken: "test-token",
	}, logger)

	mux := http.NewServeMux()
	NewToolServer(logger, opSrv, nil, &ToolServerOpts{Address: ":0"}).Register(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func callTool(t *testing.T, ts *httptest.Server, name, args string) map[string]any {
	t.Helper()

	resp, err := http.Post(ts.URL+withPrefix("tools/")+name, "application/json", strings.NewReader(args))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestToolGetWorkPackage(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/work_packages/42", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"id": 42,
			"subject": "Implement user login",
			"estimatedTime": "PT16H",
			"_links": {"status": {"href": "/api/v3/statuses/2", "title": "In Progress"}}
		}`)
	}))

	result := callTool(t, ts, "get_work_package", `{"work_package_id": 42}`)

	assert.Equal(t, true, result["success"])
	wp, ok := result["work_package"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), wp["id"])
	assert.Equal(t, "Implement user login", wp["subject"])
	assert.Equal(t, float64(16), wp["estimated_hours"])
}

func TestToolValidationFailure(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected for invalid input")
	}))

	result := callTool(t, ts, "get_work_package", `{"work_package_id": -1}`)

	assert.Equal(t, false, result["success"])
	errText, _ := result["error"].(string)
	assert.Contains(t, errText, "positive integer")
}

func TestToolNotFoundMessage(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message": "The requested resource could not be found."}`)
	}))

	result := callTool(t, ts, "get_work_package", `{"work_package_id": 99999}`)

	assert.Equal(t, false, result["success"])
	assert.Equal(t, "Work package not found", result["error"])
}

func TestToolUnknownName(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected for unknown tool")
	}))

	result := callTool(t, ts, "delete_everything", `{}`)

	assert.Equal(t, false, result["success"])
	errText, _ := result["error"].(string)
	assert.Contains(t, errText, "Unknown tool")
}

func TestToolRejectsNonPost(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	resp, err := http.Get(ts.URL + withPrefix("tools/") + "list_projects")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestToolEmptyBodyDefaultsArgs(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"_embedded": {"elements": [{"id": 1, "name": "Test Project"}]},
			"total": 1, "pageSize": 100, "offset": 0
		}`)
	}))

	result := callTool(t, ts, "list_projects", "")

	assert.Equal(t, true, result["success"])
	assert.Equal(t, float64(1), result["count"])
}

func TestToolUpdateWorkPackageInvalidStatus(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/statuses" {
			_, _ = io.WriteString(w, `{
				"_embedded": {"elements": [
					{"id": 1, "name": "New"},
					{"id": 2, "name": "In Progress"},
					{"id": 3, "name": "Closed", "isClosed": true}
				]},
				"total": 3, "pageSize": 100, "offset": 0
			}`)
			return
		}
		t.Fatalf("unexpected backend request: %s %s", r.Method, r.URL.Path)
	}))

	result := callTool(t, ts, "update_work_package", `{"work_package_id": 42, "status": "BadStatus"}`)

	assert.Equal(t, false, result["success"])
	errText, _ := result["error"].(string)
	assert.Contains(t, errText, "Invalid status")
	assert.Contains(t, errText, "Available statuses: New, In Progress, Closed")
}

func TestToolListStatusesUsesCache(t *testing.T) {
	calls := 0
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = io.WriteString(w, `{
			"_embedded": {"elements": [{"id": 1, "name": "New"}]},
			"total": 1, "pageSize": 100, "offset": 0
		}`)
	}))

	first := callTool(t, ts, "list_statuses", `{}`)
	second := callTool(t, ts, "list_statuses", `{}`)
	assert.Equal(t, true, first["success"])
	assert.Equal(t, true, second["success"])
	assert.Equal(t, 1, calls)

	third := callTool(t, ts, "list_statuses", `{"use_cache": false}`)
	assert.Equal(t, true, third["success"])
	assert.Equal(t, 2, calls)
}

func TestToolGetUserByEmail(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"_embedded": {"elements": [{"id": 1, "name": "John Doe", "email": "john@example.com"}]},
			"total": 1, "pageSize": 100, "offset": 0
		}`)
	}))

	result := callTool(t, ts, "get_user", `{"email": "john@example.com"}`)

	assert.Equal(t, true, result["success"])
	user, ok := result["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "John Doe", user["name"])

	missing := callTool(t, ts, "get_user", `{"email": "nobody@example.com"}`)
	assert.Equal(t, false, missing["success"])
	assert.Equal(t, "User not found", missing["error"])
}

func TestToolCreateRelationRejectsSelfRelation(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected for invalid input")
	}))

	result := callTool(t, ts, "create_work_package_relation",
		`{"from_work_package_id": 5, "to_work_package_id": 5}`)

	assert.Equal(t, false, result["success"])
	errText, _ := result["error"].(string)
	assert.Contains(t, errText, "relation with itself")
}

func TestInvocationsWithoutStorage(t *testing.T) {
	ts := newTestToolServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	resp, err := http.Get(ts.URL + withPrefix("invocations"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
