package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/n8n-deploy/internal/n8n"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := NewApp("test", &stdout, &stderr, logger)

	code := app.Run(context.Background(), args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// setupEnv задаёт окружение CLI. Пустой apiURL — без N8N_API_KEY.
func setupEnv(t *testing.T, apiURL string) {
	t.Helper()
	for _, name := range []string{"N8N_API_KEY", "N8N_API_URL", "N8N_WORKFLOW_DIR", "N8N_DEFAULT_WORKFLOW", "N8N_METRICS_FILE", "N8N_TIMEOUT"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	if apiURL != "" {
		t.Setenv("N8N_API_KEY", "test-key")
		t.Setenv("N8N_API_URL", apiURL)
	}
}

func fakeN8N(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "test-key", r.Header.Get(n8n.APIKeyHeader))
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

func TestRun_MissingAPIKey(t *testing.T) {
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {})
	setupEnv(t, "")
	t.Setenv("N8N_API_URL", server.URL)

	for _, args := range [][]string{nil, {"list"}, {"deploy", "wf.json"}, {"activate", "1"}} {
		res := runCLI(t, args...)
		assert.Equal(t, 1, res.code, "args %v", args)
		assert.Contains(t, res.stderr, "N8N_API_KEY environment variable is required")
		assert.Contains(t, res.stderr, server.URL+"/settings/api")
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestRun_MissingAPIKeyBeforeArgs(t *testing.T) {
	setupEnv(t, "")

	for _, args := range [][]string{{"help"}, {"--help"}, {"-h"}, {"--version"}, {"frobnicate"}, {"activate"}, {"list", "--bogus"}} {
		res := runCLI(t, args...)
		assert.Equal(t, 1, res.code, "args %v", args)
		assert.Contains(t, res.stderr, "N8N_API_KEY environment variable is required", "args %v", args)
		assert.NotContains(t, res.stderr, "Usage:", "args %v", args)
		assert.Empty(t, res.stdout, "args %v", args)
	}
}

func TestRun_MissingAPIKeyEnvFileFlag(t *testing.T) {
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})
	setupEnv(t, "")
	t.Setenv("N8N_API_URL", server.URL)

	envFile := filepath.Join(t.TempDir(), "n8n.env")
	require.NoError(t, os.WriteFile(envFile, []byte("N8N_API_KEY=test-key\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("N8N_API_KEY") })

	res := runCLI(t, "list", "--env-file", envFile)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestRun_Help(t *testing.T) {
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {})
	setupEnv(t, server.URL)

	for _, arg := range []string{"help", "--help", "-h"} {
		res := runCLI(t, arg)
		assert.Equal(t, 0, res.code, arg)
		assert.Contains(t, res.stdout, "Usage:", arg)
		assert.Contains(t, res.stdout, "activate", arg)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestRun_Version(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {})
	setupEnv(t, server.URL)

	res := runCLI(t, "--version")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "test")
}

func TestRun_UnknownCommand(t *testing.T) {
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {})
	setupEnv(t, server.URL)

	res := runCLI(t, "frobnicate")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: unknown command: frobnicate")
	assert.Contains(t, res.stderr, "Usage:")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestRun_UnknownFlag(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {})
	setupEnv(t, server.URL)

	res := runCLI(t, "list", "--bogus")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "bogus")
	assert.Contains(t, res.stderr, "Usage:")
}

// --- deploy ---

func writeWorkflow(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRun_DeployDefault(t *testing.T) {
	var body map[string]any
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/workflows", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"id":"abc123","name":"Bug Investigation","active":false}`))
	})
	setupEnv(t, server.URL)

	dir := t.TempDir()
	writeWorkflow(t, dir, "default.json", `{"name":"Bug Investigation","nodes":[],"connections":{}}`)
	t.Setenv("N8N_WORKFLOW_DIR", dir)
	t.Setenv("N8N_DEFAULT_WORKFLOW", "default.json")

	res := runCLI(t)
	require.Equal(t, 0, res.code, res.stderr)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, "Bug Investigation", body["name"])
	assert.Contains(t, res.stderr, `Deploying workflow "Bug Investigation"`)
	assert.Contains(t, res.stderr, "Workflow deployed successfully")
	assert.Contains(t, res.stdout, "abc123")
	assert.Contains(t, res.stdout, server.URL+"/workflow/abc123")
}

func TestRun_DeployFileJSONOutput(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"9","name":"From YAML","active":false}`))
	})
	setupEnv(t, server.URL)

	dir := t.TempDir()
	writeWorkflow(t, dir, "wf.yaml", "name: From YAML\nnodes: []\nconnections: {}\n")

	res := runCLI(t, "--json", "--workflow-dir", dir, "deploy", "wf.yaml")
	require.Equal(t, 0, res.code, res.stderr)

	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &view))
	assert.Equal(t, "9", view["id"])
	assert.Equal(t, server.URL+"/workflow/9", view["url"])
}

func TestRun_DeployMissingFile(t *testing.T) {
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {})
	setupEnv(t, server.URL)

	res := runCLI(t, "--workflow-dir", t.TempDir(), "deploy", "nope.json")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: load workflow from nope.json")
	assert.NotContains(t, res.stderr, "Usage:")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestRun_DeployRemoteError(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid key"))
	})
	setupEnv(t, server.URL)

	dir := t.TempDir()
	writeWorkflow(t, dir, "wf.json", `{"name":"x"}`)

	res := runCLI(t, "--workflow-dir", dir, "deploy", "wf.json")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: HTTP 401: invalid key")
	assert.Empty(t, res.stdout)
}

func TestRun_DeployTooManyArgs(t *testing.T) {
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {})
	setupEnv(t, server.URL)

	res := runCLI(t, "deploy", "a.json", "b.json")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "at most one file")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

// --- list ---

func TestRun_ListEmpty(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"data":[]}`))
	})
	setupEnv(t, server.URL)

	res := runCLI(t, "list")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stderr, "No workflows found")
	assert.NotContains(t, res.stderr, "Error")
}

func TestRun_List(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		w.Write([]byte(`{"data":[{"id":"7","name":"X","active":true}],"nextCursor":"next-1"}`))
	})
	setupEnv(t, server.URL)

	res := runCLI(t, "list", "--active=true")
	require.Equal(t, 0, res.code, res.stderr)

	assert.Contains(t, res.stdout, "ID")
	assert.Contains(t, res.stdout, "ACTIVE")
	assert.Contains(t, res.stdout, "7")
	assert.Contains(t, res.stdout, "yes")
	assert.Contains(t, res.stdout, server.URL+"/workflow/7")
	assert.Contains(t, res.stderr, "--cursor next-1")
}

func TestRun_ListJSON(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"7","name":"X","active":true},{"id":"8","name":"Y","active":false}]}`))
	})
	setupEnv(t, server.URL)

	res := runCLI(t, "--json", "list")
	require.Equal(t, 0, res.code, res.stderr)

	var views []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "7", views[0]["id"])
	assert.Equal(t, true, views[0]["active"])
	assert.Equal(t, false, views[1]["active"])
}

func TestRun_ListInvalidActive(t *testing.T) {
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {})
	setupEnv(t, server.URL)

	res := runCLI(t, "list", "--active=maybe")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "invalid value for --active: maybe")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestRun_ListRemoteError(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"forbidden"}`))
	})
	setupEnv(t, server.URL)

	res := runCLI(t, "list")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: HTTP 403: forbidden")
}

// --- activate / deactivate ---

func TestRun_Activate(t *testing.T) {
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/workflows/42/activate", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	setupEnv(t, server.URL)

	res := runCLI(t, "activate", "42")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Contains(t, res.stderr, "Workflow 42 activated successfully")
}

func TestRun_DeactivateJSON(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows/42/deactivate", r.URL.Path)
	})
	setupEnv(t, server.URL)

	res := runCLI(t, "--json", "deactivate", "42")
	require.Equal(t, 0, res.code, res.stderr)
	assert.JSONEq(t, `{"id":"42","active":false}`, res.stdout)
	assert.Contains(t, res.stderr, "Workflow 42 deactivated successfully")
}

func TestRun_ToggleMissingID(t *testing.T) {
	server, calls := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {})
	setupEnv(t, server.URL)

	for _, command := range []string{"activate", "deactivate"} {
		res := runCLI(t, command)
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "workflow ID required for "+command+" command")
		assert.Contains(t, res.stderr, "Usage:")
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestRun_ActivateNotFound(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})
	setupEnv(t, server.URL)

	res := runCLI(t, "activate", "missing")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: HTTP 404: Not Found")
}

// --- metrics ---

func TestRun_MetricsFile(t *testing.T) {
	server, _ := fakeN8N(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})
	setupEnv(t, server.URL)

	path := filepath.Join(t.TempDir(), "n8n_deploy.prom")
	res := runCLI(t, "--metrics-file", path, "list")
	require.Equal(t, 0, res.code, res.stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `n8n_deploy_operations_total{operation="list",result="success"} 1`)
	assert.Contains(t, string(data), `n8n_deploy_http_requests_total{code="200",method="get"} 1`)
}
