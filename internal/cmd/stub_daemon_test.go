package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/config"
	"github.com/renato0307/grove/internal/gateway"
)

// stubDaemon answers /api/commands from canned results and records every request
type stubDaemon struct {
	errors   map[string]*gateway.Error
	mu       sync.Mutex
	requests []gateway.Request
	results  map[string]any
}

func newStubDaemon(t *testing.T) (*stubDaemon, *CLI, *bytes.Buffer) {
	t.Helper()
	d := &stubDaemon{
		errors:  make(map[string]*gateway.Error),
		results: make(map[string]any),
	}

	server := httptest.NewServer(http.HandlerFunc(d.serveHTTP))
	t.Cleanup(server.Close)

	var out bytes.Buffer
	cli := &CLI{Server: server.URL, out: &out}
	cli.Container = NewContainer(&config.Settings{}, server.URL)
	return d, cli, &out
}

func (d *stubDaemon) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/commands" {
		http.NotFound(w, r)
		return
	}
	var req gateway.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	d.requests = append(d.requests, req)
	apiErr := d.errors[req.Command]
	result, ok := d.results[req.Command]
	d.mu.Unlock()

	resp := gateway.Response{ID: req.ID, OK: apiErr == nil, Error: apiErr}
	if apiErr == nil {
		if !ok {
			result = map[string]bool{"ok": true}
		}
		resp.Result, _ = json.Marshal(result)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// params returns the decoded params of the last request for command
func (d *stubDaemon) params(t *testing.T, command string) map[string]any {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.requests) - 1; i >= 0; i-- {
		if d.requests[i].Command != command {
			continue
		}
		params := map[string]any{}
		if len(d.requests[i].Params) > 0 {
			require.NoError(t, json.Unmarshal(d.requests[i].Params, &params))
		}
		return params
	}
	t.Fatalf("command %s was not sent", command)
	return nil
}

func (d *stubDaemon) sent(command string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, req := range d.requests {
		if req.Command == command {
			return true
		}
	}
	return false
}
