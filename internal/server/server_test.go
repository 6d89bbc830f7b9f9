package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graphnist/graphnist/pkg/pipeline"
	"github.com/graphnist/graphnist/pkg/store"
	"github.com/graphnist/graphnist/pkg/topology"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := New(nil, st, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func testDocument() topology.Document {
	return topology.Document{
		Name: "office",
		Devices: []topology.DeviceRecord{
			{ID: "rt-1", Name: "Core", Type: "router", X: 10, Y: 10},
			{ID: "sw-1", Name: "Access", Type: "switch", X: 200, Y: 10},
			{ID: "ws-1", Name: "Desk", Type: "workstation", X: 200, Y: 300},
		},
		Connections: []topology.Connection{
			{A: "rt-1", B: "sw-1"},
		},
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestLayoutEndpoint(t *testing.T) {
	ts := newTestServer(t)

	req := LayoutRequest{
		Topology: testDocument(),
		Options:  pipeline.Options{Strategy: "grid", Width: 800, Height: 600},
	}
	resp := postJSON(t, ts.URL+"/api/layout", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body LayoutResponse
	decodeJSON(t, resp, &body)
	if len(body.Positions) != 3 {
		t.Errorf("positions count = %d, want 3", len(body.Positions))
	}
	if body.Devices != 3 || body.Connections != 1 {
		t.Errorf("stats = %d devices/%d connections, want 3/1", body.Devices, body.Connections)
	}
	if body.TopologyHash == "" {
		t.Error("topology_hash should not be empty")
	}
	for id, p := range body.Positions {
		if p.X < 0 || p.X > 800 || p.Y < 0 || p.Y > 600 {
			t.Errorf("position for %s = %v outside viewport", id, p)
		}
	}
}

func TestLayoutEndpointInvalidStrategy(t *testing.T) {
	ts := newTestServer(t)

	req := LayoutRequest{
		Topology: testDocument(),
		Options:  pipeline.Options{Strategy: "voronoi"},
	}
	resp := postJSON(t, ts.URL+"/api/layout", req)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestLayoutEndpointMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/layout", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestConnectEndpoint(t *testing.T) {
	ts := newTestServer(t)

	req := ConnectRequest{
		Topology: testDocument(),
		Strategy: "mesh",
	}
	resp := postJSON(t, ts.URL+"/api/connect", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body ConnectResponse
	decodeJSON(t, resp, &body)
	// Full mesh over 3 devices is 3 edges, one already exists.
	if len(body.Connections) != 2 {
		t.Errorf("connections count = %d, want 2: %v", len(body.Connections), body.Connections)
	}
	for _, c := range body.Connections {
		if c.A == "rt-1" && c.B == "sw-1" || c.A == "sw-1" && c.B == "rt-1" {
			t.Errorf("existing connection %v should not be proposed", c)
		}
	}
}

func TestConnectEndpointInvalidTargetType(t *testing.T) {
	ts := newTestServer(t)

	req := ConnectRequest{
		Topology:   testDocument(),
		Strategy:   "closest-type",
		TargetType: "toaster",
	}
	resp := postJSON(t, ts.URL+"/api/connect", req)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestRenderEndpointDOT(t *testing.T) {
	ts := newTestServer(t)

	req := RenderRequest{
		Topology: testDocument(),
		Options:  pipeline.Options{Strategy: "grid"},
		Format:   "dot",
	}
	resp := postJSON(t, ts.URL+"/api/render", req)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/vnd.graphviz")
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	if !strings.Contains(buf.String(), "graph G {") {
		t.Errorf("DOT body missing graph header:\n%s", buf.String())
	}
}

func TestTopologyStorageRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	doc := testDocument()

	// Save
	data, _ := json.Marshal(doc)
	putReq, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/topologies/office", bytes.NewReader(data))
	resp, err := http.DefaultClient.Do(putReq)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// Load
	resp, err = http.Get(ts.URL + "/api/topologies/office")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	var loaded topology.Document
	decodeJSON(t, resp, &loaded)
	if len(loaded.Devices) != 3 {
		t.Errorf("loaded devices = %d, want 3", len(loaded.Devices))
	}

	// List
	resp, err = http.Get(ts.URL + "/api/topologies/")
	if err != nil {
		t.Fatalf("GET list failed: %v", err)
	}
	var infos []store.Info
	decodeJSON(t, resp, &infos)
	if len(infos) != 1 || infos[0].Name != "office" {
		t.Errorf("list = %v, want one entry named office", infos)
	}

	// Delete
	delReq, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/topologies/office", nil)
	resp, err = http.DefaultClient.Do(delReq)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	// Load after delete
	resp, err = http.Get(ts.URL + "/api/topologies/office")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestSavePositionsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	doc := testDocument()

	data, _ := json.Marshal(doc)
	putReq, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/topologies/office", bytes.NewReader(data))
	resp, err := http.DefaultClient.Do(putReq)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	resp.Body.Close()

	positions := map[string]topology.Point{"rt-1": {X: 123, Y: 456}}
	posData, _ := json.Marshal(positions)
	patchReq, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/topologies/office/positions", bytes.NewReader(posData))
	resp, err = http.DefaultClient.Do(patchReq)
	if err != nil {
		t.Fatalf("PATCH failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp, err = http.Get(ts.URL + "/api/topologies/office")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	var loaded topology.Document
	decodeJSON(t, resp, &loaded)
	for _, d := range loaded.Devices {
		if d.ID == "rt-1" && (d.X != 123 || d.Y != 456) {
			t.Errorf("rt-1 position = (%v, %v), want (123, 456)", d.X, d.Y)
		}
	}
}

func TestStorageUnconfigured(t *testing.T) {
	srv := New(nil, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/topologies/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}
