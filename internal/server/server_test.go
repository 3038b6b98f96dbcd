package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/audiolibrelab/loopcapture/internal/audio"
	"github.com/audiolibrelab/loopcapture/internal/config"
	"github.com/audiolibrelab/loopcapture/internal/service"
)

type stubCapture struct {
	done chan struct{}
	once sync.Once
}

func (c *stubCapture) Done() <-chan struct{} { return c.done }

func (c *stubCapture) Stop() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *stubCapture) Err() error { return nil }

type stubEngine struct{}

func (e *stubEngine) ResolveDevices() (string, string, error) { return "hw:1,0", "hw:1,0", nil }

func (e *stubEngine) Probe(path string) (*audio.ProbeInfo, error) {
	return &audio.ProbeInfo{DurationSeconds: 10, SampleRate: 44100, Channels: 2}, nil
}

func (e *stubEngine) Start(req audio.CaptureRequest) (audio.Capture, error) {
	return &stubCapture{done: make(chan struct{})}, nil
}

func testServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "loopcapture.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.PlaybackDirectory = filepath.Join(dir, "playback")
	cfg.RecordingsDirectory = filepath.Join(dir, "recordings")
	cfg.Log.Directory = filepath.Join(dir, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}

	playback := filepath.Join(cfg.PlaybackDirectory, "reference.wav")
	if err := os.WriteFile(playback, []byte("wav"), 0644); err != nil {
		t.Fatalf("write playback: %v", err)
	}

	svc := service.New(cfgPath, cfg, &stubEngine{}, nil)
	srv := httptest.NewServer(New(svc, cfg.Host, cfg.Port).Handler())
	t.Cleanup(srv.Close)

	return srv, playback
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("GET %s: bad JSON: %v", url, err)
	}
	return payload
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var payload map[string]any
	json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	payload := getJSON(t, srv.URL+"/api/v1/health", http.StatusOK)
	if payload["status"] != "ok" {
		t.Errorf("unexpected health payload: %v", payload)
	}
}

func TestRecordingLifecycleOverHTTP(t *testing.T) {
	srv, _ := testServer(t)

	// Idle before any start.
	payload := getJSON(t, srv.URL+"/api/v1/recordings/status", http.StatusOK)
	if payload["status"] != "idle" {
		t.Fatalf("expected idle status, got %v", payload)
	}

	resp, payload := postJSON(t, srv.URL+"/api/v1/recordings/start",
		map[string]any{"playback_file": "reference.wav", "duration": 3600})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start: status %d, want 202 (%v)", resp.StatusCode, payload)
	}

	// Second start conflicts while the first is active.
	resp, _ = postJSON(t, srv.URL+"/api/v1/recordings/start",
		map[string]any{"playback_file": "reference.wav"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("concurrent start: status %d, want 409", resp.StatusCode)
	}

	// Wait for the worker to reach recording before stopping.
	deadline := time.After(2 * time.Second)
	for {
		payload = getJSON(t, srv.URL+"/api/v1/recordings/status", http.StatusOK)
		if payload["status"] == "recording" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("session never reached recording: %v", payload)
		case <-time.After(10 * time.Millisecond):
		}
	}

	resp, payload = postJSON(t, srv.URL+"/api/v1/recordings/stop", map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop: status %d (%v)", resp.StatusCode, payload)
	}
	session, ok := payload["session"].(map[string]any)
	if !ok || session["status"] != "stopped" {
		t.Errorf("expected stopped session in stop response, got %v", payload)
	}

	// Stopping again once idle is a client error.
	deadline = time.After(2 * time.Second)
	for {
		payload = getJSON(t, srv.URL+"/api/v1/recordings/status", http.StatusOK)
		if payload["status"] == "idle" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("session never finalized: %v", payload)
		case <-time.After(10 * time.Millisecond):
		}
	}
	resp, _ = postJSON(t, srv.URL+"/api/v1/recordings/stop", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("idle stop: status %d, want 400", resp.StatusCode)
	}
}

func TestStartUnknownPlayback(t *testing.T) {
	srv, _ := testServer(t)
	resp, _ := postJSON(t, srv.URL+"/api/v1/recordings/start",
		map[string]any{"playback_file": "missing.wav"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown playback: status %d, want 404", resp.StatusCode)
	}
}

func TestConfigRoundTripOverHTTP(t *testing.T) {
	srv, _ := testServer(t)

	payload := getJSON(t, srv.URL+"/api/v1/config", http.StatusOK)
	if payload["output_prefix"] != "recording" {
		t.Fatalf("unexpected config payload: %v", payload)
	}

	payload["default_duration"] = 120
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/config", bytes.NewReader(data))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT config: status %d", resp.StatusCode)
	}

	payload = getJSON(t, srv.URL+"/api/v1/config", http.StatusOK)
	if fmt.Sprintf("%v", payload["default_duration"]) != "120" {
		t.Errorf("config update not applied: %v", payload["default_duration"])
	}
}

func TestConfigRejectsInvalidUpdate(t *testing.T) {
	srv, _ := testServer(t)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/config",
		bytes.NewReader([]byte(`{"port": 0}`)))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid config: status %d, want 400", resp.StatusCode)
	}
}

func TestTransferRequiresEnabledStorage(t *testing.T) {
	srv, _ := testServer(t)
	resp, _ := postJSON(t, srv.URL+"/api/v1/recordings/transfer",
		map[string]any{"session_id": "recording_2026-08-27_10-00-00"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("disabled storage: status %d, want 400", resp.StatusCode)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	payload := getJSON(t, srv.URL+"/api/v1/recordings/history", http.StatusOK)
	if fmt.Sprintf("%v", payload["total_count"]) != "0" {
		t.Errorf("expected empty history, got %v", payload)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := testServer(t)
	resp, err := http.Get(srv.URL + "/api/v1/recordings/stop")
	if err != nil {
		t.Fatalf("GET stop: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET on POST route: status %d, want 405", resp.StatusCode)
	}
}
