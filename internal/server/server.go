// Package server exposes the HTTP control surface for the capture service.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/audiolibrelab/loopcapture/internal/service"
	"github.com/audiolibrelab/loopcapture/internal/session"
	"github.com/audiolibrelab/loopcapture/internal/transfer"
)

// Server serves the JSON control API over stdlib net/http.
type Server struct {
	svc  *service.Service
	host string
	port int
}

// New creates a control server around the service façade.
func New(svc *service.Service, host string, port int) *Server {
	return &Server{svc: svc, host: host, port: port}
}

// Handler builds the route table. Exposed separately so tests can drive it
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/config", s.handleConfig)
	mux.HandleFunc("/api/v1/devices", s.handleDevices)
	mux.HandleFunc("/api/v1/devices/interface", s.handleInterface)
	mux.HandleFunc("/api/v1/playback-files", s.handlePlaybackFiles)
	mux.HandleFunc("/api/v1/playback-files/selected", s.handleSelectedPlayback)
	mux.HandleFunc("/api/v1/recordings/start", s.handleStart)
	mux.HandleFunc("/api/v1/recordings/stop", s.handleStop)
	mux.HandleFunc("/api/v1/recordings/status", s.handleRecordingStatus)
	mux.HandleFunc("/api/v1/recordings/history", s.handleHistory)
	mux.HandleFunc("/api/v1/recordings/transfer", s.handleTransfer)
	mux.HandleFunc("/api/v1/recordings/delete", s.handleDelete)
	mux.HandleFunc("/api/v1/recordings/", s.handleDownload)
	mux.HandleFunc("/api/v1/storage/config", s.handleStorageConfig)
	mux.HandleFunc("/api/v1/status", s.handleCompositeStatus)
	mux.HandleFunc("/api/v1/logs", s.handleLogs)
	mux.HandleFunc("/api/v1/logs/purge", s.handleLogPurge)
	mux.HandleFunc("/api/v1/logs/", s.handleLogRead)
	mux.HandleFunc("/api/v1/uptime", s.handleUptime)

	return mux
}

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	slog.Info("Starting control server", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// sendErrorResponse writes a well-formed error payload and logs it with the
// given context pairs.
func (s *Server) sendErrorResponse(w http.ResponseWriter, status int, message string, args ...any) {
	slog.Warn("Request failed", append([]any{"status", status, "message", message}, args...)...)
	s.sendJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// errorStatus maps the service error taxonomy to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrAdmissionConflict):
		return http.StatusConflict
	case errors.Is(err, session.ErrPlaybackNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoActiveSession):
		return http.StatusBadRequest
	case errors.Is(err, transfer.ErrConfigIncomplete),
		errors.Is(err, transfer.ErrUnsupportedProtocol):
		return http.StatusBadRequest
	case errors.Is(err, transfer.ErrNoFiles), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.sendJSON(w, http.StatusOK, s.svc.Config())
	case http.MethodPut:
		cfg := s.svc.Config()
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload", "operation", "config_update")
			return
		}
		if err := s.svc.UpdateConfig(cfg); err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, err.Error(), "operation", "config_update")
			return
		}
		s.sendJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Configuration updated",
		})
	default:
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	inputs, outputs, err := s.svc.DeviceList()
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError, err.Error(), "operation", "device_list")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"inputs":  inputs,
		"outputs": outputs,
	})
}

func (s *Server) handleInterface(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.sendJSON(w, http.StatusOK, s.svc.Interface())
}

func (s *Server) handlePlaybackFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	files, err := s.svc.PlaybackFiles()
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError, err.Error(), "operation", "playback_list")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"files":       files,
		"total_count": len(files),
	})
}

func (s *Server) handleSelectedPlayback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		selected, err := s.svc.SelectedPlayback()
		if err != nil {
			s.sendErrorResponse(w, http.StatusInternalServerError, err.Error(), "operation", "playback_selected")
			return
		}
		s.sendJSON(w, http.StatusOK, map[string]any{"selected": selected})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload", "operation", "playback_select")
			return
		}
		if err := s.svc.SelectPlayback(req.Name); err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, err.Error(), "operation", "playback_select", "name", req.Name)
			return
		}
		s.sendJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"selected": req.Name,
		})
	default:
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// startRequest is the start operation's wire payload. All fields optional;
// blanks default from configuration and the selected playback file.
type startRequest struct {
	PlaybackFile string `json:"playback_file"`
	Duration     int    `json:"duration"`
	SampleRate   int    `json:"sample_rate"`
	OutputPrefix string `json:"output_prefix"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req startRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload", "operation", "recording_start")
			return
		}
	}

	snap, err := s.svc.StartRecording(session.Request{
		PlaybackSource: req.PlaybackFile,
		Duration:       req.Duration,
		SampleRate:     req.SampleRate,
		OutputPrefix:   req.OutputPrefix,
	})
	if err != nil {
		s.sendErrorResponse(w, errorStatus(err), err.Error(), "operation", "recording_start")
		return
	}

	s.sendJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"session": snap,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	snap, err := s.svc.StopRecording()
	if err != nil {
		s.sendErrorResponse(w, errorStatus(err), err.Error(), "operation", "recording_stop")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": snap,
	})
}

func (s *Server) handleRecordingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	snap, ok := s.svc.RecordingStatus()
	if !ok {
		s.sendJSON(w, http.StatusOK, map[string]any{"status": "idle"})
		return
	}
	s.sendJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCompositeStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	payload := map[string]any{
		"interface": s.svc.Interface(),
		"config":    s.svc.Config(),
	}
	if snap, ok := s.svc.RecordingStatus(); ok {
		payload["recording"] = snap
	} else {
		payload["recording"] = map[string]any{"status": "idle"}
	}

	s.sendJSON(w, http.StatusOK, payload)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	groups, err := s.svc.History()
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError, err.Error(), "operation", "history")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"recordings":  groups,
		"total_count": len(groups),
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		SessionID           string `json:"session_id"`
		DeleteAfterTransfer bool   `json:"delete_after_transfer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload", "operation", "transfer")
		return
	}
	if req.SessionID == "" {
		s.sendErrorResponse(w, http.StatusBadRequest, "session_id is required", "operation", "transfer")
		return
	}

	result, err := s.svc.TransferSession(r.Context(), req.SessionID, req.DeleteAfterTransfer)
	if err != nil {
		s.sendErrorResponse(w, errorStatus(err), err.Error(), "operation", "transfer", "session_id", req.SessionID)
		return
	}
	s.sendJSON(w, http.StatusOK, result)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload", "operation", "recording_delete")
		return
	}

	if err := s.svc.DeleteRecording(req.Name); err != nil {
		s.sendErrorResponse(w, errorStatus(err), err.Error(), "operation", "recording_delete", "name", req.Name)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Deleted %s", req.Name),
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/recordings/")
	if name == "" || strings.Contains(name, "/") {
		s.sendErrorResponse(w, http.StatusBadRequest, "Recording name is required", "operation", "recording_download")
		return
	}

	path, err := s.svc.RecordingPath(name)
	if err != nil {
		s.sendErrorResponse(w, errorStatus(err), err.Error(), "operation", "recording_download", "name", name)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (s *Server) handleStorageConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.sendJSON(w, http.StatusOK, s.svc.Config().Storage)
	case http.MethodPut:
		sc := s.svc.Config().Storage
		if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload", "operation", "storage_config")
			return
		}
		if err := s.svc.UpdateStorageConfig(sc); err != nil {
			s.sendErrorResponse(w, http.StatusBadRequest, err.Error(), "operation", "storage_config")
			return
		}
		s.sendJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Storage configuration updated",
		})
	default:
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	files, err := s.svc.LogFiles()
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError, err.Error(), "operation", "log_list")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"files":       files,
		"total_count": len(files),
	})
}

func (s *Server) handleLogRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/logs/")
	if name == "" || strings.Contains(name, "/") {
		s.sendErrorResponse(w, http.StatusBadRequest, "Log file name is required", "operation", "log_read")
		return
	}

	lines := queryInt(r, "lines", 100)
	offset := queryInt(r, "offset", 0)

	content, err := s.svc.ReadLog(name, lines, offset)
	if err != nil {
		s.sendErrorResponse(w, http.StatusNotFound, err.Error(), "operation", "log_read", "name", name)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"name":  name,
		"lines": content,
	})
}

func (s *Server) handleLogPurge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload", "operation", "log_purge")
		return
	}
	if req.Days <= 0 {
		req.Days = 7
	}

	result, err := s.svc.PurgeLogs(req.Days)
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError, err.Error(), "operation", "log_purge")
		return
	}
	s.sendJSON(w, http.StatusOK, result)
}

func (s *Server) handleUptime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.sendJSON(w, http.StatusOK, s.svc.Uptime())
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
