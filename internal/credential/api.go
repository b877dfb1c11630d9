package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/educhainx/credential-gateway/internal/snapshot"
)

// AnonymousCaller is the identity assigned to requests that do not present a
// valid admin key. It never matches the owner, so the registry's own guard
// rejects their mutations.
const AnonymousCaller = Identity("anonymous")

// CredentialStore supplies the stored (bcrypt-hashed) admin API key.
type CredentialStore interface {
	GetCredential(key string) (string, error)
}

// MetricsTrigger nudges the metrics updater after state changes.
type MetricsTrigger interface {
	Trigger()
}

// APIServer handles the owner-facing registry HTTP surface.
type APIServer struct {
	registry     *Registry
	creds        CredentialStore
	snapshots    *snapshot.Scheduler
	pauseSwitch  *snapshot.Switch
	resumeSwitch *snapshot.Switch
	metrics      MetricsTrigger
}

// NewAPIServer creates a new API server. snapshots and metrics may be nil.
func NewAPIServer(registry *Registry, creds CredentialStore, snapshots *snapshot.Scheduler, metrics MetricsTrigger) *APIServer {
	return &APIServer{
		registry:     registry,
		creds:        creds,
		snapshots:    snapshots,
		pauseSwitch:  snapshot.NewSwitch(3, time.Minute),
		resumeSwitch: snapshot.NewSwitch(3, time.Minute),
		metrics:      metrics,
	}
}

// RegisterHandlers registers the HTTP handlers.
func (s *APIServer) RegisterHandlers() {
	http.HandleFunc("/certificates/issue", s.handleIssue)
	http.HandleFunc("/certificates/get", s.handleGet)
	http.HandleFunc("/certificates/revoke", s.handleRevoke)
	http.HandleFunc("/certificates/owner", s.handleOwner)
	http.HandleFunc("/snapshot/pause", s.handlePause)
	http.HandleFunc("/snapshot/resume", s.handleResume)
}

// caller derives the caller identity from the X-Api-Key header. A request
// presenting the admin key acts as the registry owner; anything else is
// anonymous. Authorization itself stays inside the registry.
func (s *APIServer) caller(r *http.Request) Identity {
	key := r.Header.Get("X-Api-Key")
	if key == "" {
		return AnonymousCaller
	}

	stored, err := s.creds.GetCredential("admin_api_key")
	if err != nil {
		slog.Error("retrieving admin API key", "err", err)
		return AnonymousCaller
	}
	if stored == "" {
		return AnonymousCaller
	}

	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(key)) != nil {
		return AnonymousCaller
	}
	return s.registry.Owner()
}

type issueRequest struct {
	Subject     string `json:"subject"`
	HolderName  string `json:"holder_name"`
	Course      string `json:"course"`
	Institution string `json:"institution"`
	IssuedAt    int64  `json:"issued_at"`
}

type revokeRequest struct {
	Subject string `json:"subject"`
}

func (s *APIServer) handleIssue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req issueRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Subject == "" {
		http.Error(w, "subject is required", http.StatusBadRequest)
		return
	}

	err := s.registry.Issue(s.caller(r), Identity(req.Subject), req.HolderName, req.Course, req.Institution, req.IssuedAt)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}

	slog.Info("certificate issued", "subject", req.Subject, "institution", req.Institution)
	if s.metrics != nil {
		s.metrics.Trigger()
	}
	writeJSON(w, map[string]bool{"issued": true})
}

func (s *APIServer) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	subject := r.URL.Query().Get("subject")
	if subject == "" {
		http.Error(w, "subject is required", http.StatusBadRequest)
		return
	}

	cert, err := s.registry.Get(Identity(subject))
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}

	writeJSON(w, cert)
}

func (s *APIServer) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req revokeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Subject == "" {
		http.Error(w, "subject is required", http.StatusBadRequest)
		return
	}

	if err := s.registry.Revoke(s.caller(r), Identity(req.Subject)); err != nil {
		s.writeRegistryError(w, err)
		return
	}

	slog.Info("certificate revoked", "subject", req.Subject)
	if s.metrics != nil {
		s.metrics.Trigger()
	}
	writeJSON(w, map[string]bool{"revoked": true})
}

func (s *APIServer) handleOwner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]bool{"is_owner": s.registry.IsOwner(s.caller(r))})
}

// handlePause suspends the snapshot scheduler once enough authorized requests
// arrive inside the switch window.
func (s *APIServer) handlePause(w http.ResponseWriter, r *http.Request) {
	s.handleSwitch(w, r, s.pauseSwitch, "pause", func() { s.snapshots.Pause() })
}

// handleResume re-enables the snapshot scheduler the same way.
func (s *APIServer) handleResume(w http.ResponseWriter, r *http.Request) {
	s.handleSwitch(w, r, s.resumeSwitch, "resume", func() { s.snapshots.Resume() })
}

func (s *APIServer) handleSwitch(w http.ResponseWriter, r *http.Request, sw *snapshot.Switch, action string, trip func()) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.snapshots == nil {
		http.Error(w, "snapshotting is not enabled", http.StatusNotFound)
		return
	}
	if !s.registry.IsOwner(s.caller(r)) {
		http.Error(w, "invalid API key", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	if sw.Register(now) {
		trip()
		slog.Info("snapshot switch tripped", "action", action)
		writeJSON(w, map[string]string{
			"status":  action + "d",
			"message": fmt.Sprintf("Snapshotting has been %sd", action),
		})
		return
	}

	remaining := sw.Threshold() - sw.Pending(now)
	writeJSON(w, map[string]interface{}{
		"status":             "attempt recorded",
		"attempts_remaining": remaining,
		"message":            fmt.Sprintf("Need %d more attempts within 1 minute to %s snapshotting", remaining, action),
	})
}

func (s *APIServer) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "err", err)
	}
}
