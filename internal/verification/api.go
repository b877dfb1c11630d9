package verification

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// MetricsTrigger nudges the metrics updater after state changes.
type MetricsTrigger interface {
	Trigger()
}

// APIServer handles the verification HTTP surface.
type APIServer struct {
	service *Service
	metrics MetricsTrigger
}

// NewAPIServer creates a new API server. metrics may be nil.
func NewAPIServer(service *Service, metrics MetricsTrigger) *APIServer {
	return &APIServer{service: service, metrics: metrics}
}

// RegisterHandlers registers the HTTP handlers.
func (s *APIServer) RegisterHandlers() {
	http.HandleFunc("/verify", s.handleVerify)
	http.HandleFunc("/records", s.handleRecords)
}

// VerifyResponse is the wire response for a verification request.
type VerifyResponse struct {
	Status   string `json:"status"`
	Verified bool   `json:"verified"`
}

func (s *APIServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	slog.Info("verifying transcript", "holder", req.HolderName, "institution", req.Institution)

	res := s.service.Verify(r.Context(), req)
	if s.metrics != nil {
		s.metrics.Trigger()
	}

	// Rejections are expected outcomes; the status codes mirror which stage
	// failed so callers can distinguish them without parsing the label.
	status := http.StatusOK
	switch res.Outcome {
	case RejectedOnChain:
		status = http.StatusBadRequest
	case RejectedOnHash:
		status = http.StatusUnauthorized
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(VerifyResponse{
		Status:   res.Outcome.Status(),
		Verified: res.Outcome.Verified(),
	}); err != nil {
		slog.Error("encoding verify response", "err", err)
	}
}

func (s *APIServer) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records := s.service.Records()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("encoding records response", "err", err)
	}
}
