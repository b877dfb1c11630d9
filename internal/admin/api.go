package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore supplies the stored (bcrypt-hashed) admin API key.
type CredentialStore interface {
	GetCredential(key string) (string, error)
}

// APIServer handles the admin transaction HTTP surface. Every endpoint
// requires the admin API key.
type APIServer struct {
	service *Service
	creds   CredentialStore
}

func NewAPIServer(service *Service, creds CredentialStore) *APIServer {
	return &APIServer{service: service, creds: creds}
}

// RegisterHandlers registers the HTTP handlers.
func (s *APIServer) RegisterHandlers() {
	http.HandleFunc("/admin/transactions/add", s.handleAdd)
	http.HandleFunc("/admin/transactions/all", s.handleAll)
	http.HandleFunc("/admin/transactions/student", s.handleByStudent)
}

func (s *APIServer) authorized(r *http.Request) bool {
	key := r.Header.Get("X-Api-Key")
	if key == "" {
		return false
	}

	stored, err := s.creds.GetCredential("admin_api_key")
	if err != nil {
		slog.Error("retrieving admin API key", "err", err)
		return false
	}
	if stored == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(key)) == nil
}

type addRequest struct {
	StudentID string  `json:"student_id"`
	Amount    float64 `json:"amount"`
	Type      string  `json:"type"`
}

func (s *APIServer) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "invalid API key", http.StatusUnauthorized)
		return
	}

	var req addRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.StudentID == "" || req.Type == "" {
		http.Error(w, "student_id and type are required", http.StatusBadRequest)
		return
	}

	tx := s.service.Add(req.StudentID, req.Amount, req.Type)
	slog.Info("transaction recorded", "student", tx.StudentID, "type", tx.Type, "flagged", tx.Flagged)
	writeJSON(w, tx)
}

func (s *APIServer) handleAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "invalid API key", http.StatusUnauthorized)
		return
	}

	writeJSON(w, s.service.All())
}

func (s *APIServer) handleByStudent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "invalid API key", http.StatusUnauthorized)
		return
	}

	studentID := r.URL.Query().Get("student_id")
	if studentID == "" {
		http.Error(w, "student_id is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, s.service.ByStudent(studentID))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "err", err)
	}
}
