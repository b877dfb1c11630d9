package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Api serves the liveness probe.
type Api struct {
	statusService *Service
}

// NewApi creates the probe handler over the given service.
func NewApi(statusService *Service) *Api {
	return &Api{
		statusService: statusService,
	}
}

// RegisterHandlers registers the HTTP handlers.
func (api *Api) RegisterHandlers() {
	http.HandleFunc("/health", api.GetHealth)
}

// GetHealth reports ok while serving and 503 once shutdown has begun.
func (api *Api) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ok"
	code := http.StatusOK
	if api.statusService.IsShuttingDown() {
		status = "shutting down"
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": status}); err != nil {
		slog.Error("encoding health response", "err", err)
	}
}
