package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"glucose-sentinel/internal/analysis/application"
)

// TriggerHandler exposes the pipeline for manual or upstream-integration
// triggering. The response is always 200 with the outcome in the body:
// callers poll outcomes, they do not retry on HTTP status.
type TriggerHandler struct {
	service *application.Service
	logger  *log.Logger
}

// NewTriggerHandler constructs the trigger endpoint.
func NewTriggerHandler(service *application.Service, logger *log.Logger) (*TriggerHandler, error) {
	if service == nil {
		return nil, errors.New("analysis trigger: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TriggerHandler{service: service, logger: logger}, nil
}

type triggerRequest struct {
	DeviceID string `json:"deviceId"`
}

// ServeHTTP runs one pipeline invocation.
func (h *TriggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("analysis trigger: decode error: %v", err)
		req.DeviceID = ""
	}

	result := h.service.Analyze(r.Context(), req.DeviceID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
