package file

import (
	"encoding/json"
	"net/http"

	"chunk-transfer/internal/core/domain"
)

// GetStatusV1 returns the status of a filename
func (h *HandlerV1) GetStatusV1(w http.ResponseWriter, r *http.Request) {

	owner, filename, ok := h.requestKey(w, r)
	if !ok {
		return
	}

	view, err := h.fileService.GetStatus(r.Context(), owner, filename)
	switch {
	case domain.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("error getting file status", "owner", owner, "filename", filename, "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	case view == nil:
		h.logger.Error("response has nil values", "owner", owner, "filename", filename)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(statusResponse(*view)); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
