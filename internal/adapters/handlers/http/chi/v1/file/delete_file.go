package file

import (
	"encoding/json"
	"net/http"

	"chunk-transfer/internal/core/domain"
)

// V1DeleteFileResponse is the response to delete a file
type V1DeleteFileResponse struct {
	Deleted bool `json:"deleted"`
}

// DeleteFileV1 deletes a file or cancels an upload in progress
func (h *HandlerV1) DeleteFileV1(w http.ResponseWriter, r *http.Request) {

	owner, filename, ok := h.requestKey(w, r)
	if !ok {
		return
	}

	deleted, err := h.fileService.DeleteFile(r.Context(), owner, filename)
	switch {
	case domain.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("error deleting file", "owner", owner, "filename", filename, "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	case !deleted:
		http.Error(w, "file not found", http.StatusNotFound)
		return
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(V1DeleteFileResponse{Deleted: true}); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
