package file

import (
	"encoding/json"
	"net/http"

	"chunk-transfer/internal/adapters/handlers/http/auth"
)

// V1ListFilesResponse is the response to list files
type V1ListFilesResponse struct {
	Files []V1FileStatusResponse `json:"files"`
}

// ListFilesV1 lists every file of the authenticated owner
func (h *HandlerV1) ListFilesV1(w http.ResponseWriter, r *http.Request) {

	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	views, err := h.fileService.ListFiles(r.Context(), owner)
	if err != nil {
		h.logger.Error("error listing files", "owner", owner, "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := V1ListFilesResponse{Files: make([]V1FileStatusResponse, 0, len(views))}
	for _, view := range views {
		resp.Files = append(resp.Files, statusResponse(view))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}
