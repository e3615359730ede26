package file

import (
	"log/slog"
	"net/http"
	"net/url"

	"chunk-transfer/internal/adapters/handlers/http/auth"
	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// HeaderTotalBytes optionally declares the final size of an upload
const HeaderTotalBytes = "X-Upload-Total-Bytes"

// HandlerV1 is the handler for v1 files routes
type HandlerV1 struct {
	fileService  port.FileService
	maxChunkSize int64
	logger       *slog.Logger
}

// NewFileHandlerV1 creates HandlerV1. maxChunkSize bounds the payload of a
// single chunk, header excluded.
func NewFileHandlerV1(service port.FileService, maxChunkSize int64, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		fileService:  service,
		maxChunkSize: maxChunkSize,
		logger:       logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", h.ListFilesV1)
	router.Put("/{filename}/chunks", h.UploadChunkV1)
	router.Get("/{filename}/status", h.GetStatusV1)
	router.Get("/{filename}", h.DownloadFileV1)
	router.Delete("/{filename}", h.DeleteFileV1)

	return router
}

// V1FileStatusResponse is the status of a filename
type V1FileStatusResponse struct {
	Filename         string  `json:"filename"`
	Status           string  `json:"status"`
	BytesReceived    uint64  `json:"bytes_received"`
	TotalBytes       *uint64 `json:"total_bytes"`
	NextExpectedByte uint64  `json:"next_expected_byte"`
	Reclaimed        bool    `json:"reclaimed,omitempty"`
}

func statusResponse(view domain.FileView) V1FileStatusResponse {
	return V1FileStatusResponse{
		Filename:         view.Filename,
		Status:           string(view.Status),
		BytesReceived:    view.BytesReceived,
		TotalBytes:       view.TotalBytes,
		NextExpectedByte: view.NextExpectedByte,
		Reclaimed:        view.Reclaimed,
	}
}

// requestKey extracts the authenticated owner and the filename path parameter
func (h *HandlerV1) requestKey(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", "", false
	}

	filename := chi.URLParam(r, "filename")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(filename)
		if err != nil {
			http.Error(w, "invalid filename", http.StatusBadRequest)
			return "", "", false
		}
		filename = unescaped
	}
	if filename == "" {
		http.Error(w, "filename is required", http.StatusBadRequest)
		return "", "", false
	}

	return owner, filename, true
}
