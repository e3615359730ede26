package file

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"chunk-transfer/internal/core/domain"
)

// multipartOverhead leaves room for boundaries and part headers around the chunk
const multipartOverhead = 64 << 10

var errMissingFilePart = errors.New("multipart form has no file field")

// UploadChunkV1 accepts one header+payload chunk, either as the raw request
// body or as the multipart form field "file"
func (h *HandlerV1) UploadChunkV1(w http.ResponseWriter, r *http.Request) {

	owner, filename, ok := h.requestKey(w, r)
	if !ok {
		return
	}

	var declaredTotal *uint64
	if v := r.Header.Get(HeaderTotalBytes); v != "" {
		total, err := strconv.ParseUint(v, 10, 64)
		if err != nil || total == 0 {
			http.Error(w, "invalid "+HeaderTotalBytes+" header", http.StatusBadRequest)
			return
		}
		declaredTotal = &total
	}

	blob, readErr := h.readChunk(w, r)
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(readErr, &maxBytesErr):
		http.Error(w, "chunk too large", http.StatusRequestEntityTooLarge)
		return
	case errors.Is(readErr, errMissingFilePart):
		http.Error(w, readErr.Error(), http.StatusBadRequest)
		return
	case readErr != nil:
		h.logger.Error("error reading chunk", "owner", owner, "filename", filename, "error", readErr)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	status, err := h.fileService.PutChunk(r.Context(), owner, filename, blob, declaredTotal)
	switch {
	case domain.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, "file already exists", http.StatusConflict)
		return
	case errors.Is(err, domain.ErrAssemblyIncomplete):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("error storing chunk", "owner", owner, "filename", filename, "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	case status == nil:
		h.logger.Error("response has nil values", "owner", owner, "filename", filename)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	default:
		resp := V1FileStatusResponse{
			Filename:         status.Filename,
			Status:           string(status.Status),
			BytesReceived:    status.BytesReceived,
			TotalBytes:       status.TotalBytes,
			NextExpectedByte: status.NextExpectedByte,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}

func (h *HandlerV1) readChunk(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := h.maxChunkSize + domain.ChunkHeaderSize

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		return io.ReadAll(r.Body)
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errMissingFilePart
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != "file" {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(part, limit+1))
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > limit {
			return nil, &http.MaxBytesError{Limit: limit}
		}
		return data, nil
	}
}
