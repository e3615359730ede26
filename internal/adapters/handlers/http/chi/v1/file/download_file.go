package file

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"chunk-transfer/internal/core/domain"
)

// HeaderReclaimed marks downloads served from an abandoned upload
const HeaderReclaimed = "X-Upload-Reclaimed"

var errMalformedRange = errors.New("malformed range header")

// DownloadFileV1 streams a file, or the single byte range asked by the Range header
func (h *HandlerV1) DownloadFileV1(w http.ResponseWriter, r *http.Request) {

	owner, filename, ok := h.requestKey(w, r)
	if !ok {
		return
	}

	var rng *domain.RangeRequest
	if header := r.Header.Get("Range"); header != "" {
		parsed, err := parseRange(header)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rng = parsed
	}

	download, err := h.fileService.OpenDownload(r.Context(), owner, filename, rng)
	switch {
	case domain.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrNotDownloadable):
		http.Error(w, "file is not complete and cannot be downloaded", http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrUnsatisfiableRange):
		http.Error(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
		return
	case err != nil:
		h.logger.Error("error opening download", "owner", owner, "filename", filename, "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	case download == nil || download.Stream == nil:
		h.logger.Error("response has nil values", "owner", owner, "filename", filename)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	defer download.Stream.Close()

	name := download.Filename
	if download.Reclaimed {
		name += domain.PartialSuffix
		w.Header().Set(HeaderReclaimed, "true")
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatUint(download.Length, 10))

	if rng != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", download.Start, download.End(), download.Size))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if _, err := download.Stream.WriteTo(w); err != nil {
		h.logger.Error("error streaming file", "owner", owner, "filename", filename, "error", err)
	}
}

// parseRange parses a single "bytes=first-last", "bytes=first-" or
// "bytes=-suffix" range. Multiple ranges are not supported.
func parseRange(header string) (*domain.RangeRequest, error) {
	value, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(value, ",") {
		return nil, errMalformedRange
	}

	first, last, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok {
		return nil, errMalformedRange
	}

	if first == "" {
		suffix, err := strconv.ParseUint(last, 10, 64)
		if err != nil {
			return nil, errMalformedRange
		}
		return &domain.RangeRequest{SuffixLength: &suffix}, nil
	}

	start, err := strconv.ParseUint(first, 10, 64)
	if err != nil {
		return nil, errMalformedRange
	}
	req := &domain.RangeRequest{Start: start}
	if last != "" {
		end, err := strconv.ParseUint(last, 10, 64)
		if err != nil {
			return nil, errMalformedRange
		}
		req.End = &end
	}
	return req, nil
}
