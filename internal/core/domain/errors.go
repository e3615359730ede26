package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedHeader is an error thrown when a chunk is too short to hold its header
var ErrMalformedHeader = errors.New("malformed chunk header")

// ErrInvalidRange is an error thrown when a chunk byte range is invalid
var ErrInvalidRange = errors.New("invalid byte range")

// ErrChecksumMismatch is an error thrown when the chunk checksum does not match its payload
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrLengthMismatch is an error thrown when the payload length differs from the declared range
var ErrLengthMismatch = errors.New("payload length does not match byte range")

// ErrTotalMismatch is an error thrown when a declared total size conflicts with the upload
var ErrTotalMismatch = errors.New("declared total size mismatch")

// ErrInvalidFilename is an error thrown when a filename is not storable
var ErrInvalidFilename = errors.New("invalid filename")

// ErrInvalidOwner is an error thrown when an owner identity is not storable
var ErrInvalidOwner = errors.New("invalid owner")

// ErrAlreadyExists is an error thrown when an upload targets a filename that already has an artifact
var ErrAlreadyExists = errors.New("already exists")

// ErrUploadNotFound is an error thrown when no upload metadata exists
var ErrUploadNotFound = errors.New("upload not found")

// ErrCorruptMetadata is an error thrown when a stored metadata record cannot be decoded
var ErrCorruptMetadata = errors.New("corrupt upload metadata")

// ErrChunkMissing is an error thrown when a staged chunk is not found
var ErrChunkMissing = errors.New("chunk missing")

// ErrAssemblyIncomplete is an error thrown when an assembly cannot read every referenced chunk
var ErrAssemblyIncomplete = errors.New("assembly incomplete")

// ErrArtifactNotFound is an error thrown when an artifact does not exist
var ErrArtifactNotFound = errors.New("artifact not found")

// ErrNotDownloadable is an error thrown when a file is pending or still uploading
var ErrNotDownloadable = errors.New("file not downloadable")

// ErrUnsatisfiableRange is an error thrown when a requested byte range cannot be served
var ErrUnsatisfiableRange = errors.New("unsatisfiable range")

// IsValidationError reports whether err rejects a chunk without touching stored state
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMalformedHeader) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrChecksumMismatch) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrTotalMismatch) ||
		errors.Is(err, ErrInvalidFilename) ||
		errors.Is(err, ErrInvalidOwner)
}

// MissingChunksError is returned when staged chunks referenced by an upload are gone
type MissingChunksError struct {
	Ranges []ByteRange
}

func (e *MissingChunksError) Error() string {
	keys := make([]string, 0, len(e.Ranges))
	for _, r := range e.Ranges {
		keys = append(keys, r.Key())
	}
	return fmt.Sprintf("%s: missing chunks %s", ErrAssemblyIncomplete, strings.Join(keys, ", "))
}

func (e *MissingChunksError) Unwrap() error {
	return ErrAssemblyIncomplete
}
