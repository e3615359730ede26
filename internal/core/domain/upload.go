package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// PartialSuffix tags artifacts reclaimed from abandoned uploads
const PartialSuffix = ".partial"

const maxNameLength = 200

// UploadKey identifies an upload session
type UploadKey struct {
	Owner    string
	Filename string
}

// String returns a printable form of the key
func (k UploadKey) String() string {
	return k.Owner + "/" + k.Filename
}

// ChunkRecord represents a chunk that has been durably staged
type ChunkRecord struct {
	StartByte  uint64    `json:"start_byte"`
	EndByte    uint64    `json:"end_byte"`
	Size       uint64    `json:"size"`
	LastUpdate time.Time `json:"last_update"`
}

// Range returns the record byte range
func (c ChunkRecord) Range() ByteRange {
	return ByteRange{Start: c.StartByte, End: c.EndByte}
}

// UploadMetadata represents the durable state of an in-progress upload
type UploadMetadata struct {
	Owner         string                 `json:"owner"`
	Filename      string                 `json:"filename"`
	Chunks        map[string]ChunkRecord `json:"chunks"`
	TotalBytes    *uint64                `json:"total_bytes,omitempty"`
	TotalDeclared bool                   `json:"total_declared"`
	CreatedAt     time.Time              `json:"created_at"`
	LastUpdate    time.Time              `json:"last_update"`
}

// NewUploadMetadata initializes an empty upload record
func NewUploadMetadata(owner, filename string, now time.Time) *UploadMetadata {
	return &UploadMetadata{
		Owner:      owner,
		Filename:   filename,
		Chunks:     make(map[string]ChunkRecord),
		CreatedAt:  now,
		LastUpdate: now,
	}
}

// Key returns the upload key
func (m *UploadMetadata) Key() UploadKey {
	return UploadKey{Owner: m.Owner, Filename: m.Filename}
}

// DeclareTotal fixes the total size announced by the client
func (m *UploadMetadata) DeclareTotal(total uint64) error {
	if total == 0 {
		return fmt.Errorf("%w: total must be positive", ErrTotalMismatch)
	}
	if m.TotalDeclared {
		if *m.TotalBytes != total {
			return fmt.Errorf("%w: already declared %d, got %d", ErrTotalMismatch, *m.TotalBytes, total)
		}
		return nil
	}
	if m.TotalBytes != nil && *m.TotalBytes > total {
		return fmt.Errorf("%w: received data up to %d, declared %d", ErrTotalMismatch, *m.TotalBytes, total)
	}
	m.TotalBytes = &total
	m.TotalDeclared = true
	return nil
}

// AcceptsRange checks a range against a declared total
func (m *UploadMetadata) AcceptsRange(r ByteRange) error {
	if m.TotalDeclared && r.End >= *m.TotalBytes {
		return fmt.Errorf("%w: range %s past declared total %d", ErrInvalidRange, r.Key(), *m.TotalBytes)
	}
	return nil
}

// RecordChunk upserts a chunk record and refreshes the upload totals
func (m *UploadMetadata) RecordChunk(start, end, size uint64, now time.Time) {
	if m.Chunks == nil {
		m.Chunks = make(map[string]ChunkRecord)
	}
	r := ByteRange{Start: start, End: end}
	m.Chunks[r.Key()] = ChunkRecord{
		StartByte:  start,
		EndByte:    end,
		Size:       size,
		LastUpdate: now,
	}
	if !m.TotalDeclared && (m.TotalBytes == nil || end+1 > *m.TotalBytes) {
		total := end + 1
		m.TotalBytes = &total
	}
	m.LastUpdate = now
}

// RemoveChunk drops a chunk record
func (m *UploadMetadata) RemoveChunk(r ByteRange) {
	delete(m.Chunks, r.Key())
}

// SortedChunks returns chunk records ordered by start byte, then end byte
func (m *UploadMetadata) SortedChunks() []ChunkRecord {
	records := make([]ChunkRecord, 0, len(m.Chunks))
	for _, c := range m.Chunks {
		records = append(records, c)
	}
	slices.SortFunc(records, func(a, b ChunkRecord) int {
		switch {
		case a.StartByte < b.StartByte:
			return -1
		case a.StartByte > b.StartByte:
			return 1
		case a.EndByte < b.EndByte:
			return -1
		case a.EndByte > b.EndByte:
			return 1
		}
		return 0
	})
	return records
}

// MergedRanges returns the received ranges coalesced
func (m *UploadMetadata) MergedRanges() []ByteRange {
	ranges := make([]ByteRange, 0, len(m.Chunks))
	for _, c := range m.Chunks {
		ranges = append(ranges, c.Range())
	}
	return MergeRanges(ranges)
}

// IsComplete reports whether every byte of the upload has been received
func (m *UploadMetadata) IsComplete() bool {
	return IsComplete(m.MergedRanges(), m.TotalBytes)
}

// IsStale reports whether the upload has not been touched since cutoff
func (m *UploadMetadata) IsStale(cutoff time.Time) bool {
	return m.LastUpdate.Before(cutoff)
}

// Validate checks the invariants of a loaded record
func (m *UploadMetadata) Validate() error {
	if m.Owner == "" || m.Filename == "" {
		return fmt.Errorf("%w: missing owner or filename", ErrCorruptMetadata)
	}
	for key, c := range m.Chunks {
		if c.EndByte < c.StartByte {
			return fmt.Errorf("%w: chunk %s has end before start", ErrCorruptMetadata, key)
		}
		if c.Size != c.EndByte-c.StartByte+1 {
			return fmt.Errorf("%w: chunk %s size %d", ErrCorruptMetadata, key, c.Size)
		}
		if key != c.Range().Key() {
			return fmt.Errorf("%w: chunk key %s does not match range %s", ErrCorruptMetadata, key, c.Range().Key())
		}
	}
	if m.TotalDeclared && m.TotalBytes == nil {
		return fmt.Errorf("%w: declared total missing", ErrCorruptMetadata)
	}
	return nil
}

// ValidateFilename checks that a client filename can be stored as a flat file
func ValidateFilename(name string) error {
	if err := validateName(name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFilename, err)
	}
	if strings.HasSuffix(name, PartialSuffix) {
		return fmt.Errorf("%w: suffix %s is reserved", ErrInvalidFilename, PartialSuffix)
	}
	return nil
}

// ValidateOwner checks that an owner identity can be used as a namespace
func ValidateOwner(owner string) error {
	if err := validateName(owner); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOwner, err)
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty name")
	case len(name) > maxNameLength:
		return fmt.Errorf("name longer than %d bytes", maxNameLength)
	case name == "." || name == "..":
		return fmt.Errorf("name %q is reserved", name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("name contains a path separator or NUL")
	}
	return nil
}
