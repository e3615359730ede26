package domain

import "time"

// FileStatus represents the externally visible state of a filename
type FileStatus string

const (
	FileStatusPending  FileStatus = "pending"
	FileStatusPartial  FileStatus = "partial"
	FileStatusComplete FileStatus = "complete"
)

// ArtifactKind distinguishes assembled files from reclaimed partial files
type ArtifactKind string

const (
	ArtifactKindComplete  ArtifactKind = "complete"
	ArtifactKindReclaimed ArtifactKind = "reclaimed"
)

// ArtifactInfo describes a stored artifact
type ArtifactInfo struct {
	Owner       string
	Filename    string
	Kind        ArtifactKind
	Size        uint64
	Ranges      []ByteRange
	TotalBytes  *uint64
	ModifiedAt  time.Time
	ReclaimedAt *time.Time
}

// ReclaimManifest is stored next to a reclaimed artifact to keep its coverage
type ReclaimManifest struct {
	Filename    string      `json:"filename"`
	Ranges      []ByteRange `json:"ranges"`
	TotalBytes  *uint64     `json:"total_bytes,omitempty"`
	ReclaimedAt time.Time   `json:"reclaimed_at"`
}

// UploadStatus is the result of a chunk admission
type UploadStatus struct {
	Filename         string
	Status           FileStatus
	BytesReceived    uint64
	TotalBytes       *uint64
	NextExpectedByte uint64
}

// FileView is the status of a filename, computed fresh from stored state
type FileView struct {
	Filename         string
	Status           FileStatus
	BytesReceived    uint64
	TotalBytes       *uint64
	NextExpectedByte uint64
	Reclaimed        bool
}

// PendingView returns the view of a filename with no stored state
func PendingView(filename string) FileView {
	return FileView{Filename: filename, Status: FileStatusPending}
}

// ViewFromMetadata returns the view of an in-progress upload
func ViewFromMetadata(meta *UploadMetadata) FileView {
	merged := meta.MergedRanges()
	return FileView{
		Filename:         meta.Filename,
		Status:           FileStatusPartial,
		BytesReceived:    BytesReceived(merged),
		TotalBytes:       meta.TotalBytes,
		NextExpectedByte: NextExpectedByte(merged),
	}
}

// ViewFromArtifact returns the view of a stored artifact
func ViewFromArtifact(info ArtifactInfo) FileView {
	if info.Kind == ArtifactKindReclaimed {
		return FileView{
			Filename:         info.Filename,
			Status:           FileStatusPartial,
			BytesReceived:    BytesReceived(info.Ranges),
			TotalBytes:       info.TotalBytes,
			NextExpectedByte: NextExpectedByte(info.Ranges),
			Reclaimed:        true,
		}
	}
	size := info.Size
	return FileView{
		Filename:         info.Filename,
		Status:           FileStatusComplete,
		BytesReceived:    size,
		TotalBytes:       &size,
		NextExpectedByte: size,
	}
}
