package domain

import (
	"fmt"
	"slices"
)

// ByteRange is an inclusive byte range
type ByteRange struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Len returns the number of bytes covered by the range
func (r ByteRange) Len() uint64 {
	return r.End - r.Start + 1
}

// Key returns the stable "start-end" key used to index chunk records
func (r ByteRange) Key() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// MergeRanges coalesces ranges into a sorted list of disjoint ranges.
// Ranges that overlap or touch (next.Start <= prev.End+1) are merged, so
// the output depends only on the multiset of inputs, never on their order.
func MergeRanges(ranges []ByteRange) []ByteRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b ByteRange) int {
		if a.Start != b.Start {
			if a.Start < b.Start {
				return -1
			}
			return 1
		}
		if a.End < b.End {
			return -1
		}
		if a.End > b.End {
			return 1
		}
		return 0
	})

	merged := []ByteRange{sorted[0]}
	for _, current := range sorted[1:] {
		last := &merged[len(merged)-1]
		if current.Start > last.End+1 {
			merged = append(merged, current)
			continue
		}
		if current.End > last.End {
			last.End = current.End
		}
	}
	return merged
}

// BytesReceived sums the lengths of merged ranges
func BytesReceived(merged []ByteRange) uint64 {
	var total uint64
	for _, r := range merged {
		total += r.Len()
	}
	return total
}

// NextExpectedByte returns the first byte missing from the start of the file.
// That is the start of the first gap, or one past the last merged range when
// the coverage from zero is contiguous, or 0 when nothing was received.
func NextExpectedByte(merged []ByteRange) uint64 {
	if len(merged) == 0 || merged[0].Start > 0 {
		return 0
	}
	return merged[0].End + 1
}

// IsComplete reports whether merged covers exactly [0, total-1] as a single range
func IsComplete(merged []ByteRange, total *uint64) bool {
	if total == nil || *total == 0 {
		return false
	}
	if len(merged) != 1 {
		return false
	}
	return merged[0].Start == 0 && merged[0].End == *total-1 && BytesReceived(merged) == *total
}
