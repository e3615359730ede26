package domain

import (
	"errors"
	"fmt"
	"io"
)

// DefaultBlockSize is the streaming block size used when none is configured
const DefaultBlockSize = 1 << 20

// RangeRequest is a requested byte range. End is inclusive and optional.
// A SuffixLength selects the last N bytes of the file instead.
type RangeRequest struct {
	Start        uint64
	End          *uint64
	SuffixLength *uint64
}

// ResolveRange clamps a request against a file size and returns the first
// byte to serve and the number of bytes. A nil request selects the whole file.
func ResolveRange(size uint64, req *RangeRequest) (uint64, uint64, error) {
	if req == nil {
		return 0, size, nil
	}

	if req.SuffixLength != nil {
		n := *req.SuffixLength
		if n == 0 || size == 0 {
			return 0, 0, fmt.Errorf("%w: suffix %d of %d bytes", ErrUnsatisfiableRange, n, size)
		}
		if n > size {
			n = size
		}
		return size - n, n, nil
	}

	if req.Start >= size {
		return 0, 0, fmt.Errorf("%w: start %d, size %d", ErrUnsatisfiableRange, req.Start, size)
	}
	end := size - 1
	if req.End != nil && *req.End < end {
		end = *req.End
	}
	if req.Start > end {
		return 0, 0, fmt.Errorf("%w: start %d after end %d", ErrUnsatisfiableRange, req.Start, end)
	}
	return req.Start, end - req.Start + 1, nil
}

// RangeStream lazily reads a byte range in fixed-size blocks. It is single
// pass and never reads past the end of the range.
type RangeStream struct {
	src       io.ReaderAt
	closer    io.Closer
	offset    uint64
	remaining uint64
	buf       []byte
}

// NewRangeStream creates a stream over [start, start+length) of src.
// The closer, if any, is released by Close.
func NewRangeStream(src io.ReaderAt, closer io.Closer, start, length uint64, blockSize int) *RangeStream {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if uint64(blockSize) > length && length > 0 {
		blockSize = int(length)
	}
	return &RangeStream{
		src:       src,
		closer:    closer,
		offset:    start,
		remaining: length,
		buf:       make([]byte, blockSize),
	}
}

// Next returns the next block, or io.EOF once the range is exhausted.
// The returned slice is only valid until the next call.
func (s *RangeStream) Next() ([]byte, error) {
	if s.remaining == 0 {
		return nil, io.EOF
	}

	n := uint64(len(s.buf))
	if s.remaining < n {
		n = s.remaining
	}

	read, err := s.src.ReadAt(s.buf[:n], int64(s.offset))
	if uint64(read) < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read at %d: %w", s.offset, err)
	}

	s.offset += n
	s.remaining -= n
	return s.buf[:n], nil
}

// WriteTo copies the remaining range into w
func (s *RangeStream) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for {
		block, err := s.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		n, err := w.Write(block)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
}

// Close releases the underlying artifact
func (s *RangeStream) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// Download is an open byte range over an artifact
type Download struct {
	Filename  string
	Size      uint64
	Start     uint64
	Length    uint64
	Reclaimed bool
	Stream    *RangeStream
}

// End returns the inclusive last byte of the download
func (d *Download) End() uint64 {
	if d.Length == 0 {
		return d.Start
	}
	return d.Start + d.Length - 1
}
