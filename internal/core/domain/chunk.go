package domain

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ChunkHeaderSize is the size of the binary header preceding every chunk payload
const ChunkHeaderSize = 17

// maxEndByte keeps end+1 and every offset representable as a signed file offset
const maxEndByte = math.MaxInt64 - 1

// Chunk is a validated chunk: an inclusive byte range and its payload
type Chunk struct {
	StartByte uint64
	EndByte   uint64
	Payload   []byte
}

// Range returns the chunk byte range
func (c Chunk) Range() ByteRange {
	return ByteRange{Start: c.StartByte, End: c.EndByte}
}

// Checksum computes the arithmetic sum of all bytes modulo 256
func Checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return sum
}

// ParseChunk parses and verifies a header+payload blob.
//
// Header layout: bytes 0-7 start byte, bytes 8-15 end byte (both big-endian
// uint64, inclusive), byte 16 the payload checksum.
func ParseChunk(blob []byte) (Chunk, error) {
	if len(blob) < ChunkHeaderSize {
		return Chunk{}, fmt.Errorf("%w: got %d bytes, need at least %d", ErrMalformedHeader, len(blob), ChunkHeaderSize)
	}

	start := binary.BigEndian.Uint64(blob[0:8])
	end := binary.BigEndian.Uint64(blob[8:16])
	checksum := blob[16]
	payload := blob[ChunkHeaderSize:]

	if end < start {
		return Chunk{}, fmt.Errorf("%w: end %d before start %d", ErrInvalidRange, end, start)
	}
	if end > maxEndByte {
		return Chunk{}, fmt.Errorf("%w: end %d out of bounds", ErrInvalidRange, end)
	}

	if actual := Checksum(payload); actual != checksum {
		return Chunk{}, fmt.Errorf("%w: header %d, payload %d", ErrChecksumMismatch, checksum, actual)
	}

	if uint64(len(payload)) != end-start+1 {
		return Chunk{}, fmt.Errorf("%w: range %d-%d holds %d bytes, payload has %d", ErrLengthMismatch, start, end, end-start+1, len(payload))
	}

	return Chunk{StartByte: start, EndByte: end, Payload: payload}, nil
}

// EncodeChunk builds a header+payload blob for a payload starting at start.
// It panics if the payload is empty, since no inclusive range can describe it.
func EncodeChunk(start uint64, payload []byte) []byte {
	if len(payload) == 0 {
		panic("domain: EncodeChunk called with an empty payload")
	}
	blob := make([]byte, ChunkHeaderSize+len(payload))
	binary.BigEndian.PutUint64(blob[0:8], start)
	binary.BigEndian.PutUint64(blob[8:16], start+uint64(len(payload))-1)
	blob[16] = Checksum(payload)
	copy(blob[ChunkHeaderSize:], payload)
	return blob
}
