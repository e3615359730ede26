package domain_test

import (
	"encoding/binary"
	"testing"

	"chunk-transfer/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(start, end uint64, checksum byte) []byte {
	h := make([]byte, domain.ChunkHeaderSize)
	binary.BigEndian.PutUint64(h[0:8], start)
	binary.BigEndian.PutUint64(h[8:16], end)
	h[16] = checksum
	return h
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0), domain.Checksum(nil))
	assert.Equal(t, byte((0x61+0x62+0x63)%256), domain.Checksum([]byte("abc")))
	assert.Equal(t, byte(44), domain.Checksum([]byte{200, 100}))
}

func TestParseChunk_Valid(t *testing.T) {
	// Arrange
	payload := []byte("The quick brown fox jumps over the lazy dog")
	blob := domain.EncodeChunk(100, payload)

	// Act
	chunk, err := domain.ParseChunk(blob)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint64(100), chunk.StartByte)
	assert.Equal(t, uint64(100+len(payload)-1), chunk.EndByte)
	assert.Equal(t, payload, chunk.Payload)
	assert.Equal(t, domain.ByteRange{Start: 100, End: uint64(100 + len(payload) - 1)}, chunk.Range())
}

func TestParseChunk_Errors(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
		want error
	}{
		{"empty", nil, domain.ErrMalformedHeader},
		{"short header", make([]byte, 16), domain.ErrMalformedHeader},
		{"header only", header(0, 0, 0), domain.ErrLengthMismatch},
		{"end before start", append(header(5, 4, 'a'), 'a'), domain.ErrInvalidRange},
		{"end out of bounds", append(header(0, 1<<63, 'a'), 'a'), domain.ErrInvalidRange},
		{"bad checksum", append(header(0, 2, 0), "abc"...), domain.ErrChecksumMismatch},
		{"payload too long", append(header(0, 1, domain.Checksum([]byte("abc"))), "abc"...), domain.ErrLengthMismatch},
		{"payload too short", append(header(0, 5, domain.Checksum([]byte("abc"))), "abc"...), domain.ErrLengthMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseChunk(tt.blob)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, domain.IsValidationError(err))
		})
	}
}

func TestParseChunk_SingleByteMutationIsRejected(t *testing.T) {
	payload := []byte("0123456789abcdef")
	for i := range payload {
		blob := domain.EncodeChunk(0, payload)
		blob[domain.ChunkHeaderSize+i]++

		_, err := domain.ParseChunk(blob)

		assert.ErrorIs(t, err, domain.ErrChecksumMismatch, "mutation at %d", i)
	}
}

func TestEncodeChunk_EmptyPayload(t *testing.T) {
	assert.Panics(t, func() { domain.EncodeChunk(10, nil) })
	assert.Panics(t, func() { domain.EncodeChunk(0, []byte{}) })
}
