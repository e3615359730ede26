package config

import (
	"fmt"

	"github.com/docker/go-units"
)

// ByteSize is a size in bytes read from a human readable value ("1MiB", "64MB", "4096")
type ByteSize int64

// Decode implements envconfig.Decoder
func (b *ByteSize) Decode(value string) error {
	size, err := units.RAMInBytes(value)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", value, err)
	}
	*b = ByteSize(size)
	return nil
}

// Int returns the size as an int
func (b ByteSize) Int() int {
	return int(b)
}

// Int64 returns the size as an int64
func (b ByteSize) Int64() int64 {
	return int64(b)
}

func (b ByteSize) String() string {
	return units.BytesSize(float64(b))
}
