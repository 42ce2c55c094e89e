package dag

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrInvalidDevice reports I/O against an unrecognized device kind.
// This is a contract violation, not a filesystem-state failure: the three
// known kinds are created by the engine, so an unknown kind can only come
// from malformed persisted state or a caller bypassing the constructors.
var ErrInvalidDevice = errors.New("invalid device kind")

// DeviceKind names a virtual character device. It is an open string enum
// so that deserialized state can carry an unrecognized kind; the error
// surfaces at read/write time, per the device contract.
type DeviceKind string

const (
	DeviceNull   DeviceKind = "null"
	DeviceZero   DeviceKind = "zero"
	DeviceRandom DeviceKind = "random"
)

// DefaultReadSize is the byte count used when a device is read without
// an explicit size.
const DefaultReadSize = 1024

// Valid reports whether k is one of the known device kinds.
func (k DeviceKind) Valid() bool {
	switch k {
	case DeviceNull, DeviceZero, DeviceRandom:
		return true
	default:
		return false
	}
}

// Read returns n bytes from the device.
//
//   - null: always empty, regardless of n
//   - zero: n zero bytes
//   - random: n bytes from a non-deterministic source
//
// n <= 0 falls back to DefaultReadSize. An unrecognized kind returns
// ErrInvalidDevice.
func (k DeviceKind) Read(n int) ([]byte, error) {
	if n <= 0 {
		n = DefaultReadSize
	}

	switch k {
	case DeviceNull:
		return []byte{}, nil
	case DeviceZero:
		return make([]byte, n), nil
	case DeviceRandom:
		buf := make([]byte, n)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("random device: %w", err)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDevice, string(k))
	}
}

// Write absorbs p and reports how many bytes the device accepted:
// the full count for null (a black hole), zero for zero and random.
// An unrecognized kind returns ErrInvalidDevice.
func (k DeviceKind) Write(p []byte) (int, error) {
	switch k {
	case DeviceNull:
		return len(p), nil
	case DeviceZero, DeviceRandom:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDevice, string(k))
	}
}
