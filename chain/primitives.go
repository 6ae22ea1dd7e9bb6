package chain

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrMalformedField is returned when a fixed or variable width field
	// is handed the wrong number of bytes.
	ErrMalformedField = errors.New("malformed field")

	// ErrShortBuffer is returned when a field extends past the end of the
	// block buffer.
	ErrShortBuffer = errors.New("read past end of buffer")
)

// DecodeUint32 decodes exactly 4 little-endian bytes.
func DecodeUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: uint32 needs 4 bytes, got %d",
			ErrMalformedField, len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DecodeUint64 decodes exactly 8 little-endian bytes.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: uint64 needs 8 bytes, got %d",
			ErrMalformedField, len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}

// DecodeVarInt decodes a compact size integer from the start of b and returns
// the value together with the number of bytes it occupied (1, 3, 5 or 9).
func DecodeVarInt(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("%w: empty varint", ErrMalformedField)
	}

	var width int
	switch b[0] {
	case 0xfd:
		width = 2
	case 0xfe:
		width = 4
	case 0xff:
		width = 8
	default:
		return uint64(b[0]), 1, nil
	}

	if len(b) < 1+width {
		return 0, 0, fmt.Errorf("%w: varint selector %#x needs %d "+
			"bytes, got %d", ErrMalformedField, b[0], width, len(b)-1)
	}

	payload := b[1 : 1+width]
	switch width {
	case 2:
		return uint64(binary.LittleEndian.Uint16(payload)), 3, nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(payload)), 5, nil
	default:
		return binary.LittleEndian.Uint64(payload), 9, nil
	}
}
