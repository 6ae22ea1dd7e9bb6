package scan

import (
	"errors"
	"fmt"
)

// ErrTrailingBytes is returned when bytes remain after the last declared
// transaction of a block.
var ErrTrailingBytes = errors.New("trailing bytes after last transaction")

// IncompleteBlockError is returned when fewer transactions could be decoded
// from a block than its header declares.
type IncompleteBlockError struct {
	Height   int64
	Hash     string
	Declared int
	Decoded  int
	Err      error
}

func (e *IncompleteBlockError) Error() string {
	return fmt.Sprintf("block %s at height %d: decoded %d of %d "+
		"transactions: %v", e.Hash, e.Height, e.Decoded, e.Declared, e.Err)
}

func (e *IncompleteBlockError) Unwrap() error {
	return e.Err
}

// RangeError is returned when the requested heights cannot be scanned from
// the node.
type RangeError struct {
	Start  int64
	End    int64
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("cannot scan blocks %d to %d: %s", e.Start, e.End,
		e.Reason)
}
