package chain

import (
	"fmt"
)

const (
	// outpointSize is the previous tx hash plus the previous output index.
	outpointSize = 32 + 4

	// minTxInSize is an outpoint, a one byte script length and a
	// sequence number.
	minTxInSize = outpointSize + 1 + 4

	// minTxOutSize is a value and a one byte script length.
	minTxOutSize = 8 + 1

	// minTxSize is a version, two empty counts and a locktime.
	minTxSize = 4 + 1 + 1 + 4

	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// Tx is a transaction decoded in place from a block buffer. Script and
// witness slices alias the buffer the transaction was decoded from.
type Tx struct {
	Version   uint32
	Witness   bool
	Inputs    []TxIn
	Outputs   []TxOut
	Witnesses [][][]byte
	LockTime  uint32

	// Offset and Size locate the transaction inside the buffer.
	Offset int
	Size   int

	raw          []byte
	witnessStart int
}

type TxIn struct {
	PrevHash  [32]byte
	PrevIndex uint32
	SigScript []byte
	Sequence  uint32
}

type TxOut struct {
	Value    uint64
	PkScript []byte
}

// Raw returns the exact bytes the transaction was decoded from.
func (tx *Tx) Raw() []byte {
	return tx.raw
}

// Values returns the output values in output order.
func (tx *Tx) Values() []uint64 {
	values := make([]uint64, len(tx.Outputs))
	for i, out := range tx.Outputs {
		values[i] = out.Value
	}
	return values
}

// MalformedTxError wraps any failure to decode the transaction starting at
// Offset.
type MalformedTxError struct {
	Offset int
	Field  string
	Err    error
}

func (e *MalformedTxError) Error() string {
	return fmt.Sprintf("malformed transaction at offset %d: %s: %v",
		e.Offset, e.Field, e.Err)
}

func (e *MalformedTxError) Unwrap() error {
	return e.Err
}

// cursor reads fields sequentially from buf, checking bounds on every read.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) take(n uint64) ([]byte, error) {
	if n > uint64(c.remaining()) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, %d left",
			ErrShortBuffer, n, c.pos, c.remaining())
	}
	b := c.buf[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return b, nil
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return DecodeUint32(b)
}

func (c *cursor) uint64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return DecodeUint64(b)
}

func (c *cursor) varInt() (uint64, error) {
	v, n, err := DecodeVarInt(c.buf[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

// count reads a varint element count and rejects counts that cannot fit in
// the rest of the buffer given the smallest possible element encoding.
func (c *cursor) count(minElemSize int) (int, error) {
	n, err := c.varInt()
	if err != nil {
		return 0, err
	}
	if n > uint64(c.remaining()/minElemSize) {
		return 0, fmt.Errorf("%w: count %d exceeds %d remaining bytes",
			ErrShortBuffer, n, c.remaining())
	}
	return int(n), nil
}

func (c *cursor) varBytes() ([]byte, error) {
	n, err := c.varInt()
	if err != nil {
		return nil, err
	}
	return c.take(n)
}

// DecodeTx decodes the transaction that starts at offset in buf and returns
// it together with the offset of the first byte after it.
func DecodeTx(buf []byte, offset int) (*Tx, int, error) {
	if offset < 0 || offset > len(buf) {
		return nil, offset, &MalformedTxError{
			Offset: offset,
			Field:  "start",
			Err:    ErrShortBuffer,
		}
	}

	c := &cursor{buf: buf, pos: offset}
	fail := func(field string, err error) (*Tx, int, error) {
		return nil, offset, &MalformedTxError{
			Offset: offset,
			Field:  field,
			Err:    err,
		}
	}

	tx := &Tx{Offset: offset}

	var err error
	if tx.Version, err = c.uint32(); err != nil {
		return fail("version", err)
	}

	if c.remaining() >= 2 && buf[c.pos] == witnessMarker &&
		buf[c.pos+1] == witnessFlag {

		tx.Witness = true
		c.pos += 2
	}

	numIn, err := c.count(minTxInSize)
	if err != nil {
		return fail("input count", err)
	}
	tx.Inputs = make([]TxIn, numIn)
	for i := range tx.Inputs {
		in := &tx.Inputs[i]

		hash, err := c.take(32)
		if err != nil {
			return fail(fmt.Sprintf("input %d prev hash", i), err)
		}
		copy(in.PrevHash[:], hash)

		if in.PrevIndex, err = c.uint32(); err != nil {
			return fail(fmt.Sprintf("input %d prev index", i), err)
		}
		if in.SigScript, err = c.varBytes(); err != nil {
			return fail(fmt.Sprintf("input %d script", i), err)
		}
		if in.Sequence, err = c.uint32(); err != nil {
			return fail(fmt.Sprintf("input %d sequence", i), err)
		}
	}

	numOut, err := c.count(minTxOutSize)
	if err != nil {
		return fail("output count", err)
	}
	tx.Outputs = make([]TxOut, numOut)
	for i := range tx.Outputs {
		out := &tx.Outputs[i]

		if out.Value, err = c.uint64(); err != nil {
			return fail(fmt.Sprintf("output %d value", i), err)
		}
		if out.PkScript, err = c.varBytes(); err != nil {
			return fail(fmt.Sprintf("output %d script", i), err)
		}
	}

	if tx.Witness {
		tx.witnessStart = c.pos
		tx.Witnesses = make([][][]byte, numIn)
		for i := range tx.Witnesses {
			numItems, err := c.count(1)
			if err != nil {
				return fail(fmt.Sprintf("witness %d count", i), err)
			}
			stack := make([][]byte, numItems)
			for j := range stack {
				if stack[j], err = c.varBytes(); err != nil {
					return fail(fmt.Sprintf("witness %d item %d",
						i, j), err)
				}
			}
			tx.Witnesses[i] = stack
		}
	}

	if tx.LockTime, err = c.uint32(); err != nil {
		return fail("locktime", err)
	}

	tx.Size = c.pos - offset
	tx.raw = buf[offset:c.pos]

	return tx, c.pos, nil
}
