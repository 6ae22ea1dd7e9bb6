package chain

import (
	"bytes"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestDecodeBlockPrefix(t *testing.T) {
	block := wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   0x20000000,
			Timestamp: time.Unix(1700000000, 0),
			Bits:      0x1d00ffff,
			Nonce:     42,
		},
	}
	for i := 0; i < 3; i++ {
		block.AddTransaction(newTestTx(t, i, []int64{int64(i)}, nil, 1))
	}

	var buf bytes.Buffer
	require.NoError(t, block.Serialize(&buf))
	raw := buf.Bytes()

	prefix, err := DecodeBlockPrefix(raw)
	require.NoError(t, err)
	require.Equal(t, 3, prefix.TxCount)
	require.Equal(t, HeaderSize+1, prefix.Offset)
	require.Equal(t, block.BlockHash(), prefix.Header.BlockHash())

	offset := prefix.Offset
	for i := 0; i < prefix.TxCount; i++ {
		tx, next, err := DecodeTx(raw, offset)
		require.NoError(t, err)
		require.Equal(t, block.Transactions[i].TxHash(), tx.TxID())
		offset = next
	}
	require.Equal(t, len(raw), offset)
}

func TestDecodeBlockPrefixShort(t *testing.T) {
	_, err := DecodeBlockPrefix(make([]byte, HeaderSize-1))
	require.ErrorIs(t, err, ErrShortBuffer)

	_, err = DecodeBlockPrefix(make([]byte, HeaderSize))
	require.ErrorIs(t, err, ErrMalformedField)

	// A count of 200 transactions behind a bare header.
	_, err = DecodeBlockPrefix(append(make([]byte, HeaderSize), 200))
	require.ErrorIs(t, err, ErrShortBuffer)
}
