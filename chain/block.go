package chain

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// HeaderSize is the serialized size of a block header.
const HeaderSize = wire.MaxBlockHeaderPayload

// ChainInfo is the subset of the node's chain state needed to plan a scan.
type ChainInfo struct {
	Chain       string `json:"chain"`
	Blocks      int64  `json:"blocks"`
	BestHash    string `json:"bestblockhash"`
	Pruned      bool   `json:"pruned"`
	PruneHeight int64  `json:"pruneheight,omitempty"`
}

// BlockPrefix is the header and transaction count of a raw block, plus the
// offset of the first transaction.
type BlockPrefix struct {
	Header  wire.BlockHeader
	TxCount int
	Offset  int
}

// DecodeBlockPrefix decodes the fixed header and the transaction count that
// precede the transactions of a raw block.
func DecodeBlockPrefix(buf []byte) (*BlockPrefix, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: block of %d bytes has no header",
			ErrShortBuffer, len(buf))
	}

	var prefix BlockPrefix
	err := prefix.Header.Deserialize(bytes.NewReader(buf[:HeaderSize]))
	if err != nil {
		return nil, fmt.Errorf("block header: %w", err)
	}

	c := &cursor{buf: buf, pos: HeaderSize}
	n, err := c.count(minTxSize)
	if err != nil {
		return nil, fmt.Errorf("transaction count: %w", err)
	}
	prefix.TxCount = n
	prefix.Offset = c.pos

	return &prefix, nil
}
