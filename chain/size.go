package chain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// WitnessScaleFactor is the weight of one non-witness byte.
const WitnessScaleFactor = 4

// txIDPayload returns the legacy serialization of the transaction: the raw
// bytes with the marker, flag and witness stacks removed.
func (tx *Tx) txIDPayload() []byte {
	if !tx.Witness {
		return tx.raw
	}

	start := tx.witnessStart - tx.Offset
	payload := make([]byte, 0, tx.StrippedSize())
	payload = append(payload, tx.raw[:4]...)
	payload = append(payload, tx.raw[6:start]...)
	payload = append(payload, tx.raw[tx.Size-4:]...)

	return payload
}

// TxID is the double SHA-256 of the transaction without witness data. Its
// String form is the byte reversed hex used by block explorers and nodes.
func (tx *Tx) TxID() chainhash.Hash {
	return chainhash.DoubleHashH(tx.txIDPayload())
}

// WTxID is the double SHA-256 of the full serialization. It equals TxID for
// transactions without witness data.
func (tx *Tx) WTxID() chainhash.Hash {
	return chainhash.DoubleHashH(tx.raw)
}

// WitnessSize is the number of bytes spent on witness stacks, excluding the
// marker and flag.
func (tx *Tx) WitnessSize() int {
	if !tx.Witness {
		return 0
	}
	return tx.Size - (tx.witnessStart - tx.Offset) - 4
}

// StrippedSize is the size of the legacy serialization.
func (tx *Tx) StrippedSize() int {
	if !tx.Witness {
		return tx.Size
	}
	return tx.Size - 2 - tx.WitnessSize()
}

func (tx *Tx) Weight() int {
	return tx.StrippedSize()*(WitnessScaleFactor-1) + tx.Size
}

// VirtualSize is the weight divided by four, rounded up.
func (tx *Tx) VirtualSize() int {
	if !tx.Witness {
		return tx.Size
	}
	return (tx.Weight() + WitnessScaleFactor - 1) / WitnessScaleFactor
}
