// Package node fetches chain state and raw blocks from a Bitcoin node.
package node

import (
	"context"
	"fmt"

	"jmfinder/chain"
)

// Source is what a scan needs from a node.
type Source interface {
	// ChainInfo returns the current tip height and pruning state.
	ChainInfo(ctx context.Context) (*chain.ChainInfo, error)

	// BlockHash returns the hex hash of the main chain block at height.
	BlockHash(ctx context.Context, height int64) (string, error)

	// RawBlock returns the serialized block with the given hex hash.
	RawBlock(ctx context.Context, hash string) ([]byte, error)
}

// TransportError is returned for any failure to talk to the node, including
// timeouts and malformed responses.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
