package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"jmfinder/chain"
)

// blockKeyPrefix namespaces raw blocks in the cache.
var blockKeyPrefix = []byte("block/")

// CachedSource keeps raw blocks fetched from an inner Source in a badger
// database keyed by block hash, so rescanning a range does not download it
// again. Chain info and height lookups always go to the inner source since
// the best chain can change between runs.
type CachedSource struct {
	inner Source
	db    *badger.DB
}

// OpenCachedSource opens (or creates) the cache in dir. An empty dir keeps
// the cache in memory.
func OpenCachedSource(inner Source, dir string) (*CachedSource, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open block cache: %w", err)
	}

	return &CachedSource{inner: inner, db: db}, nil
}

func blockKey(hash string) []byte {
	return append(append([]byte{}, blockKeyPrefix...), hash...)
}

func (s *CachedSource) ChainInfo(ctx context.Context) (*chain.ChainInfo,
	error) {

	return s.inner.ChainInfo(ctx)
}

func (s *CachedSource) BlockHash(ctx context.Context, height int64) (string,
	error) {

	return s.inner.BlockHash(ctx, height)
}

func (s *CachedSource) RawBlock(ctx context.Context, hash string) ([]byte,
	error) {

	block, err := s.get(hash)
	switch {
	case err == nil:
		log.TraceS(ctx, "Block cache hit", slog.String("hash", hash))
		return block, nil

	case !errors.Is(err, badger.ErrKeyNotFound):
		log.ErrorS(ctx, "Block cache read failed", err,
			slog.String("hash", hash))
	}

	block, err = s.inner.RawBlock(ctx, hash)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(hash), block)
	})
	if err != nil {
		log.ErrorS(ctx, "Block cache write failed", err,
			slog.String("hash", hash))
	}

	return block, nil
}

func (s *CachedSource) get(hash string) ([]byte, error) {
	var block []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockKey(hash))
		if err != nil {
			return err
		}
		block, err = item.ValueCopy(nil)
		return err
	})
	return block, err
}

// Len returns the number of cached blocks.
func (s *CachedSource) Len() (int, error) {
	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = blockKeyPrefix

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count cached blocks: %w", err)
	}
	return n, nil
}

func (s *CachedSource) Close() error {
	return s.db.Close()
}
