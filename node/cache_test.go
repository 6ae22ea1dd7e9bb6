package node

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"jmfinder/chain"
)

type countingSource struct {
	blocks map[string][]byte
	calls  int
}

func (s *countingSource) ChainInfo(context.Context) (*chain.ChainInfo,
	error) {

	return &chain.ChainInfo{Blocks: 10}, nil
}

func (s *countingSource) BlockHash(_ context.Context, height int64) (string,
	error) {

	return "hash", nil
}

func (s *countingSource) RawBlock(_ context.Context, hash string) ([]byte,
	error) {

	s.calls++
	block, ok := s.blocks[hash]
	if !ok {
		return nil, &TransportError{
			Op:  "block " + hash,
			Err: errors.New("not found"),
		}
	}
	return block, nil
}

func TestCachedSource(t *testing.T) {
	inner := &countingSource{blocks: map[string][]byte{
		"a": {1, 2, 3},
		"b": {4, 5},
	}}

	cache, err := OpenCachedSource(inner, "")
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		block, err := cache.RawBlock(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, block)
	}
	require.Equal(t, 1, inner.calls)

	_, err = cache.RawBlock(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
	requireCached(t, cache, 2)

	// Misses are not cached.
	_, err = cache.RawBlock(ctx, "c")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	_, err = cache.RawBlock(ctx, "c")
	require.Error(t, err)
	require.Equal(t, 4, inner.calls)
	requireCached(t, cache, 2)

	info, err := cache.ChainInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(10), info.Blocks)
}

func requireCached(t *testing.T, cache *CachedSource, want int) {
	t.Helper()

	n, err := cache.Len()
	require.NoError(t, err)
	require.Equal(t, want, n)
}

func TestCachedSourceLenClosed(t *testing.T) {
	cache, err := OpenCachedSource(&countingSource{}, "")
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	_, err = cache.Len()
	require.ErrorIs(t, err, badger.ErrDBClosed)
}

func TestCachedSourcePersists(t *testing.T) {
	dir := t.TempDir()
	inner := &countingSource{blocks: map[string][]byte{"a": {9}}}

	cache, err := OpenCachedSource(inner, dir)
	require.NoError(t, err)
	_, err = cache.RawBlock(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, cache.Close())

	cache, err = OpenCachedSource(inner, dir)
	require.NoError(t, err)
	defer cache.Close()

	block, err := cache.RawBlock(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, []byte{9}, block)
	require.Equal(t, 1, inner.calls)
}
