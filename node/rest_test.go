package node

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

func newMockedREST(t *testing.T) *RESTClient {
	t.Helper()

	c := NewRESTClient("localhost", 8332, 0)
	httpmock.ActivateNonDefault(c.client)
	t.Cleanup(httpmock.DeactivateAndReset)

	return c
}

func TestRESTChainInfo(t *testing.T) {
	c := newMockedREST(t)
	require.Equal(t, "http://localhost:8332/rest", c.URL())

	httpmock.RegisterResponder(
		"GET", "http://localhost:8332/rest/chaininfo.json",
		httpmock.NewStringResponder(200, `{"chain":"main",`+
			`"blocks":850000,"pruned":true,"pruneheight":700000}`),
	)

	info, err := c.ChainInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, "main", info.Chain)
	require.Equal(t, int64(850000), info.Blocks)
	require.True(t, info.Pruned)
	require.Equal(t, int64(700000), info.PruneHeight)
}

func TestRESTBlockHash(t *testing.T) {
	c := newMockedREST(t)

	httpmock.RegisterResponder(
		"GET", "http://localhost:8332/rest/blockhashbyheight/700000.json",
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, userAgent, req.Header.Get("User-Agent"))
			return httpmock.NewStringResponse(200,
				`{"blockhash":"0000abcd"}`), nil
		},
	)

	hash, err := c.BlockHash(context.Background(), 700000)
	require.NoError(t, err)
	require.Equal(t, "0000abcd", hash)
}

func TestRESTRawBlock(t *testing.T) {
	c := newMockedREST(t)

	raw := []byte{0x01, 0x00, 0xff}
	httpmock.RegisterResponder(
		"GET", "http://localhost:8332/rest/block/0000abcd.bin",
		httpmock.NewBytesResponder(200, raw),
	)

	block, err := c.RawBlock(context.Background(), "0000abcd")
	require.NoError(t, err)
	require.Equal(t, raw, block)
}

func TestRESTFailures(t *testing.T) {
	c := newMockedREST(t)

	httpmock.RegisterResponder(
		"GET", "http://localhost:8332/rest/block/missing.bin",
		httpmock.NewStringResponder(404, "Block not found"),
	)
	httpmock.RegisterResponder(
		"GET", "http://localhost:8332/rest/blockhashbyheight/1.json",
		httpmock.NewStringResponder(200, `not json`),
	)
	httpmock.RegisterResponder(
		"GET", "http://localhost:8332/rest/chaininfo.json",
		httpmock.NewErrorResponder(errors.New("connection refused")),
	)

	var transportErr *TransportError

	_, err := c.RawBlock(context.Background(), "missing")
	require.ErrorAs(t, err, &transportErr)
	require.Contains(t, err.Error(), "404")

	_, err = c.BlockHash(context.Background(), 1)
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, "blockhashbyheight 1", transportErr.Op)

	_, err = c.ChainInfo(context.Background())
	require.ErrorAs(t, err, &transportErr)
	require.Contains(t, err.Error(), "connection refused")
}
