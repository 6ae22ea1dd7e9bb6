package node

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"jmfinder/chain"
)

type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int32         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type RPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	ID     int32           `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// BTCDaemon is a Bitcoin Core JSON-RPC client. It is an alternative to
// RESTClient for nodes that do not expose the REST server.
type BTCDaemon struct {
	url     string
	auth    string
	idCount int32
	client  *http.Client
}

func NewBTCDaemon(url, user, pass string, timeout time.Duration) *BTCDaemon {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BTCDaemon{
		url:    url,
		auth:   "Basic " + basicAuth(user, pass),
		client: &http.Client{Timeout: timeout},
	}
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString(
		[]byte(username + ":" + password),
	)
}

// Call invokes method and decodes its result into result.
func (d *BTCDaemon) Call(ctx context.Context, method string,
	params []interface{}, result interface{}) error {

	id := atomic.AddInt32(&d.idCount, 1)
	payload, err := json.Marshal(RPCRequest{
		JSONRPC: "1.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, d.url, bytes.NewReader(payload),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", d.auth)
	req.Header.Set("User-Agent", userAgent)

	log.TraceS(ctx, "RPC request", slog.String("method", method),
		slog.Int("id", int(id)))

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Bitcoin Core reports RPC errors with a non 200 status and a JSON
	// body, so try to decode before looking at the status.
	var rpcResp RPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP error %d: %s", resp.StatusCode,
				bytes.TrimSpace(body))
		}
		return fmt.Errorf("%s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error %d", resp.StatusCode)
	}

	return json.Unmarshal(rpcResp.Result, result)
}

func (d *BTCDaemon) ChainInfo(ctx context.Context) (*chain.ChainInfo, error) {
	var info chain.ChainInfo
	err := d.Call(ctx, "getblockchaininfo", nil, &info)
	if err != nil {
		return nil, &TransportError{Op: "getblockchaininfo", Err: err}
	}
	return &info, nil
}

func (d *BTCDaemon) BlockHash(ctx context.Context, height int64) (string,
	error) {

	var hash string
	err := d.Call(ctx, "getblockhash", []interface{}{height}, &hash)
	if err != nil {
		return "", &TransportError{
			Op:  fmt.Sprintf("getblockhash %d", height),
			Err: err,
		}
	}
	return hash, nil
}

// RawBlock fetches the block with verbosity 0, which returns the serialized
// block as hex.
func (d *BTCDaemon) RawBlock(ctx context.Context, hash string) ([]byte,
	error) {

	var blockHex string
	err := d.Call(ctx, "getblock", []interface{}{hash, 0}, &blockHex)
	if err != nil {
		return nil, &TransportError{Op: "getblock " + hash, Err: err}
	}

	block, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, &TransportError{Op: "getblock " + hash, Err: err}
	}
	return block, nil
}
