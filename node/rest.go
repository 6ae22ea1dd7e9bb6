package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"jmfinder/chain"
)

// DefaultTimeout bounds every request made to the node.
const DefaultTimeout = 3 * time.Second

const userAgent = "jmfinder"

// RESTClient talks to the REST interface of Bitcoin Core, enabled with
// -rest or rest=1. It needs neither txindex nor an unpruned node.
type RESTClient struct {
	url    string
	client *http.Client
}

// NewRESTClient returns a client for the REST server at host:port.
func NewRESTClient(host string, port int, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RESTClient{
		url:    fmt.Sprintf("http://%s:%d/rest", host, port),
		client: &http.Client{Timeout: timeout},
	}
}

// URL is the base URL requests are sent to.
func (c *RESTClient) URL() string {
	return c.url
}

func (c *RESTClient) get(ctx context.Context, path string) ([]byte, error) {
	url := c.url + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	log.TraceS(ctx, "REST request", slog.String("url", url))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("bad status code %d for %s: %s",
			resp.StatusCode, url, body)
	}

	return io.ReadAll(resp.Body)
}

func (c *RESTClient) ChainInfo(ctx context.Context) (*chain.ChainInfo, error) {
	body, err := c.get(ctx, "/chaininfo.json")
	if err != nil {
		return nil, &TransportError{Op: "chaininfo", Err: err}
	}

	var info chain.ChainInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &TransportError{Op: "chaininfo", Err: err}
	}

	return &info, nil
}

func (c *RESTClient) BlockHash(ctx context.Context, height int64) (string,
	error) {

	op := "blockhashbyheight " + strconv.FormatInt(height, 10)

	body, err := c.get(ctx, "/blockhashbyheight/"+
		strconv.FormatInt(height, 10)+".json")
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}

	var resp struct {
		BlockHash string `json:"blockhash"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	if resp.BlockHash == "" {
		return "", &TransportError{
			Op:  op,
			Err: errors.New("empty block hash"),
		}
	}

	return resp.BlockHash, nil
}

func (c *RESTClient) RawBlock(ctx context.Context, hash string) ([]byte,
	error) {

	block, err := c.get(ctx, "/block/"+hash+".bin")
	if err != nil {
		return nil, &TransportError{Op: "block " + hash, Err: err}
	}

	return block, nil
}
