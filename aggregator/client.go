package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/veilswap/veilswap-node/log"
	"github.com/veilswap/veilswap-node/types"
)

const defaultRequestTimeout = 30 * time.Second

// Quote is a price quote from the aggregator for a prospective swap.
type Quote struct {
	SrcToken  string        `json:"srcToken"`
	DstToken  string        `json:"dstToken"`
	SrcAmount *types.BigInt `json:"srcAmount"`
	DstAmount *types.BigInt `json:"dstAmount"`
}

// Client talks to an external aggregator HTTP API to obtain quotes and
// executable swap payloads.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an aggregator client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Quote requests a price quote for swapping amount of src into dst.
func (c *Client) Quote(ctx context.Context, src, dst types.Asset, amount *big.Int) (*Quote, error) {
	query := url.Values{}
	query.Set("src", src.Address().Hex())
	query.Set("dst", dst.Address().Hex())
	query.Set("amount", amount.String())
	quote := &Quote{}
	if err := c.getJSON(ctx, "/quote", query, quote); err != nil {
		return nil, fmt.Errorf("could not fetch quote: %w", err)
	}
	return quote, nil
}

// BuildExecution requests an executable swap payload for the given swap
// configuration and output token. The returned payload is validated against
// the configuration before being handed to the caller.
func (c *Client) BuildExecution(ctx context.Context, cfg *types.SwapConfig, tokenOut types.Asset) (*ExecutionPayload, error) {
	query := url.Values{}
	query.Set("src", cfg.TokenIn.Address().Hex())
	query.Set("dst", tokenOut.Address().Hex())
	query.Set("amount", cfg.FixedAmount.String())
	payload := &ExecutionPayload{}
	if err := c.getJSON(ctx, "/swap", query, payload); err != nil {
		return nil, fmt.Errorf("could not build execution payload: %w", err)
	}
	if err := payload.Validate(cfg, tokenOut); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warnw("failed to close aggregator response body", "url", reqURL, "error", err)
		}
	}()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("aggregator returned status %d: %s", res.StatusCode, body)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
