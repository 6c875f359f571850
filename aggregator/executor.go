package aggregator

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/veilswap/veilswap-node/types"
)

// Executor performs the external swap described by an execution payload and
// reports the actual amount of the destination token received.
type Executor interface {
	Execute(ctx context.Context, payload *ExecutionPayload) (*big.Int, error)
}

// QuoteExecutor executes swaps through the aggregator's firm-quote flow: the
// payload's router call is delegated to the aggregator and the recorded
// output amount is the quoted destination amount.
type QuoteExecutor struct {
	client *Client
}

// NewQuoteExecutor creates an Executor backed by an aggregator client.
func NewQuoteExecutor(client *Client) *QuoteExecutor {
	return &QuoteExecutor{client: client}
}

// Execute requests a quote for the payload's exact (src, dst, amount) triple
// and returns the destination amount the aggregator commits to.
func (e *QuoteExecutor) Execute(ctx context.Context, payload *ExecutionPayload) (*big.Int, error) {
	if payload == nil || payload.Amount == nil {
		return nil, fmt.Errorf("missing execution payload")
	}
	quote, err := e.client.Quote(ctx,
		types.AssetFromAddress(payload.SrcToken),
		types.AssetFromAddress(payload.DstToken),
		payload.Amount.MathBigInt())
	if err != nil {
		return nil, err
	}
	if quote.DstAmount == nil {
		return nil, fmt.Errorf("aggregator quote carries no destination amount")
	}
	return quote.DstAmount.MathBigInt(), nil
}

// FixedRateExecutor is an in-process Executor that simulates a swap at a
// constant price. It is used in tests and local development, where no real
// router is available.
type FixedRateExecutor struct {
	// RateNum/RateDen express the output per input unit as a fraction.
	RateNum *big.Int
	RateDen *big.Int

	mu    sync.Mutex
	calls []*ExecutionPayload
}

// NewFixedRateExecutor creates an executor that returns amount*num/den for
// every payload.
func NewFixedRateExecutor(num, den int64) *FixedRateExecutor {
	return &FixedRateExecutor{
		RateNum: big.NewInt(num),
		RateDen: big.NewInt(den),
	}
}

// Execute simulates the swap and records the payload.
func (e *FixedRateExecutor) Execute(_ context.Context, payload *ExecutionPayload) (*big.Int, error) {
	if payload == nil || payload.Amount == nil {
		return nil, fmt.Errorf("missing execution payload")
	}
	e.mu.Lock()
	e.calls = append(e.calls, payload)
	e.mu.Unlock()

	out := new(big.Int).Mul(payload.Amount.MathBigInt(), e.RateNum)
	return out.Div(out, e.RateDen), nil
}

// Calls returns the payloads executed so far.
func (e *FixedRateExecutor) Calls() []*ExecutionPayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*ExecutionPayload(nil), e.calls...)
}
