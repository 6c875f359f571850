// Package aggregator binds the swap phase to an external DEX aggregator. It
// decodes and validates the execution payloads the aggregator produces and
// provides the HTTP client used to request them.
package aggregator

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/veilswap/veilswap-node/types"
)

// ErrPayloadMismatch is returned when an execution payload does not declare
// the asset and amount the swap configuration requires.
var ErrPayloadMismatch = errors.New("execution payload does not match swap configuration")

// ExecutionPayload is the decoded form of the calldata an aggregator returns
// for one swap. The declared tokens and amount are validated against the swap
// configuration before anything is executed; CallData stays opaque.
type ExecutionPayload struct {
	SrcToken common.Address `json:"srcToken"`
	DstToken common.Address `json:"dstToken"`
	Amount   *types.BigInt  `json:"amount"`
	Router   common.Address `json:"router"`
	CallData types.HexBytes `json:"callData"`
}

// payloadArguments is the ABI tuple layout of an encoded execution payload:
// (address srcToken, address dstToken, uint256 amount, address router,
// bytes callData).
var payloadArguments = func() abi.Arguments {
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	bytesType, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "srcToken", Type: addressType},
		{Name: "dstToken", Type: addressType},
		{Name: "amount", Type: uint256Type},
		{Name: "router", Type: addressType},
		{Name: "callData", Type: bytesType},
	}
}()

// Encode packs the payload into its ABI representation.
func (p *ExecutionPayload) Encode() ([]byte, error) {
	if p.Amount == nil {
		return nil, fmt.Errorf("missing payload amount")
	}
	return payloadArguments.Pack(
		p.SrcToken,
		p.DstToken,
		p.Amount.MathBigInt(),
		p.Router,
		[]byte(p.CallData),
	)
}

// DecodePayload unpacks an ABI-encoded execution payload.
func DecodePayload(data []byte) (*ExecutionPayload, error) {
	values, err := payloadArguments.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("could not unpack execution payload: %w", err)
	}
	if len(values) != 5 {
		return nil, fmt.Errorf("unexpected execution payload arity: %d", len(values))
	}
	srcToken, ok := values[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("invalid srcToken in execution payload")
	}
	dstToken, ok := values[1].(common.Address)
	if !ok {
		return nil, fmt.Errorf("invalid dstToken in execution payload")
	}
	amount, ok := values[2].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("invalid amount in execution payload")
	}
	router, ok := values[3].(common.Address)
	if !ok {
		return nil, fmt.Errorf("invalid router in execution payload")
	}
	callData, ok := values[4].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid callData in execution payload")
	}
	return &ExecutionPayload{
		SrcToken: srcToken,
		DstToken: dstToken,
		Amount:   new(types.BigInt).SetBigInt(amount),
		Router:   router,
		CallData: callData,
	}, nil
}

// Validate checks that the payload declares exactly the input asset and
// fixed amount of the swap configuration and the requested output token.
// This is the check that prevents a malicious or buggy aggregator call from
// swapping the wrong asset or amount while still being attributed to a
// nullifier hash.
func (p *ExecutionPayload) Validate(cfg *types.SwapConfig, tokenOut types.Asset) error {
	if p.Amount == nil {
		return fmt.Errorf("%w: missing amount", ErrPayloadMismatch)
	}
	if !types.AssetFromAddress(p.SrcToken).Equal(cfg.TokenIn) {
		return fmt.Errorf("%w: srcToken %s, expected %s",
			ErrPayloadMismatch, p.SrcToken.Hex(), cfg.TokenIn.String())
	}
	if p.Amount.MathBigInt().Cmp(cfg.FixedAmount.MathBigInt()) != 0 {
		return fmt.Errorf("%w: amount %s, expected %s",
			ErrPayloadMismatch, p.Amount.String(), cfg.FixedAmount.String())
	}
	if !types.AssetFromAddress(p.DstToken).Equal(tokenOut) {
		return fmt.Errorf("%w: dstToken %s, expected %s",
			ErrPayloadMismatch, p.DstToken.Hex(), tokenOut.String())
	}
	return nil
}
