package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/veilswap/veilswap-node/aggregator"
	"github.com/veilswap/veilswap-node/crypto/signatures/ethereum"
	"github.com/veilswap/veilswap-node/log"
	"github.com/veilswap/veilswap-node/storage"
	"github.com/veilswap/veilswap-node/types"
)

// SwapRequest carries everything the swap phase needs: the nullifier hash
// being bound, the configuration it spends, the requested output token, the
// aggregator execution payload and the depositor's off-chain authorization.
// The authorization is the raw 65-byte ECDSA signature so it survives JSON
// transport intact.
type SwapRequest struct {
	NullifierHash *types.BigInt  `json:"nullifierHash"`
	SwapConfigID  *types.BigInt  `json:"swapConfigId"`
	TokenOut      types.Asset    `json:"tokenOut"`
	Payload       types.HexBytes `json:"payload"`
	Depositor     common.Address `json:"depositor"`
	Authorization types.HexBytes `json:"authorization"`
}

// swapAuthArguments is the ABI layout of the message a depositor signs to
// authorize a swap on their behalf: (chainId, swapConfigId, nullifierHash,
// tokenOut, depositor).
var swapAuthArguments = func() abi.Arguments {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "chainId", Type: uint256Type},
		{Name: "swapConfigId", Type: uint256Type},
		{Name: "nullifierHash", Type: uint256Type},
		{Name: "tokenOut", Type: addressType},
		{Name: "depositor", Type: addressType},
	}
}()

// configAuthArguments is the ABI layout of the message the owner signs to
// register a swap configuration: (chainId, id, tokenIn, fixedAmount).
var configAuthArguments = func() abi.Arguments {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "chainId", Type: uint256Type},
		{Name: "id", Type: uint256Type},
		{Name: "tokenIn", Type: addressType},
		{Name: "fixedAmount", Type: uint256Type},
	}
}()

// SwapConfigMessage builds the byte message the owner signs to register a
// swap configuration.
func SwapConfigMessage(chainID uint64, cfg *types.SwapConfig) ([]byte, error) {
	if cfg == nil || cfg.ID == nil || cfg.FixedAmount == nil {
		return nil, fmt.Errorf("incomplete swap config")
	}
	return configAuthArguments.Pack(
		new(big.Int).SetUint64(chainID),
		cfg.ID.MathBigInt(),
		cfg.TokenIn.Address(),
		cfg.FixedAmount.MathBigInt(),
	)
}

// SwapAuthorizationMessage builds the byte message a depositor signs to
// authorize binding their nullifier hash to a swap.
func SwapAuthorizationMessage(chainID uint64, swapConfigID, nullifierHash *big.Int, tokenOut types.Asset, depositor common.Address) ([]byte, error) {
	return swapAuthArguments.Pack(
		new(big.Int).SetUint64(chainID),
		swapConfigID,
		nullifierHash,
		tokenOut.Address(),
		depositor,
	)
}

// RecordSwap executes the swap phase for one nullifier hash. The caller must
// be the configured operator, and the request must carry a valid depositor
// authorization signature. The execution payload is validated against the
// swap configuration before the external call; the captured output amount is
// recorded write-once. Returns the amount of the output token received.
func (l *Ledger) RecordSwap(ctx context.Context, caller common.Address, req *SwapRequest) (*big.Int, error) {
	if req == nil || req.NullifierHash == nil || req.SwapConfigID == nil {
		return nil, fmt.Errorf("incomplete swap request")
	}
	if caller != l.operator {
		return nil, fmt.Errorf("%w: caller %s is not the operator", ErrUnauthorized, caller.Hex())
	}

	nullifierHash := req.NullifierHash.MathBigInt()
	if _, err := l.stg.SwapResult(nullifierHash); err == nil {
		return nil, storage.ErrAlreadySwapped
	}

	cfg, err := l.stg.SwapConfig(req.SwapConfigID)
	if err != nil {
		return nil, fmt.Errorf("unknown swap config %s: %w", req.SwapConfigID.String(), err)
	}

	authMsg, err := SwapAuthorizationMessage(l.chainID, req.SwapConfigID.MathBigInt(),
		nullifierHash, req.TokenOut, req.Depositor)
	if err != nil {
		return nil, fmt.Errorf("could not build authorization message: %w", err)
	}
	if len(req.Authorization) == 0 {
		return nil, fmt.Errorf("%w: missing depositor authorization", ErrUnauthorized)
	}
	authSig, err := ethereum.BytesToSignature(req.Authorization)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed depositor authorization: %v", ErrUnauthorized, err)
	}
	if ok, _ := authSig.Verify(authMsg, req.Depositor); !ok {
		return nil, fmt.Errorf("%w: invalid depositor authorization", ErrUnauthorized)
	}

	payload, err := aggregator.DecodePayload(req.Payload)
	if err != nil {
		return nil, err
	}
	if err := payload.Validate(cfg, req.TokenOut); err != nil {
		return nil, err
	}

	amountOut, err := l.executor.Execute(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSwapExecutionFailed, err)
	}
	if err := l.stg.RecordSwapResult(nullifierHash, &types.SwapResult{
		TokenOut: req.TokenOut,
		Amount:   new(types.BigInt).SetBigInt(amountOut),
	}); err != nil {
		return nil, err
	}
	log.Infow("swap recorded",
		"swapConfig", req.SwapConfigID.String(),
		"tokenOut", req.TokenOut.String(),
		"amountOut", amountOut.String())
	return amountOut, nil
}
