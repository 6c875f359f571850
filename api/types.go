package api

import (
	"github.com/veilswap/veilswap-node/types"
)

// DepositRequest is the body of the deposit submission endpoint.
type DepositRequest struct {
	Commitment   *types.BigInt `json:"commitment"`
	SwapConfigID *types.BigInt `json:"swapConfigId"`
}

// DepositResponse is returned by the deposit submission endpoint.
type DepositResponse struct {
	LeafIndex uint32        `json:"leafIndex"`
	Root      *types.BigInt `json:"root"`
}

// DepositLogResponse is a page of the ordered deposit log.
type DepositLogResponse struct {
	Deposits []*types.DepositEvent `json:"deposits"`
	Total    uint32                `json:"total"`
}

// RootResponse is returned by the merkle root endpoint.
type RootResponse struct {
	Root      *types.BigInt `json:"root"`
	LeafCount uint32        `json:"leafCount"`
}

// MerkleProofResponse is the authenticated path of one leaf.
type MerkleProofResponse struct {
	Leaf         *types.BigInt   `json:"leaf"`
	Root         *types.BigInt   `json:"root"`
	PathElements []*types.BigInt `json:"pathElements"`
	PathIndices  []uint8         `json:"pathIndices"`
}

// SwapConfigRequest is the body of the owner-only swap config registration
// endpoint. The signature covers the packed (chainId, id, tokenIn,
// fixedAmount) tuple and must recover to the configured owner address.
type SwapConfigRequest struct {
	Config    *types.SwapConfig `json:"config"`
	Signature types.HexBytes    `json:"signature"`
}

// SwapResponse is returned by the swap recording endpoint.
type SwapResponse struct {
	NullifierHash *types.BigInt `json:"nullifierHash"`
	TokenOut      types.Asset   `json:"tokenOut"`
	AmountOut     *types.BigInt `json:"amountOut"`
}

// NullifierStatusResponse reports where a nullifier hash sits in its state
// machine, with the recorded swap result when one exists.
type NullifierStatusResponse struct {
	Status     string            `json:"status"`
	SwapResult *types.SwapResult `json:"swapResult,omitempty"`
}

// WithdrawalRequest is the body of the withdrawal endpoint.
type WithdrawalRequest struct {
	NullifierHash *types.BigInt          `json:"nullifierHash"`
	Recipient     string                 `json:"recipient"`
	Proof         *types.WithdrawalProof `json:"proof"`
}

// WithdrawalResponse is returned by a successful withdrawal.
type WithdrawalResponse struct {
	TokenOut types.Asset   `json:"tokenOut"`
	Amount   *types.BigInt `json:"amount"`
}

// ProofRequest is the body of the proof job submission endpoint. The
// passphrase never leaves the node; it is consumed by the in-process prover.
type ProofRequest struct {
	Recipient  string `json:"recipient"`
	Passphrase string `json:"passphrase"`
}

// ProofJobResponse reports the state of an asynchronous proof job.
type ProofJobResponse struct {
	JobID  string                 `json:"jobId"`
	Status string                 `json:"status"`
	Proof  *types.WithdrawalProof `json:"proof,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// NodeInfo is returned by the info endpoint: everything a client needs to
// build deposits and withdrawal proofs against this node.
type NodeInfo struct {
	ChainID             uint64 `json:"chainId"`
	Operator            string `json:"operator"`
	TreeDepth           int    `json:"treeDepth"`
	TreeCapacity        uint32 `json:"treeCapacity"`
	LeafCount           uint32 `json:"leafCount"`
	CircuitURL          string `json:"circuitUrl"`
	CircuitHash         string `json:"circuitHash"`
	ProvingKeyURL       string `json:"provingKeyUrl"`
	ProvingKeyHash      string `json:"provingKeyHash"`
	VerificationKeyURL  string `json:"verificationKeyUrl"`
	VerificationKeyHash string `json:"verificationKeyHash"`
}
