// Package solidity converts gnark Groth16 proofs into the calldata layout
// expected by on-chain verifier contracts.
package solidity

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"github.com/veilswap/veilswap-node/types"
)

// Proof represents a Groth16 proof in Solidity-compatible affine coordinates.
// The B point's coordinate pairs are swapped relative to gnark's internal
// representation, as the EVM pairing precompile expects.
type Proof struct {
	Ar  [2]*big.Int    `json:"Ar"`
	Bs  [2][2]*big.Int `json:"Bs"`
	Krs [2]*big.Int    `json:"Krs"`
}

// FromGnarkProof converts a gnark groth16 proof to a Solidity-compatible
// proof.
func (p *Proof) FromGnarkProof(proof groth16.Proof) error {
	g16proof, ok := proof.(*groth16_bn254.Proof)
	if !ok {
		return fmt.Errorf("expected groth16_bn254.Proof, got %T", proof)
	}
	p.Ar = [2]*big.Int{
		g16proof.Ar.X.BigInt(new(big.Int)),
		g16proof.Ar.Y.BigInt(new(big.Int)),
	}
	p.Bs = [2][2]*big.Int{
		{
			g16proof.Bs.X.A1.BigInt(new(big.Int)),
			g16proof.Bs.X.A0.BigInt(new(big.Int)),
		},
		{
			g16proof.Bs.Y.A1.BigInt(new(big.Int)),
			g16proof.Bs.Y.A0.BigInt(new(big.Int)),
		},
	}
	p.Krs = [2]*big.Int{
		g16proof.Krs.X.BigInt(new(big.Int)),
		g16proof.Krs.Y.BigInt(new(big.Int)),
	}
	return nil
}

// CalldataArray flattens the proof into the uint256[8] layout verifier
// contracts receive: [a0, a1, b00, b01, b10, b11, c0, c1].
func (p *Proof) CalldataArray() [8]*big.Int {
	return [8]*big.Int{
		p.Ar[0],
		p.Ar[1],
		p.Bs[0][0],
		p.Bs[0][1],
		p.Bs[1][0],
		p.Bs[1][1],
		p.Krs[0],
		p.Krs[1],
	}
}

// ContractProof returns the calldata array as internal big ints, ready for
// JSON transport.
func (p *Proof) ContractProof() [types.ContractProofLen]*types.BigInt {
	flat := p.CalldataArray()
	var out [types.ContractProofLen]*types.BigInt
	for i, v := range flat {
		out[i] = new(types.BigInt).SetBigInt(v)
	}
	return out
}

// ABIEncode encodes the proof and the public signals matching Solidity's
// (uint256[8],uint256[3]) layout.
func (p *Proof) ABIEncode(publicSignals [types.WithdrawalProofSignals]*big.Int) ([]byte, error) {
	proofType, err := abi.NewType("uint256[8]", "", nil)
	if err != nil {
		return nil, err
	}
	signalsType, err := abi.NewType("uint256[3]", "", nil)
	if err != nil {
		return nil, err
	}
	arguments := abi.Arguments{
		{Type: proofType},
		{Type: signalsType},
	}
	return arguments.Pack(p.CalldataArray(), publicSignals)
}

// String returns a JSON representation of the proof, useful for debugging or
// logging. If marshalling fails, it returns an empty JSON object.
func (p *Proof) String() string {
	jsonProof, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(jsonProof)
}
