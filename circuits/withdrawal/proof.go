package withdrawal

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"

	"github.com/veilswap/veilswap-node/circuits"
	"github.com/veilswap/veilswap-node/solidity"
	"github.com/veilswap/veilswap-node/types"
)

// EncodeProof packages a gnark proof and its public signals into the
// transport form, including the flattened calldata for on-chain verifiers.
func EncodeProof(proof groth16.Proof, signals [types.WithdrawalProofSignals]*big.Int) (*types.WithdrawalProof, error) {
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("could not serialize proof: %w", err)
	}
	solProof := &solidity.Proof{}
	if err := solProof.FromGnarkProof(proof); err != nil {
		return nil, err
	}
	wp := &types.WithdrawalProof{
		Proof:         buf.Bytes(),
		ContractProof: solProof.ContractProof(),
	}
	for i, signal := range signals {
		wp.PublicSignals[i] = new(types.BigInt).SetBigInt(signal)
	}
	return wp, nil
}

// DecodeProof deserializes the gnark proof carried by a transport proof.
func DecodeProof(wp *types.WithdrawalProof) (groth16.Proof, error) {
	proof := groth16.NewProof(circuits.WithdrawalCurve)
	if _, err := proof.ReadFrom(bytes.NewReader(wp.Proof)); err != nil {
		return nil, fmt.Errorf("could not deserialize proof: %w", err)
	}
	return proof, nil
}

// PublicWitness builds the public-only witness matching the proof's public
// signals, for verification against the circuit's verification key.
func PublicWitness(wp *types.WithdrawalProof) (witness.Witness, error) {
	assignment := &Circuit{
		Root:          wp.Root(),
		NullifierHash: wp.NullifierHash(),
		Recipient:     wp.Recipient(),
	}
	w, err := frontend.NewWitness(assignment, circuits.WithdrawalCurve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, fmt.Errorf("could not build public witness: %w", err)
	}
	return w, nil
}
