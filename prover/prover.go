// Package prover wraps the Groth16 backend used to produce and verify
// withdrawal proofs.
package prover

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// Prove creates a full witness from the assignment and generates a Groth16
// proof with the given proving key.
func Prove(
	curve ecc.ID,
	ccs constraint.ConstraintSystem,
	pk groth16.ProvingKey,
	assignment frontend.Circuit,
	opts ...backend.ProverOption,
) (groth16.Proof, error) {
	w, err := frontend.NewWitness(assignment, curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to create witness: %w", err)
	}
	return groth16.Prove(ccs, pk, w, opts...)
}

// ProveWithWitness generates a proof from an already-created witness.
func ProveWithWitness(
	ccs constraint.ConstraintSystem,
	pk groth16.ProvingKey,
	w witness.Witness,
	opts ...backend.ProverOption,
) (groth16.Proof, error) {
	return groth16.Prove(ccs, pk, w, opts...)
}

// Verify checks a proof against the verification key and the public part of
// the assignment.
func Verify(
	curve ecc.ID,
	vk groth16.VerifyingKey,
	proof groth16.Proof,
	assignment frontend.Circuit,
) error {
	w, err := frontend.NewWitness(assignment, curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("failed to create public witness: %w", err)
	}
	return groth16.Verify(proof, vk, w)
}

// VerifyWithWitness checks a proof against the verification key and a public
// witness.
func VerifyWithWitness(
	vk groth16.VerifyingKey,
	proof groth16.Proof,
	public witness.Witness,
) error {
	return groth16.Verify(proof, vk, public)
}

// Setup runs the Groth16 trusted setup over the constraint system. Intended
// for development and tests; production deployments load keys produced by a
// proper ceremony from the artifacts cache.
func Setup(ccs constraint.ConstraintSystem) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	return groth16.Setup(ccs)
}
