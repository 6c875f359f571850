package withdrawal

import (
	"github.com/veilswap/veilswap-node/circuits"
	"github.com/veilswap/veilswap-node/config"
	"github.com/veilswap/veilswap-node/types"
)

// Artifacts contains the circuit artifacts for the withdrawal circuit,
// which includes the proving and verification keys.
var Artifacts = circuits.NewCircuitArtifacts(
	circuits.WithdrawalCurve,
	&circuits.Artifact{
		Name:      "withdrawal ccs",
		RemoteURL: config.WithdrawalCircuitURL,
		Hash:      types.HexStringToHexBytesMustUnmarshal(config.WithdrawalCircuitHash),
	},
	&circuits.Artifact{
		Name:      "withdrawal proving key",
		RemoteURL: config.WithdrawalProvingKeyURL,
		Hash:      types.HexStringToHexBytesMustUnmarshal(config.WithdrawalProvingKeyHash),
	},
	&circuits.Artifact{
		Name:      "withdrawal verification key",
		RemoteURL: config.WithdrawalVerificationKeyURL,
		Hash:      types.HexStringToHexBytesMustUnmarshal(config.WithdrawalVerificationKeyHash),
	},
)
