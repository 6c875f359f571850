// Package config provides configuration for circuit artifacts including URLs
// and hashes for the withdrawal circuit components.
package config

import "fmt"

const (
	// DefaultArtifactsBaseURL is the base URL for circuit artifacts storage
	DefaultArtifactsBaseURL = "https://artifacts.veilswap.io"
	// DefaultArtifactsRelease is the release version for circuit artifacts
	DefaultArtifactsRelease = "v1"
)

var (
	// WithdrawalCircuitURL is the URL for the withdrawal circuit definition
	WithdrawalCircuitURL = fmt.Sprintf("%s/%s/%s.ccs", DefaultArtifactsBaseURL, DefaultArtifactsRelease, WithdrawalCircuitHash)
	// WithdrawalCircuitHash is the hash of the withdrawal circuit definition
	WithdrawalCircuitHash = "8a7c2e1f0b9d4c6a5e3f8d2b7c4a9e0f1d6b3a8c5e2f7d4b9a6c3e0f8d5b2a7c"
	// WithdrawalProvingKeyURL is the URL for the withdrawal proving key
	WithdrawalProvingKeyURL = fmt.Sprintf("%s/%s/%s.pk", DefaultArtifactsBaseURL, DefaultArtifactsRelease, WithdrawalProvingKeyHash)
	// WithdrawalProvingKeyHash is the hash of the withdrawal proving key
	WithdrawalProvingKeyHash = "3e9f5c2d8b4a7e1f6c0d9b3a5e8f2c7d4b1a6e9f3c8d5b2a7e4f1c6d9b0a3e8f"
	// WithdrawalVerificationKeyURL is the URL for the withdrawal verification key
	WithdrawalVerificationKeyURL = fmt.Sprintf("%s/%s/%s.vk", DefaultArtifactsBaseURL, DefaultArtifactsRelease, WithdrawalVerificationKeyHash)
	// WithdrawalVerificationKeyHash is the hash of the withdrawal verification key
	WithdrawalVerificationKeyHash = "6d2b8f4e0a9c5e3f7d1b6a8c2e9f4d0b5a3c7e1f8d6b2a9c4e0f5d3b7a1c8e6f"
)
