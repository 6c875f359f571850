package api

import (
	"net/http"

	"github.com/veilswap/veilswap-node/config"
	"github.com/veilswap/veilswap-node/merkle"
)

// info returns the node parameters and circuit artifact locations a client
// needs to build deposits and withdrawal proofs.
// GET /info
func (a *API) info(w http.ResponseWriter, r *http.Request) {
	count, err := a.ledger.LeafCount()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &NodeInfo{
		ChainID:             a.ledger.ChainID(),
		Operator:            a.ledger.Operator().Hex(),
		TreeDepth:           merkle.Depth,
		TreeCapacity:        merkle.MaxLeaves,
		LeafCount:           count,
		CircuitURL:          config.WithdrawalCircuitURL,
		CircuitHash:         config.WithdrawalCircuitHash,
		ProvingKeyURL:       config.WithdrawalProvingKeyURL,
		ProvingKeyHash:      config.WithdrawalProvingKeyHash,
		VerificationKeyURL:  config.WithdrawalVerificationKeyURL,
		VerificationKeyHash: config.WithdrawalVerificationKeyHash,
	})
}
