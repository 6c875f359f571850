package api

import (
	"encoding/json"
	"net/http"

	"github.com/veilswap/veilswap-node/types"
)

// nullifierStatus reports where a nullifier hash sits in its state machine.
// Clients probe it before attempting a withdrawal.
// GET /nullifiers/{nullifierHash}
func (a *API) nullifierStatus(w http.ResponseWriter, r *http.Request) {
	nullifierHash, err := urlParamBigInt(r, NullifierURLParam)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	response := &NullifierStatusResponse{
		Status: a.ledger.NullifierStatus(nullifierHash).String(),
	}
	if result, err := a.ledger.SwapResult(nullifierHash); err == nil {
		response.SwapResult = result
	}
	httpWriteJSON(w, response)
}

// withdraw verifies a withdrawal proof, consumes the nullifier hash and
// releases the swap proceeds.
// POST /withdrawals
func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	req := &WithdrawalRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if req.NullifierHash == nil || req.Proof == nil {
		ErrMalformedBody.Withf("missing nullifierHash or proof").Write(w)
		return
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		ErrMalformedAddress.WithErr(err).Write(w)
		return
	}
	result, err := a.ledger.Withdraw(r.Context(), req.NullifierHash.MathBigInt(), recipient, req.Proof)
	if err != nil {
		apiErrorFromLedger(err).Write(w)
		return
	}
	httpWriteJSON(w, &WithdrawalResponse{
		TokenOut: result.TokenOut,
		Amount:   new(types.BigInt).SetBigInt(result.Amount.MathBigInt()),
	})
}
