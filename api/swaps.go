package api

import (
	"encoding/json"
	"net/http"

	"github.com/veilswap/veilswap-node/crypto/signatures/ethereum"
	"github.com/veilswap/veilswap-node/ledger"
	"github.com/veilswap/veilswap-node/types"
)

// registerSwapConfig stores a new immutable swap configuration. The request
// signature must recover to the configured owner address.
// POST /swap-configs
func (a *API) registerSwapConfig(w http.ResponseWriter, r *http.Request) {
	req := &SwapConfigRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if req.Config == nil || req.Config.ID == nil || req.Config.FixedAmount == nil {
		ErrMalformedBody.Withf("missing swap config fields").Write(w)
		return
	}
	message, err := ledger.SwapConfigMessage(a.ledger.ChainID(), req.Config)
	if err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	signature, err := ethereum.BytesToSignature(req.Signature)
	if err != nil {
		ErrInvalidSignature.WithErr(err).Write(w)
		return
	}
	if ok, _ := signature.Verify(message, a.owner); !ok {
		ErrUnauthorized.Withf("signer is not the owner").Write(w)
		return
	}
	if err := a.ledger.RegisterSwapConfig(req.Config); err != nil {
		apiErrorFromLedger(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// listSwapConfigs returns every registered swap configuration.
// GET /swap-configs
func (a *API) listSwapConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := a.ledger.ListSwapConfigs()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, configs)
}

// swapConfig returns one swap configuration by ID.
// GET /swap-configs/{swapConfigId}
func (a *API) swapConfig(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamBigInt(r, SwapConfigURLParam)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	cfg, err := a.ledger.SwapConfig(new(types.BigInt).SetBigInt(id))
	if err != nil {
		ErrSwapConfigNotFound.Write(w)
		return
	}
	httpWriteJSON(w, cfg)
}

// swapRequestBody is the wire form of a swap recording call: the ledger
// request plus the operator's signature over the same authorization message
// the depositor signed.
type swapRequestBody struct {
	ledger.SwapRequest
	OperatorSignature types.HexBytes `json:"operatorSignature"`
}

// recordSwap executes the swap phase for a nullifier hash. The caller is
// authenticated by recovering the operator signature; the depositor's own
// authorization travels inside the request and is checked by the ledger.
// POST /swaps
func (a *API) recordSwap(w http.ResponseWriter, r *http.Request) {
	req := &swapRequestBody{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if req.NullifierHash == nil || req.SwapConfigID == nil {
		ErrMalformedBody.Withf("missing nullifierHash or swapConfigId").Write(w)
		return
	}
	message, err := ledger.SwapAuthorizationMessage(a.ledger.ChainID(),
		req.SwapConfigID.MathBigInt(), req.NullifierHash.MathBigInt(),
		req.TokenOut, req.Depositor)
	if err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	signature, err := ethereum.BytesToSignature(req.OperatorSignature)
	if err != nil {
		ErrInvalidSignature.WithErr(err).Write(w)
		return
	}
	caller, err := ethereum.AddrFromSignature(message, signature)
	if err != nil {
		ErrInvalidSignature.WithErr(err).Write(w)
		return
	}
	amountOut, err := a.ledger.RecordSwap(r.Context(), caller, &req.SwapRequest)
	if err != nil {
		apiErrorFromLedger(err).Write(w)
		return
	}
	httpWriteJSON(w, &SwapResponse{
		NullifierHash: req.NullifierHash,
		TokenOut:      req.TokenOut,
		AmountOut:     new(types.BigInt).SetBigInt(amountOut),
	})
}
