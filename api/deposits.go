package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/veilswap/veilswap-node/merkle"
	"github.com/veilswap/veilswap-node/types"
)

// defaultDepositPageSize bounds a deposit log page when the client does not
// ask for a specific size.
const defaultDepositPageSize = 256

// newDeposit inserts a commitment into the accumulator.
// POST /deposits
func (a *API) newDeposit(w http.ResponseWriter, r *http.Request) {
	req := &DepositRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if req.Commitment == nil || req.SwapConfigID == nil {
		ErrMalformedBody.Withf("missing commitment or swapConfigId").Write(w)
		return
	}
	leafIndex, err := a.ledger.Deposit(req.Commitment.MathBigInt(), req.SwapConfigID)
	if err != nil {
		apiErrorFromLedger(err).Write(w)
		return
	}
	root, err := a.ledger.Root()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &DepositResponse{
		LeafIndex: leafIndex,
		Root:      new(types.BigInt).SetBigInt(root),
	})
}

// depositLog returns a page of the ordered deposit log.
// GET /deposits?fromIndex=<n>&max=<n>
func (a *API) depositLog(w http.ResponseWriter, r *http.Request) {
	events, err := a.ledger.DepositEvents()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	from := 0
	if raw := r.URL.Query().Get(FromIndexQueryParam); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			ErrMalformedParam.Withf("cannot parse %s", FromIndexQueryParam).Write(w)
			return
		}
		from = parsed
	}
	max := defaultDepositPageSize
	if raw := r.URL.Query().Get(MaxCountQueryParam); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			ErrMalformedParam.Withf("cannot parse %s", MaxCountQueryParam).Write(w)
			return
		}
		max = parsed
	}
	total := len(events)
	if from > total {
		from = total
	}
	end := min(from+max, total)
	httpWriteJSON(w, &DepositLogResponse{
		Deposits: events[from:end],
		Total:    uint32(total),
	})
}

// merkleRoot returns the accumulator's current root.
// GET /merkle/root
func (a *API) merkleRoot(w http.ResponseWriter, r *http.Request) {
	root, err := a.ledger.Root()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	count, err := a.ledger.LeafCount()
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &RootResponse{
		Root:      new(types.BigInt).SetBigInt(root),
		LeafCount: count,
	})
}

// merkleProof returns the authenticated path of a leaf.
// GET /merkle/proof/{leafIndex}
func (a *API) merkleProof(w http.ResponseWriter, r *http.Request) {
	leafIndex, err := urlParamUint32(r, LeafIndexURLParam)
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	proof, err := a.ledger.Proof(leafIndex)
	if err != nil {
		apiErrorFromLedger(err).Write(w)
		return
	}
	response := &MerkleProofResponse{
		Leaf:         new(types.BigInt).SetBigInt(proof.Leaf),
		Root:         new(types.BigInt).SetBigInt(proof.Root),
		PathElements: make([]*types.BigInt, merkle.Depth),
		PathIndices:  make([]uint8, merkle.Depth),
	}
	for i := 0; i < merkle.Depth; i++ {
		response.PathElements[i] = new(types.BigInt).SetBigInt(proof.PathElements[i])
		response.PathIndices[i] = proof.PathIndices[i]
	}
	httpWriteJSON(w, response)
}
