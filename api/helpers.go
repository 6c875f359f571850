package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/veilswap/veilswap-node/aggregator"
	"github.com/veilswap/veilswap-node/ledger"
	"github.com/veilswap/veilswap-node/log"
	"github.com/veilswap/veilswap-node/merkle"
	"github.com/veilswap/veilswap-node/storage"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
		return
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
		return
	}
	if !DisabledLogging && log.Level() == log.LogLevelDebug {
		log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
	}
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// urlParamBigInt parses a decimal or 0x-prefixed URL parameter as a big.Int.
func urlParamBigInt(r *http.Request, name string) (*big.Int, error) {
	raw := chi.URLParam(r, name)
	base := 10
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw, base = raw[2:], 16
	}
	value, ok := new(big.Int).SetString(raw, base)
	if !ok {
		return nil, fmt.Errorf("cannot parse %s", name)
	}
	return value, nil
}

// urlParamUint32 parses a URL parameter as a uint32.
func urlParamUint32(r *http.Request, name string) (uint32, error) {
	value, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %s", name)
	}
	return uint32(value), nil
}

// parseAddress validates and decodes a hex Ethereum address.
func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("not a hex address: %q", raw)
	}
	return common.HexToAddress(raw), nil
}

// apiErrorFromLedger maps the ledger, storage and aggregator sentinel errors
// to their API error counterparts, preserving the underlying cause.
func apiErrorFromLedger(err error) Error {
	switch {
	case errors.Is(err, merkle.ErrCapacityExceeded):
		return ErrTreeCapacityExceeded
	case errors.Is(err, merkle.ErrUnknownLeaf):
		return ErrUnknownLeaf
	case errors.Is(err, storage.ErrAlreadySwapped):
		return ErrAlreadySwapped
	case errors.Is(err, storage.ErrAlreadyWithdrawn):
		return ErrAlreadyWithdrawn
	case errors.Is(err, storage.ErrNoSwapResult):
		return ErrNoSwapResult
	case errors.Is(err, storage.ErrKeyAlreadyExists):
		return ErrSwapConfigExists
	case errors.Is(err, storage.ErrNotFound):
		return ErrResourceNotFound.WithErr(err)
	case errors.Is(err, aggregator.ErrPayloadMismatch):
		return ErrPayloadMismatch.WithErr(err)
	case errors.Is(err, ledger.ErrUnauthorized):
		return ErrUnauthorized.WithErr(err)
	case errors.Is(err, ledger.ErrInvalidProof):
		return ErrInvalidProof.WithErr(err)
	case errors.Is(err, ledger.ErrPublicSignalMismatch):
		return ErrPublicSignalMismatch.WithErr(err)
	case errors.Is(err, ledger.ErrUnknownRoot):
		return ErrUnknownRoot
	case errors.Is(err, ledger.ErrSwapExecutionFailed):
		return ErrSwapExecutionFailed.WithErr(err)
	case errors.Is(err, ledger.ErrTransferFailed):
		return ErrTransferFailed.WithErr(err)
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
