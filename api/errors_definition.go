//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap, DON'T fill it in, that code was used in the past and shouldn't be reused.
var (
	ErrResourceNotFound     = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody        = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedParam       = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed parameter")}
	ErrMalformedAddress     = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed address")}
	ErrInvalidSignature     = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrUnauthorized         = Error{Code: 40006, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("unauthorized")}
	ErrSwapConfigNotFound   = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("swap config not found")}
	ErrSwapConfigExists     = Error{Code: 40008, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("swap config already registered")}
	ErrUnknownLeaf          = Error{Code: 40009, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("unknown leaf index")}
	ErrTreeCapacityExceeded = Error{Code: 40010, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("merkle tree capacity exceeded")}
	ErrAlreadySwapped       = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("nullifier hash already swapped")}
	ErrAlreadyWithdrawn     = Error{Code: 40012, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("nullifier hash already withdrawn")}
	ErrNoSwapResult         = Error{Code: 40013, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("no swap result for nullifier hash")}
	ErrPayloadMismatch      = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("execution payload does not match swap configuration")}
	ErrInvalidProof         = Error{Code: 40015, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid withdrawal proof")}
	ErrPublicSignalMismatch = Error{Code: 40016, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("public signals do not match call arguments")}
	ErrUnknownRoot          = Error{Code: 40017, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("unknown merkle root")}
	ErrProofJobNotFound     = Error{Code: 40018, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("proof job not found")}
	ErrProvingDisabled      = Error{Code: 40019, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("proof generation is not enabled on this node")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrSwapExecutionFailed        = Error{Code: 50003, HTTPstatus: http.StatusBadGateway, Err: fmt.Errorf("swap execution failed")}
	ErrTransferFailed             = Error{Code: 50004, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("asset transfer failed")}
)
