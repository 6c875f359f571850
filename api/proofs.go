package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// newProofJob starts an asynchronous withdrawal proof generation.
// POST /proofs
func (a *API) newProofJob(w http.ResponseWriter, r *http.Request) {
	if a.prover == nil || a.jobs == nil {
		ErrProvingDisabled.Write(w)
		return
	}
	req := &ProofRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if req.Passphrase == "" {
		ErrMalformedBody.Withf("missing passphrase").Write(w)
		return
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		ErrMalformedAddress.WithErr(err).Write(w)
		return
	}
	jobID := a.jobs.launch(a.prover, recipient, req.Passphrase)
	httpWriteJSON(w, &ProofJobResponse{
		JobID:  jobID.String(),
		Status: proofJobRunning,
	})
}

// proofJobStatus reports the state of a proof job, including the proof once
// the job is done.
// GET /proofs/{jobId}
func (a *API) proofJobStatus(w http.ResponseWriter, r *http.Request) {
	if a.jobs == nil {
		ErrProvingDisabled.Write(w)
		return
	}
	jobID, err := uuid.Parse(chi.URLParam(r, ProofJobURLParam))
	if err != nil {
		ErrMalformedParam.WithErr(err).Write(w)
		return
	}
	job := a.jobs.get(jobID)
	if job == nil {
		ErrProofJobNotFound.Write(w)
		return
	}
	response := &ProofJobResponse{
		JobID:  job.ID.String(),
		Status: job.Status,
		Proof:  job.Proof,
	}
	if job.Err != nil {
		response.Error = job.Err.Error()
	}
	httpWriteJSON(w, response)
}
