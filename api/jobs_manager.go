package api

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/veilswap/veilswap-node/client"
	"github.com/veilswap/veilswap-node/log"
	"github.com/veilswap/veilswap-node/types"
)

// defaultProofJobTTL is how long finished proof jobs remain queryable.
const defaultProofJobTTL = 30 * time.Minute

// jobCleanupInterval is the period of the expired-job sweep.
const jobCleanupInterval = time.Minute

// Proof job states.
const (
	proofJobRunning = "running"
	proofJobDone    = "done"
	proofJobFailed  = "failed"
)

// proofJob is one asynchronous withdrawal proof generation. Proving is CPU
// bound and can take seconds, so it runs in its own goroutine and the client
// polls for the result by job ID.
type proofJob struct {
	ID       uuid.UUID
	Status   string
	Proof    *types.WithdrawalProof
	Err      error
	Finished time.Time
}

// proofJobManager tracks in-flight and finished proof jobs and evicts
// finished ones after their TTL.
type proofJobManager struct {
	mtx  sync.RWMutex
	jobs map[uuid.UUID]*proofJob
	ttl  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func newProofJobManager(ttl time.Duration) *proofJobManager {
	return &proofJobManager{
		jobs: make(map[uuid.UUID]*proofJob),
		ttl:  ttl,
	}
}

// start begins the periodic sweep of expired jobs. The manager stops when
// ctx is cancelled.
func (pm *proofJobManager) start(ctx context.Context) {
	pm.ctx, pm.cancel = context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(jobCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pm.ctx.Done():
				return
			case <-ticker.C:
				pm.evictExpired()
			}
		}
	}()
}

// launch registers a new job and runs the prover in a dedicated goroutine.
// Each invocation owns its witness and proof buffers exclusively, so jobs
// for different users can run concurrently without shared state.
func (pm *proofJobManager) launch(prover *client.Prover, recipient common.Address, passphrase string) uuid.UUID {
	job := &proofJob{
		ID:     uuid.New(),
		Status: proofJobRunning,
	}
	pm.mtx.Lock()
	pm.jobs[job.ID] = job
	pm.mtx.Unlock()

	go func() {
		proof, err := prover.GenerateWithdrawalProof(pm.ctx, recipient, passphrase)
		pm.mtx.Lock()
		defer pm.mtx.Unlock()
		job.Finished = time.Now()
		if err != nil {
			job.Status = proofJobFailed
			job.Err = err
			log.Warnw("proof job failed", "jobId", job.ID.String(), "error", err)
			return
		}
		job.Status = proofJobDone
		job.Proof = proof
		log.Infow("proof job finished", "jobId", job.ID.String())
	}()
	return job.ID
}

// get returns a snapshot of the job, or nil if unknown.
func (pm *proofJobManager) get(id uuid.UUID) *proofJob {
	pm.mtx.RLock()
	defer pm.mtx.RUnlock()
	job, ok := pm.jobs[id]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// evictExpired drops finished jobs older than the TTL.
func (pm *proofJobManager) evictExpired() {
	pm.mtx.Lock()
	defer pm.mtx.Unlock()
	cutoff := time.Now().Add(-pm.ttl)
	for id, job := range pm.jobs {
		if job.Status != proofJobRunning && job.Finished.Before(cutoff) {
			delete(pm.jobs, id)
		}
	}
}
