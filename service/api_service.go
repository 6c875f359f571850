// Package service wires the node's components together and manages their
// lifecycles.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilswap/veilswap-node/api"
	"github.com/veilswap/veilswap-node/client"
	"github.com/veilswap/veilswap-node/ledger"
	"github.com/veilswap/veilswap-node/log"
)

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	ledger      *ledger.Ledger
	prover      *client.Prover
	API         *api.API
	mu          sync.Mutex
	cancel      context.CancelFunc
	host        string
	port        int
	owner       common.Address
	proofJobTTL time.Duration
}

// NewAPI creates a new APIService instance. The prover is optional; when nil
// the proof generation endpoints stay disabled.
func NewAPI(ldg *ledger.Ledger, prover *client.Prover, host string, port int, owner common.Address, disableLogging bool) *APIService {
	if disableLogging {
		api.DisabledLogging = disableLogging
		log.Debugw("API logging is disabled")
	}
	return &APIService{
		ledger: ldg,
		prover: prover,
		host:   host,
		port:   port,
		owner:  owner,
	}
}

// SetProofJobTTL overrides how long finished proof jobs stay queryable.
func (as *APIService) SetProofJobTTL(ttl time.Duration) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.proofJobTTL = ttl
}

// Start begins the API server. It returns an error if the service is already
// running or if it fails to start.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		return fmt.Errorf("service already running")
	}

	ctx, as.cancel = context.WithCancel(ctx)

	var err error
	as.API, err = api.New(ctx, &api.APIConfig{
		Host:        as.host,
		Port:        as.port,
		Ledger:      as.ledger,
		Prover:      as.prover,
		Owner:       as.owner,
		ProofJobTTL: as.proofJobTTL,
	})
	if err != nil {
		as.cancel = nil
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop halts the API server.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		as.cancel()
		as.cancel = nil
	}
}

// HostPort returns the host and port of the API server.
func (as *APIService) HostPort() (string, int) {
	return as.host, as.port
}
