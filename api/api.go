// Package api exposes the swap node over HTTP: deposit submission, merkle
// root and path queries, swap recording, nullifier probes, withdrawals and
// optional in-process withdrawal proof generation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/veilswap/veilswap-node/client"
	"github.com/veilswap/veilswap-node/ledger"
	"github.com/veilswap/veilswap-node/log"
)

const (
	maxRequestBodyLog = 512 // Maximum length of request body to log
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host   string
	Port   int
	Ledger *ledger.Ledger
	// Prover enables the asynchronous proof generation endpoints when set.
	Prover *client.Prover
	// Owner is the identity allowed to register swap configurations.
	Owner common.Address
	// ProofJobTTL bounds how long finished proof jobs stay queryable.
	ProofJobTTL time.Duration
}

// API type represents the API HTTP server.
type API struct {
	router *chi.Mux
	ledger *ledger.Ledger
	prover *client.Prover
	owner  common.Address
	jobs   *proofJobManager
}

// New creates a new API instance with the given configuration and starts the
// HTTP server.
func New(ctx context.Context, conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Ledger == nil {
		return nil, fmt.Errorf("missing ledger instance")
	}
	a := &API{
		ledger: conf.Ledger,
		prover: conf.Prover,
		owner:  conf.Owner,
	}
	if a.prover != nil {
		ttl := conf.ProofJobTTL
		if ttl == 0 {
			ttl = defaultProofJobTTL
		}
		a.jobs = newProofJobManager(ttl)
		a.jobs.start(ctx)
	}
	a.initRouter()
	go func() {
		log.Infow("starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes.
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the HTTP handlers for the API endpoints.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", InfoEndpoint, "method", "GET")
	a.router.Get(InfoEndpoint, a.info)
	// deposit endpoints
	log.Infow("register handler", "endpoint", DepositsEndpoint, "method", "POST")
	a.router.Post(DepositsEndpoint, a.newDeposit)
	log.Infow("register handler", "endpoint", DepositsEndpoint, "method", "GET")
	a.router.Get(DepositsEndpoint, a.depositLog)
	log.Infow("register handler", "endpoint", MerkleRootEndpoint, "method", "GET")
	a.router.Get(MerkleRootEndpoint, a.merkleRoot)
	log.Infow("register handler", "endpoint", MerkleProofEndpoint, "method", "GET")
	a.router.Get(MerkleProofEndpoint, a.merkleProof)
	// swap config endpoints
	log.Infow("register handler", "endpoint", SwapConfigsEndpoint, "method", "POST")
	a.router.Post(SwapConfigsEndpoint, a.registerSwapConfig)
	log.Infow("register handler", "endpoint", SwapConfigsEndpoint, "method", "GET")
	a.router.Get(SwapConfigsEndpoint, a.listSwapConfigs)
	log.Infow("register handler", "endpoint", SwapConfigEndpoint, "method", "GET")
	a.router.Get(SwapConfigEndpoint, a.swapConfig)
	// swap phase endpoint
	log.Infow("register handler", "endpoint", SwapsEndpoint, "method", "POST")
	a.router.Post(SwapsEndpoint, a.recordSwap)
	// nullifier and withdrawal endpoints
	log.Infow("register handler", "endpoint", NullifierEndpoint, "method", "GET")
	a.router.Get(NullifierEndpoint, a.nullifierStatus)
	log.Infow("register handler", "endpoint", WithdrawalsEndpoint, "method", "POST")
	a.router.Post(WithdrawalsEndpoint, a.withdraw)

	// proof generation endpoints (if enabled)
	if a.prover != nil {
		log.Infow("register handler", "endpoint", ProofsEndpoint, "method", "POST")
		a.router.Post(ProofsEndpoint, a.newProofJob)
		log.Infow("register handler", "endpoint", ProofJobEndpoint, "method", "GET")
		a.router.Get(ProofJobEndpoint, a.proofJobStatus)
	}
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	a.router.Use(loggingMiddleware(maxRequestBodyLog))
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	a.registerHandlers()
}
