package api

// Route constants for the API endpoints

const (
	// Health endpoint
	PingEndpoint = "/ping" // GET: Health check

	// Info endpoint
	InfoEndpoint = "/info" // GET: Node and circuit artifact information

	// Deposit endpoints
	LeafIndexURLParam   = "leafIndex"                                 // URL parameter for leaf index
	DepositsEndpoint    = "/deposits"                                 // POST: Insert commitment, GET: Deposit log
	MerkleRootEndpoint  = "/merkle/root"                              // GET: Current accumulator root
	MerkleProofEndpoint = "/merkle/proof/{" + LeafIndexURLParam + "}" // GET: Authenticated path for a leaf

	// Swap configuration endpoints
	SwapConfigURLParam  = "swapConfigId"                                        // URL parameter for swap config ID
	SwapConfigsEndpoint = "/swap-configs"                                       // POST: Register config (owner), GET: List configs
	SwapConfigEndpoint  = SwapConfigsEndpoint + "/{" + SwapConfigURLParam + "}" // GET: One config

	// Swap phase endpoint
	SwapsEndpoint = "/swaps" // POST: Record a swap (operator)

	// Nullifier endpoints
	NullifierURLParam = "nullifierHash"                           // URL parameter for nullifier hash
	NullifierEndpoint = "/nullifiers/{" + NullifierURLParam + "}" // GET: Status and swap result of a nullifier hash

	// Withdrawal endpoint
	WithdrawalsEndpoint = "/withdrawals" // POST: Verify proof and release funds

	// Proof generation endpoints (only when the node carries circuit keys)
	ProofJobURLParam = "jobId"                                        // URL parameter for proof job ID
	ProofsEndpoint   = "/proofs"                                      // POST: Start a withdrawal proof job
	ProofJobEndpoint = ProofsEndpoint + "/{" + ProofJobURLParam + "}" // GET: Proof job status and result

	// Query parameters for the deposit log
	FromIndexQueryParam = "fromIndex" // First leaf index to return
	MaxCountQueryParam  = "max"       // Maximum number of entries to return
)

// LogExcludedPrefixes defines URL prefixes to exclude from request logging
var LogExcludedPrefixes = []string{
	PingEndpoint,
	InfoEndpoint,
}
