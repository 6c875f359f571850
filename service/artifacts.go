package service

import (
	"context"
	"time"

	"github.com/veilswap/veilswap-node/circuits"
	"github.com/veilswap/veilswap-node/circuits/withdrawal"
	"github.com/veilswap/veilswap-node/log"
)

// DownloadArtifacts fetches the withdrawal circuit artifacts into the local
// cache, verifying their hashes. The node refuses to prove or verify with
// artifacts that fail the integrity check.
func DownloadArtifacts(timeout time.Duration, dataDir string) error {
	if dataDir != "" {
		circuits.BaseDir = dataDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Infow("preparing withdrawal circuit artifacts", "timeout", timeout, "dataDir", circuits.BaseDir)
	return withdrawal.Artifacts.DownloadAll(ctx)
}
