// Package circuits manages the compiled zk-SNARK artifacts the node depends
// on. Artifacts are content-addressed by their SHA256 hash, fetched from a
// remote CDN on first use and verified before loading.
package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	cs_bn254 "github.com/consensys/gnark/constraint/bn254"
	"golang.org/x/sync/errgroup"

	"github.com/veilswap/veilswap-node/log"
	"github.com/veilswap/veilswap-node/types"
)

// WithdrawalCurve is the curve every circuit in this repository is compiled
// over.
var WithdrawalCurve = ecc.BN254

// BaseDir is the directory where circuit artifacts are cached. It can be
// overridden before any artifact is loaded.
var BaseDir = func() string {
	if dir := os.Getenv("VEILSWAP_ARTIFACTS_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "veilswap-artifacts")
	}
	return filepath.Join(home, ".veilswap", "artifacts")
}()

// Artifact is a single remote circuit artifact, identified by the SHA256
// hash of its content.
type Artifact struct {
	Name      string
	RemoteURL string
	Hash      types.HexBytes

	content []byte
}

// Content returns the artifact bytes, or nil if the artifact has not been
// loaded yet.
func (a *Artifact) Content() []byte {
	return a.content
}

// localPath returns the on-disk cache location of the artifact.
func (a *Artifact) localPath() string {
	return filepath.Join(BaseDir, a.Hash.Hex())
}

// Load reads the artifact from the local cache and verifies its hash. It
// does not attempt to download missing artifacts.
func (a *Artifact) Load() error {
	if a.content != nil {
		return nil
	}
	content, err := os.ReadFile(a.localPath())
	if err != nil {
		return fmt.Errorf("could not read %s artifact: %w", a.Name, err)
	}
	if err := a.verify(content); err != nil {
		return err
	}
	a.content = content
	return nil
}

// Download fetches the artifact from its remote URL unless a valid local
// copy already exists. The download is written to a temporary file and moved
// into place only after the hash check passes.
func (a *Artifact) Download(ctx context.Context) error {
	if err := a.Load(); err == nil {
		return nil
	}
	if a.RemoteURL == "" {
		return fmt.Errorf("no remote URL for %s artifact", a.Name)
	}
	log.Infow("downloading circuit artifact", "name", a.Name, "url", a.RemoteURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.RemoteURL, nil)
	if err != nil {
		return fmt.Errorf("could not build request for %s artifact: %w", a.Name, err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not download %s artifact: %w", a.Name, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warnw("error closing artifact response body", "name", a.Name, "error", err)
		}
	}()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("could not download %s artifact: http status %d", a.Name, res.StatusCode)
	}
	content, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("could not read %s artifact body: %w", a.Name, err)
	}
	if err := a.verify(content); err != nil {
		return err
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		return fmt.Errorf("could not create artifacts dir: %w", err)
	}
	tmp, err := os.CreateTemp(BaseDir, a.Hash.Hex()+".tmp")
	if err != nil {
		return fmt.Errorf("could not create temp artifact file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write %s artifact: %w", a.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close %s artifact file: %w", a.Name, err)
	}
	if err := os.Rename(tmp.Name(), a.localPath()); err != nil {
		return fmt.Errorf("could not move %s artifact into place: %w", a.Name, err)
	}
	a.content = content
	return nil
}

func (a *Artifact) verify(content []byte) error {
	sum := sha256.Sum256(content)
	if !bytes.Equal(sum[:], a.Hash) {
		return fmt.Errorf("%s artifact hash mismatch: got %x, expected %s",
			a.Name, sum, a.Hash.Hex())
	}
	return nil
}

// CircuitArtifacts groups the three artifacts of a compiled circuit.
type CircuitArtifacts struct {
	curve             ecc.ID
	circuitDefinition *Artifact
	provingKey        *Artifact
	verifyingKey      *Artifact
}

// NewCircuitArtifacts creates a CircuitArtifacts from its three members. Any
// of them may be nil if a consumer only needs a subset.
func NewCircuitArtifacts(curve ecc.ID, circuit, provingKey, verifyingKey *Artifact) *CircuitArtifacts {
	return &CircuitArtifacts{
		curve:             curve,
		circuitDefinition: circuit,
		provingKey:        provingKey,
		verifyingKey:      verifyingKey,
	}
}

// LoadAll loads every non-nil artifact from the local cache.
func (ca *CircuitArtifacts) LoadAll() error {
	for _, a := range ca.artifacts() {
		if err := a.Load(); err != nil {
			return err
		}
	}
	return nil
}

// DownloadAll fetches every non-nil artifact concurrently, skipping those
// already cached.
func (ca *CircuitArtifacts) DownloadAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range ca.artifacts() {
		g.Go(func() error { return a.Download(gctx) })
	}
	return g.Wait()
}

// CircuitDefinition decodes the loaded constraint system.
func (ca *CircuitArtifacts) CircuitDefinition() (constraint.ConstraintSystem, error) {
	if ca.circuitDefinition == nil || ca.circuitDefinition.content == nil {
		return nil, fmt.Errorf("circuit definition not loaded")
	}
	ccs := new(cs_bn254.R1CS)
	if _, err := ccs.ReadFrom(bytes.NewReader(ca.circuitDefinition.content)); err != nil {
		return nil, fmt.Errorf("could not decode circuit definition: %w", err)
	}
	return ccs, nil
}

// ProvingKey decodes the loaded proving key.
func (ca *CircuitArtifacts) ProvingKey() (groth16.ProvingKey, error) {
	if ca.provingKey == nil || ca.provingKey.content == nil {
		return nil, fmt.Errorf("proving key not loaded")
	}
	pk := groth16.NewProvingKey(ca.curve)
	if _, err := pk.UnsafeReadFrom(bytes.NewReader(ca.provingKey.content)); err != nil {
		return nil, fmt.Errorf("could not decode proving key: %w", err)
	}
	return pk, nil
}

// VerifyingKey decodes the loaded verification key.
func (ca *CircuitArtifacts) VerifyingKey() (groth16.VerifyingKey, error) {
	if ca.verifyingKey == nil || ca.verifyingKey.content == nil {
		return nil, fmt.Errorf("verification key not loaded")
	}
	vk := groth16.NewVerifyingKey(ca.curve)
	if _, err := vk.ReadFrom(bytes.NewReader(ca.verifyingKey.content)); err != nil {
		return nil, fmt.Errorf("could not decode verification key: %w", err)
	}
	return vk, nil
}

func (ca *CircuitArtifacts) artifacts() []*Artifact {
	out := []*Artifact{}
	for _, a := range []*Artifact{ca.circuitDefinition, ca.provingKey, ca.verifyingKey} {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}
