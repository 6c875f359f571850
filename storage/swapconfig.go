package storage

import (
	"fmt"

	"github.com/veilswap/veilswap-node/types"
)

// RegisterSwapConfig stores a new swap configuration. Configurations are
// immutable: registering an ID twice returns ErrKeyAlreadyExists.
func (s *Storage) RegisterSwapConfig(cfg *types.SwapConfig) error {
	if cfg == nil || cfg.ID == nil {
		return fmt.Errorf("missing swap config ID")
	}
	if cfg.FixedAmount == nil || cfg.FixedAmount.MathBigInt().Sign() <= 0 {
		return fmt.Errorf("swap config amount must be positive")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	key := cfg.ID.Bytes()
	if err := s.getArtifact(swapConfigPrefix, key, &types.SwapConfig{}); err == nil {
		return ErrKeyAlreadyExists
	}
	if err := s.setArtifact(swapConfigPrefix, key, cfg); err != nil {
		return err
	}
	s.cache.Add(cacheKey(swapConfigPrefix, key), cfg)
	return nil
}

// SwapConfig retrieves a swap configuration by ID. Returns ErrNotFound if it
// was never registered.
func (s *Storage) SwapConfig(id *types.BigInt) (*types.SwapConfig, error) {
	if id == nil {
		return nil, fmt.Errorf("missing swap config ID")
	}
	key := id.Bytes()
	if cached, ok := s.cache.Get(cacheKey(swapConfigPrefix, key)); ok {
		if cfg, ok := cached.(*types.SwapConfig); ok {
			return cfg, nil
		}
	}
	cfg := &types.SwapConfig{}
	if err := s.getArtifact(swapConfigPrefix, key, cfg); err != nil {
		return nil, err
	}
	s.cache.Add(cacheKey(swapConfigPrefix, key), cfg)
	return cfg, nil
}

// ListSwapConfigs returns every registered swap configuration.
func (s *Storage) ListSwapConfigs() ([]*types.SwapConfig, error) {
	keys, err := s.listArtifacts(swapConfigPrefix)
	if err != nil {
		return nil, err
	}
	configs := make([]*types.SwapConfig, 0, len(keys))
	for _, key := range keys {
		cfg := &types.SwapConfig{}
		if err := s.getArtifact(swapConfigPrefix, key, cfg); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func cacheKey(prefix, key []byte) string {
	return string(prefix) + string(key)
}
