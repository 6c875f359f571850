package storage

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilswap/veilswap-node/db/prefixeddb"
	"github.com/veilswap/veilswap-node/types"
)

// nullifierKey returns the fixed-width key of a nullifier hash.
func nullifierKey(nullifierHash *big.Int) []byte {
	key := make([]byte, 32)
	nullifierHash.FillBytes(key)
	return key
}

// RecordSwapResult stores the outcome of the swap phase for a nullifier
// hash. It is a write-once operation: a second call for the same hash fails
// with ErrAlreadySwapped and leaves the stored result untouched. The result
// and its event record are committed atomically.
func (s *Storage) RecordSwapResult(nullifierHash *big.Int, result *types.SwapResult) error {
	if result == nil || result.Amount == nil {
		return fmt.Errorf("missing swap result")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	key := nullifierKey(nullifierHash)
	if err := s.getArtifact(swapResultPrefix, key, &types.SwapResult{}); err == nil {
		return ErrAlreadySwapped
	}

	resultData, err := EncodeArtifact(result)
	if err != nil {
		return err
	}
	eventData, err := EncodeArtifact(&types.SwapRecordedEvent{
		NullifierHash: new(types.BigInt).SetBigInt(nullifierHash),
		TokenOut:      result.TokenOut,
		AmountOut:     result.Amount,
	})
	if err != nil {
		return err
	}

	tx := s.db.WriteTx()
	defer tx.Discard()
	if err := prefixeddb.NewPrefixedWriteTx(tx, swapResultPrefix).Set(key, resultData); err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, swapEventPrefix).Set(key, eventData); err != nil {
		return err
	}
	return tx.Commit()
}

// SwapResult retrieves the swap result of a nullifier hash. Returns
// ErrNoSwapResult if the hash was never swapped.
func (s *Storage) SwapResult(nullifierHash *big.Int) (*types.SwapResult, error) {
	result := &types.SwapResult{}
	if err := s.getArtifact(swapResultPrefix, nullifierKey(nullifierHash), result); err != nil {
		return nil, ErrNoSwapResult
	}
	return result, nil
}

// IsConsumed reports whether the nullifier hash has been consumed by a
// withdrawal.
func (s *Storage) IsConsumed(nullifierHash *big.Int) bool {
	var marker bool
	return s.getArtifact(consumedPrefix, nullifierKey(nullifierHash), &marker) == nil
}

// ConsumeNullifier atomically marks a nullifier hash as consumed and returns
// its swap result. Fails with ErrAlreadyWithdrawn if already consumed, and
// with ErrNoSwapResult if the hash was never swapped. The consumed marker and
// the withdrawal event are committed in one transaction.
func (s *Storage) ConsumeNullifier(nullifierHash *big.Int, recipient common.Address) (*types.SwapResult, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	key := nullifierKey(nullifierHash)
	var marker bool
	if err := s.getArtifact(consumedPrefix, key, &marker); err == nil {
		return nil, ErrAlreadyWithdrawn
	}
	result := &types.SwapResult{}
	if err := s.getArtifact(swapResultPrefix, key, result); err != nil {
		return nil, ErrNoSwapResult
	}

	markerData, err := EncodeArtifact(true)
	if err != nil {
		return nil, err
	}
	eventData, err := EncodeArtifact(&types.WithdrawalEvent{
		NullifierHash: new(types.BigInt).SetBigInt(nullifierHash),
		Recipient:     recipient,
		TokenOut:      result.TokenOut,
		Amount:        result.Amount,
	})
	if err != nil {
		return nil, err
	}

	tx := s.db.WriteTx()
	defer tx.Discard()
	if err := prefixeddb.NewPrefixedWriteTx(tx, consumedPrefix).Set(key, markerData); err != nil {
		return nil, err
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, withdrawalEventPrefix).Set(key, eventData); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// NullifierStatus returns where a nullifier hash sits in its state machine.
func (s *Storage) NullifierStatus(nullifierHash *big.Int) types.NullifierStatus {
	if s.IsConsumed(nullifierHash) {
		return types.NullifierWithdrawn
	}
	if _, err := s.SwapResult(nullifierHash); err == nil {
		return types.NullifierSwapped
	}
	return types.NullifierUnseen
}

// SwapEvents returns every recorded swap event.
func (s *Storage) SwapEvents() ([]*types.SwapRecordedEvent, error) {
	keys, err := s.listArtifacts(swapEventPrefix)
	if err != nil {
		return nil, err
	}
	events := make([]*types.SwapRecordedEvent, 0, len(keys))
	for _, key := range keys {
		ev := &types.SwapRecordedEvent{}
		if err := s.getArtifact(swapEventPrefix, key, ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// WithdrawalEvents returns every recorded withdrawal event.
func (s *Storage) WithdrawalEvents() ([]*types.WithdrawalEvent, error) {
	keys, err := s.listArtifacts(withdrawalEventPrefix)
	if err != nil {
		return nil, err
	}
	events := make([]*types.WithdrawalEvent, 0, len(keys))
	for _, key := range keys {
		ev := &types.WithdrawalEvent{}
		if err := s.getArtifact(withdrawalEventPrefix, key, ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
