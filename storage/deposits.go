package storage

import (
	"encoding/binary"
	"math/big"

	"github.com/veilswap/veilswap-node/types"
)

// PushDepositEvent appends a deposit event to the ordered deposit log, keyed
// by leaf index.
func (s *Storage) PushDepositEvent(ev *types.DepositEvent) error {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, ev.LeafIndex)
	return s.setArtifact(depositLogPrefix, key, ev)
}

// DepositEvent retrieves the deposit event of a leaf index.
func (s *Storage) DepositEvent(leafIndex uint32) (*types.DepositEvent, error) {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, leafIndex)
	ev := &types.DepositEvent{}
	if err := s.getArtifact(depositLogPrefix, key, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// DepositEvents returns the deposit log in leaf-index order.
func (s *Storage) DepositEvents() ([]*types.DepositEvent, error) {
	keys, err := s.listArtifacts(depositLogPrefix)
	if err != nil {
		return nil, err
	}
	events := make([]*types.DepositEvent, 0, len(keys))
	for _, key := range keys {
		ev := &types.DepositEvent{}
		if err := s.getArtifact(depositLogPrefix, key, ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// FindCommitment scans the deposit log for a commitment and returns its leaf
// index. Returns ErrNotFound if no deposit carries the commitment.
func (s *Storage) FindCommitment(commitment *big.Int) (uint32, error) {
	events, err := s.DepositEvents()
	if err != nil {
		return 0, err
	}
	for _, ev := range events {
		if ev.Commitment.MathBigInt().Cmp(commitment) == 0 {
			return ev.LeafIndex, nil
		}
	}
	return 0, ErrNotFound
}
