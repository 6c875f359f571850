package storage

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/veilswap/veilswap-node/db/metadb"
	"github.com/veilswap/veilswap-node/types"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	d, err := metadb.New(metadb.TypePebble, t.TempDir())
	qt.Assert(t, err, qt.IsNil)
	s := New(d)
	t.Cleanup(s.Close)
	return s
}

func testSwapConfig(id int64) *types.SwapConfig {
	return &types.SwapConfig{
		ID:          new(types.BigInt).SetInt(int(id)),
		TokenIn:     types.NativeAsset(),
		FixedAmount: new(types.BigInt).SetInt(1000),
	}
}

func TestSwapConfigRegistry(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(t)

	cfg := testSwapConfig(1)
	c.Assert(s.RegisterSwapConfig(cfg), qt.IsNil)

	// configs are immutable, a second registration must fail
	c.Assert(s.RegisterSwapConfig(testSwapConfig(1)), qt.ErrorIs, ErrKeyAlreadyExists)

	got, err := s.SwapConfig(cfg.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.FixedAmount.MathBigInt().Int64(), qt.Equals, int64(1000))
	c.Assert(got.TokenIn.IsNative(), qt.IsTrue)

	_, err = s.SwapConfig(new(types.BigInt).SetInt(99))
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	c.Assert(s.RegisterSwapConfig(testSwapConfig(2)), qt.IsNil)
	configs, err := s.ListSwapConfigs()
	c.Assert(err, qt.IsNil)
	c.Assert(configs, qt.HasLen, 2)
}

func TestSwapConfigValidation(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(t)

	c.Assert(s.RegisterSwapConfig(nil), qt.IsNotNil)
	c.Assert(s.RegisterSwapConfig(&types.SwapConfig{
		ID:          new(types.BigInt).SetInt(3),
		TokenIn:     types.NativeAsset(),
		FixedAmount: new(types.BigInt).SetInt(0),
	}), qt.IsNotNil)
}

func TestRecordSwapResultOnce(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(t)

	nh := big.NewInt(123456789)
	result := &types.SwapResult{
		TokenOut: types.FungibleAsset(common.HexToAddress("0xaaaa00000000000000000000000000000000aaaa")),
		Amount:   new(types.BigInt).SetInt(5000),
	}
	c.Assert(s.RecordSwapResult(nh, result), qt.IsNil)

	// at-most-once swap: the second record fails and the stored result is
	// unchanged
	other := &types.SwapResult{
		TokenOut: types.NativeAsset(),
		Amount:   new(types.BigInt).SetInt(1),
	}
	c.Assert(s.RecordSwapResult(nh, other), qt.ErrorIs, ErrAlreadySwapped)

	got, err := s.SwapResult(nh)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Amount.MathBigInt().Int64(), qt.Equals, int64(5000))
	c.Assert(got.TokenOut.Equal(result.TokenOut), qt.IsTrue)

	events, err := s.SwapEvents()
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 1)
	c.Assert(events[0].NullifierHash.MathBigInt().Cmp(nh), qt.Equals, 0)
}

func TestConsumeNullifier(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(t)

	nh := big.NewInt(42)
	recipient := common.HexToAddress("0x1234000000000000000000000000000000001234")

	// consuming before any swap must fail
	_, err := s.ConsumeNullifier(nh, recipient)
	c.Assert(err, qt.ErrorIs, ErrNoSwapResult)
	c.Assert(s.NullifierStatus(nh), qt.Equals, types.NullifierUnseen)

	result := &types.SwapResult{
		TokenOut: types.NativeAsset(),
		Amount:   new(types.BigInt).SetInt(777),
	}
	c.Assert(s.RecordSwapResult(nh, result), qt.IsNil)
	c.Assert(s.NullifierStatus(nh), qt.Equals, types.NullifierSwapped)
	c.Assert(s.IsConsumed(nh), qt.IsFalse)

	got, err := s.ConsumeNullifier(nh, recipient)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Amount.MathBigInt().Int64(), qt.Equals, int64(777))
	c.Assert(s.IsConsumed(nh), qt.IsTrue)
	c.Assert(s.NullifierStatus(nh), qt.Equals, types.NullifierWithdrawn)

	// at-most-once withdrawal
	_, err = s.ConsumeNullifier(nh, recipient)
	c.Assert(err, qt.ErrorIs, ErrAlreadyWithdrawn)

	events, err := s.WithdrawalEvents()
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 1)
	c.Assert(events[0].Recipient, qt.Equals, recipient)
}

func TestDepositLog(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(t)

	for i := 0; i < 3; i++ {
		c.Assert(s.PushDepositEvent(&types.DepositEvent{
			Commitment:   new(types.BigInt).SetInt(1000 + i),
			LeafIndex:    uint32(i),
			SwapConfigID: new(types.BigInt).SetInt(1),
			Timestamp:    time.Now(),
		}), qt.IsNil)
	}

	events, err := s.DepositEvents()
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 3)
	for i, ev := range events {
		c.Assert(ev.LeafIndex, qt.Equals, uint32(i), qt.Commentf("deposit log must keep insertion order"))
	}

	idx, err := s.FindCommitment(big.NewInt(1001))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(1))

	_, err = s.FindCommitment(big.NewInt(9999))
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	ev, err := s.DepositEvent(2)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.Commitment.MathBigInt().Int64(), qt.Equals, int64(1002))
}
