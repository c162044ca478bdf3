package govtesting

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/confio/tgov/x/govexec/types"
)

var _ types.LedgerPort = LedgerMock{}

// LedgerMock implements types.LedgerPort for testing purpose
type LedgerMock struct {
	CallFn func(ctx context.Context, call types.Call) ([]byte, error)
	SendFn func(ctx context.Context, call types.Call, opts types.SendOpts) (*types.Receipt, error)
}

func (m LedgerMock) Call(ctx context.Context, call types.Call) ([]byte, error) {
	if m.CallFn == nil {
		panic("not expected to be called")
	}
	return m.CallFn(ctx, call)
}

func (m LedgerMock) Send(ctx context.Context, call types.Call, opts types.SendOpts) (*types.Receipt, error) {
	if m.SendFn == nil {
		panic("not expected to be called")
	}
	return m.SendFn(ctx, call, opts)
}

var _ types.VotingPowerSource = VotingPowerSourceMock{}

// VotingPowerSourceMock implements types.VotingPowerSource for testing purpose
type VotingPowerSourceMock struct {
	AddressFn     func() sdk.AccAddress
	EligibleFn    func(ctx context.Context, account sdk.AccAddress, index uint64) (bool, error)
	WeightFn      func(ctx context.Context, account sdk.AccAddress, index uint64) (sdk.Int, error)
	TotalWeightFn func(ctx context.Context, index uint64) (sdk.Int, error)
}

func (m VotingPowerSourceMock) Address() sdk.AccAddress {
	if m.AddressFn == nil {
		panic("not expected to be called")
	}
	return m.AddressFn()
}

func (m VotingPowerSourceMock) Eligible(ctx context.Context, account sdk.AccAddress, index uint64) (bool, error) {
	if m.EligibleFn == nil {
		panic("not expected to be called")
	}
	return m.EligibleFn(ctx, account, index)
}

func (m VotingPowerSourceMock) Weight(ctx context.Context, account sdk.AccAddress, index uint64) (sdk.Int, error) {
	if m.WeightFn == nil {
		panic("not expected to be called")
	}
	return m.WeightFn(ctx, account, index)
}

func (m VotingPowerSourceMock) TotalWeight(ctx context.Context, index uint64) (sdk.Int, error) {
	if m.TotalWeightFn == nil {
		panic("not expected to be called")
	}
	return m.TotalWeightFn(ctx, index)
}

var _ types.IdentityProvider = IdentityProviderMock{}

// IdentityProviderMock implements types.IdentityProvider for testing purpose
type IdentityProviderMock struct {
	CurrentAccountFn func(ctx context.Context) (sdk.AccAddress, error)
}

func (m IdentityProviderMock) CurrentAccount(ctx context.Context) (sdk.AccAddress, error) {
	if m.CurrentAccountFn == nil {
		panic("not expected to be called")
	}
	return m.CurrentAccountFn(ctx)
}
