package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// SendOpts are the submission parameters of a write
type SendOpts struct {
	From sdk.AccAddress
	Gas  uint64
}

// Receipt of a confirmed submission
type Receipt struct {
	TxHash  string `json:"tx_hash"`
	Height  int64  `json:"height"`
	GasUsed int64  `json:"gas_used"`
	Data    []byte `json:"data,omitempty"`
}

// LedgerPort is the read and write capability on chain state.
// Send fails with ErrReverted, ErrOutOfGas or ErrAlreadyExecuted. Chain state is unchanged on failure.
type LedgerPort interface {
	Call(ctx context.Context, call Call) ([]byte, error)
	Send(ctx context.Context, call Call, opts SendOpts) (*Receipt, error)
}

// IdentityProvider returns the acting account
type IdentityProvider interface {
	CurrentAccount(ctx context.Context) (sdk.AccAddress, error)
}

// VotingPowerSource is one weighted voting power provider. Weights are snapshots taken at proposal creation.
type VotingPowerSource interface {
	Address() sdk.AccAddress
	// Eligible returns true when the account has standing to vote on the proposal
	Eligible(ctx context.Context, account sdk.AccAddress, index uint64) (bool, error)
	// Weight returns the account voting power for the proposal
	Weight(ctx context.Context, account sdk.AccAddress, index uint64) (sdk.Int, error)
	// TotalWeight returns the total voting power of this source for the proposal
	TotalWeight(ctx context.Context, index uint64) (sdk.Int, error)
}

// AppOptions is a read only view on runtime options, i.e. command flags
type AppOptions interface {
	Get(string) interface{}
}
