package keeper

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/types"
)

// VoteCounter reads recorded votes
type VoteCounter interface {
	CountVotes(ctx context.Context, index uint64, option uint32) (sdk.Int, error)
}

// Organization is the governance contract with proposals and votes
type Organization interface {
	VoteCounter
	QueryProposal(ctx context.Context, index uint64) (*types.Proposal, error)
	CastVote(ctx context.Context, index uint64, option uint32, opts types.SendOpts) (*types.Receipt, error)
}

// AccessControl is the organization permission policy with its forwarder graph
type AccessControl interface {
	HasPermission(ctx context.Context, who sdk.AccAddress, call types.Call) (bool, error)
	ListForwarders(ctx context.Context) ([]sdk.AccAddress, error)
	CanForward(ctx context.Context, forwarder, sender sdk.AccAddress) (bool, error)
}

// Registry is the settings store
type Registry interface {
	Get(ctx context.Context, name string) (string, error)
	SetCall(name, value string) (types.Call, error)
}

var (
	_ Organization  = contract.OrganizationContractAdapter{}
	_ AccessControl = contract.ACLContractAdapter{}
	_ Registry      = contract.RegistryContractAdapter{}
)

// ModuleLogger returns a logger scoped to this module
func ModuleLogger(logger log.Logger) log.Logger {
	return logger.With("module", fmt.Sprintf("x/%s", types.ModuleName))
}
