package contract

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/confio/tgov/x/govexec/types"
)

// Voting power source contract methods
const (
	MethodCanVote            = "can_vote"
	MethodVotingPowerForPoll = "voting_power_for_poll"
	MethodTotalVotingPower   = "total_voting_power"
)

type VoterQuery struct {
	Voter string `json:"voter"`
	Index uint64 `json:"index"`
}

type TotalVotingPowerQuery struct {
	Index uint64 `json:"index"`
}

type CanVoteResponse struct {
	CanVote bool `json:"can_vote"`
}

// VotingPowerResponse power snapshot taken at proposal creation. Serialized as string.
type VotingPowerResponse struct {
	Power sdk.Int `json:"power"`
}

var _ types.VotingPowerSource = VotingPowerSourceAdapter{}

// VotingPowerSourceAdapter a token or share contract that assigns voting power per proposal
type VotingPowerSourceAdapter struct {
	BaseContractAdapter
}

// NewVotingPowerSourceAdapter constructor
func NewVotingPowerSourceAdapter(contractAddr sdk.AccAddress, ledger types.LedgerPort) VotingPowerSourceAdapter {
	return VotingPowerSourceAdapter{
		BaseContractAdapter: NewBaseContractAdapter(contractAddr, ledger, nil),
	}
}

// Address of the source contract
func (v VotingPowerSourceAdapter) Address() sdk.AccAddress {
	return v.contractAddr
}

// Eligible returns true when the account can vote on the proposal with this source
func (v VotingPowerSourceAdapter) Eligible(ctx context.Context, account sdk.AccAddress, index uint64) (bool, error) {
	var rsp CanVoteResponse
	if err := v.doQuery(ctx, MethodCanVote, VoterQuery{Voter: account.String(), Index: index}, &rsp); err != nil {
		return false, sdkerrors.Wrap(err, "contract query")
	}
	return rsp.CanVote, nil
}

// Weight returns the account voting power snapshot for the proposal
func (v VotingPowerSourceAdapter) Weight(ctx context.Context, account sdk.AccAddress, index uint64) (sdk.Int, error) {
	var rsp VotingPowerResponse
	if err := v.doQuery(ctx, MethodVotingPowerForPoll, VoterQuery{Voter: account.String(), Index: index}, &rsp); err != nil {
		return sdk.Int{}, sdkerrors.Wrap(err, "contract query")
	}
	return nonNegative(rsp.Power)
}

// TotalWeight returns the total voting power snapshot for the proposal
func (v VotingPowerSourceAdapter) TotalWeight(ctx context.Context, index uint64) (sdk.Int, error) {
	var rsp VotingPowerResponse
	if err := v.doQuery(ctx, MethodTotalVotingPower, TotalVotingPowerQuery{Index: index}, &rsp); err != nil {
		return sdk.Int{}, sdkerrors.Wrap(err, "contract query")
	}
	return nonNegative(rsp.Power)
}

func nonNegative(i sdk.Int) (sdk.Int, error) {
	switch {
	case i.IsNil():
		return sdk.Int{}, sdkerrors.Wrap(types.ErrEmpty, "power")
	case i.IsNegative():
		return sdk.Int{}, sdkerrors.Wrap(types.ErrInvalid, "negative power")
	}
	return i, nil
}
