package contract

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/confio/tgov/x/govexec/types"
)

// Organization contract methods
const (
	MethodProposal      = "proposal"
	MethodListProposals = "list_proposals"
	MethodCountVotes    = "count_votes"
	MethodVotingRules   = "voting_rules"
	MethodCastVote      = "cast_vote"
)

type ProposalQuery struct {
	Index uint64 `json:"index"`
}

type ListProposalsQuery struct {
	StartAfter uint64 `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

type CountVotesQuery struct {
	Index  uint64 `json:"index"`
	Option uint32 `json:"option"`
}

// ProposalResponse response to a proposal query
type ProposalResponse struct {
	Index          uint64   `json:"index"`
	SupportNeeded  sdk.Dec  `json:"support_needed"`
	Options        []string `json:"options"`
	ExecutedOption *uint32  `json:"executed_option,omitempty"`
	Executor       string   `json:"executor"`
}

type ProposalListResponse struct {
	Proposals []ProposalResponse `json:"proposals"`
}

// CountVotesResponse absolute votes cast for an option
type CountVotesResponse struct {
	Votes sdk.Int `json:"votes"`
}

// CastVoteMsg vote execute message
type CastVoteMsg struct {
	Index  uint64 `json:"index"`
	Option uint32 `json:"option"`
}

// OrganizationContractAdapter reads proposals and votes from the governance contract and casts votes
type OrganizationContractAdapter struct {
	BaseContractAdapter
}

// NewOrganizationContractAdapter constructor
func NewOrganizationContractAdapter(contractAddr sdk.AccAddress, ledger types.LedgerPort, addressLookupErr error) OrganizationContractAdapter {
	return OrganizationContractAdapter{
		BaseContractAdapter: NewBaseContractAdapter(
			contractAddr,
			ledger,
			addressLookupErr,
		),
	}
}

// QueryProposal query a proposal by index
func (o OrganizationContractAdapter) QueryProposal(ctx context.Context, index uint64) (*types.Proposal, error) {
	var rsp ProposalResponse
	if err := o.doQuery(ctx, MethodProposal, ProposalQuery{Index: index}, &rsp); err != nil {
		return nil, sdkerrors.Wrap(err, "contract query")
	}
	p, err := o.toProposal(rsp)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProposals query proposals in ascending index order
func (o OrganizationContractAdapter) ListProposals(ctx context.Context, startAfter uint64, limit uint32) ([]types.Proposal, error) {
	var rsp ProposalListResponse
	if err := o.doQuery(ctx, MethodListProposals, ListProposalsQuery{StartAfter: startAfter, Limit: limit}, &rsp); err != nil {
		return nil, sdkerrors.Wrap(err, "contract query")
	}
	result := make([]types.Proposal, len(rsp.Proposals))
	for i, v := range rsp.Proposals {
		p, err := o.toProposal(v)
		if err != nil {
			return nil, sdkerrors.Wrapf(err, "proposal %d", v.Index)
		}
		result[i] = p
	}
	return result, nil
}

func (o OrganizationContractAdapter) toProposal(rsp ProposalResponse) (types.Proposal, error) {
	executor, err := sdk.AccAddressFromBech32(rsp.Executor)
	if err != nil {
		return types.Proposal{}, sdkerrors.Wrap(err, "executor")
	}
	p := types.Proposal{
		Index:          rsp.Index,
		SupportNeeded:  rsp.SupportNeeded,
		Options:        rsp.Options,
		ExecutedOption: rsp.ExecutedOption,
		Executor:       executor,
		Organization:   o.contractAddr,
	}
	return p, p.ValidateBasic()
}

// CountVotes returns the absolute votes cast for the option
func (o OrganizationContractAdapter) CountVotes(ctx context.Context, index uint64, option uint32) (sdk.Int, error) {
	var rsp CountVotesResponse
	if err := o.doQuery(ctx, MethodCountVotes, CountVotesQuery{Index: index, Option: option}, &rsp); err != nil {
		return sdk.Int{}, sdkerrors.Wrap(err, "contract query")
	}
	if rsp.Votes.IsNil() {
		return sdk.Int{}, sdkerrors.Wrap(types.ErrEmpty, "votes")
	}
	return rsp.Votes, nil
}

// QueryVotingRules returns the organization wide voting rules
func (o OrganizationContractAdapter) QueryVotingRules(ctx context.Context) (*types.VotingRules, error) {
	var rsp types.VotingRules
	if err := o.doQuery(ctx, MethodVotingRules, struct{}{}, &rsp); err != nil {
		return nil, sdkerrors.Wrap(err, "contract query")
	}
	return &rsp, nil
}

// CastVoteCall builds the vote call. Voting is always sent directly by the voter.
func (o OrganizationContractAdapter) CastVoteCall(index uint64, option uint32) (types.Call, error) {
	return o.newCall(MethodCastVote, CastVoteMsg{Index: index, Option: option})
}

// CastVote sends the vote for the option with the voter as sender
func (o OrganizationContractAdapter) CastVote(ctx context.Context, index uint64, option uint32, opts types.SendOpts) (*types.Receipt, error) {
	return o.doExecute(ctx, MethodCastVote, CastVoteMsg{Index: index, Option: option}, opts)
}
