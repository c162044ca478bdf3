package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/sync/errgroup"

	"github.com/confio/tgov/x/govexec/types"
)

// TallyResolver turns recorded votes and the voting power of all sources into a decision
type TallyResolver struct {
	votes   VoteCounter
	sources []types.VotingPowerSource
	cache   PowerCache
	logger  log.Logger
}

// NewTallyResolver constructor. Sources are evaluated in the given order.
func NewTallyResolver(votes VoteCounter, sources []types.VotingPowerSource, cache PowerCache, logger log.Logger) *TallyResolver {
	return &TallyResolver{
		votes:   votes,
		sources: sources,
		cache:   cache,
		logger:  logger,
	}
}

// Sources returns the registered voting power sources
func (k TallyResolver) Sources() []types.VotingPowerSource {
	return k.sources
}

// Tally returns the votes of the option relative to the total voting power
func (k TallyResolver) Tally(ctx context.Context, p types.Proposal, option uint32) (types.TallyResult, error) {
	if err := p.ValidateOption(option); err != nil {
		return types.TallyResult{}, err
	}
	total, err := k.TotalVotingPower(ctx, p)
	if err != nil {
		return types.TallyResult{}, err
	}
	votes, err := k.votes.CountVotes(ctx, p.Index, option)
	if err != nil {
		return types.TallyResult{}, sdkerrors.Wrapf(err, "count votes for option %d", option)
	}
	return types.NewTallyResult(votes, total)
}

// TallyAll returns the tally of every option in option order.
// Fails with ErrInvalid when the votes of all options exceed the total voting power.
func (k TallyResolver) TallyAll(ctx context.Context, p types.Proposal) ([]types.TallyResult, error) {
	result := make([]types.TallyResult, len(p.Options))
	sum := sdk.ZeroInt()
	for i := range p.Options {
		t, err := k.Tally(ctx, p, uint32(i))
		if err != nil {
			return nil, err
		}
		result[i] = t
		sum = sum.Add(t.Votes)
	}
	if len(result) != 0 && sum.GT(result[0].Total) {
		return nil, sdkerrors.Wrapf(types.ErrInvalid, "cast votes %s exceed total voting power %s", sum, result[0].Total)
	}
	return result, nil
}

// PendingTally returns the voting power not cast for any option relative to the total
func (k TallyResolver) PendingTally(ctx context.Context, p types.Proposal) (types.TallyResult, error) {
	tallies, err := k.TallyAll(ctx, p)
	if err != nil {
		return types.TallyResult{}, err
	}
	return pendingTally(tallies)
}

func pendingTally(tallies []types.TallyResult) (types.TallyResult, error) {
	if len(tallies) == 0 {
		return types.TallyResult{}, sdkerrors.Wrap(types.ErrEmpty, "tallies")
	}
	total := tallies[0].Total
	pending := total
	for _, t := range tallies {
		pending = pending.Sub(t.Votes)
	}
	return types.NewTallyResult(pending, total)
}

// TotalVotingPower returns the sum of the total weights of all sources for the proposal.
// The result is cached per organization, source set and proposal index. Any failing source fails the aggregate
// and nothing is cached.
func (k TallyResolver) TotalVotingPower(ctx context.Context, p types.Proposal) (sdk.Int, error) {
	scope := k.cacheScope(p)
	total, found, err := k.cache.Get(scope, p.Index)
	switch {
	case err != nil:
		k.logger.Error("power cache read failed", "index", p.Index, "error", err)
	case found:
		return total, nil
	}
	weights := make([]sdk.Int, len(k.sources))
	err = k.eachSource(ctx, func(ctx context.Context, i int, s types.VotingPowerSource) error {
		w, err := s.TotalWeight(ctx, p.Index)
		weights[i] = w
		return err
	})
	if err != nil {
		return sdk.Int{}, err
	}
	total = sdk.ZeroInt()
	for _, w := range weights {
		total = total.Add(w)
	}
	if err := k.cache.Set(scope, p.Index, total); err != nil {
		k.logger.Error("power cache write failed", "index", p.Index, "error", err)
	}
	return total, nil
}

func (k TallyResolver) cacheScope(p types.Proposal) []byte {
	addrs := make([]sdk.AccAddress, len(k.sources))
	for i, s := range k.sources {
		addrs[i] = s.Address()
	}
	return PowerCacheScope(p.Organization, addrs)
}

// CanVote returns true when any source considers the account eligible for the proposal
func (k TallyResolver) CanVote(ctx context.Context, p types.Proposal, account sdk.AccAddress) (bool, error) {
	eligible := make([]bool, len(k.sources))
	err := k.eachSource(ctx, func(ctx context.Context, i int, s types.VotingPowerSource) error {
		ok, err := s.Eligible(ctx, account, p.Index)
		eligible[i] = ok
		return err
	})
	if err != nil {
		return false, err
	}
	for _, ok := range eligible {
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// VotingPower returns the sum of the account weights over all sources
func (k TallyResolver) VotingPower(ctx context.Context, p types.Proposal, account sdk.AccAddress) (sdk.Int, error) {
	weights := make([]sdk.Int, len(k.sources))
	err := k.eachSource(ctx, func(ctx context.Context, i int, s types.VotingPowerSource) error {
		w, err := s.Weight(ctx, account, p.Index)
		weights[i] = w
		return err
	})
	if err != nil {
		return sdk.Int{}, err
	}
	power := sdk.ZeroInt()
	for _, w := range weights {
		power = power.Add(w)
	}
	return power, nil
}

// ResolveExecutionEligibility returns the option that can be executed or nil when undecided or executed.
// The affirmative option is evaluated first against the support needed. The negative option is only
// evaluated when the affirmative one has not passed, against the complementary threshold.
func (k TallyResolver) ResolveExecutionEligibility(ctx context.Context, p types.Proposal) (*types.Winner, error) {
	if p.IsExecuted() {
		return nil, nil
	}
	for _, option := range []uint32{types.OptionAffirmative, types.OptionNegative} {
		t, err := k.Tally(ctx, p, option)
		if err != nil {
			return nil, err
		}
		if w := winnerOf(p, option, t); w != nil {
			return w, nil
		}
	}
	return nil, nil
}

// resolveWinner evaluates already loaded tallies in the same order as ResolveExecutionEligibility
func resolveWinner(p types.Proposal, tallies []types.TallyResult) *types.Winner {
	if p.IsExecuted() {
		return nil
	}
	for _, option := range []uint32{types.OptionAffirmative, types.OptionNegative} {
		if int(option) >= len(tallies) {
			return nil
		}
		if w := winnerOf(p, option, tallies[option]); w != nil {
			return w
		}
	}
	return nil
}

func winnerOf(p types.Proposal, option uint32, t types.TallyResult) *types.Winner {
	threshold, sentiment := p.SupportNeeded, types.SentimentPrimary
	if option == types.OptionNegative {
		threshold, sentiment = sdk.OneDec().Sub(p.SupportNeeded), types.SentimentNegative
	}
	if !t.Exceeds(threshold) {
		return nil
	}
	return &types.Winner{Sentiment: sentiment, Option: option, Label: p.OptionLabel(option)}
}

// eachSource runs the read against all sources concurrently and waits for all of them.
// The first failure cancels the others and is returned as ErrSourceUnavailable.
func (k TallyResolver) eachSource(ctx context.Context, read func(ctx context.Context, i int, s types.VotingPowerSource) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range k.sources {
		i, s := i, s
		g.Go(func() error {
			if err := read(gctx, i, s); err != nil {
				return sdkerrors.Wrapf(types.ErrSourceUnavailable, "source %s: %s", s.Address(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
