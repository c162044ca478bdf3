package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// TallyResult is the vote count of one option, or the undecided power, relative to the total voting power
type TallyResult struct {
	Votes sdk.Int `json:"votes" yaml:"votes"`
	Total sdk.Int `json:"total" yaml:"total"`
}

// NewTallyResult constructor
func NewTallyResult(votes, total sdk.Int) (TallyResult, error) {
	r := TallyResult{Votes: votes, Total: total}
	return r, r.ValidateBasic()
}

// ValidateBasic ensures votes are within [0, total]
func (r TallyResult) ValidateBasic() error {
	if r.Votes.IsNil() || r.Total.IsNil() {
		return sdkerrors.Wrap(ErrEmpty, "tally")
	}
	if r.Votes.IsNegative() || r.Total.IsNegative() {
		return sdkerrors.Wrap(ErrInvalid, "negative votes")
	}
	if r.Votes.GT(r.Total) {
		return sdkerrors.Wrapf(ErrInvalid, "votes %s exceed total voting power %s", r.Votes, r.Total)
	}
	return nil
}

// RelativeVotes returns votes / total in [0,1]. Zero when no voting power exists.
// For display only, thresholds are evaluated with Exceeds.
func (r TallyResult) RelativeVotes() sdk.Dec {
	if r.Total.IsNil() || !r.Total.IsPositive() {
		return sdk.ZeroDec()
	}
	return sdk.NewDecFromInt(r.Votes).QuoInt(r.Total)
}

// Exceeds returns true when votes / total is strictly greater than the threshold.
// The comparison is done as votes > threshold * total so that no rounding happens on the ratio.
func (r TallyResult) Exceeds(threshold sdk.Dec) bool {
	if r.Total.IsNil() || !r.Total.IsPositive() {
		return false
	}
	return sdk.NewDecFromInt(r.Votes).GT(threshold.MulInt(r.Total))
}

// Percentage renders the relative votes for humans, e.g. "61.00%"
func (r TallyResult) Percentage() string {
	pct := r.RelativeVotes().MulInt64(100)
	return fmt.Sprintf("%s%%", pct.String()[:len(pct.String())-16])
}

func (r TallyResult) String() string {
	return fmt.Sprintf("%s/%s", r.Votes, r.Total)
}
