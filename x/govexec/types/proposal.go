package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

const (
	// OptionAffirmative is the option index evaluated first
	OptionAffirmative uint32 = 0
	// OptionNegative is evaluated against the complementary threshold
	OptionNegative uint32 = 1
)

// Sentiment classifies a winning option for display
type Sentiment string

const (
	SentimentPrimary  Sentiment = "primary"
	SentimentNegative Sentiment = "negative"
)

// Proposal is an on-chain governance item with two possible outcomes
type Proposal struct {
	// Index sequence number, unique per organization
	Index uint64 `json:"index" yaml:"index"`
	// SupportNeeded fraction in (0,1) the affirmative option must strictly exceed
	SupportNeeded sdk.Dec `json:"support_needed" yaml:"support_needed"`
	// Options ordered labels, affirmative first
	Options []string `json:"options" yaml:"options"`
	// ExecutedOption is set once the proposal was executed
	ExecutedOption *uint32 `json:"executed_option,omitempty" yaml:"executed_option,omitempty"`
	// Executor is the voting app that carries out the selected option
	Executor sdk.AccAddress `json:"executor" yaml:"executor"`
	// Organization is the governance contract the proposal belongs to
	Organization sdk.AccAddress `json:"organization" yaml:"organization"`
}

// IsExecuted returns true when the decision is terminal
func (p Proposal) IsExecuted() bool {
	return p.ExecutedOption != nil
}

// OptionLabel returns the label of the option or an empty string when out of range
func (p Proposal) OptionLabel(option uint32) string {
	if int(option) >= len(p.Options) {
		return ""
	}
	return p.Options[option]
}

// ValidateBasic checks the proposal is well formed
func (p Proposal) ValidateBasic() error {
	if p.SupportNeeded.IsNil() || !p.SupportNeeded.IsPositive() || p.SupportNeeded.GTE(sdk.OneDec()) {
		return sdkerrors.Wrap(ErrInvalid, "support needed must be in (0,1)")
	}
	if len(p.Options) != 2 {
		return sdkerrors.Wrapf(ErrInvalid, "options: expected 2, got %d", len(p.Options))
	}
	if p.ExecutedOption != nil && int(*p.ExecutedOption) >= len(p.Options) {
		return sdkerrors.Wrap(ErrInvalid, "executed option")
	}
	if err := sdk.VerifyAddressFormat(p.Executor); err != nil {
		return sdkerrors.Wrap(err, "executor")
	}
	if err := sdk.VerifyAddressFormat(p.Organization); err != nil {
		return sdkerrors.Wrap(err, "organization")
	}
	return nil
}

// ValidateOption ensures the option index refers to one of the proposal options
func (p Proposal) ValidateOption(option uint32) error {
	if int(option) >= len(p.Options) {
		return sdkerrors.Wrapf(ErrInvalid, "option %d out of range", option)
	}
	return nil
}

// Winner is the option that met its threshold and can be executed
type Winner struct {
	Sentiment Sentiment `json:"sentiment"`
	Option    uint32    `json:"option"`
	Label     string    `json:"label"`
}
