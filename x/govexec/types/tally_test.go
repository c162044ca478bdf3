package types

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyResultValidation(t *testing.T) {
	specs := map[string]struct {
		votes, total sdk.Int
		expErr       bool
	}{
		"valid": {
			votes: sdk.NewInt(1), total: sdk.NewInt(2),
		},
		"all votes": {
			votes: sdk.NewInt(2), total: sdk.NewInt(2),
		},
		"zero total": {
			votes: sdk.ZeroInt(), total: sdk.ZeroInt(),
		},
		"exceeds total": {
			votes: sdk.NewInt(3), total: sdk.NewInt(2), expErr: true,
		},
		"negative votes": {
			votes: sdk.NewInt(-1), total: sdk.NewInt(2), expErr: true,
		},
		"nil": {
			total: sdk.NewInt(2), expErr: true,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			_, gotErr := NewTallyResult(spec.votes, spec.total)
			if spec.expErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
		})
	}
}

func TestTallyResultExceeds(t *testing.T) {
	half := sdk.NewDecWithPrec(5, 1)
	specs := map[string]struct {
		votes, total int64
		threshold    sdk.Dec
		exp          bool
	}{
		"above": {
			votes: 61, total: 100, threshold: half, exp: true,
		},
		"exactly at threshold": {
			votes: 50, total: 100, threshold: half,
		},
		"below": {
			votes: 49, total: 100, threshold: half,
		},
		"one above with big total": {
			votes: 500_000_000_001, total: 1_000_000_000_000, threshold: half, exp: true,
		},
		"odd total at boundary": {
			votes: 1, total: 3, threshold: sdk.MustNewDecFromStr("0.333333333333333333"), exp: true,
		},
		"zero total": {
			votes: 0, total: 0, threshold: half,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			r := TallyResult{Votes: sdk.NewInt(spec.votes), Total: sdk.NewInt(spec.total)}
			assert.Equal(t, spec.exp, r.Exceeds(spec.threshold))
		})
	}
}

func TestTallyResultRelativeVotes(t *testing.T) {
	r := TallyResult{Votes: sdk.NewInt(61), Total: sdk.NewInt(100)}
	assert.Equal(t, sdk.NewDecWithPrec(61, 2).String(), r.RelativeVotes().String())
	assert.Equal(t, "61.00%", r.Percentage())

	empty := TallyResult{Votes: sdk.ZeroInt(), Total: sdk.ZeroInt()}
	assert.Equal(t, sdk.ZeroDec(), empty.RelativeVotes())
	assert.Equal(t, "0.00%", empty.Percentage())
}
