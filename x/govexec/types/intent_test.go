package types

import (
	"encoding/json"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallMsgBytes(t *testing.T) {
	specs := map[string]struct {
		src Call
		exp string
	}{
		"with args": {
			src: Call{Contract: RandomAddress("org"), Method: "cast_vote", Args: []byte(`{"index":1,"option":0}`)},
			exp: `{"cast_vote":{"index":1,"option":0}}`,
		},
		"without args": {
			src: Call{Contract: RandomAddress("org"), Method: "execute"},
			exp: `{"execute":{}}`,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			got, err := spec.src.MsgBytes()
			require.NoError(t, err)
			assert.JSONEq(t, spec.exp, string(got))
		})
	}
}

func TestNewCall(t *testing.T) {
	got, err := NewCall(RandomAddress("org"), "cast_vote", map[string]uint64{"index": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":1}`, string(got.Args))

	got, err = NewCall(RandomAddress("org"), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("{}"), got.Args)
}

func TestExecutionIntentValidation(t *testing.T) {
	specs := map[string]struct {
		src    ExecutionIntent
		expErr bool
	}{
		"single call": {
			src: NewExecutionIntent(CallFixture("voting", "execute_on_action")),
		},
		"multiple calls": {
			src: NewExecutionIntent(CallFixture("registry", "register_data"), CallFixture("registry", "register_data")),
		},
		"no calls": {
			src:    NewExecutionIntent(),
			expErr: true,
		},
		"empty method": {
			src:    NewExecutionIntent(Call{Contract: RandomAddress("voting")}),
			expErr: true,
		},
		"empty contract": {
			src:    NewExecutionIntent(Call{Method: "foo"}),
			expErr: true,
		},
		"invalid args": {
			src:    NewExecutionIntent(Call{Contract: RandomAddress("voting"), Method: "foo", Args: []byte("{")}),
			expErr: true,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			gotErr := spec.src.ValidateBasic()
			if spec.expErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
		})
	}
}

func TestFlattenCalls(t *testing.T) {
	a, b, c := CallFixture("a", "x"), CallFixture("b", "y"), CallFixture("c", "z")
	got := FlattenCalls([]ExecutionIntent{NewExecutionIntent(a, b), NewExecutionIntent(c)})
	assert.Equal(t, []Call{a, b, c}, got)
	assert.Empty(t, FlattenCalls(nil))
}

func TestProposalValidation(t *testing.T) {
	var one uint32 = 1
	var three uint32 = 3
	specs := map[string]struct {
		src    Proposal
		expErr bool
	}{
		"valid": {
			src: ProposalFixture(),
		},
		"executed": {
			src: ProposalFixture(func(p *Proposal) { p.ExecutedOption = &one }),
		},
		"executed option out of range": {
			src:    ProposalFixture(func(p *Proposal) { p.ExecutedOption = &three }),
			expErr: true,
		},
		"zero support": {
			src:    ProposalFixture(func(p *Proposal) { p.SupportNeeded = sdk.ZeroDec() }),
			expErr: true,
		},
		"full support": {
			src:    ProposalFixture(func(p *Proposal) { p.SupportNeeded = sdk.OneDec() }),
			expErr: true,
		},
		"nil support": {
			src:    ProposalFixture(func(p *Proposal) { p.SupportNeeded = sdk.Dec{} }),
			expErr: true,
		},
		"three options": {
			src:    ProposalFixture(func(p *Proposal) { p.Options = []string{"a", "b", "c"} }),
			expErr: true,
		},
		"no executor": {
			src:    ProposalFixture(func(p *Proposal) { p.Executor = nil }),
			expErr: true,
		},
		"no organization": {
			src:    ProposalFixture(func(p *Proposal) { p.Organization = nil }),
			expErr: true,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			gotErr := spec.src.ValidateBasic()
			if spec.expErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
		})
	}
}
