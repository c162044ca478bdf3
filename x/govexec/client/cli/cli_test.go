package cli

import (
	"bytes"
	"io/ioutil"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tidwall/gjson"
	yaml "gopkg.in/yaml.v2"

	"github.com/confio/tgov/x/govexec"
	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/keeper/govtesting"
	"github.com/confio/tgov/x/govexec/ledger"
	"github.com/confio/tgov/x/govexec/types"
)

// setupChain creates proposal 1 where alice holds 60 and bob 40 of the voting power
func setupChain(t *testing.T) *govtesting.Chain {
	chain := govtesting.NewChain()
	chain.AddSource("source-a", map[string]int64{"alice": 60})
	chain.AddSource("source-b", map[string]int64{"bob": 40})
	chain.AddProposal(1, sdk.NewDecWithPrec(5, 1))
	return chain
}

func providerFor(chain *govtesting.Chain, actor string) ModuleProvider {
	return func(cmd *cobra.Command) (*govexec.Module, error) {
		identity, err := ledger.NewStaticIdentity(govtesting.Addr(actor).String())
		if err != nil {
			return nil, err
		}
		cfg := types.ConfigFixture(func(c *types.Config) { c.Registry = chain.Registry.String() })
		return govexec.NewModule(cfg, chain, identity, log.NewNopLogger())
	}
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(ioutil.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestQueryTally(t *testing.T) {
	chain := setupChain(t)
	chain.SetVotes(1, 0, 60)

	specs := map[string]struct {
		args        []string
		expVotes    string
		expRelative string
		expErr      bool
	}{
		"by index": {
			args:        []string{"tally", "1", "0"},
			expVotes:    "60",
			expRelative: "0.600000000000000000",
		},
		"by label": {
			args:        []string{"tally", "1", "no"},
			expVotes:    "0",
			expRelative: "0.000000000000000000",
		},
		"pending": {
			args:        []string{"pending", "1"},
			expVotes:    "40",
			expRelative: "0.400000000000000000",
		},
		"option out of range": {
			args:   []string{"tally", "1", "2"},
			expErr: true,
		},
		"unknown option": {
			args:   []string{"tally", "1", "maybe"},
			expErr: true,
		},
		"unknown proposal": {
			args:   []string{"tally", "2", "yes"},
			expErr: true,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			// when
			out, gotErr := runCmd(t, GetQueryCmd(providerFor(chain, "alice")), append(spec.args, "--output", "json")...)

			// then
			if spec.expErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, spec.expVotes, gjson.Get(out, "votes").String())
			assert.Equal(t, "100", gjson.Get(out, "total").String())
			assert.Equal(t, spec.expRelative, gjson.Get(out, "relative").String())
		})
	}
}

func TestQueryAccount(t *testing.T) {
	chain := setupChain(t)
	bob := govtesting.Addr("bob")
	specs := map[string]struct {
		args    []string
		expPath string
		expVal  string
	}{
		"can vote, acting account": {
			args:    []string{"can-vote", "1"},
			expPath: "can_vote",
			expVal:  "true",
		},
		"can vote, other account": {
			args:    []string{"can-vote", "1", govtesting.Addr("outsider").String()},
			expPath: "can_vote",
			expVal:  "false",
		},
		"voting power, acting account": {
			args:    []string{"voting-power", "1"},
			expPath: "power",
			expVal:  "60",
		},
		"voting power, other account": {
			args:    []string{"voting-power", "1", bob.String()},
			expPath: "power",
			expVal:  "40",
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			out, err := runCmd(t, GetQueryCmd(providerFor(chain, "alice")), append(spec.args, "-o", "json")...)
			require.NoError(t, err)
			assert.Equal(t, spec.expVal, gjson.Get(out, spec.expPath).String())
		})
	}
}

func TestQueryProposalText(t *testing.T) {
	chain := setupChain(t)
	chain.SetVotes(1, 0, 60)

	// when
	out, err := runCmd(t, GetQueryCmd(providerFor(chain, "alice")), "proposal", "1")

	// then
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.Contains(t, doc, "winner")
	winner := doc["winner"].(map[interface{}]interface{})
	assert.Equal(t, "Yes", winner["label"])
	assert.Equal(t, string(types.SentimentPrimary), winner["sentiment"])
}

func TestListProposals(t *testing.T) {
	chain := setupChain(t)
	chain.AddProposal(2, sdk.NewDecWithPrec(5, 1))
	chain.AddProposal(3, sdk.NewDecWithPrec(5, 1))

	out, err := runCmd(t, GetQueryCmd(providerFor(chain, "alice")), "list-proposals", "--start-after", "1", "--limit", "1", "-o", "json")
	require.NoError(t, err)
	got := gjson.Get(out, "proposals.#.index").Array()
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].Uint())
}

func TestResolvePathCmd(t *testing.T) {
	alice := govtesting.Addr("alice")
	specs := map[string]struct {
		setup   func(c *govtesting.Chain)
		mode    string
		expKind string
		expErr  bool
	}{
		"direct": {
			setup:   func(c *govtesting.Chain) { c.Grant(alice, govtesting.Addr("executor-1"), contract.MethodExecuteOnAction) },
			mode:    "single",
			expKind: "direct",
		},
		"forwarded": {
			setup: func(c *govtesting.Chain) {
				fw := c.AddForwarder("fw", alice)
				c.Grant(fw, govtesting.Addr("executor-1"), contract.MethodExecuteOnAction)
			},
			mode:    "batch",
			expKind: "forwarded",
		},
		"forwarded not allowed in single mode": {
			setup: func(c *govtesting.Chain) {
				fw := c.AddForwarder("fw", alice)
				c.Grant(fw, govtesting.Addr("executor-1"), contract.MethodExecuteOnAction)
			},
			mode:   "single",
			expErr: true,
		},
		"undefined mode": {
			setup:  func(c *govtesting.Chain) {},
			mode:   "other",
			expErr: true,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			chain := setupChain(t)
			spec.setup(chain)

			// when
			out, gotErr := runCmd(t, GetQueryCmd(providerFor(chain, "alice")), "resolve-path", "1", "yes", "--mode", spec.mode, "-o", "json")

			// then
			if spec.expErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, spec.expKind, gjson.Get(out, "kind").String())
			assert.Equal(t, int64(1), gjson.Get(out, "transactions.#").Int())
			assert.Empty(t, chain.Sent())
		})
	}
}

func TestVoteAndExecuteCmd(t *testing.T) {
	chain := setupChain(t)
	alice := govtesting.Addr("alice")
	chain.Grant(alice, govtesting.Addr("executor-1"), contract.MethodExecuteOnAction)
	provider := providerFor(chain, "alice")

	// generate only does not submit
	out, err := runCmd(t, NewTxCmd(provider), "vote", "1", "yes", "--generate-only", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, contract.MethodCastVote, gjson.Get(out, "transactions.0.call.method").String())
	assert.Empty(t, chain.Sent())

	// execute before the vote fails
	_, err = runCmd(t, NewTxCmd(provider), "execute", "1", "yes")
	require.Error(t, err)
	assert.True(t, types.ErrNotWinner.Is(err))

	// when
	out, err = runCmd(t, NewTxCmd(provider), "vote", "1", "yes", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "60", gjson.Get(out, "snapshot.tallies.0.votes").String())

	out, err = runCmd(t, NewTxCmd(provider), "execute", "1", "yes", "-o", "json")

	// then
	require.NoError(t, err)
	assert.False(t, gjson.Get(out, "already_executed").Bool())
	assert.Equal(t, "direct", gjson.Get(out, "path.kind").String())
	require.NotNil(t, chain.ExecutedOption(1))
	assert.Len(t, chain.Sent(), 2)

	// and a second execution reports the terminal state
	out, err = runCmd(t, NewTxCmd(provider), "execute", "1", "yes", "-o", "json")
	require.NoError(t, err)
	assert.True(t, gjson.Get(out, "already_executed").Bool())
	assert.Len(t, chain.Sent(), 2)
}

func TestGenerateOnlyCmd(t *testing.T) {
	alice := govtesting.Addr("alice")
	specs := map[string]struct {
		setup   func(c *govtesting.Chain)
		actor   string
		args    []string
		expErr  *sdkerrors.Error
		expPath string
		expVal  string
	}{
		"vote": {
			actor:   "alice",
			args:    []string{"vote", "1", "yes"},
			expPath: "transactions.0.call.method",
			expVal:  contract.MethodCastVote,
		},
		"vote without voting power": {
			actor:  "outsider",
			args:   []string{"vote", "1", "yes"},
			expErr: types.ErrNotEligible,
		},
		"vote on executed proposal": {
			setup:  func(c *govtesting.Chain) { c.MarkExecuted(1, types.OptionAffirmative) },
			actor:  "alice",
			args:   []string{"vote", "1", "no"},
			expErr: types.ErrAlreadyExecuted,
		},
		"execute winner": {
			setup: func(c *govtesting.Chain) {
				c.Grant(alice, govtesting.Addr("executor-1"), contract.MethodExecuteOnAction)
				c.SetVotes(1, types.OptionAffirmative, 61)
			},
			actor:   "alice",
			args:    []string{"execute", "1", "yes"},
			expPath: "kind",
			expVal:  "direct",
		},
		"execute undecided": {
			setup:  func(c *govtesting.Chain) { c.Grant(alice, govtesting.Addr("executor-1"), contract.MethodExecuteOnAction) },
			actor:  "alice",
			args:   []string{"execute", "1", "yes"},
			expErr: types.ErrNotWinner,
		},
		"execute losing option": {
			setup: func(c *govtesting.Chain) {
				c.Grant(alice, govtesting.Addr("executor-1"), contract.MethodExecuteOnAction)
				c.SetVotes(1, types.OptionAffirmative, 61)
			},
			actor:  "alice",
			args:   []string{"execute", "1", "no"},
			expErr: types.ErrNotWinner,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			chain := setupChain(t)
			if spec.setup != nil {
				spec.setup(chain)
			}

			// when
			out, gotErr := runCmd(t, NewTxCmd(providerFor(chain, spec.actor)), append(spec.args, "--generate-only", "-o", "json")...)

			// then
			assert.Empty(t, chain.Sent())
			if spec.expErr != nil {
				require.Error(t, gotErr)
				assert.True(t, spec.expErr.Is(gotErr), "got %+v", gotErr)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, spec.expVal, gjson.Get(out, spec.expPath).String())
		})
	}
}

func TestSetSettingCmd(t *testing.T) {
	chain := setupChain(t)
	alice := govtesting.Addr("alice")
	fw := chain.AddForwarder("fw", alice)
	chain.Grant(fw, chain.Registry, contract.MethodRegisterData)
	provider := providerFor(chain, "alice")

	// when
	out, err := runCmd(t, NewTxCmd(provider), "set-setting", contract.SettingHomeAppName+"=Treasury", "COLOR=blue", "-o", "json")

	// then
	require.NoError(t, err)
	assert.Equal(t, "forwarded", gjson.Get(out, "path.kind").String())
	assert.Equal(t, int64(1), gjson.Get(out, "receipts.#").Int())
	assert.Equal(t, "Treasury", chain.RegistryValue(contract.SettingHomeAppName))
	assert.Equal(t, "blue", chain.RegistryValue("COLOR"))

	out, err = runCmd(t, GetQueryCmd(provider), "setting", "COLOR", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "blue", gjson.Get(out, "value").String())

	_, err = runCmd(t, NewTxCmd(provider), "set-setting", "no-value")
	require.Error(t, err)
}

func TestParseOption(t *testing.T) {
	p := types.ProposalFixture(func(p *types.Proposal) { p.Options = []string{"Approve", "Reject"} })
	specs := map[string]struct {
		src    string
		exp    uint32
		expErr bool
	}{
		"index":        {src: "1", exp: 1},
		"label":        {src: "approve", exp: 0},
		"yes":          {src: "YES", exp: types.OptionAffirmative},
		"no":           {src: "no", exp: types.OptionNegative},
		"out of range": {src: "2", expErr: true},
		"unknown":      {src: "abstain", expErr: true},
		"negative":     {src: "-1", expErr: true},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			got, err := parseOption(spec.src, p)
			if spec.expErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, spec.exp, got)
		})
	}
}
