package govexec

import (
	"context"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/confio/tgov/x/govexec/keeper/govtesting"
	"github.com/confio/tgov/x/govexec/ledger"
	"github.com/confio/tgov/x/govexec/types"
)

func TestNewModule(t *testing.T) {
	specs := map[string]struct {
		cfg         types.Config
		expErr      bool
		expSettings bool
	}{
		"all good": {
			cfg: types.ConfigFixture(),
		},
		"with registry": {
			cfg:         types.ConfigFixture(func(c *types.Config) { c.Registry = govtesting.Addr("registry").String() }),
			expSettings: true,
		},
		"invalid config": {
			cfg:    types.ConfigFixture(func(c *types.Config) { c.VotingPowerSources = nil }),
			expErr: true,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			// when
			m, gotErr := NewModule(spec.cfg, govtesting.NewChain(), nil, log.TestingLogger())

			// then
			if spec.expErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
			t.Cleanup(func() { _ = m.Close() })
			assert.Len(t, m.TallyResolver().Sources(), len(spec.cfg.VotingPowerSources))
			_, err := m.Settings()
			if spec.expSettings {
				assert.NoError(t, err)
			} else {
				assert.True(t, types.ErrNotFound.Is(err))
			}
		})
	}
}

func TestModuleVoteAndExecute(t *testing.T) {
	chain := govtesting.NewChain()
	chain.AddSource("source-a", map[string]int64{"alice": 60})
	chain.AddSource("source-b", map[string]int64{"bob": 40})
	executor := chain.AddProposal(1, sdk.NewDecWithPrec(5, 1))
	alice := govtesting.Addr("alice")
	chain.Grant(alice, executor, "execute_on_action")

	identity, err := ledger.NewStaticIdentity(alice.String())
	require.NoError(t, err)
	m, err := NewModule(types.ConfigFixture(), chain, identity, log.TestingLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	ctx := context.Background()
	actor, err := m.CurrentAccount(ctx)
	require.NoError(t, err)
	require.Equal(t, alice, actor)

	// controllers are shared per proposal
	c := m.Controller(1)
	assert.Same(t, c, m.Controller(1))
	assert.NotSame(t, c, m.Controller(2))

	// when
	_, err = c.CastVote(ctx, 0, actor)
	require.NoError(t, err)
	out, err := c.ExecuteAction(ctx, 0, actor)

	// then
	require.NoError(t, err)
	assert.False(t, out.AlreadyExecuted)
	require.NotNil(t, chain.ExecutedOption(1))
	assert.Equal(t, uint32(0), *chain.ExecutedOption(1))
	p, err := m.Proposal(ctx, 1)
	require.NoError(t, err)
	assert.True(t, p.IsExecuted())
}

func TestModuleWithoutIdentity(t *testing.T) {
	m, err := NewModule(types.ConfigFixture(), govtesting.NewChain(), nil, log.TestingLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	_, err = m.CurrentAccount(context.Background())
	assert.True(t, types.ErrEmpty.Is(err))
}
