package keeper

import (
	"context"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"

	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/keeper/govtesting"
	"github.com/confio/tgov/x/govexec/types"
)

// TestKeepers are the resolvers of an organization running on an in memory chain
type TestKeepers struct {
	Chain       *govtesting.Chain
	Org         contract.OrganizationContractAdapter
	ACL         contract.ACLContractAdapter
	Registry    contract.RegistryContractAdapter
	Tally       *TallyResolver
	Paths       *PermissionPathResolver
	Settings    *SettingsWriter
	Bus         *EventBus
	SourceA     sdk.AccAddress
	SourceB     sdk.AccAddress
	Alice       sdk.AccAddress
	Bob         sdk.AccAddress
	Outsider    sdk.AccAddress
	ProposalIdx uint64
	Executor    sdk.AccAddress
}

// CreateDefaultTestInput sets up an organization with two voting power sources.
// Alice holds 60 in source A, Bob holds 40 in source B. Proposal 1 needs a support of 0.5.
func CreateDefaultTestInput(t testing.TB, mutators ...func(c *govtesting.Chain)) TestKeepers {
	chain := govtesting.NewChain()
	sourceA := chain.AddSource("source-a", map[string]int64{"alice": 60})
	sourceB := chain.AddSource("source-b", map[string]int64{"bob": 40})
	executor := chain.AddProposal(1, sdk.NewDecWithPrec(5, 1))
	for _, m := range mutators {
		m(chain)
	}

	logger := log.TestingLogger()
	org := contract.NewOrganizationContractAdapter(chain.Organization, chain, nil)
	acl := contract.NewACLContractAdapter(chain.ACL, chain, nil)
	registry := contract.NewRegistryContractAdapter(chain.Registry, chain, nil)
	sources := []types.VotingPowerSource{
		contract.NewVotingPowerSourceAdapter(sourceA, chain),
		contract.NewVotingPowerSourceAdapter(sourceB, chain),
	}
	tally := NewTallyResolver(org, sources, NewPowerCache(dbm.NewMemDB()), logger)
	paths := NewPermissionPathResolver(acl, types.DefaultMaxForwardDepth, logger)

	bus := NewEventBus(logger)
	require.NoError(t, bus.Start())
	t.Cleanup(func() { _ = bus.Stop() })

	return TestKeepers{
		Chain:       chain,
		Org:         org,
		ACL:         acl,
		Registry:    registry,
		Tally:       tally,
		Paths:       paths,
		Settings:    NewSettingsWriter(registry, paths, chain, types.DefaultGas, logger),
		Bus:         bus,
		SourceA:     sourceA,
		SourceB:     sourceB,
		Alice:       govtesting.Addr("alice"),
		Bob:         govtesting.Addr("bob"),
		Outsider:    govtesting.Addr("outsider"),
		ProposalIdx: 1,
		Executor:    executor,
	}
}

// Controller returns a controller for the default proposal
func (k TestKeepers) Controller() *ProposalController {
	return NewProposalController(k.ProposalIdx, k.Org, k.Tally, k.Paths, k.Chain, k.Bus, types.DefaultGas, log.TestingLogger())
}

// Proposal loads the default proposal
func (k TestKeepers) Proposal(t testing.TB) types.Proposal {
	p, err := k.Org.QueryProposal(context.Background(), k.ProposalIdx)
	require.NoError(t, err)
	return *p
}
