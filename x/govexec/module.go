package govexec

import (
	"context"
	"sync"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/keeper"
	"github.com/confio/tgov/x/govexec/types"
)

// Module wires the resolvers and controllers of one organization
type Module struct {
	cfg      types.Config
	ledger   types.LedgerPort
	identity types.IdentityProvider
	logger   log.Logger

	org      contract.OrganizationContractAdapter
	acl      contract.ACLContractAdapter
	tally    *keeper.TallyResolver
	paths    *keeper.PermissionPathResolver
	settings *keeper.SettingsWriter
	bus      *keeper.EventBus
	cache    keeper.PowerCache

	mu          sync.Mutex
	controllers map[uint64]*keeper.ProposalController
}

// NewModule validates the config and sets up all components. The event bus is started.
func NewModule(cfg types.Config, ledger types.LedgerPort, identity types.IdentityProvider, logger log.Logger) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, sdkerrors.Wrap(err, "config")
	}
	logger = keeper.ModuleLogger(logger)

	orgAddr, err := sdk.AccAddressFromBech32(cfg.Organization)
	if err != nil {
		return nil, sdkerrors.Wrap(err, "organization")
	}
	aclAddr, err := sdk.AccAddressFromBech32(cfg.ACL)
	if err != nil {
		return nil, sdkerrors.Wrap(err, "acl")
	}
	sources := make([]types.VotingPowerSource, len(cfg.VotingPowerSources))
	for i, v := range cfg.VotingPowerSources {
		addr, err := sdk.AccAddressFromBech32(v)
		if err != nil {
			return nil, sdkerrors.Wrapf(err, "voting power source %d", i)
		}
		sources[i] = contract.NewVotingPowerSourceAdapter(addr, ledger)
	}
	cache, err := keeper.OpenPowerCache(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	m := &Module{
		cfg:         cfg,
		ledger:      ledger,
		identity:    identity,
		logger:      logger,
		org:         contract.NewOrganizationContractAdapter(orgAddr, ledger, nil),
		acl:         contract.NewACLContractAdapter(aclAddr, ledger, nil),
		cache:       cache,
		controllers: make(map[uint64]*keeper.ProposalController),
	}
	m.tally = keeper.NewTallyResolver(m.org, sources, cache, logger)
	m.paths = keeper.NewPermissionPathResolver(m.acl, cfg.MaxForwardDepth, logger)
	if len(cfg.Registry) != 0 {
		registryAddr, err := sdk.AccAddressFromBech32(cfg.Registry)
		if err != nil {
			return nil, sdkerrors.Wrap(err, "registry")
		}
		registry := contract.NewRegistryContractAdapter(registryAddr, ledger, nil)
		m.settings = keeper.NewSettingsWriter(registry, m.paths, ledger, cfg.Gas, logger)
	}
	m.bus = keeper.NewEventBus(logger)
	if err := m.bus.Start(); err != nil {
		return nil, sdkerrors.Wrap(err, "event bus")
	}
	logger.Info("module initialized", "organization", cfg.Organization, "sources", len(sources))
	return m, nil
}

// Config returns the module config
func (m *Module) Config() types.Config {
	return m.cfg
}

// Organization returns the governance contract adapter
func (m *Module) Organization() contract.OrganizationContractAdapter {
	return m.org
}

// TallyResolver returns the tally resolver over all configured voting power sources
func (m *Module) TallyResolver() *keeper.TallyResolver {
	return m.tally
}

// PathResolver returns the permission path resolver
func (m *Module) PathResolver() *keeper.PermissionPathResolver {
	return m.paths
}

// EventBus returns the bus controllers publish on
func (m *Module) EventBus() *keeper.EventBus {
	return m.bus
}

// Settings returns the registry settings writer. Fails with ErrNotFound when no registry is configured.
func (m *Module) Settings() (*keeper.SettingsWriter, error) {
	if m.settings == nil {
		return nil, sdkerrors.Wrap(types.ErrNotFound, "registry not configured")
	}
	return m.settings, nil
}

// VotingRules returns the organization wide voting rules
func (m *Module) VotingRules(ctx context.Context) (*types.VotingRules, error) {
	return m.org.QueryVotingRules(ctx)
}

// CurrentAccount returns the acting account
func (m *Module) CurrentAccount(ctx context.Context) (sdk.AccAddress, error) {
	if m.identity == nil {
		return nil, sdkerrors.Wrap(types.ErrEmpty, "identity")
	}
	return m.identity.CurrentAccount(ctx)
}

// Controller returns the controller of the proposal. There is one controller per proposal.
func (m *Module) Controller(index uint64) *keeper.ProposalController {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.controllers[index]; ok {
		return c
	}
	c := keeper.NewProposalController(index, m.org, m.tally, m.paths, m.ledger, m.bus, m.cfg.Gas, m.logger)
	m.controllers[index] = c
	return c
}

// Proposal loads the proposal
func (m *Module) Proposal(ctx context.Context, index uint64) (types.Proposal, error) {
	p, err := m.org.QueryProposal(ctx, index)
	if err != nil {
		return types.Proposal{}, err
	}
	return *p, nil
}

// Close stops the event bus and releases the cache
func (m *Module) Close() error {
	if err := m.bus.Stop(); err != nil {
		m.logger.Error("stop event bus", "error", err)
	}
	return m.cache.Close()
}
