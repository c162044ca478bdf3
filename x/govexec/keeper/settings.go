package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/confio/tgov/x/govexec/types"
)

// Setting is a named registry value
type Setting struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// SettingsWriter stores organization settings in the registry app.
// Writes are permissioned like any other action and may be forwarded.
type SettingsWriter struct {
	registry Registry
	paths    *PermissionPathResolver
	ledger   types.LedgerPort
	gas      uint64
	logger   log.Logger
}

// NewSettingsWriter constructor
func NewSettingsWriter(registry Registry, paths *PermissionPathResolver, ledger types.LedgerPort, gas uint64, logger log.Logger) *SettingsWriter {
	if gas == 0 {
		gas = types.DefaultGas
	}
	return &SettingsWriter{registry: registry, paths: paths, ledger: ledger, gas: gas, logger: logger}
}

// Get returns the value of the setting or an empty string
func (w SettingsWriter) Get(ctx context.Context, name string) (string, error) {
	return w.registry.Get(ctx, name)
}

// ResolveSet returns the path that stores all settings without submitting it
func (w SettingsWriter) ResolveSet(ctx context.Context, actor sdk.AccAddress, settings ...Setting) (types.PermissionPath, error) {
	if len(settings) == 0 {
		return types.PermissionPath{}, sdkerrors.Wrap(types.ErrEmpty, "settings")
	}
	intents := make([]types.ExecutionIntent, len(settings))
	for i, s := range settings {
		call, err := w.registry.SetCall(s.Name, s.Value)
		if err != nil {
			return types.PermissionPath{}, sdkerrors.Wrapf(err, "setting %q", s.Name)
		}
		intents[i] = types.NewExecutionIntent(call)
	}
	return w.paths.ResolvePath(ctx, intents, actor, types.ModeBatch)
}

// Set stores all settings. With a forwarder that is permitted for every write, one transaction is sent.
func (w SettingsWriter) Set(ctx context.Context, actor sdk.AccAddress, settings ...Setting) (types.PermissionPath, []*types.Receipt, error) {
	path, err := w.ResolveSet(ctx, actor, settings...)
	if err != nil {
		return types.PermissionPath{}, nil, err
	}
	receipts, err := submitPath(ctx, w.ledger, path, w.gas, w.logger)
	return path, receipts, err
}
