package cli

import (
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/cosmos/cosmos-sdk/version"
	"github.com/spf13/cobra"

	"github.com/confio/tgov/x/govexec"
	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/keeper"
	"github.com/confio/tgov/x/govexec/types"
)

// NewTxCmd returns a root CLI command handler for all governance execution transaction commands.
func NewTxCmd(provider ModuleProvider) *cobra.Command {
	txCmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Governance execution transaction subcommands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	txCmd.AddCommand(
		NewVoteCmd(provider),
		NewExecuteCmd(provider),
		NewSetSettingCmd(provider),
	)
	return txCmd
}

// NewVoteCmd casts a vote with the full voting power of the acting account
func NewVoteCmd(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vote <index> <option>",
		Short: "Vote on a proposal with the voting power of all sources",
		Long: strings.TrimSpace(
			fmt.Sprintf(`Cast a vote on the proposal. The option is the index, the label or yes|no.

Example:
$ %s tx %s vote 1 yes --from mykey
`,
				version.AppName, types.ModuleName,
			),
		),
		Args: cobra.ExactArgs(2),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			p, err := loadProposal(cmd, m, args[0])
			if err != nil {
				return err
			}
			option, err := parseOption(args[1], p)
			if err != nil {
				return err
			}
			actor, err := m.CurrentAccount(cmd.Context())
			if err != nil {
				return err
			}
			if generateOnly(cmd) {
				if _, err := m.Controller(p.Index).CheckVote(cmd.Context(), option, actor); err != nil {
					return err
				}
				call, err := m.Organization().CastVoteCall(p.Index, option)
				if err != nil {
					return err
				}
				return printOutput(cmd, types.NewPermissionPath([]types.Transaction{{From: actor, Call: call, Wraps: []types.Call{call}}}))
			}
			out, err := m.Controller(p.Index).CastVote(cmd.Context(), option, actor)
			return printOutcome(cmd, out, err)
		}),
	}
	AddTxFlagsToCmd(cmd)
	return cmd
}

// NewExecuteCmd executes the winning option of a proposal
func NewExecuteCmd(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <index> <option>",
		Short: "Execute the winning option of a proposal",
		Long: strings.TrimSpace(
			fmt.Sprintf(`Execute the option through the proposal executor. When the acting account has no direct
permission, the execution is relayed by forwarders.

Example:
$ %s tx %s execute 1 yes --from mykey --generate-only
`,
				version.AppName, types.ModuleName,
			),
		),
		Args: cobra.ExactArgs(2),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			p, err := loadProposal(cmd, m, args[0])
			if err != nil {
				return err
			}
			option, err := parseOption(args[1], p)
			if err != nil {
				return err
			}
			actor, err := m.CurrentAccount(cmd.Context())
			if err != nil {
				return err
			}
			if generateOnly(cmd) {
				path, err := m.Controller(p.Index).ResolveExecution(cmd.Context(), option, actor)
				if err != nil {
					return err
				}
				return printOutput(cmd, path)
			}
			out, err := m.Controller(p.Index).ExecuteAction(cmd.Context(), option, actor)
			return printOutcome(cmd, out, err)
		}),
	}
	AddTxFlagsToCmd(cmd)
	return cmd
}

// NewSetSettingCmd stores settings in the registry app
func NewSetSettingCmd(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-setting <name>=<value>...",
		Short: "Store organization settings in the registry",
		Long: strings.TrimSpace(
			fmt.Sprintf(`Store one or more settings. All settings are written in one transaction when a forwarder
holds the permission for every write.

Example:
$ %s tx %s set-setting %s=Treasury %s=cosmos1... --from mykey
`,
				version.AppName, types.ModuleName, contract.SettingHomeAppName, contract.SettingHomeApp,
			),
		),
		Args: cobra.MinimumNArgs(1),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			settings, err := parseSettings(args)
			if err != nil {
				return err
			}
			writer, err := m.Settings()
			if err != nil {
				return err
			}
			actor, err := m.CurrentAccount(cmd.Context())
			if err != nil {
				return err
			}
			if generateOnly(cmd) {
				path, err := writer.ResolveSet(cmd.Context(), actor, settings...)
				if err != nil {
					return err
				}
				return printOutput(cmd, path)
			}
			path, receipts, err := writer.Set(cmd.Context(), actor, settings...)
			if err != nil {
				return err
			}
			return printOutput(cmd, struct {
				Path     types.PermissionPath `json:"path"`
				Receipts []*types.Receipt     `json:"receipts"`
			}{Path: path, Receipts: receipts})
		}),
	}
	AddTxFlagsToCmd(cmd)
	return cmd
}

func parseSettings(args []string) ([]keeper.Setting, error) {
	settings := make([]keeper.Setting, len(args))
	for i, arg := range args {
		kv := strings.SplitN(arg, "=", 2)
		if len(kv) != 2 || len(kv[0]) == 0 {
			return nil, sdkerrors.Wrapf(types.ErrInvalid, "setting %q: expected <name>=<value>", arg)
		}
		settings[i] = keeper.Setting{Name: kv[0], Value: kv[1]}
	}
	return settings, nil
}

// printOutcome prints the outcome even when the command failed after sending, so receipts are not lost
func printOutcome(cmd *cobra.Command, out *keeper.Outcome, err error) error {
	if out == nil {
		return err
	}
	if perr := printOutput(cmd, out); perr != nil {
		return perr
	}
	return err
}

func generateOnly(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool(flags.FlagGenerateOnly)
	return v
}
