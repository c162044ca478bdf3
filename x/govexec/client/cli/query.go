package cli

import (
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/client"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/version"
	"github.com/spf13/cobra"

	"github.com/confio/tgov/x/govexec"
	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/types"
)

// TallyOutput is the display form of a tally
type TallyOutput struct {
	Option     *uint32 `json:"option,omitempty"`
	Label      string  `json:"label,omitempty"`
	Votes      sdk.Int `json:"votes"`
	Total      sdk.Int `json:"total"`
	Relative   sdk.Dec `json:"relative"`
	Percentage string  `json:"percentage"`
}

func newTallyOutput(r types.TallyResult) TallyOutput {
	return TallyOutput{Votes: r.Votes, Total: r.Total, Relative: r.RelativeVotes(), Percentage: r.Percentage()}
}

func GetQueryCmd(provider ModuleProvider) *cobra.Command {
	queryCmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the governance execution module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	queryCmd.AddCommand(
		GetCmdQueryProposal(provider),
		GetCmdListProposals(provider),
		GetCmdQueryTally(provider),
		GetCmdQueryPending(provider),
		GetCmdQueryCanVote(provider),
		GetCmdQueryVotingPower(provider),
		GetCmdQueryEligibility(provider),
		GetCmdResolvePath(provider),
		GetCmdQueryVotingRules(provider),
		GetCmdQuerySetting(provider),
	)
	return queryCmd
}

// GetCmdQueryProposal loads a proposal with its tallies and winner
func GetCmdQueryProposal(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal <index>",
		Short: "Query a proposal with its tally and winner",
		Args:  cobra.ExactArgs(1),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			snap, err := m.Controller(index).Reload(cmd.Context())
			if err != nil {
				return err
			}
			return printOutput(cmd, snap)
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	return cmd
}

// GetCmdListProposals lists proposals of the organization
func GetCmdListProposals(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list-proposals",
		Short:   "Query for all proposals of the organization",
		Aliases: []string{"proposals"},
		Args:    cobra.NoArgs,
		Long: strings.TrimSpace(
			fmt.Sprintf(`List proposals of the organization ordered by index.

Example:
$ %s query %s list-proposals --start-after 10 --limit 5
`,
				version.AppName, types.ModuleName,
			),
		),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			startAfter, err := cmd.Flags().GetUint64(FlagStartAfter)
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetUint32(FlagLimit)
			if err != nil {
				return err
			}
			proposals, err := m.Organization().ListProposals(cmd.Context(), startAfter, limit)
			if err != nil {
				return err
			}
			return printOutput(cmd, struct {
				Proposals []types.Proposal `json:"proposals"`
			}{Proposals: proposals})
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	cmd.Flags().AddFlagSet(FlagSetPagination())
	return cmd
}

// GetCmdQueryTally returns the votes of an option relative to the total voting power
func GetCmdQueryTally(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally <index> <option>",
		Short: "Query the votes of an option relative to the total voting power",
		Args:  cobra.ExactArgs(2),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			p, err := loadProposal(cmd, m, args[0])
			if err != nil {
				return err
			}
			option, err := parseOption(args[1], p)
			if err != nil {
				return err
			}
			r, err := m.TallyResolver().Tally(cmd.Context(), p, option)
			if err != nil {
				return err
			}
			out := newTallyOutput(r)
			out.Option, out.Label = &option, p.OptionLabel(option)
			return printOutput(cmd, out)
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	return cmd
}

// GetCmdQueryPending returns the voting power that did not vote yet
func GetCmdQueryPending(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending <index>",
		Short: "Query the voting power that has not voted yet",
		Args:  cobra.ExactArgs(1),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			p, err := loadProposal(cmd, m, args[0])
			if err != nil {
				return err
			}
			r, err := m.TallyResolver().PendingTally(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printOutput(cmd, newTallyOutput(r))
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	return cmd
}

// GetCmdQueryCanVote returns if the account has standing in any voting power source
func GetCmdQueryCanVote(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "can-vote <index> [account]",
		Short: "Query if the account can vote on the proposal. Defaults to the acting account",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			p, err := loadProposal(cmd, m, args[0])
			if err != nil {
				return err
			}
			account, err := accountOrCurrent(cmd, m, args, 1)
			if err != nil {
				return err
			}
			ok, err := m.TallyResolver().CanVote(cmd.Context(), p, account)
			if err != nil {
				return err
			}
			return printOutput(cmd, struct {
				Account sdk.AccAddress `json:"account"`
				CanVote bool           `json:"can_vote"`
			}{Account: account, CanVote: ok})
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	return cmd
}

// GetCmdQueryVotingPower returns the summed voting power of the account over all sources
func GetCmdQueryVotingPower(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "voting-power <index> [account]",
		Short:   "Query the voting power of the account on the proposal. Defaults to the acting account",
		Aliases: []string{"power"},
		Args:    cobra.RangeArgs(1, 2),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			p, err := loadProposal(cmd, m, args[0])
			if err != nil {
				return err
			}
			account, err := accountOrCurrent(cmd, m, args, 1)
			if err != nil {
				return err
			}
			power, err := m.TallyResolver().VotingPower(cmd.Context(), p, account)
			if err != nil {
				return err
			}
			return printOutput(cmd, struct {
				Account sdk.AccAddress `json:"account"`
				Power   sdk.Int        `json:"power"`
			}{Account: account, Power: power})
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	return cmd
}

// GetCmdQueryEligibility returns the option that can be executed, if any
func GetCmdQueryEligibility(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eligibility <index>",
		Short: "Query the option that passed its threshold and can be executed",
		Args:  cobra.ExactArgs(1),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			p, err := loadProposal(cmd, m, args[0])
			if err != nil {
				return err
			}
			winner, err := m.TallyResolver().ResolveExecutionEligibility(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printOutput(cmd, struct {
				Executed bool          `json:"executed"`
				Winner   *types.Winner `json:"winner"`
			}{Executed: p.IsExecuted(), Winner: winner})
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	return cmd
}

// GetCmdResolvePath returns the transactions the acting account needs to execute an option
func GetCmdResolvePath(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve-path <index> <option>",
		Short: "Query how the acting account can execute the option of the proposal",
		Long: strings.TrimSpace(
			fmt.Sprintf(`Resolve the transactions that execute the option. Direct permissions are preferred,
then forwarders in the order they are listed by the access control contract.

Example:
$ %s query %s resolve-path 1 yes --mode single
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
			modeName, err := cmd.Flags().GetString(FlagMode)
			if err != nil {
				return err
			}
			actor, err := m.CurrentAccount(cmd.Context())
			if err != nil {
				return err
			}
			intent, err := contract.ExecuteOnActionIntent(p, option)
			if err != nil {
				return err
			}
			path, err := m.PathResolver().ResolvePath(cmd.Context(), []types.ExecutionIntent{intent}, actor, types.ModeFrom(modeName))
			if err != nil {
				return err
			}
			return printOutput(cmd, path)
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	cmd.Flags().AddFlagSet(FlagSetMode())
	return cmd
}

// GetCmdQueryVotingRules returns the organization voting rules
func GetCmdQueryVotingRules(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Query the voting rules of the organization",
		Args:  cobra.NoArgs,
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			rules, err := m.VotingRules(cmd.Context())
			if err != nil {
				return err
			}
			return printOutput(cmd, rules)
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	return cmd
}

// GetCmdQuerySetting returns a value from the registry app
func GetCmdQuerySetting(provider ModuleProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting <name>",
		Short: "Query an organization setting from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: withModule(provider, func(cmd *cobra.Command, m *govexec.Module, args []string) error {
			settings, err := m.Settings()
			if err != nil {
				return err
			}
			value, err := settings.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOutput(cmd, struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			}{Name: args[0], Value: value})
		}),
	}
	cmd.Flags().AddFlagSet(FlagSetOutput())
	return cmd
}

func loadProposal(cmd *cobra.Command, m *govexec.Module, arg string) (types.Proposal, error) {
	index, err := parseIndex(arg)
	if err != nil {
		return types.Proposal{}, err
	}
	return m.Proposal(cmd.Context(), index)
}
