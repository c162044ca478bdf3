package cli

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cosmos/cosmos-sdk/client/flags"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	yaml "gopkg.in/yaml.v2"

	"github.com/confio/tgov/x/govexec"
	"github.com/confio/tgov/x/govexec/types"
)

const (
	FlagMode       = "mode"
	FlagStartAfter = "start-after"
	FlagLimit      = "limit"

	OutputText = "text"
	OutputJSON = "json"
)

// ModuleProvider returns the module the command runs against. Commands close it when done.
type ModuleProvider func(cmd *cobra.Command) (*govexec.Module, error)

// FlagSetOutput Returns the FlagSet for the output format.
func FlagSetOutput() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.StringP(flags.FlagOutput, "o", OutputText, "Output format (text|json)")
	return fs
}

// FlagSetMode Returns the FlagSet for path resolution
func FlagSetMode() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.String(FlagMode, types.ModeBatch.String(), "Path resolution mode (single|batch)")
	return fs
}

// FlagSetPagination Returns the FlagSet for proposal listings
func FlagSetPagination() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.Uint64(FlagStartAfter, 0, "List proposals with an index greater than this")
	fs.Uint32(FlagLimit, 10, "Maximum number of proposals to return")
	return fs
}

// AddTxFlagsToCmd adds the flags of commands that submit transactions
func AddTxFlagsToCmd(cmd *cobra.Command) {
	cmd.Flags().AddFlagSet(FlagSetOutput())
	cmd.Flags().Bool(flags.FlagGenerateOnly, false, "Print the resolved transactions without submitting them")
}

// printOutput writes the value as json or as yaml for the text format
func printOutput(cmd *cobra.Command, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return sdkerrors.Wrap(sdkerrors.ErrJSONMarshal, err.Error())
	}
	format, _ := cmd.Flags().GetString(flags.FlagOutput)
	switch format {
	case OutputJSON:
		bz = append(bz, '\n')
	case OutputText, "":
		var doc interface{}
		if err := yaml.Unmarshal(bz, &doc); err != nil {
			return err
		}
		if bz, err = yaml.Marshal(doc); err != nil {
			return err
		}
	default:
		return sdkerrors.Wrapf(types.ErrInvalid, "output format %q", format)
	}
	_, err = cmd.OutOrStdout().Write(bz)
	return err
}

func parseIndex(arg string) (uint64, error) {
	index, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, sdkerrors.Wrapf(types.ErrInvalid, "proposal index %q", arg)
	}
	return index, nil
}

// parseOption accepts an option index, a label of the proposal or yes/no
func parseOption(arg string, p types.Proposal) (uint32, error) {
	if v, err := strconv.ParseUint(arg, 10, 32); err == nil {
		option := uint32(v)
		return option, p.ValidateOption(option)
	}
	for i, label := range p.Options {
		if strings.EqualFold(label, arg) {
			return uint32(i), nil
		}
	}
	switch strings.ToLower(arg) {
	case "yes":
		return types.OptionAffirmative, nil
	case "no":
		return types.OptionNegative, nil
	}
	return 0, sdkerrors.Wrapf(types.ErrInvalid, "option %q", arg)
}

// accountOrCurrent returns the address in args at pos or the acting account
func accountOrCurrent(cmd *cobra.Command, m *govexec.Module, args []string, pos int) (sdk.AccAddress, error) {
	if len(args) > pos {
		return sdk.AccAddressFromBech32(args[pos])
	}
	return m.CurrentAccount(cmd.Context())
}

// withModule runs fn against the provided module and closes it afterwards
func withModule(provider ModuleProvider, fn func(cmd *cobra.Command, m *govexec.Module, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		m, err := provider(cmd)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(cmd, m, args)
	}
}
