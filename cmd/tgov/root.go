package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/server"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/cosmos/cosmos-sdk/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/tendermint/tendermint/libs/log"
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/confio/tgov/x/govexec"
	"github.com/confio/tgov/x/govexec/client/cli"
	"github.com/confio/tgov/x/govexec/ledger"
	"github.com/confio/tgov/x/govexec/types"
)

const (
	appName = "tgov"

	// Bech32Prefix defines the Bech32 prefix used for accounts
	Bech32Prefix = "tgrade"

	flagConfig    = "config"
	flagLogLevel  = "log_level"
	flagLogFormat = "log_format"

	logFormatJSON  = "json"
	logFormatPlain = "plain"
)

// NewRootCmd creates a new root command for tgov
func NewRootCmd() *cobra.Command {
	version.AppName = appName
	setAddressPrefixes()

	rootCmd := &cobra.Command{
		Use:          appName,
		Short:        "Governance decision and permissioned execution client",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().AddFlagSet(flagSetRuntime())

	provider := moduleProvider(noSigner{})
	queryCmd := &cobra.Command{
		Use:                        "query",
		Aliases:                    []string{"q"},
		Short:                      "Querying subcommands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	queryCmd.AddCommand(cli.GetQueryCmd(provider))
	txCmd := &cobra.Command{
		Use:                        "tx",
		Short:                      "Transactions subcommands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	txCmd.AddCommand(cli.NewTxCmd(provider))

	rootCmd.AddCommand(
		queryCmd,
		txCmd,
		ServeCmd(),
		version.NewVersionCommand(),
	)
	return rootCmd
}

func flagSetRuntime() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.String(flagConfig, "", "Path to the yaml config file")
	fs.String(types.FlagNode, "", "<host>:<port> to tendermint rpc interface for this chain")
	fs.Uint64(types.FlagGas, 0, "Gas limit for each submitted transaction")
	fs.Int(types.FlagMaxForwardDepth, 0, "Maximum number of forwarders in a permission path")
	fs.String(types.FlagCacheDir, "", "Directory of the total voting power cache. In memory when empty")
	fs.String(types.FlagListenAddr, "", "Address the REST server listens on")
	fs.String(flags.FlagFrom, "", "Bech32 address of the acting account")
	fs.String(flagLogLevel, zerolog.InfoLevel.String(), "The logging level (trace|debug|info|warn|error|fatal|panic)")
	fs.String(flagLogFormat, logFormatPlain, "The logging format (json|plain)")
	return fs
}

func setAddressPrefixes() {
	config := sdk.GetConfig()
	config.SetBech32PrefixForAccount(Bech32Prefix, Bech32Prefix+sdk.PrefixPublic)
	config.SetBech32PrefixForValidator(Bech32Prefix+sdk.PrefixValidator+sdk.PrefixOperator, Bech32Prefix+sdk.PrefixValidator+sdk.PrefixOperator+sdk.PrefixPublic)
	config.SetBech32PrefixForConsensusNode(Bech32Prefix+sdk.PrefixValidator+sdk.PrefixConsensus, Bech32Prefix+sdk.PrefixValidator+sdk.PrefixConsensus+sdk.PrefixPublic)
}

// flagOptions exposes the flags that were set on the command line as app options
type flagOptions struct {
	fs *flag.FlagSet
}

func (o flagOptions) Get(key string) interface{} {
	f := o.fs.Lookup(key)
	if f == nil || !f.Changed {
		return nil
	}
	return f.Value.String()
}

// readConfig loads the config file, when given, and applies the command line overrides
func readConfig(cmd *cobra.Command) (types.Config, error) {
	cfg := types.DefaultConfig()
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if cfg, err = types.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyOptions(flagOptions{fs: cmd.Flags()}); err != nil {
		return cfg, sdkerrors.Wrap(types.ErrInvalid, err.Error())
	}
	return cfg, nil
}

// newLogger returns a zerolog backed logger configured by the log flags
func newLogger(cmd *cobra.Command, out io.Writer) (log.Logger, error) {
	level, err := cmd.Flags().GetString(flagLogLevel)
	if err != nil {
		return nil, err
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, sdkerrors.Wrapf(types.ErrInvalid, "log level %q", level)
	}
	format, err := cmd.Flags().GetString(flagLogFormat)
	if err != nil {
		return nil, err
	}
	logWriter := out
	switch strings.ToLower(format) {
	case logFormatJSON:
	case logFormatPlain, "":
		logWriter = zerolog.ConsoleWriter{Out: out}
	default:
		return nil, sdkerrors.Wrapf(types.ErrInvalid, "log format %q", format)
	}
	return server.ZeroLogWrapper{Logger: zerolog.New(logWriter).Level(lvl).With().Timestamp().Logger()}, nil
}

// moduleProvider dials the configured node for each command
func moduleProvider(signer ledger.TxSigner) cli.ModuleProvider {
	return func(cmd *cobra.Command) (*govexec.Module, error) {
		cfg, err := readConfig(cmd)
		if err != nil {
			return nil, err
		}
		logger, err := newLogger(cmd, os.Stderr)
		if err != nil {
			return nil, err
		}
		l, err := ledger.Dial(cfg.Node, signer, logger)
		if err != nil {
			return nil, err
		}
		var identity types.IdentityProvider
		if from, _ := cmd.Flags().GetString(flags.FlagFrom); from != "" {
			if identity, err = ledger.NewStaticIdentity(from); err != nil {
				return nil, err
			}
		}
		return govexec.NewModule(cfg, l, identity, logger)
	}
}

// noSigner rejects all submissions. Keys are managed outside of this binary.
type noSigner struct{}

func (noSigner) Sign(ctx context.Context, msg sdk.Msg, opts types.SendOpts) (tmtypes.Tx, error) {
	return nil, sdkerrors.Wrap(types.ErrEmpty, "no signer available, use --generate-only and sign externally")
}
