package types

import (
	"io/ioutil"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/spf13/cast"
	yaml "gopkg.in/yaml.v2"
)

// Runtime option names
const (
	FlagNode            = "node"
	FlagGas             = "gas"
	FlagMaxForwardDepth = "max-forward-depth"
	FlagCacheDir        = "cache-dir"
	FlagListenAddr      = "listen-addr"
)

// Config defaults
const (
	DefaultNode       = "tcp://localhost:26657"
	DefaultListenAddr = "localhost:1318"
)

// Config of the governance execution engine
type Config struct {
	// Node is the tendermint RPC endpoint
	Node string `yaml:"node"`
	// Organization is the governance contract with proposals and votes
	Organization string `yaml:"organization"`
	// ACL is the access control contract
	ACL string `yaml:"acl"`
	// Registry is the optional settings registry app
	Registry string `yaml:"registry,omitempty"`
	// VotingPowerSources in registration order
	VotingPowerSources []string `yaml:"voting_power_sources"`
	// Gas limit for every submission
	Gas uint64 `yaml:"gas"`
	// MaxForwardDepth limits forwarder chains
	MaxForwardDepth int `yaml:"max_forward_depth"`
	// CacheDir for the total voting power cache. Empty keeps the cache in memory.
	CacheDir string `yaml:"cache_dir,omitempty"`
	// ListenAddr of the REST server
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns a config with defaults and no contracts
func DefaultConfig() Config {
	return Config{
		Node:            DefaultNode,
		Gas:             DefaultGas,
		MaxForwardDepth: DefaultMaxForwardDepth,
		ListenAddr:      DefaultListenAddr,
	}
}

// LoadConfig reads a yaml file on top of the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	bz, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, sdkerrors.Wrap(err, "read config")
	}
	if err := yaml.UnmarshalStrict(bz, &cfg); err != nil {
		return cfg, sdkerrors.Wrap(ErrInvalid, err.Error())
	}
	return cfg, nil
}

// ApplyOptions overrides config values with the runtime options that are set
func (c *Config) ApplyOptions(opts AppOptions) error {
	if v := opts.Get(FlagNode); v != nil {
		s, err := cast.ToStringE(v)
		if err != nil {
			return sdkerrors.Wrap(err, FlagNode)
		}
		if s != "" {
			c.Node = s
		}
	}
	if v := opts.Get(FlagGas); v != nil {
		gas, err := cast.ToUint64E(v)
		if err != nil {
			return sdkerrors.Wrap(err, FlagGas)
		}
		if gas != 0 {
			c.Gas = gas
		}
	}
	if v := opts.Get(FlagMaxForwardDepth); v != nil {
		depth, err := cast.ToIntE(v)
		if err != nil {
			return sdkerrors.Wrap(err, FlagMaxForwardDepth)
		}
		if depth != 0 {
			c.MaxForwardDepth = depth
		}
	}
	if v := opts.Get(FlagCacheDir); v != nil {
		s, err := cast.ToStringE(v)
		if err != nil {
			return sdkerrors.Wrap(err, FlagCacheDir)
		}
		if s != "" {
			c.CacheDir = s
		}
	}
	if v := opts.Get(FlagListenAddr); v != nil {
		s, err := cast.ToStringE(v)
		if err != nil {
			return sdkerrors.Wrap(err, FlagListenAddr)
		}
		if s != "" {
			c.ListenAddr = s
		}
	}
	return nil
}

// Validate a config
func (c Config) Validate() error {
	if len(c.Node) == 0 {
		return sdkerrors.Wrap(ErrEmpty, "node")
	}
	if _, err := sdk.AccAddressFromBech32(c.Organization); err != nil {
		return sdkerrors.Wrap(err, "organization")
	}
	if _, err := sdk.AccAddressFromBech32(c.ACL); err != nil {
		return sdkerrors.Wrap(err, "acl")
	}
	if len(c.Registry) != 0 {
		if _, err := sdk.AccAddressFromBech32(c.Registry); err != nil {
			return sdkerrors.Wrap(err, "registry")
		}
	}
	if len(c.VotingPowerSources) == 0 {
		return sdkerrors.Wrap(ErrEmpty, "voting power sources")
	}
	seen := make(map[string]struct{}, len(c.VotingPowerSources))
	for _, s := range c.VotingPowerSources {
		if _, err := sdk.AccAddressFromBech32(s); err != nil {
			return sdkerrors.Wrapf(err, "voting power source %q", s)
		}
		if _, exists := seen[s]; exists {
			return sdkerrors.Wrapf(ErrInvalid, "duplicate voting power source %q", s)
		}
		seen[s] = struct{}{}
	}
	if c.Gas == 0 {
		return sdkerrors.Wrap(ErrEmpty, "gas")
	}
	if c.MaxForwardDepth < 1 {
		return sdkerrors.Wrap(ErrInvalid, "max forward depth must be positive")
	}
	return nil
}

// String returns a human readable string representation of the config.
func (c Config) String() string {
	out, _ := yaml.Marshal(c)
	return string(out)
}

// VotingRules are the organization wide voting parameters
type VotingRules struct {
	// Support fraction of cast votes an option must exceed
	Support sdk.Dec `json:"support" yaml:"support"`
	// MinQuorum fraction of the total voting power that must participate
	MinQuorum sdk.Dec `json:"min_quorum" yaml:"min_quorum"`
}

// WithSupport sets support and raises the quorum so that it is never below support
func (r VotingRules) WithSupport(v sdk.Dec) VotingRules {
	r.Support = v
	if r.MinQuorum.IsNil() || r.MinQuorum.LT(v) {
		r.MinQuorum = v
	}
	return r
}

// WithQuorum sets the quorum and lowers support so that it never exceeds the quorum
func (r VotingRules) WithQuorum(v sdk.Dec) VotingRules {
	r.MinQuorum = v
	if r.Support.IsNil() || r.Support.GT(v) {
		r.Support = v
	}
	return r
}

// ValidateBasic support must be in (0,1) and quorum in [support,1)
func (r VotingRules) ValidateBasic() error {
	if r.Support.IsNil() || !r.Support.IsPositive() || r.Support.GTE(sdk.OneDec()) {
		return sdkerrors.Wrap(ErrInvalid, "support must be in (0,1)")
	}
	if r.MinQuorum.IsNil() || r.MinQuorum.LT(r.Support) || r.MinQuorum.GTE(sdk.OneDec()) {
		return sdkerrors.Wrap(ErrInvalid, "quorum must be in [support,1)")
	}
	return nil
}

func (r VotingRules) String() string {
	out, _ := yaml.Marshal(r)
	return string(out)
}
