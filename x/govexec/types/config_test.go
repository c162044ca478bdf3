package types

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapOptions map[string]interface{}

func (m mapOptions) Get(key string) interface{} {
	return m[key]
}

func TestConfigValidation(t *testing.T) {
	specs := map[string]struct {
		src    Config
		expErr bool
	}{
		"all good": {
			src: ConfigFixture(),
		},
		"with registry": {
			src: ConfigFixture(func(c *Config) { c.Registry = RandomAddress("registry").String() }),
		},
		"empty node": {
			src:    ConfigFixture(func(c *Config) { c.Node = "" }),
			expErr: true,
		},
		"invalid organization": {
			src:    ConfigFixture(func(c *Config) { c.Organization = "invalid" }),
			expErr: true,
		},
		"invalid acl": {
			src:    ConfigFixture(func(c *Config) { c.ACL = "" }),
			expErr: true,
		},
		"invalid registry": {
			src:    ConfigFixture(func(c *Config) { c.Registry = "invalid" }),
			expErr: true,
		},
		"no sources": {
			src:    ConfigFixture(func(c *Config) { c.VotingPowerSources = nil }),
			expErr: true,
		},
		"duplicate source": {
			src: ConfigFixture(func(c *Config) {
				c.VotingPowerSources = []string{c.Organization, c.Organization}
			}),
			expErr: true,
		},
		"zero gas": {
			src:    ConfigFixture(func(c *Config) { c.Gas = 0 }),
			expErr: true,
		},
		"zero depth": {
			src:    ConfigFixture(func(c *Config) { c.MaxForwardDepth = 0 }),
			expErr: true,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			gotErr := spec.src.Validate()
			if spec.expErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	myCfg := ConfigFixture(func(c *Config) { c.Gas = 1 })
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(myCfg.String()), 0o600))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, myCfg, got)

	require.NoError(t, ioutil.WriteFile(path, []byte("unknown_field: 1\n"), 0o600))
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "not-there.yaml"))
	require.Error(t, err)
}

func TestConfigApplyOptions(t *testing.T) {
	specs := map[string]struct {
		src    mapOptions
		exp    Config
		expErr bool
	}{
		"none set": {
			src: mapOptions{},
			exp: DefaultConfig(),
		},
		"all set": {
			src: mapOptions{
				FlagNode:            "tcp://other:26657",
				FlagGas:             "100",
				FlagMaxForwardDepth: 2,
				FlagCacheDir:        "/tmp/cache",
				FlagListenAddr:      ":8080",
			},
			exp: Config{Node: "tcp://other:26657", Gas: 100, MaxForwardDepth: 2, CacheDir: "/tmp/cache", ListenAddr: ":8080"},
		},
		"zero values are ignored": {
			src: mapOptions{FlagGas: 0, FlagNode: ""},
			exp: DefaultConfig(),
		},
		"invalid gas": {
			src:    mapOptions{FlagGas: "many"},
			expErr: true,
		},
		"invalid depth": {
			src:    mapOptions{FlagMaxForwardDepth: "deep"},
			expErr: true,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			gotErr := cfg.ApplyOptions(spec.src)
			if spec.expErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, spec.exp, cfg)
		})
	}
}

func TestVotingRulesCoupling(t *testing.T) {
	dec := sdk.MustNewDecFromStr
	rules := VotingRules{Support: dec("0.5"), MinQuorum: dec("0.6")}

	got := rules.WithSupport(dec("0.7"))
	assert.Equal(t, dec("0.7"), got.Support)
	assert.Equal(t, dec("0.7"), got.MinQuorum)
	require.NoError(t, got.ValidateBasic())

	got = rules.WithSupport(dec("0.4"))
	assert.Equal(t, dec("0.4"), got.Support)
	assert.Equal(t, dec("0.6"), got.MinQuorum)

	got = rules.WithQuorum(dec("0.3"))
	assert.Equal(t, dec("0.3"), got.Support)
	assert.Equal(t, dec("0.3"), got.MinQuorum)
	require.NoError(t, got.ValidateBasic())

	got = VotingRules{}.WithQuorum(dec("0.5"))
	assert.Equal(t, dec("0.5"), got.Support)
}

func TestVotingRulesValidation(t *testing.T) {
	dec := sdk.MustNewDecFromStr
	specs := map[string]struct {
		src    VotingRules
		expErr bool
	}{
		"valid":            {src: VotingRules{Support: dec("0.5"), MinQuorum: dec("0.5")}},
		"zero support":     {src: VotingRules{Support: dec("0"), MinQuorum: dec("0.5")}, expErr: true},
		"full support":     {src: VotingRules{Support: dec("1"), MinQuorum: dec("0.5")}, expErr: true},
		"quorum < support": {src: VotingRules{Support: dec("0.6"), MinQuorum: dec("0.5")}, expErr: true},
		"full quorum":      {src: VotingRules{Support: dec("0.6"), MinQuorum: dec("1")}, expErr: true},
		"empty":            {src: VotingRules{}, expErr: true},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			gotErr := spec.src.ValidateBasic()
			if spec.expErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
		})
	}
}
