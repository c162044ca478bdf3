package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/crypto"
)

// RandomAddress returns a deterministic address derived from the given seed name
func RandomAddress(seed string) sdk.AccAddress {
	return sdk.AccAddress(crypto.AddressHash([]byte(seed)))
}

// ProposalFixture returns a valid proposal for tests
func ProposalFixture(mutators ...func(p *Proposal)) Proposal {
	p := Proposal{
		Index:         1,
		SupportNeeded: sdk.NewDecWithPrec(5, 1),
		Options:       []string{"Yes", "No"},
		Executor:      RandomAddress("executor"),
		Organization:  RandomAddress("organization"),
	}
	for _, m := range mutators {
		m(&p)
	}
	return p
}

// ConfigFixture returns a valid config for tests
func ConfigFixture(mutators ...func(c *Config)) Config {
	c := DefaultConfig()
	c.Organization = RandomAddress("organization").String()
	c.ACL = RandomAddress("acl").String()
	c.VotingPowerSources = []string{RandomAddress("source-a").String(), RandomAddress("source-b").String()}
	for _, m := range mutators {
		m(&c)
	}
	return c
}

// CallFixture returns a valid call for tests
func CallFixture(contract string, method string) Call {
	return Call{Contract: RandomAddress(contract), Method: method, Args: []byte(fmt.Sprintf(`{"name":%q}`, method))}
}
