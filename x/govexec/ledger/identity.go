package ledger

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/confio/tgov/x/govexec/types"
)

var _ types.IdentityProvider = StaticIdentity{}

// StaticIdentity always acts as the same account
type StaticIdentity struct {
	addr sdk.AccAddress
}

// NewStaticIdentity constructor
func NewStaticIdentity(bech32 string) (StaticIdentity, error) {
	addr, err := sdk.AccAddressFromBech32(bech32)
	if err != nil {
		return StaticIdentity{}, sdkerrors.Wrap(err, "identity")
	}
	return StaticIdentity{addr: addr}, nil
}

func (s StaticIdentity) CurrentAccount(ctx context.Context) (sdk.AccAddress, error) {
	if s.addr.Empty() {
		return nil, sdkerrors.Wrap(types.ErrEmpty, "identity")
	}
	return s.addr, nil
}
