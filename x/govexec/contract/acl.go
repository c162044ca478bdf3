package contract

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/confio/tgov/x/govexec/types"
)

// ACL contract methods
const (
	MethodHasPermission  = "has_permission"
	MethodListForwarders = "list_forwarders"
)

// HasPermissionQuery asks if `who` may call method `what` on contract `where`
type HasPermissionQuery struct {
	Who   string `json:"who"`
	Where string `json:"where"`
	What  string `json:"what"`
}

type PermissionResponse struct {
	Allowed bool `json:"allowed"`
}

type ListForwardersResponse struct {
	Forwarders []string `json:"forwarders"`
}

// ACLContractAdapter reads the organization access control policy
type ACLContractAdapter struct {
	BaseContractAdapter
}

// NewACLContractAdapter constructor
func NewACLContractAdapter(contractAddr sdk.AccAddress, ledger types.LedgerPort, addressLookupErr error) ACLContractAdapter {
	return ACLContractAdapter{
		BaseContractAdapter: NewBaseContractAdapter(contractAddr, ledger, addressLookupErr),
	}
}

// HasPermission returns true when the actor can call the method on the target directly
func (a ACLContractAdapter) HasPermission(ctx context.Context, who sdk.AccAddress, call types.Call) (bool, error) {
	query := HasPermissionQuery{
		Who:   who.String(),
		Where: call.Contract.String(),
		What:  call.Method,
	}
	var rsp PermissionResponse
	if err := a.doQuery(ctx, MethodHasPermission, query, &rsp); err != nil {
		return false, sdkerrors.Wrap(err, "contract query")
	}
	return rsp.Allowed, nil
}

// ListForwarders returns all registered forwarders in registration order
func (a ACLContractAdapter) ListForwarders(ctx context.Context) ([]sdk.AccAddress, error) {
	var rsp ListForwardersResponse
	if err := a.doQuery(ctx, MethodListForwarders, struct{}{}, &rsp); err != nil {
		return nil, sdkerrors.Wrap(err, "contract query")
	}
	result := make([]sdk.AccAddress, len(rsp.Forwarders))
	for i, v := range rsp.Forwarders {
		addr, err := sdk.AccAddressFromBech32(v)
		if err != nil {
			return nil, sdkerrors.Wrapf(err, "forwarder %q", v)
		}
		result[i] = addr
	}
	return result, nil
}

// CanForward returns true when the forwarder accepts scripts from the sender
func (a ACLContractAdapter) CanForward(ctx context.Context, forwarder, sender sdk.AccAddress) (bool, error) {
	return QueryCanForward(ctx, a.ledger, forwarder, sender)
}
