package contract

import (
	"context"
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/confio/tgov/x/govexec/types"
)

// BaseContractAdapter is embedded by all contract adapters. Reads and writes go through the LedgerPort.
type BaseContractAdapter struct {
	contractAddr     sdk.AccAddress
	ledger           types.LedgerPort
	addressLookupErr error
}

// NewBaseContractAdapter constructor
func NewBaseContractAdapter(contractAddr sdk.AccAddress, ledger types.LedgerPort, addressLookupErr error) BaseContractAdapter {
	return BaseContractAdapter{contractAddr: contractAddr, ledger: ledger, addressLookupErr: addressLookupErr}
}

// Address returns the contract address or the error from the address lookup
func (a BaseContractAdapter) Address() (sdk.AccAddress, error) {
	return a.contractAddr, a.addressLookupErr
}

// newCall builds a call to this contract
func (a BaseContractAdapter) newCall(method string, args interface{}) (types.Call, error) {
	if a.addressLookupErr != nil {
		return types.Call{}, a.addressLookupErr
	}
	return types.NewCall(a.contractAddr, method, args)
}

func (a BaseContractAdapter) doQuery(ctx context.Context, method string, args interface{}, result interface{}) error {
	call, err := a.newCall(method, args)
	if err != nil {
		return err
	}
	return doQuery(ctx, a.ledger, call, result)
}

func (a BaseContractAdapter) doExecute(ctx context.Context, method string, args interface{}, opts types.SendOpts) (*types.Receipt, error) {
	call, err := a.newCall(method, args)
	if err != nil {
		return nil, err
	}
	return a.ledger.Send(ctx, call, opts)
}

func doQuery(ctx context.Context, ledger types.LedgerPort, call types.Call, result interface{}) error {
	res, err := ledger.Call(ctx, call)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res, result); err != nil {
		return sdkerrors.Wrapf(sdkerrors.ErrJSONUnmarshal, "%s: %s", call.Method, err)
	}
	return nil
}
