package contract

import (
	"context"
	"encoding/hex"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"golang.org/x/crypto/sha3"

	"github.com/confio/tgov/x/govexec/types"
)

// Registry contract methods
const (
	MethodRegisterData      = "register_data"
	MethodGetRegisteredData = "get_registered_data"
)

// Well known registry settings
const (
	SettingHomeAppName = "HOME_APP_NAME"
	SettingHomeApp     = "HOME_APP"
)

type RegisterDataMsg struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type RegisteredDataQuery struct {
	Key string `json:"key"`
}

type RegisteredDataResponse struct {
	Value string `json:"value"`
}

// RegistryKey returns the hex encoded keccak256 hash of the setting name
func RegistryKey(name string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	return hex.EncodeToString(h.Sum(nil))
}

// RegistryContractAdapter is the organization settings store
type RegistryContractAdapter struct {
	BaseContractAdapter
}

// NewRegistryContractAdapter constructor
func NewRegistryContractAdapter(contractAddr sdk.AccAddress, ledger types.LedgerPort, addressLookupErr error) RegistryContractAdapter {
	return RegistryContractAdapter{
		BaseContractAdapter: NewBaseContractAdapter(contractAddr, ledger, addressLookupErr),
	}
}

// Get returns the value stored for the setting name. Empty when not set.
func (r RegistryContractAdapter) Get(ctx context.Context, name string) (string, error) {
	var rsp RegisteredDataResponse
	if err := r.doQuery(ctx, MethodGetRegisteredData, RegisteredDataQuery{Key: RegistryKey(name)}, &rsp); err != nil {
		return "", sdkerrors.Wrap(err, "contract query")
	}
	return rsp.Value, nil
}

// SetCall builds the call that stores the value for the setting name
func (r RegistryContractAdapter) SetCall(name, value string) (types.Call, error) {
	if len(name) == 0 {
		return types.Call{}, sdkerrors.Wrap(types.ErrEmpty, "name")
	}
	return r.newCall(MethodRegisterData, RegisterDataMsg{Key: RegistryKey(name), Value: value})
}
