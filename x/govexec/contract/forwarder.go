package contract

import (
	"context"
	"encoding/json"

	wasmvmtypes "github.com/CosmWasm/wasmvm/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/confio/tgov/x/govexec/types"
)

// Forwarder contract methods
const (
	MethodCanForward = "can_forward"
	// MethodForward executes a list of messages with the forwarder as sender
	MethodForward = "execute"
)

type CanForwardQuery struct {
	Sender string `json:"sender"`
}

// ForwardMsg is the composed script a forwarder executes in order
type ForwardMsg struct {
	Msgs []wasmvmtypes.CosmosMsg `json:"msgs"`
}

// QueryCanForward returns true when the forwarder accepts scripts from the sender
func QueryCanForward(ctx context.Context, ledger types.LedgerPort, forwarder sdk.AccAddress, sender sdk.AccAddress) (bool, error) {
	call, err := types.NewCall(forwarder, MethodCanForward, CanForwardQuery{Sender: sender.String()})
	if err != nil {
		return false, err
	}
	var rsp PermissionResponse
	if err := doQuery(ctx, ledger, call, &rsp); err != nil {
		return false, sdkerrors.Wrap(err, "contract query")
	}
	return rsp.Allowed, nil
}

// ToCosmosMsg converts a call into a wasm execute message
func ToCosmosMsg(call types.Call) (wasmvmtypes.CosmosMsg, error) {
	bz, err := call.MsgBytes()
	if err != nil {
		return wasmvmtypes.CosmosMsg{}, err
	}
	return wasmvmtypes.CosmosMsg{
		Wasm: &wasmvmtypes.WasmMsg{
			Execute: &wasmvmtypes.ExecuteMsg{
				ContractAddr: call.Contract.String(),
				Msg:          bz,
				Funds:        wasmvmtypes.Coins{},
			},
		},
	}, nil
}

// FromCosmosMsg converts a wasm execute message back into a call
func FromCosmosMsg(msg wasmvmtypes.CosmosMsg) (types.Call, error) {
	if msg.Wasm == nil || msg.Wasm.Execute == nil {
		return types.Call{}, sdkerrors.Wrap(types.ErrInvalid, "not a wasm execute message")
	}
	contractAddr, err := sdk.AccAddressFromBech32(msg.Wasm.Execute.ContractAddr)
	if err != nil {
		return types.Call{}, sdkerrors.Wrap(err, "contract")
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(msg.Wasm.Execute.Msg, &payload); err != nil {
		return types.Call{}, sdkerrors.Wrap(sdkerrors.ErrJSONUnmarshal, err.Error())
	}
	if len(payload) != 1 {
		return types.Call{}, sdkerrors.Wrapf(types.ErrInvalid, "expected exactly one method, got %d", len(payload))
	}
	for method, args := range payload {
		return types.Call{Contract: contractAddr, Method: method, Args: args}, nil
	}
	return types.Call{}, types.ErrEmpty
}

// ComposeForwardCall nests the calls into forward scripts along the chain.
// The first element of via receives the transaction, the last one executes the calls.
func ComposeForwardCall(via []sdk.AccAddress, calls []types.Call) (types.Call, error) {
	if len(via) == 0 {
		return types.Call{}, sdkerrors.Wrap(types.ErrEmpty, "forwarder chain")
	}
	if len(calls) == 0 {
		return types.Call{}, sdkerrors.Wrap(types.ErrEmpty, "calls")
	}
	inner := calls
	for i := len(via) - 1; i >= 0; i-- {
		msgs := make([]wasmvmtypes.CosmosMsg, len(inner))
		for j, c := range inner {
			msg, err := ToCosmosMsg(c)
			if err != nil {
				return types.Call{}, sdkerrors.Wrapf(err, "call %d", j)
			}
			msgs[j] = msg
		}
		call, err := types.NewCall(via[i], MethodForward, ForwardMsg{Msgs: msgs})
		if err != nil {
			return types.Call{}, err
		}
		inner = []types.Call{call}
	}
	return inner[0], nil
}
