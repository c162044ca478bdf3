package types

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// Call is a single contract method invocation. It is encoded as `{"<method>": <args>}` on the wire.
type Call struct {
	Contract sdk.AccAddress  `json:"contract"`
	Method   string          `json:"method"`
	Args     json.RawMessage `json:"args,omitempty"`
}

// NewCall constructor that serializes the given args
func NewCall(contract sdk.AccAddress, method string, args interface{}) (Call, error) {
	var raw json.RawMessage = []byte("{}")
	if args != nil {
		bz, err := json.Marshal(args)
		if err != nil {
			return Call{}, sdkerrors.Wrap(sdkerrors.ErrJSONMarshal, err.Error())
		}
		raw = bz
	}
	return Call{Contract: contract, Method: method, Args: raw}, nil
}

// ValidateBasic checks target and method are set
func (c Call) ValidateBasic() error {
	if err := sdk.VerifyAddressFormat(c.Contract); err != nil {
		return sdkerrors.Wrap(err, "contract")
	}
	if len(c.Method) == 0 {
		return sdkerrors.Wrap(ErrEmpty, "method")
	}
	if len(c.Args) != 0 && !json.Valid(c.Args) {
		return sdkerrors.Wrap(ErrInvalid, "args: not json")
	}
	return nil
}

// MsgBytes returns the contract message `{"<method>": <args>}`
func (c Call) MsgBytes() ([]byte, error) {
	args := c.Args
	if len(args) == 0 {
		args = []byte("{}")
	}
	bz, err := json.Marshal(map[string]json.RawMessage{c.Method: args})
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrJSONMarshal, err.Error())
	}
	return bz, nil
}

func (c Call) String() string {
	return fmt.Sprintf("%s.%s", c.Contract, c.Method)
}

// ExecutionIntent is one logical action made of one or more calls, executed in order
type ExecutionIntent struct {
	Calls []Call `json:"calls"`
}

// NewExecutionIntent constructor
func NewExecutionIntent(calls ...Call) ExecutionIntent {
	return ExecutionIntent{Calls: calls}
}

// ValidateBasic requires at least one valid call
func (i ExecutionIntent) ValidateBasic() error {
	if len(i.Calls) == 0 {
		return sdkerrors.Wrap(ErrEmpty, "calls")
	}
	for n, c := range i.Calls {
		if err := c.ValidateBasic(); err != nil {
			return sdkerrors.Wrapf(err, "call %d", n)
		}
	}
	return nil
}

// FlattenCalls returns all calls of the basket in order
func FlattenCalls(intents []ExecutionIntent) []Call {
	var r []Call
	for _, i := range intents {
		r = append(r, i.Calls...)
	}
	return r
}
