package ledger

import (
	"context"
	"strings"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	"github.com/tendermint/tendermint/libs/log"
	rpchttp "github.com/tendermint/tendermint/rpc/client/http"
	coretypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/confio/tgov/x/govexec/types"
)

// SmartQueryPath is the grpc query route for contract smart queries
const SmartQueryPath = "/cosmwasm.wasm.v1.Query/SmartContractState"

// ABCIClient is the subset of the tendermint rpc client used by the ledger
type ABCIClient interface {
	ABCIQuery(ctx context.Context, path string, data tmbytes.HexBytes) (*coretypes.ResultABCIQuery, error)
	BroadcastTxCommit(ctx context.Context, tx tmtypes.Tx) (*coretypes.ResultBroadcastTxCommit, error)
}

var _ ABCIClient = &rpchttp.HTTP{}

// TxSigner builds a signed and encoded transaction for the message. Key management lives outside this module.
type TxSigner interface {
	Sign(ctx context.Context, msg sdk.Msg, opts types.SendOpts) (tmtypes.Tx, error)
}

var _ types.LedgerPort = &RPCLedger{}

// RPCLedger reads contract state with smart queries and submits MsgExecuteContract transactions
type RPCLedger struct {
	client ABCIClient
	signer TxSigner
	logger log.Logger
}

// NewRPCLedger constructor
func NewRPCLedger(client ABCIClient, signer TxSigner, logger log.Logger) *RPCLedger {
	return &RPCLedger{client: client, signer: signer, logger: logger.With("module", "ledger")}
}

// Dial connects to the tendermint rpc endpoint
func Dial(node string, signer TxSigner, logger log.Logger) (*RPCLedger, error) {
	client, err := rpchttp.New(node, "/websocket")
	if err != nil {
		return nil, sdkerrors.Wrap(err, "rpc client")
	}
	return NewRPCLedger(client, signer, logger), nil
}

// Call runs a smart query against the contract
func (l RPCLedger) Call(ctx context.Context, call types.Call) ([]byte, error) {
	msg, err := call.MsgBytes()
	if err != nil {
		return nil, err
	}
	req := wasmtypes.QuerySmartContractStateRequest{
		Address:   call.Contract.String(),
		QueryData: msg,
	}
	bz, err := req.Marshal()
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrJSONMarshal, err.Error())
	}
	res, err := l.client.ABCIQuery(ctx, SmartQueryPath, bz)
	if err != nil {
		return nil, sdkerrors.Wrap(err, "abci query")
	}
	if !res.Response.IsOK() {
		return nil, sdkerrors.ABCIError(res.Response.Codespace, res.Response.Code, res.Response.Log)
	}
	var rsp wasmtypes.QuerySmartContractStateResponse
	if err := rsp.Unmarshal(res.Response.Value); err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrInvalidType, err.Error())
	}
	return rsp.Data, nil
}

// Send signs and broadcasts the call as MsgExecuteContract and waits for the block
func (l RPCLedger) Send(ctx context.Context, call types.Call, opts types.SendOpts) (*types.Receipt, error) {
	msg, err := call.MsgBytes()
	if err != nil {
		return nil, err
	}
	execMsg := &wasmtypes.MsgExecuteContract{
		Sender:   opts.From.String(),
		Contract: call.Contract.String(),
		Msg:      msg,
		Funds:    sdk.NewCoins(),
	}
	if err := execMsg.ValidateBasic(); err != nil {
		return nil, err
	}
	tx, err := l.signer.Sign(ctx, execMsg, opts)
	if err != nil {
		return nil, sdkerrors.Wrap(err, "sign")
	}
	res, err := l.client.BroadcastTxCommit(ctx, tx)
	if err != nil {
		return nil, sdkerrors.Wrap(err, "broadcast")
	}
	if !res.CheckTx.IsOK() {
		return nil, toLedgerError(res.CheckTx.Codespace, res.CheckTx.Code, res.CheckTx.Log)
	}
	if !res.DeliverTx.IsOK() {
		return nil, toLedgerError(res.DeliverTx.Codespace, res.DeliverTx.Code, res.DeliverTx.Log)
	}
	l.logger.Debug("transaction committed", "hash", res.Hash.String(), "height", res.Height, "contract", call.Contract.String(), "method", call.Method)
	return &types.Receipt{
		TxHash:  res.Hash.String(),
		Height:  res.Height,
		GasUsed: res.DeliverTx.GasUsed,
		Data:    res.DeliverTx.Data,
	}, nil
}

// toLedgerError classifies a failed transaction result. The chain state is unchanged in all cases.
func toLedgerError(codespace string, code uint32, log string) error {
	err := sdkerrors.ABCIError(codespace, code, log)
	switch {
	case sdkerrors.ErrOutOfGas.Is(err):
		return sdkerrors.Wrap(types.ErrOutOfGas, log)
	case types.ErrAlreadyExecuted.Is(err), strings.Contains(strings.ToLower(log), "already executed"):
		return sdkerrors.Wrap(types.ErrAlreadyExecuted, log)
	default:
		return sdkerrors.Wrap(types.ErrReverted, err.Error())
	}
}
