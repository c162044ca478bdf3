package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/types"
)

// PermissionPathResolver finds the minimal set of transactions that carry out a basket of intents
// under the organization access control policy.
type PermissionPathResolver struct {
	acl      AccessControl
	maxDepth int
	logger   log.Logger
}

// NewPermissionPathResolver constructor. maxDepth limits the length of forwarder chains.
func NewPermissionPathResolver(acl AccessControl, maxDepth int, logger log.Logger) *PermissionPathResolver {
	if maxDepth < 1 {
		maxDepth = types.DefaultMaxForwardDepth
	}
	return &PermissionPathResolver{acl: acl, maxDepth: maxDepth, logger: logger}
}

// ResolvePath returns the execution path for the intents with the actor as signer.
//
// When the actor can call everything directly, a direct path with one transaction per call is returned.
// In batch mode a forwarder chain that holds permission for the whole basket is searched next and
// results in a single composed transaction. Otherwise each intent gets its own direct or forwarded
// transaction. ErrNoPermission is returned when any intent can not be executed.
func (k PermissionPathResolver) ResolvePath(ctx context.Context, intents []types.ExecutionIntent, actor sdk.AccAddress, mode types.Mode) (types.PermissionPath, error) {
	if len(intents) == 0 {
		return types.PermissionPath{}, sdkerrors.Wrap(types.ErrEmpty, "intents")
	}
	for i, v := range intents {
		if err := v.ValidateBasic(); err != nil {
			return types.PermissionPath{}, sdkerrors.Wrapf(err, "intent %d", i)
		}
	}
	if err := sdk.VerifyAddressFormat(actor); err != nil {
		return types.PermissionPath{}, sdkerrors.Wrap(err, "actor")
	}
	if mode == types.ModeUndefined {
		return types.PermissionPath{}, sdkerrors.Wrap(types.ErrInvalid, "mode")
	}

	r := newResolution(k.acl, k.maxDepth)
	calls := types.FlattenCalls(intents)
	ok, err := r.permittedAll(ctx, actor, calls)
	if err != nil {
		return types.PermissionPath{}, err
	}
	if ok {
		return types.NewPermissionPath(directTransactions(actor, calls)), nil
	}
	if mode == types.ModeSingle {
		return types.PermissionPath{}, sdkerrors.Wrapf(types.ErrNoPermission, "%s can not execute directly", actor)
	}

	via, err := r.shortestChain(ctx, actor, calls)
	if err != nil {
		return types.PermissionPath{}, err
	}
	if via != nil {
		tx, err := forwardedTransaction(actor, via, calls)
		if err != nil {
			return types.PermissionPath{}, err
		}
		k.logger.Debug("resolved composed path", "actor", actor.String(), "hops", len(via), "calls", len(calls))
		return types.NewPermissionPath([]types.Transaction{tx}), nil
	}

	var txs []types.Transaction
	for i, intent := range intents {
		ok, err := r.permittedAll(ctx, actor, intent.Calls)
		if err != nil {
			return types.PermissionPath{}, err
		}
		if ok {
			txs = append(txs, directTransactions(actor, intent.Calls)...)
			continue
		}
		via, err := r.shortestChain(ctx, actor, intent.Calls)
		if err != nil {
			return types.PermissionPath{}, err
		}
		if via == nil {
			return types.PermissionPath{}, sdkerrors.Wrapf(types.ErrNoPermission, "intent %d: %s", i, intent.Calls[0])
		}
		tx, err := forwardedTransaction(actor, via, intent.Calls)
		if err != nil {
			return types.PermissionPath{}, err
		}
		txs = append(txs, tx)
	}
	return types.NewPermissionPath(txs), nil
}

func directTransactions(actor sdk.AccAddress, calls []types.Call) []types.Transaction {
	r := make([]types.Transaction, len(calls))
	for i, c := range calls {
		r[i] = types.Transaction{From: actor, Call: c, Wraps: []types.Call{c}}
	}
	return r
}

func forwardedTransaction(actor sdk.AccAddress, via []sdk.AccAddress, calls []types.Call) (types.Transaction, error) {
	call, err := contract.ComposeForwardCall(via, calls)
	if err != nil {
		return types.Transaction{}, sdkerrors.Wrap(err, "compose")
	}
	return types.Transaction{From: actor, Call: call, Via: via, Wraps: calls}, nil
}

type permissionKey struct {
	who, where, what string
}

type forwardKey struct {
	forwarder, sender string
}

// resolution memoizes the permission reads of a single ResolvePath call
type resolution struct {
	acl         AccessControl
	maxDepth    int
	permissions map[permissionKey]bool
	forwarding  map[forwardKey]bool
	forwarders  []sdk.AccAddress
	listed      bool
}

func newResolution(acl AccessControl, maxDepth int) *resolution {
	return &resolution{
		acl:         acl,
		maxDepth:    maxDepth,
		permissions: make(map[permissionKey]bool),
		forwarding:  make(map[forwardKey]bool),
	}
}

func (r *resolution) hasPermission(ctx context.Context, who sdk.AccAddress, call types.Call) (bool, error) {
	key := permissionKey{who: who.String(), where: call.Contract.String(), what: call.Method}
	if v, ok := r.permissions[key]; ok {
		return v, nil
	}
	v, err := r.acl.HasPermission(ctx, who, call)
	if err != nil {
		return false, sdkerrors.Wrap(err, "has permission")
	}
	r.permissions[key] = v
	return v, nil
}

func (r *resolution) permittedAll(ctx context.Context, who sdk.AccAddress, calls []types.Call) (bool, error) {
	for _, c := range calls {
		ok, err := r.hasPermission(ctx, who, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (r *resolution) canForward(ctx context.Context, forwarder, sender sdk.AccAddress) (bool, error) {
	key := forwardKey{forwarder: forwarder.String(), sender: sender.String()}
	if v, ok := r.forwarding[key]; ok {
		return v, nil
	}
	v, err := r.acl.CanForward(ctx, forwarder, sender)
	if err != nil {
		return false, sdkerrors.Wrap(err, "can forward")
	}
	r.forwarding[key] = v
	return v, nil
}

func (r *resolution) listForwarders(ctx context.Context) ([]sdk.AccAddress, error) {
	if r.listed {
		return r.forwarders, nil
	}
	v, err := r.acl.ListForwarders(ctx)
	if err != nil {
		return nil, sdkerrors.Wrap(err, "list forwarders")
	}
	r.forwarders, r.listed = v, true
	return v, nil
}

// shortestChain runs a breadth first search over the forwarders, starting at the actor.
// Forwarders are explored in listing order so that equally long chains resolve deterministically.
// Returns nil when no chain of at most maxDepth forwarders can execute all calls.
func (r *resolution) shortestChain(ctx context.Context, actor sdk.AccAddress, calls []types.Call) ([]sdk.AccAddress, error) {
	forwarders, err := r.listForwarders(ctx)
	if err != nil || len(forwarders) == 0 {
		return nil, err
	}
	type node struct {
		addr sdk.AccAddress
		via  []sdk.AccAddress
	}
	visited := map[string]struct{}{actor.String(): {}}
	queue := []node{{addr: actor}}
	for len(queue) != 0 {
		n := queue[0]
		queue = queue[1:]
		if len(n.via) >= r.maxDepth {
			continue
		}
		for _, f := range forwarders {
			if _, seen := visited[f.String()]; seen {
				continue
			}
			ok, err := r.canForward(ctx, f, n.addr)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			visited[f.String()] = struct{}{}
			via := append(append(make([]sdk.AccAddress, 0, len(n.via)+1), n.via...), f)
			ok, err = r.permittedAll(ctx, f, calls)
			if err != nil {
				return nil, err
			}
			if ok {
				return via, nil
			}
			queue = append(queue, node{addr: f, via: via})
		}
	}
	return nil, nil
}
