package keeper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/types"
)

// State of a proposal controller
type State byte

const (
	StateIdle State = iota
	StateSubmitting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateFailed:
		return "failed"
	default:
		return "undefined"
	}
}

// Command is a user action that mutates chain state
type Command byte

const (
	CommandNone Command = iota
	CommandVote
	CommandExecute
)

func (c Command) String() string {
	switch c {
	case CommandVote:
		return "vote"
	case CommandExecute:
		return "execute"
	default:
		return "none"
	}
}

const commandReload = "reload"

// Outcome of a controller command
type Outcome struct {
	Command Command `json:"command"`
	// Path the transactions were sent with. Empty for votes.
	Path     types.PermissionPath `json:"path"`
	Receipts []*types.Receipt     `json:"receipts"`
	// AlreadyExecuted is set when another account executed the proposal first
	AlreadyExecuted bool      `json:"already_executed"`
	Snapshot        *Snapshot `json:"snapshot"`
}

// ProposalController runs the vote and execute commands of a single proposal and owns its snapshot.
// Only reloads replace the snapshot, readers always see a complete one.
type ProposalController struct {
	index  uint64
	org    Organization
	tally  *TallyResolver
	paths  *PermissionPathResolver
	ledger types.LedgerPort
	bus    *EventBus
	gas    uint64
	logger log.Logger

	mu       sync.Mutex
	state    State
	inflight map[submission]struct{}
	reloadMu sync.Mutex
	height   int64
	snapshot atomic.Value
}

// NewProposalController constructor
func NewProposalController(
	index uint64,
	org Organization,
	tally *TallyResolver,
	paths *PermissionPathResolver,
	ledger types.LedgerPort,
	bus *EventBus,
	gas uint64,
	logger log.Logger,
) *ProposalController {
	if gas == 0 {
		gas = types.DefaultGas
	}
	return &ProposalController{
		index:    index,
		org:      org,
		tally:    tally,
		paths:    paths,
		ledger:   ledger,
		bus:      bus,
		gas:      gas,
		logger:   logger.With("proposal", index),
		inflight: make(map[submission]struct{}),
	}
}

// submission identifies a command in flight. One per account and command at a time.
type submission struct {
	account string
	command Command
}

// Index of the controlled proposal
func (k *ProposalController) Index() uint64 {
	return k.index
}

// State returns the current controller state
func (k *ProposalController) State() State {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}

// Snapshot returns the last loaded snapshot or nil
func (k *ProposalController) Snapshot() *Snapshot {
	s, _ := k.snapshot.Load().(*Snapshot)
	return s
}

// Reload reads the proposal and its tallies from chain and replaces the snapshot
func (k *ProposalController) Reload(ctx context.Context) (*Snapshot, error) {
	return k.reload(ctx, commandReload, 0)
}

// reload replaces the snapshot. A non zero height newer than the last known one is recorded.
func (k *ProposalController) reload(ctx context.Context, cause string, height int64) (*Snapshot, error) {
	k.reloadMu.Lock()
	defer k.reloadMu.Unlock()
	if height > k.height {
		k.height = height
	}

	p, err := k.org.QueryProposal(ctx, k.index)
	if err != nil {
		return nil, sdkerrors.Wrap(err, "load proposal")
	}
	tallies, err := k.tally.TallyAll(ctx, *p)
	if err != nil {
		return nil, sdkerrors.Wrap(err, "load tallies")
	}
	snap, err := newSnapshot(*p, tallies, k.height)
	if err != nil {
		return nil, err
	}
	k.snapshot.Store(snap)
	if err := k.bus.PublishInvalidate(ctx, InvalidateEvent{Index: k.index, Command: cause, Snapshot: snap}); err != nil {
		k.logger.Error("publish invalidation", "error", err)
	}
	return snap, nil
}

func (k *ProposalController) current(ctx context.Context) (*Snapshot, error) {
	if s := k.Snapshot(); s != nil {
		return s, nil
	}
	return k.Reload(ctx)
}

// CastVote votes for the option with the account voting power. Votes are always sent directly by the account.
func (k *ProposalController) CastVote(ctx context.Context, option uint32, account sdk.AccAddress) (*Outcome, error) {
	snap, err := k.checkVote(ctx, option, account)
	if err != nil {
		return nil, err
	}
	p := snap.Proposal
	if p.IsExecuted() {
		return &Outcome{Command: CommandVote, AlreadyExecuted: true, Snapshot: snap}, nil
	}

	if err := k.enter(ctx, CommandVote, account); err != nil {
		return nil, err
	}
	sctx := uncancellable{parent: ctx}
	receipt, err := k.org.CastVote(sctx, p.Index, option, types.SendOpts{From: account, Gas: k.gas})
	var receipts []*types.Receipt
	if receipt != nil {
		receipts = append(receipts, receipt)
	}
	return k.leave(sctx, account, &Outcome{Command: CommandVote, Receipts: receipts}, err)
}

// CheckVote runs the checks of CastVote without sending anything.
// Fails with ErrAlreadyExecuted when the proposal is executed.
func (k *ProposalController) CheckVote(ctx context.Context, option uint32, account sdk.AccAddress) (types.Proposal, error) {
	snap, err := k.checkVote(ctx, option, account)
	if err != nil {
		return types.Proposal{}, err
	}
	if snap.Proposal.IsExecuted() {
		return types.Proposal{}, sdkerrors.Wrapf(types.ErrAlreadyExecuted, "proposal %d", k.index)
	}
	return snap.Proposal, nil
}

// checkVote returns the snapshot the vote is checked against. Eligibility is not checked on executed proposals.
func (k *ProposalController) checkVote(ctx context.Context, option uint32, account sdk.AccAddress) (*Snapshot, error) {
	snap, err := k.current(ctx)
	if err != nil {
		return nil, err
	}
	p := snap.Proposal
	if err := p.ValidateOption(option); err != nil {
		return nil, err
	}
	if p.IsExecuted() {
		return snap, nil
	}
	eligible, err := k.tally.CanVote(ctx, p, account)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, sdkerrors.Wrapf(types.ErrNotEligible, "account %s on proposal %d", account, p.Index)
	}
	return snap, nil
}

// ExecuteAction executes the winning option through the executor of the proposal.
// The transactions are resolved in batch mode and submitted in order.
func (k *ProposalController) ExecuteAction(ctx context.Context, option uint32, account sdk.AccAddress) (*Outcome, error) {
	snap, path, err := k.checkExecution(ctx, option, account)
	if err != nil {
		return nil, err
	}
	if snap.Proposal.IsExecuted() {
		return &Outcome{Command: CommandExecute, AlreadyExecuted: true, Snapshot: snap}, nil
	}

	if err := k.enter(ctx, CommandExecute, account); err != nil {
		return nil, err
	}
	sctx := uncancellable{parent: ctx}
	receipts, err := submitPath(sctx, k.ledger, path, k.gas, k.logger)
	return k.leave(sctx, account, &Outcome{Command: CommandExecute, Path: path, Receipts: receipts}, err)
}

// ResolveExecution runs the checks of ExecuteAction and returns the path without sending anything.
// Fails with ErrAlreadyExecuted when the proposal is executed.
func (k *ProposalController) ResolveExecution(ctx context.Context, option uint32, account sdk.AccAddress) (types.PermissionPath, error) {
	snap, path, err := k.checkExecution(ctx, option, account)
	if err != nil {
		return types.PermissionPath{}, err
	}
	if snap.Proposal.IsExecuted() {
		return types.PermissionPath{}, sdkerrors.Wrapf(types.ErrAlreadyExecuted, "proposal %d", k.index)
	}
	return path, nil
}

// checkExecution returns the snapshot and the batch path for the option. No path is resolved for executed proposals.
func (k *ProposalController) checkExecution(ctx context.Context, option uint32, account sdk.AccAddress) (*Snapshot, types.PermissionPath, error) {
	snap, err := k.current(ctx)
	if err != nil {
		return nil, types.PermissionPath{}, err
	}
	p := snap.Proposal
	if err := p.ValidateOption(option); err != nil {
		return nil, types.PermissionPath{}, err
	}
	if p.IsExecuted() {
		return snap, types.PermissionPath{}, nil
	}
	winner, err := k.tally.ResolveExecutionEligibility(ctx, p)
	if err != nil {
		return nil, types.PermissionPath{}, err
	}
	if winner == nil || winner.Option != option {
		return nil, types.PermissionPath{}, sdkerrors.Wrapf(types.ErrNotWinner, "option %d on proposal %d", option, p.Index)
	}
	intent, err := contract.ExecuteOnActionIntent(p, option)
	if err != nil {
		return nil, types.PermissionPath{}, err
	}
	path, err := k.paths.ResolvePath(ctx, []types.ExecutionIntent{intent}, account, types.ModeBatch)
	if err != nil {
		return nil, types.PermissionPath{}, err
	}
	return snap, path, nil
}

// enter registers the submission of the account and moves to submitting. Cancellation is only honoured up to here.
// Commands of other accounts run concurrently, a second command of the same kind by the same account is rejected.
func (k *ProposalController) enter(ctx context.Context, cmd Command, account sdk.AccAddress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := submission{account: account.String(), command: cmd}
	k.mu.Lock()
	if _, busy := k.inflight[key]; busy {
		k.mu.Unlock()
		return sdkerrors.Wrapf(types.ErrInvalid, "%s by %s is already submitting", cmd, account)
	}
	k.inflight[key] = struct{}{}
	k.state = StateSubmitting
	k.mu.Unlock()
	k.publishState(uncancellable{parent: ctx}, cmd, StateSubmitting)
	return nil
}

// leave reloads the snapshot and releases the submission. A proposal executed by somebody else is not an error.
// When only the reload fails, the outcome with its receipts is returned together with the error.
func (k *ProposalController) leave(ctx context.Context, account sdk.AccAddress, out *Outcome, submitErr error) (*Outcome, error) {
	var height int64
	for _, r := range out.Receipts {
		if r.Height > height {
			height = r.Height
		}
	}
	if submitErr != nil && errors.Is(submitErr, types.ErrAlreadyExecuted) {
		k.logger.Info("proposal already executed", "command", out.Command.String())
		out.AlreadyExecuted = true
		submitErr = nil
	}
	if submitErr != nil {
		k.setState(ctx, out.Command, StateFailed)
		if _, err := k.reload(ctx, out.Command.String(), height); err != nil {
			k.logger.Error("reload after failure", "error", err)
		}
		k.release(ctx, out.Command, account)
		return nil, submitErr
	}
	snap, err := k.reload(ctx, out.Command.String(), height)
	k.release(ctx, out.Command, account)
	if err != nil {
		return out, sdkerrors.Wrap(err, "reload")
	}
	out.Snapshot = snap
	return out, nil
}

// release drops the submission. The controller is idle again once nothing is in flight.
func (k *ProposalController) release(ctx context.Context, cmd Command, account sdk.AccAddress) {
	k.mu.Lock()
	delete(k.inflight, submission{account: account.String(), command: cmd})
	s := StateIdle
	if len(k.inflight) != 0 {
		s = StateSubmitting
	}
	k.state = s
	k.mu.Unlock()
	k.publishState(ctx, cmd, s)
}

func (k *ProposalController) setState(ctx context.Context, cmd Command, s State) {
	k.mu.Lock()
	k.state = s
	k.mu.Unlock()
	k.publishState(ctx, cmd, s)
}

func (k *ProposalController) publishState(ctx context.Context, cmd Command, s State) {
	if err := k.bus.PublishStateChanged(ctx, StateChangedEvent{Index: k.index, Command: cmd, State: s}); err != nil {
		k.logger.Error("publish state change", "error", err)
	}
}
