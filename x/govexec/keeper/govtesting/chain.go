package govtesting

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/crypto/tmhash"
	"github.com/tidwall/gjson"

	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/types"
)

var _ types.LedgerPort = &Chain{}

// SentTx is a submission recorded by the chain, successful or not
type SentTx struct {
	Call types.Call
	Opts types.SendOpts
	Err  error
}

// Chain is an in memory ledger that runs the organization contracts.
// Writes are atomic: a failing submission leaves the state unchanged.
// Voting power weights are the same for every proposal index.
type Chain struct {
	mu      sync.Mutex
	state   *chainState
	height  int64
	sent    []SentTx
	queries map[string]int
	failing map[string]error

	Organization sdk.AccAddress
	ACL          sdk.AccAddress
	Registry     sdk.AccAddress
	// MinGas submissions with less gas fail with ErrOutOfGas
	MinGas uint64
	// BeforeSendFn is called before a submission is applied. Returning an error aborts it.
	BeforeSendFn func(c *Chain, call types.Call, opts types.SendOpts) error
}

type permissionKey struct {
	who, where, what string
}

type methodKey struct {
	where, what string
}

type proposalState struct {
	index          uint64
	supportNeeded  sdk.Dec
	options        []string
	executedOption *uint32
	executor       sdk.AccAddress
	votes          []sdk.Int
	voters         map[string]struct{}
}

type sourceState struct {
	addr    sdk.AccAddress
	members map[string]sdk.Int
	total   sdk.Int
}

type chainState struct {
	proposals   map[uint64]*proposalState
	executors   map[string]uint64
	sources     []*sourceState
	permissions map[permissionKey]struct{}
	protected   map[methodKey]struct{}
	forwarders  []sdk.AccAddress
	forwardable map[string]map[string]struct{}
	registry    map[string]string
	rules       types.VotingRules
}

// NewChain constructor with organization, acl and registry contracts deployed
func NewChain() *Chain {
	return &Chain{
		state: &chainState{
			proposals:   make(map[uint64]*proposalState),
			executors:   make(map[string]uint64),
			permissions: make(map[permissionKey]struct{}),
			protected:   make(map[methodKey]struct{}),
			forwardable: make(map[string]map[string]struct{}),
			registry:    make(map[string]string),
			rules:       types.VotingRules{Support: sdk.NewDecWithPrec(5, 1), MinQuorum: sdk.NewDecWithPrec(5, 1)},
		},
		queries:      make(map[string]int),
		failing:      make(map[string]error),
		Organization: types.RandomAddress("organization"),
		ACL:          types.RandomAddress("acl"),
		Registry:     types.RandomAddress("registry"),
	}
}

// Addr returns the address for a name
func Addr(name string) sdk.AccAddress {
	return types.RandomAddress(name)
}

// AddSource deploys a voting power source with the given member weights. The total is the sum of weights.
func (c *Chain) AddSource(name string, weights map[string]int64) sdk.AccAddress {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &sourceState{addr: Addr(name), members: make(map[string]sdk.Int), total: sdk.ZeroInt()}
	for member, w := range weights {
		s.members[Addr(member).String()] = sdk.NewInt(w)
		s.total = s.total.Add(sdk.NewInt(w))
	}
	c.state.sources = append(c.state.sources, s)
	return s.addr
}

// SetSourceTotal overwrites the total weight of a source
func (c *Chain) SetSourceTotal(source sdk.AccAddress, total int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.state.sources {
		if s.addr.Equals(source) {
			s.total = sdk.NewInt(total)
		}
	}
}

// AddProposal opens a proposal and returns its executor address
func (c *Chain) AddProposal(index uint64, supportNeeded sdk.Dec) sdk.AccAddress {
	c.mu.Lock()
	defer c.mu.Unlock()
	executor := Addr(fmt.Sprintf("executor-%d", index))
	c.state.proposals[index] = &proposalState{
		index:         index,
		supportNeeded: supportNeeded,
		options:       []string{"Yes", "No"},
		executor:      executor,
		votes:         []sdk.Int{sdk.ZeroInt(), sdk.ZeroInt()},
		voters:        make(map[string]struct{}),
	}
	c.state.executors[executor.String()] = index
	c.state.protected[methodKey{where: executor.String(), what: contract.MethodExecuteOnAction}] = struct{}{}
	return executor
}

// SetVotes seeds the absolute votes of an option
func (c *Chain) SetVotes(index uint64, option uint32, votes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.proposals[index].votes[option] = sdk.NewInt(votes)
}

// MarkExecuted terminates a proposal as if another account executed it
func (c *Chain) MarkExecuted(index uint64, option uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.proposals[index].executedOption = &option
}

// Grant permission to call method `what` on contract `where`. The method becomes protected.
func (c *Chain) Grant(who, where sdk.AccAddress, what string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.permissions[permissionKey{who: who.String(), where: where.String(), what: what}] = struct{}{}
	c.state.protected[methodKey{where: where.String(), what: what}] = struct{}{}
}

// Protect requires a permission for method `what` on contract `where` without granting it to anybody
func (c *Chain) Protect(where sdk.AccAddress, what string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.protected[methodKey{where: where.String(), what: what}] = struct{}{}
}

// AddForwarder registers a forwarder that accepts scripts from the given senders
func (c *Chain) AddForwarder(name string, acceptFrom ...sdk.AccAddress) sdk.AccAddress {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr := Addr(name)
	c.state.forwarders = append(c.state.forwarders, addr)
	senders := make(map[string]struct{}, len(acceptFrom))
	for _, s := range acceptFrom {
		senders[s.String()] = struct{}{}
	}
	c.state.forwardable[addr.String()] = senders
	return addr
}

// FailQueries makes every read on the contract fail with the given error. Nil resets.
func (c *Chain) FailQueries(contractAddr sdk.AccAddress, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failing, contractAddr.String())
		return
	}
	c.failing[contractAddr.String()] = err
}

// Sent returns all recorded submissions
func (c *Chain) Sent() []SentTx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SentTx{}, c.sent...)
}

// QueryCount returns how often the query method was called
func (c *Chain) QueryCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queries[method]
}

// Votes returns the absolute votes of an option
func (c *Chain) Votes(index uint64, option uint32) sdk.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.proposals[index].votes[option]
}

// ExecutedOption returns the executed option of the proposal or nil
func (c *Chain) ExecutedOption(index uint64) *uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.proposals[index].executedOption
}

// RegistryValue returns the stored value of a setting name
func (c *Chain) RegistryValue(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.registry[contract.RegistryKey(name)]
}

// Call executes a read on the current state
func (c *Chain) Call(ctx context.Context, call types.Call) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries[call.Method]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := c.failing[call.Contract.String()]; ok {
		return nil, err
	}
	args := gjson.ParseBytes(call.Args)
	rsp, err := c.state.query(call.Contract, call.Method, args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rsp)
}

// Send applies a submission atomically
func (c *Chain) Send(ctx context.Context, call types.Call, opts types.SendOpts) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, err := call.MsgBytes()
	if err != nil {
		return nil, err
	}
	err = c.apply(ctx, call, opts)
	c.sent = append(c.sent, SentTx{Call: call, Opts: opts, Err: err})
	if err != nil {
		return nil, err
	}
	c.height++
	return &types.Receipt{
		TxHash:  fmt.Sprintf("%X", tmhash.Sum(msg)),
		Height:  c.height,
		GasUsed: int64(opts.Gas / 2),
	}, nil
}

func (c *Chain) apply(ctx context.Context, call types.Call, opts types.SendOpts) error {
	if c.BeforeSendFn != nil {
		c.mu.Unlock()
		err := c.BeforeSendFn(c, call, opts)
		c.mu.Lock()
		if err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.Gas < c.MinGas {
		return sdkerrors.Wrapf(types.ErrOutOfGas, "gas %d below %d", opts.Gas, c.MinGas)
	}
	msg, err := call.MsgBytes()
	if err != nil {
		return err
	}
	method, args := parseMsg(msg)
	working := c.state.clone()
	if err := working.execute(opts.From, call.Contract, method, args); err != nil {
		return err
	}
	c.state = working
	return nil
}

// parseMsg returns the method and arguments of a `{"<method>": <args>}` message
func parseMsg(msg []byte) (string, gjson.Result) {
	var method string
	var args gjson.Result
	gjson.ParseBytes(msg).ForEach(func(key, value gjson.Result) bool {
		method, args = key.String(), value
		return false
	})
	return method, args
}

func reverted(format string, a ...interface{}) error {
	return sdkerrors.Wrapf(types.ErrReverted, format, a...)
}

func (s *chainState) clone() *chainState {
	r := &chainState{
		proposals:   make(map[uint64]*proposalState, len(s.proposals)),
		executors:   s.executors,
		sources:     s.sources,
		permissions: s.permissions,
		protected:   s.protected,
		forwarders:  s.forwarders,
		forwardable: s.forwardable,
		registry:    make(map[string]string, len(s.registry)),
		rules:       s.rules,
	}
	for k, v := range s.proposals {
		p := *v
		p.votes = append([]sdk.Int{}, v.votes...)
		p.voters = make(map[string]struct{}, len(v.voters))
		for voter := range v.voters {
			p.voters[voter] = struct{}{}
		}
		r.proposals[k] = &p
	}
	for k, v := range s.registry {
		r.registry[k] = v
	}
	return r
}

func (s *chainState) hasPermission(who, where, what string) bool {
	_, ok := s.permissions[permissionKey{who: who, where: where, what: what}]
	return ok
}

func (s *chainState) isForwarder(addr sdk.AccAddress) bool {
	for _, f := range s.forwarders {
		if f.Equals(addr) {
			return true
		}
	}
	return false
}

func (s *chainState) findSource(addr sdk.AccAddress) *sourceState {
	for _, src := range s.sources {
		if src.addr.Equals(addr) {
			return src
		}
	}
	return nil
}

func (s *chainState) totalPower() sdk.Int {
	total := sdk.ZeroInt()
	for _, src := range s.sources {
		total = total.Add(src.total)
	}
	return total
}

func (s *chainState) voterPower(voter string) (sdk.Int, bool) {
	power, eligible := sdk.ZeroInt(), false
	for _, src := range s.sources {
		if w, ok := src.members[voter]; ok {
			eligible = true
			power = power.Add(w)
		}
	}
	return power, eligible
}

func (s *chainState) query(contractAddr sdk.AccAddress, method string, args gjson.Result) (interface{}, error) {
	if src := s.findSource(contractAddr); src != nil {
		voter := args.Get("voter").String()
		switch method {
		case contract.MethodCanVote:
			_, ok := src.members[voter]
			return contract.CanVoteResponse{CanVote: ok}, nil
		case contract.MethodVotingPowerForPoll:
			w, ok := src.members[voter]
			if !ok {
				w = sdk.ZeroInt()
			}
			return contract.VotingPowerResponse{Power: w}, nil
		case contract.MethodTotalVotingPower:
			return contract.VotingPowerResponse{Power: src.total}, nil
		}
		return nil, sdkerrors.Wrapf(types.ErrNotFound, "source method %q", method)
	}
	if s.isForwarder(contractAddr) {
		if method != contract.MethodCanForward {
			return nil, sdkerrors.Wrapf(types.ErrNotFound, "forwarder method %q", method)
		}
		_, ok := s.forwardable[contractAddr.String()][args.Get("sender").String()]
		return contract.PermissionResponse{Allowed: ok}, nil
	}
	switch contractAddr.String() {
	case Addr("organization").String():
		return s.queryOrganization(method, args)
	case Addr("acl").String():
		switch method {
		case contract.MethodHasPermission:
			ok := s.hasPermission(args.Get("who").String(), args.Get("where").String(), args.Get("what").String())
			return contract.PermissionResponse{Allowed: ok}, nil
		case contract.MethodListForwarders:
			rsp := contract.ListForwardersResponse{Forwarders: make([]string, len(s.forwarders))}
			for i, f := range s.forwarders {
				rsp.Forwarders[i] = f.String()
			}
			return rsp, nil
		}
	case Addr("registry").String():
		if method == contract.MethodGetRegisteredData {
			return contract.RegisteredDataResponse{Value: s.registry[args.Get("key").String()]}, nil
		}
	}
	return nil, sdkerrors.Wrapf(types.ErrNotFound, "contract %s method %q", contractAddr, method)
}

func (s *chainState) queryOrganization(method string, args gjson.Result) (interface{}, error) {
	switch method {
	case contract.MethodProposal:
		p, ok := s.proposals[args.Get("index").Uint()]
		if !ok {
			return nil, sdkerrors.Wrap(types.ErrNotFound, "proposal")
		}
		return p.response(), nil
	case contract.MethodListProposals:
		startAfter, limit := args.Get("start_after").Uint(), args.Get("limit").Uint()
		indexes := make([]uint64, 0, len(s.proposals))
		for i := range s.proposals {
			if i > startAfter {
				indexes = append(indexes, i)
			}
		}
		sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })
		if limit != 0 && uint64(len(indexes)) > limit {
			indexes = indexes[:limit]
		}
		rsp := contract.ProposalListResponse{Proposals: []contract.ProposalResponse{}}
		for _, i := range indexes {
			rsp.Proposals = append(rsp.Proposals, s.proposals[i].response())
		}
		return rsp, nil
	case contract.MethodCountVotes:
		p, ok := s.proposals[args.Get("index").Uint()]
		if !ok {
			return nil, sdkerrors.Wrap(types.ErrNotFound, "proposal")
		}
		option := args.Get("option").Uint()
		if option >= uint64(len(p.votes)) {
			return nil, sdkerrors.Wrap(types.ErrInvalid, "option")
		}
		return contract.CountVotesResponse{Votes: p.votes[option]}, nil
	case contract.MethodVotingRules:
		return s.rules, nil
	}
	return nil, sdkerrors.Wrapf(types.ErrNotFound, "organization method %q", method)
}

func (p proposalState) response() contract.ProposalResponse {
	return contract.ProposalResponse{
		Index:          p.index,
		SupportNeeded:  p.supportNeeded,
		Options:        p.options,
		ExecutedOption: p.executedOption,
		Executor:       p.executor.String(),
	}
}

func (s *chainState) execute(sender, contractAddr sdk.AccAddress, method string, args gjson.Result) error {
	if _, ok := s.protected[methodKey{where: contractAddr.String(), what: method}]; ok {
		if !s.hasPermission(sender.String(), contractAddr.String(), method) {
			return reverted("unauthorized: %s on %s.%s", sender, contractAddr, method)
		}
	}
	if s.isForwarder(contractAddr) {
		return s.forward(sender, contractAddr, method, args)
	}
	if index, ok := s.executors[contractAddr.String()]; ok {
		return s.executeOnAction(index, method, args)
	}
	switch contractAddr.String() {
	case Addr("organization").String():
		if method != contract.MethodCastVote {
			return reverted("unknown method %q", method)
		}
		return s.castVote(sender, args.Get("index").Uint(), uint32(args.Get("option").Uint()))
	case Addr("registry").String():
		if method != contract.MethodRegisterData {
			return reverted("unknown method %q", method)
		}
		s.registry[args.Get("key").String()] = args.Get("value").String()
		return nil
	}
	return reverted("unknown contract %s", contractAddr)
}

func (s *chainState) forward(sender, forwarder sdk.AccAddress, method string, args gjson.Result) error {
	if method != contract.MethodForward {
		return reverted("unknown forwarder method %q", method)
	}
	if _, ok := s.forwardable[forwarder.String()][sender.String()]; !ok {
		return reverted("%s can not forward through %s", sender, forwarder)
	}
	var msg contract.ForwardMsg
	if err := json.Unmarshal([]byte(args.Raw), &msg); err != nil {
		return reverted("forward msg: %s", err)
	}
	for i, m := range msg.Msgs {
		call, err := contract.FromCosmosMsg(m)
		if err != nil {
			return reverted("msg %d: %s", i, err)
		}
		bz, err := call.MsgBytes()
		if err != nil {
			return err
		}
		innerMethod, innerArgs := parseMsg(bz)
		if err := s.execute(forwarder, call.Contract, innerMethod, innerArgs); err != nil {
			return err
		}
	}
	return nil
}

func (s *chainState) castVote(voter sdk.AccAddress, index uint64, option uint32) error {
	p, ok := s.proposals[index]
	switch {
	case !ok:
		return reverted("proposal %d not found", index)
	case p.executedOption != nil:
		return sdkerrors.Wrapf(types.ErrAlreadyExecuted, "proposal %d", index)
	case int(option) >= len(p.votes):
		return reverted("option %d", option)
	}
	if _, voted := p.voters[voter.String()]; voted {
		return reverted("already voted")
	}
	power, eligible := s.voterPower(voter.String())
	if !eligible {
		return reverted("can not vote")
	}
	p.votes[option] = p.votes[option].Add(power)
	p.voters[voter.String()] = struct{}{}
	return nil
}

func (s *chainState) executeOnAction(index uint64, method string, args gjson.Result) error {
	if method != contract.MethodExecuteOnAction {
		return reverted("unknown method %q", method)
	}
	p := s.proposals[index]
	if p.executedOption != nil {
		return sdkerrors.Wrapf(types.ErrAlreadyExecuted, "proposal %d", index)
	}
	option := uint32(args.Get("option").Uint())
	total := s.totalPower()
	tally := types.TallyResult{Votes: p.votes[option], Total: total}
	threshold := p.supportNeeded
	if option == types.OptionNegative {
		threshold = sdk.OneDec().Sub(p.supportNeeded)
	}
	if !tally.Exceeds(threshold) {
		return reverted("option %d has not passed", option)
	}
	p.executedOption = &option
	return nil
}
