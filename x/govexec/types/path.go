package types

import (
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Mode controls whether the resolver may compose several calls into one forwarded script
type Mode byte

const (
	ModeUndefined Mode = iota
	// ModeSingle only accepts paths that do not require scripting support
	ModeSingle
	// ModeBatch allows forwarding and composition of the whole basket
	ModeBatch
)

var modeNames = map[Mode]string{
	ModeSingle: "single",
	ModeBatch:  "batch",
}

// ModeFrom converts a name to a mode. Returns ModeUndefined when none matches
func ModeFrom(name string) Mode {
	for k, v := range modeNames {
		if v == strings.ToLower(name) {
			return k
		}
	}
	return ModeUndefined
}

func (m Mode) String() string {
	if v, ok := modeNames[m]; ok {
		return v
	}
	return "undefined"
}

// PathKind distinguishes direct from forwarded execution
type PathKind byte

const (
	PathKindUndefined PathKind = iota
	PathKindDirect
	PathKindForwarded
)

func (k PathKind) String() string {
	switch k {
	case PathKindDirect:
		return "direct"
	case PathKindForwarded:
		return "forwarded"
	default:
		return "undefined"
	}
}

func (k PathKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Transaction is one ledger submission of a permission path
type Transaction struct {
	// From is the acting identity that signs the transaction
	From sdk.AccAddress `json:"from"`
	// Call is what is actually sent to the ledger
	Call Call `json:"call"`
	// Via is the forwarder chain, empty for direct transactions. The first element is Call.Contract,
	// the last element holds the permission for all wrapped calls.
	Via []sdk.AccAddress `json:"via,omitempty"`
	// Wraps are the intent calls carried by this transaction
	Wraps []Call `json:"wraps"`
}

// IsForwarded returns true when the transaction is relayed by at least one forwarder
func (t Transaction) IsForwarded() bool {
	return len(t.Via) != 0
}

// Actor returns the account that finally performs the wrapped calls
func (t Transaction) Actor() sdk.AccAddress {
	if len(t.Via) == 0 {
		return t.From
	}
	return t.Via[len(t.Via)-1]
}

func (t Transaction) String() string {
	if !t.IsForwarded() {
		return fmt.Sprintf("%s -> %s", t.From, t.Call)
	}
	hops := make([]string, len(t.Via))
	for i, v := range t.Via {
		hops[i] = v.String()
	}
	return fmt.Sprintf("%s -> [%s] -> %d call(s)", t.From, strings.Join(hops, " -> "), len(t.Wraps))
}

// PermissionPath is the resolved list of transactions needed to carry out a basket of intents
type PermissionPath struct {
	Kind         PathKind      `json:"kind"`
	Transactions []Transaction `json:"transactions"`
}

// NewPermissionPath derives the kind from the transactions. Any forwarded transaction makes the path forwarded.
func NewPermissionPath(txs []Transaction) PermissionPath {
	kind := PathKindDirect
	for _, t := range txs {
		if t.IsForwarded() {
			kind = PathKindForwarded
			break
		}
	}
	return PermissionPath{Kind: kind, Transactions: txs}
}

// IsDirect returns true when every transaction is sent by the acting identity to the target itself
func (p PermissionPath) IsDirect() bool {
	return p.Kind == PathKindDirect
}
