package types

import (
	"encoding/json"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFrom(t *testing.T) {
	specs := map[string]struct {
		src string
		exp Mode
	}{
		"single":    {src: "single", exp: ModeSingle},
		"batch":     {src: "batch", exp: ModeBatch},
		"uppercase": {src: "BATCH", exp: ModeBatch},
		"unknown":   {src: "multi", exp: ModeUndefined},
		"empty":     {src: "", exp: ModeUndefined},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			got := ModeFrom(spec.src)
			assert.Equal(t, spec.exp, got)
		})
	}
}

func TestNewPermissionPath(t *testing.T) {
	alice, fwd := RandomAddress("alice"), RandomAddress("forwarder")
	direct := Transaction{From: alice, Call: CallFixture("target", "do"), Wraps: []Call{CallFixture("target", "do")}}
	forwarded := Transaction{From: alice, Call: Call{Contract: fwd, Method: "execute"}, Via: []sdk.AccAddress{fwd}}

	specs := map[string]struct {
		src []Transaction
		exp PathKind
	}{
		"all direct":    {src: []Transaction{direct, direct}, exp: PathKindDirect},
		"one forwarded": {src: []Transaction{direct, forwarded}, exp: PathKindForwarded},
		"forwarded":     {src: []Transaction{forwarded}, exp: PathKindForwarded},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			got := NewPermissionPath(spec.src)
			assert.Equal(t, spec.exp, got.Kind)
			assert.Equal(t, spec.exp == PathKindDirect, got.IsDirect())
		})
	}
}

func TestTransactionActor(t *testing.T) {
	alice, f1, f2 := RandomAddress("alice"), RandomAddress("f1"), RandomAddress("f2")
	assert.Equal(t, alice, Transaction{From: alice}.Actor())
	assert.Equal(t, f2, Transaction{From: alice, Via: []sdk.AccAddress{f1, f2}}.Actor())
}

func TestPathKindJSON(t *testing.T) {
	bz, err := json.Marshal(PermissionPath{Kind: PathKindForwarded})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"forwarded","transactions":null}`, string(bz))
}
