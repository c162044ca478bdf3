package govtesting

import (
	"context"
	"encoding/base64"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"

	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/types"
)

func TestForwardedScript(t *testing.T) {
	alice := Addr("alice")
	setCall := func(t *testing.T, c *Chain, name, value string) types.Call {
		call, err := contract.NewRegistryContractAdapter(c.Registry, c, nil).SetCall(name, value)
		require.NoError(t, err)
		return call
	}
	specs := map[string]struct {
		tamper   func(t *testing.T, c *Chain, args []byte) []byte
		expErr   bool
		expStore map[string]string
	}{
		"all applied": {
			tamper:   func(t *testing.T, c *Chain, args []byte) []byte { return args },
			expStore: map[string]string{"a": "1", "b": "2"},
		},
		"second message to protected contract": {
			tamper: func(t *testing.T, c *Chain, args []byte) []byte {
				executor := c.AddProposal(1, sdk.NewDecWithPrec(5, 1))
				bz, err := sjson.SetBytes(args, "msgs.1.wasm.execute.contract_addr", executor.String())
				require.NoError(t, err)
				msg := base64.StdEncoding.EncodeToString([]byte(`{"execute_on_action":{"option":0}}`))
				bz, err = sjson.SetBytes(bz, "msgs.1.wasm.execute.msg", msg)
				require.NoError(t, err)
				return bz
			},
			expErr:   true,
			expStore: map[string]string{"a": "", "b": ""},
		},
		"unknown message kind": {
			tamper: func(t *testing.T, c *Chain, args []byte) []byte {
				bz, err := sjson.DeleteBytes(args, "msgs.1.wasm.execute")
				require.NoError(t, err)
				return bz
			},
			expErr:   true,
			expStore: map[string]string{"a": "", "b": ""},
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			c := NewChain()
			fw := c.AddForwarder("fw", alice)
			c.Grant(fw, c.Registry, contract.MethodRegisterData)
			call, err := contract.ComposeForwardCall([]sdk.AccAddress{fw}, []types.Call{
				setCall(t, c, "a", "1"),
				setCall(t, c, "b", "2"),
			})
			require.NoError(t, err)
			call.Args = spec.tamper(t, c, call.Args)

			// when
			_, gotErr := c.Send(context.Background(), call, types.SendOpts{From: alice, Gas: types.DefaultGas})

			// then
			if spec.expErr {
				require.Error(t, gotErr)
				assert.True(t, types.ErrReverted.Is(gotErr), "got %+v", gotErr)
			} else {
				require.NoError(t, gotErr)
			}
			for k, v := range spec.expStore {
				assert.Equal(t, v, c.RegistryValue(k), k)
			}
			require.Len(t, c.Sent(), 1)
			assert.Equal(t, gotErr, c.Sent()[0].Err)
		})
	}
}

func TestForwarderRejectsUnknownSender(t *testing.T) {
	c := NewChain()
	fw := c.AddForwarder("fw", Addr("alice"))
	c.Grant(fw, c.Registry, contract.MethodRegisterData)
	inner, err := contract.NewRegistryContractAdapter(c.Registry, c, nil).SetCall("a", "1")
	require.NoError(t, err)
	call, err := contract.ComposeForwardCall([]sdk.AccAddress{fw}, []types.Call{inner})
	require.NoError(t, err)

	// when
	_, gotErr := c.Send(context.Background(), call, types.SendOpts{From: Addr("bob"), Gas: types.DefaultGas})

	// then
	require.Error(t, gotErr)
	assert.True(t, types.ErrReverted.Is(gotErr))
	assert.Empty(t, c.RegistryValue("a"))
}

func TestMinGas(t *testing.T) {
	c := NewChain()
	c.MinGas = 100
	inner, err := contract.NewRegistryContractAdapter(c.Registry, c, nil).SetCall("a", "1")
	require.NoError(t, err)

	_, err = c.Send(context.Background(), inner, types.SendOpts{From: Addr("alice"), Gas: 99})
	assert.True(t, types.ErrOutOfGas.Is(err))

	rcpt, err := c.Send(context.Background(), inner, types.SendOpts{From: Addr("alice"), Gas: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rcpt.Height)
	assert.Equal(t, "1", c.RegistryValue("a"))
}
