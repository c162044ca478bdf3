package types

import sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

var (
	// ErrSourceUnavailable a voting power source could not answer. Callers may retry.
	ErrSourceUnavailable = sdkerrors.Register(ModuleName, 2, "voting power source unavailable")
	// ErrNoPermission no direct or forwarded execution path exists
	ErrNoPermission = sdkerrors.Register(ModuleName, 3, "no permission")
	// ErrReverted the submission was rejected on chain. Chain state is unchanged.
	ErrReverted = sdkerrors.Register(ModuleName, 4, "transaction reverted")
	// ErrOutOfGas the submission ran out of gas. Chain state is unchanged.
	ErrOutOfGas = sdkerrors.Register(ModuleName, 5, "out of gas")
	// ErrAlreadyExecuted another account executed the proposal first
	ErrAlreadyExecuted = sdkerrors.Register(ModuleName, 6, "proposal already executed")
	ErrNotEligible     = sdkerrors.Register(ModuleName, 7, "account not eligible to vote")
	ErrNotWinner       = sdkerrors.Register(ModuleName, 8, "option has not won")
	ErrEmpty           = sdkerrors.Register(ModuleName, 9, "empty")
	ErrInvalid         = sdkerrors.Register(ModuleName, 10, "invalid")
	ErrNotFound        = sdkerrors.Register(ModuleName, 11, "not found")
)
