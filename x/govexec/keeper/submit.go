package keeper

import (
	"context"
	"time"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/confio/tgov/x/govexec/types"
)

// submitPath sends the transactions of the path in order and stops at the first failure.
// The receipts of the confirmed transactions are returned with the error.
func submitPath(ctx context.Context, ledger types.LedgerPort, path types.PermissionPath, gas uint64, logger log.Logger) ([]*types.Receipt, error) {
	receipts := make([]*types.Receipt, 0, len(path.Transactions))
	for i, tx := range path.Transactions {
		receipt, err := ledger.Send(ctx, tx.Call, types.SendOpts{From: tx.From, Gas: gas})
		if err != nil {
			logger.Info("submission failed", "step", i, "tx", tx.String(), "error", err)
			return receipts, sdkerrors.Wrapf(err, "transaction %d of %d", i+1, len(path.Transactions))
		}
		logger.Debug("submitted", "step", i, "tx", tx.String(), "hash", receipt.TxHash, "height", receipt.Height)
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

// uncancellable keeps the values of the parent context but is never cancelled.
// Submissions that were started are carried out to the end.
type uncancellable struct {
	parent context.Context
}

func (uncancellable) Deadline() (time.Time, bool) { return time.Time{}, false }

func (uncancellable) Done() <-chan struct{} { return nil }

func (uncancellable) Err() error { return nil }

func (c uncancellable) Value(key interface{}) interface{} { return c.parent.Value(key) }
