package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/crypto/tmhash"
	dbm "github.com/tendermint/tm-db"

	"github.com/confio/tgov/x/govexec/types"
)

const powerCacheDBName = "govexec_power"

// PowerCache stores the total voting power per scope and proposal index. Totals are snapshots and never change.
// The scope binds a total to the organization and the ordered set of sources it was summed over.
type PowerCache struct {
	db dbm.DB
}

// NewPowerCache constructor
func NewPowerCache(db dbm.DB) PowerCache {
	return PowerCache{db: db}
}

// OpenPowerCache opens a leveldb backed cache in the directory or an in memory one when dir is empty
func OpenPowerCache(dir string) (PowerCache, error) {
	if dir == "" {
		return NewPowerCache(dbm.NewMemDB()), nil
	}
	db, err := dbm.NewDB(powerCacheDBName, dbm.GoLevelDBBackend, dir)
	if err != nil {
		return PowerCache{}, sdkerrors.Wrap(err, "open power cache")
	}
	return NewPowerCache(db), nil
}

// Get returns the cached total and true when present
func (c PowerCache) Get(scope []byte, index uint64) (sdk.Int, bool, error) {
	bz, err := c.db.Get(totalVotingPowerKey(scope, index))
	if err != nil {
		return sdk.Int{}, false, sdkerrors.Wrap(err, "power cache")
	}
	if bz == nil {
		return sdk.Int{}, false, nil
	}
	var total sdk.Int
	if err := total.Unmarshal(bz); err != nil {
		return sdk.Int{}, false, sdkerrors.Wrap(err, "power cache value")
	}
	return total, true, nil
}

// Set stores the total for the proposal index
func (c PowerCache) Set(scope []byte, index uint64, total sdk.Int) error {
	bz, err := total.Marshal()
	if err != nil {
		return sdkerrors.Wrap(err, "power cache value")
	}
	return c.db.Set(totalVotingPowerKey(scope, index), bz)
}

// Close the underlying db
func (c PowerCache) Close() error {
	return c.db.Close()
}

// PowerCacheScope returns the length prefixed organization address followed by the hash of the ordered sources
func PowerCacheScope(org sdk.AccAddress, sources []sdk.AccAddress) []byte {
	var set []byte
	for _, s := range sources {
		set = append(set, address.MustLengthPrefix(s)...)
	}
	return append(address.MustLengthPrefix(org), tmhash.Sum(set)...)
}

func totalVotingPowerKey(scope []byte, index uint64) []byte {
	key := append(append([]byte{}, types.TotalVotingPowerPrefix...), scope...)
	return append(key, sdk.Uint64ToBigEndian(index)...)
}
