package types

const (
	// ModuleName is the name of the governance execution module
	ModuleName = "govexec"

	// StoreKey is the string store representation
	StoreKey = ModuleName

	// DefaultGas is the gas limit used for vote and execute submissions unless configured otherwise
	DefaultGas uint64 = 4_800_000

	// DefaultMaxForwardDepth limits the length of a forwarder chain
	DefaultMaxForwardDepth = 4
)

// nolint
var (
	TotalVotingPowerPrefix = []byte{0x01}
)
