package keeper

import (
	"fmt"

	"github.com/confio/tgov/x/govexec/types"
)

// Snapshot is an immutable view on a proposal and its tally. It is replaced as a whole on reload.
type Snapshot struct {
	Proposal types.Proposal      `json:"proposal"`
	Tallies  []types.TallyResult `json:"tallies"`
	Pending  types.TallyResult   `json:"pending"`
	// Winner is nil while undecided and after execution
	Winner *types.Winner `json:"winner,omitempty"`
	// Height of the chain when the snapshot was taken, zero if unknown
	Height int64 `json:"height,omitempty"`
}

func newSnapshot(p types.Proposal, tallies []types.TallyResult, height int64) (*Snapshot, error) {
	pending, err := pendingTally(tallies)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Proposal: p,
		Tallies:  tallies,
		Pending:  pending,
		Winner:   resolveWinner(p, tallies),
		Height:   height,
	}, nil
}

func (s Snapshot) String() string {
	winner := "none"
	if s.Winner != nil {
		winner = s.Winner.Label
	}
	return fmt.Sprintf("proposal %d: tallies %v pending %s winner %s", s.Proposal.Index, s.Tallies, s.Pending, winner)
}
