package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/cosmos/cosmos-sdk/types/rest"
	"github.com/gorilla/mux"

	"github.com/confio/tgov/x/govexec"
	"github.com/confio/tgov/x/govexec/contract"
	"github.com/confio/tgov/x/govexec/types"
)

const (
	RestProposalIndex = "index"
	RestOption        = "option"
	RestAddress       = "address"
	RestStartAfter    = "start_after"
	RestLimit         = "limit"
	RestActor         = "actor"
	RestMode          = "mode"
)

// TallyResponse is the display form of a tally
type TallyResponse struct {
	Votes      sdk.Int `json:"votes"`
	Total      sdk.Int `json:"total"`
	Relative   sdk.Dec `json:"relative"`
	Percentage string  `json:"percentage"`
}

// VoterResponse is the standing of an account on a proposal
type VoterResponse struct {
	Address sdk.AccAddress `json:"address"`
	CanVote bool           `json:"can_vote"`
	Power   sdk.Int        `json:"power"`
}

// RegisterRoutes registers the read only governance execution routes
func RegisterRoutes(r *mux.Router, m *govexec.Module) {
	prefix := "/" + types.ModuleName
	r.HandleFunc(prefix+"/rules", votingRulesHandlerFn(m)).Methods("GET")
	r.HandleFunc(prefix+"/proposals", listProposalsHandlerFn(m)).Methods("GET")
	r.HandleFunc(fmt.Sprintf("%s/proposals/{%s}", prefix, RestProposalIndex), proposalHandlerFn(m)).Methods("GET")
	r.HandleFunc(fmt.Sprintf("%s/proposals/{%s}/pending", prefix, RestProposalIndex), pendingHandlerFn(m)).Methods("GET")
	r.HandleFunc(fmt.Sprintf("%s/proposals/{%s}/eligibility", prefix, RestProposalIndex), eligibilityHandlerFn(m)).Methods("GET")
	r.HandleFunc(fmt.Sprintf("%s/proposals/{%s}/tally/{%s}", prefix, RestProposalIndex, RestOption), tallyHandlerFn(m)).Methods("GET")
	r.HandleFunc(fmt.Sprintf("%s/proposals/{%s}/voters/{%s}", prefix, RestProposalIndex, RestAddress), voterHandlerFn(m)).Methods("GET")
	r.HandleFunc(fmt.Sprintf("%s/proposals/{%s}/path/{%s}", prefix, RestProposalIndex, RestOption), pathHandlerFn(m)).Methods("GET")
}

// proposalHandlerFn reloads the snapshot of the proposal controller
func proposalHandlerFn(m *govexec.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := rest.ParseUint64OrReturnBadRequest(w, mux.Vars(r)[RestProposalIndex])
		if !ok {
			return
		}
		snap, err := m.Controller(index).Reload(r.Context())
		if checkError(w, err) {
			return
		}
		writeJSON(w, snap)
	}
}

func listProposalsHandlerFn(m *govexec.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var startAfter uint64
		limit := uint64(10)
		if v := r.URL.Query().Get(RestStartAfter); v != "" {
			var ok bool
			if startAfter, ok = rest.ParseUint64OrReturnBadRequest(w, v); !ok {
				return
			}
		}
		if v := r.URL.Query().Get(RestLimit); v != "" {
			var ok bool
			if limit, ok = rest.ParseUint64OrReturnBadRequest(w, v); !ok {
				return
			}
		}
		proposals, err := m.Organization().ListProposals(r.Context(), startAfter, uint32(limit))
		if checkError(w, err) {
			return
		}
		writeJSON(w, struct {
			Proposals []types.Proposal `json:"proposals"`
		}{Proposals: proposals})
	}
}

func tallyHandlerFn(m *govexec.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProposal(w, r, m)
		if !ok {
			return
		}
		option, ok := parseOption(w, r, p)
		if !ok {
			return
		}
		res, err := m.TallyResolver().Tally(r.Context(), p, option)
		if checkError(w, err) {
			return
		}
		writeJSON(w, newTallyResponse(res))
	}
}

func pendingHandlerFn(m *govexec.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProposal(w, r, m)
		if !ok {
			return
		}
		res, err := m.TallyResolver().PendingTally(r.Context(), p)
		if checkError(w, err) {
			return
		}
		writeJSON(w, newTallyResponse(res))
	}
}

func eligibilityHandlerFn(m *govexec.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProposal(w, r, m)
		if !ok {
			return
		}
		winner, err := m.TallyResolver().ResolveExecutionEligibility(r.Context(), p)
		if checkError(w, err) {
			return
		}
		writeJSON(w, struct {
			Executed bool          `json:"executed"`
			Winner   *types.Winner `json:"winner"`
		}{Executed: p.IsExecuted(), Winner: winner})
	}
}

func voterHandlerFn(m *govexec.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProposal(w, r, m)
		if !ok {
			return
		}
		addr, err := sdk.AccAddressFromBech32(mux.Vars(r)[RestAddress])
		if rest.CheckBadRequestError(w, err) {
			return
		}
		canVote, err := m.TallyResolver().CanVote(r.Context(), p, addr)
		if checkError(w, err) {
			return
		}
		power, err := m.TallyResolver().VotingPower(r.Context(), p, addr)
		if checkError(w, err) {
			return
		}
		writeJSON(w, VoterResponse{Address: addr, CanVote: canVote, Power: power})
	}
}

// pathHandlerFn resolves how the actor can execute the option without submitting anything
func pathHandlerFn(m *govexec.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProposal(w, r, m)
		if !ok {
			return
		}
		option, ok := parseOption(w, r, p)
		if !ok {
			return
		}
		actor, err := sdk.AccAddressFromBech32(r.URL.Query().Get(RestActor))
		if rest.CheckBadRequestError(w, err) {
			return
		}
		mode := types.ModeBatch
		if v := r.URL.Query().Get(RestMode); v != "" {
			mode = types.ModeFrom(v)
		}
		intent, err := contract.ExecuteOnActionIntent(p, option)
		if checkError(w, err) {
			return
		}
		path, err := m.PathResolver().ResolvePath(r.Context(), []types.ExecutionIntent{intent}, actor, mode)
		if checkError(w, err) {
			return
		}
		writeJSON(w, path)
	}
}

func votingRulesHandlerFn(m *govexec.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := m.VotingRules(r.Context())
		if checkError(w, err) {
			return
		}
		writeJSON(w, rules)
	}
}

func newTallyResponse(r types.TallyResult) TallyResponse {
	return TallyResponse{Votes: r.Votes, Total: r.Total, Relative: r.RelativeVotes(), Percentage: r.Percentage()}
}

func loadProposal(w http.ResponseWriter, r *http.Request, m *govexec.Module) (types.Proposal, bool) {
	index, ok := rest.ParseUint64OrReturnBadRequest(w, mux.Vars(r)[RestProposalIndex])
	if !ok {
		return types.Proposal{}, false
	}
	p, err := m.Proposal(r.Context(), index)
	if checkError(w, err) {
		return types.Proposal{}, false
	}
	return p, true
}

func parseOption(w http.ResponseWriter, r *http.Request, p types.Proposal) (uint32, bool) {
	v, err := strconv.ParseUint(mux.Vars(r)[RestOption], 10, 32)
	if rest.CheckBadRequestError(w, err) {
		return 0, false
	}
	option := uint32(v)
	if rest.CheckBadRequestError(w, p.ValidateOption(option)) {
		return 0, false
	}
	return option, true
}

// checkError writes the status code matching the module error. Returns false for nil errors.
func checkError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrInvalid), errors.Is(err, types.ErrEmpty), errors.Is(err, sdkerrors.ErrInvalidAddress):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrNoPermission):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrSourceUnavailable):
		status = http.StatusServiceUnavailable
	}
	rest.WriteErrorResponse(w, status, err.Error())
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	bz, err := json.Marshal(v)
	if rest.CheckInternalServerError(w, err) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(bz)
}
