package contract

import (
	"github.com/confio/tgov/x/govexec/types"
)

// MethodExecuteOnAction executes the selected option of a proposal on the organization
const MethodExecuteOnAction = "execute_on_action"

// ExecuteOnActionMsg execute message of the proposal voting app
type ExecuteOnActionMsg struct {
	Option       uint32 `json:"option"`
	Organization string `json:"organization"`
}

// ExecuteOnActionIntent builds the intent that executes the option of the proposal through its executor
func ExecuteOnActionIntent(p types.Proposal, option uint32) (types.ExecutionIntent, error) {
	if err := p.ValidateOption(option); err != nil {
		return types.ExecutionIntent{}, err
	}
	call, err := types.NewCall(p.Executor, MethodExecuteOnAction, ExecuteOnActionMsg{
		Option:       option,
		Organization: p.Organization.String(),
	})
	if err != nil {
		return types.ExecutionIntent{}, err
	}
	return types.NewExecutionIntent(call), nil
}
