package types

// govexec event types
const (
	EventTypeInvalidate   = "invalidate"
	EventTypeStateChanged = "state_changed"

	AttributeKeyProposalIndex = "proposal_index"
	AttributeKeyCommand       = "command"
	AttributeKeyState         = "state"
	AttributeValueCategory    = ModuleName
)

// EventKey returns the composite key used to match events of this module, e.g. "invalidate.proposal_index"
func EventKey(eventType, attributeKey string) string {
	return eventType + "." + attributeKey
}
