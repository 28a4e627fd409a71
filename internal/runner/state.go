package runner

// State is a step of a run
type State int

const (
	StateInit State = iota
	StateAuthorized
	StateCreated
	StateLinkDelivered
	StateAdvancedLedger
	StateDeleted
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAuthorized:
		return "authorized"
	case StateCreated:
		return "created"
	case StateLinkDelivered:
		return "link_delivered"
	case StateAdvancedLedger:
		return "advanced_ledger"
	case StateDeleted:
		return "deleted"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
