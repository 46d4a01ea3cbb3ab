package checkout

type State string

const (
	StateConfirming   State = "CONFIRMING"
	StateWarningClose State = "WARNING_CLOSE"
	StateSubmitting   State = "SUBMITTING"
	StateSuccess      State = "SUCCESS"
	StateFailed       State = "FAILED"
	StateAborted      State = "ABORTED"
)

var validNext = map[State]map[State]bool{
	StateConfirming:   {StateWarningClose: true, StateSubmitting: true, StateAborted: true},
	StateWarningClose: {StateSubmitting: true, StateAborted: true},
	StateSubmitting:   {StateSuccess: true, StateFailed: true},
	StateSuccess:      {},
	StateFailed:       {},
	StateAborted:      {},
}

func CanTransition(from, to State) bool {
	return validNext[from][to]
}

func (s State) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}
