package view

// State is the lifecycle of one mutating action button.
//
//	Idle -> Confirming -> Submitting -> Success -> Idle
//	                                  \-> Failure -> Idle
type State int

const (
	Idle State = iota
	Confirming
	Submitting
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Confirming:
		return "confirming"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a submission.
func (s State) Terminal() bool { return s == Success || s == Failure }
