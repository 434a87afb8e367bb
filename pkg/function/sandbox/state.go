package sandbox

// State is a phase of one execution.
type State int

const (
	StateValidating State = iota
	StateCompiling
	StateInstantiating
	StateRunning
	StateCompleted
	StateFailed
	StateTimedOut
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateCompiling:
		return "compiling"
	case StateInstantiating:
		return "instantiating"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends the running part of an execution.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}
