package meshbridge

// State is the lifecycle state of a Bridge.
type State int

const (
	// StateStopped is the initial state and the state after a clean Stop.
	StateStopped State = iota
	// StateStarting is entered by Start while links open and plugins initialize.
	StateStarting
	// StateRunning means frames are flowing between the links.
	StateRunning
	// StateStopping is entered by Stop until the loop and plugins have exited.
	StateStopping
	// StateCrashed means a link failed or startup did not complete.
	StateCrashed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// CanStart reports whether Start may be called in this state.
func (s State) CanStart() bool {
	return s == StateStopped || s == StateCrashed
}

// CanStop reports whether Stop may be called in this state.
func (s State) CanStop() bool {
	return s == StateStarting || s == StateRunning
}

// IsRunning reports whether the bridge loop is active.
func (s State) IsRunning() bool {
	return s == StateRunning
}
