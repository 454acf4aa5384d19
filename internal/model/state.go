package model

// RunStatus is the controller's run state as reported to the UI.
type RunStatus string

const (
	// StatusRunning means navigations trigger scans.
	StatusRunning RunStatus = "running"
	// StatusStopped means navigations are ignored.
	StatusStopped RunStatus = "stopped"
)

// RunState is the controller-owned state that survives restarts.
type RunState struct {
	// Enabled reports whether the controller is running.
	Enabled bool `json:"enabled"`

	// Rules is the current rule set, stored verbatim.
	Rules []Rule `json:"rules"`
}

// Status converts the enabled flag to a RunStatus.
func (s RunState) Status() RunStatus {
	if s.Enabled {
		return StatusRunning
	}
	return StatusStopped
}

// State is a read-only snapshot returned by the getState operation.
type State struct {
	Status RunStatus `json:"status"`
	Items  []string  `json:"items"`
	Rules  []Rule    `json:"rules"`
}
