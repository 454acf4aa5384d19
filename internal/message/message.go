package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nao1215/harvester/internal/model"
)

// Action names as they appear on the wire.
const (
	ActionStart       = "start"
	ActionStop        = "stop"
	ActionSaveRules   = "saveRules"
	ActionClear       = "clear"
	ActionGetState    = "getState"
	ActionItemsFound  = "itemsFound"
	ActionUpdatePopup = "updatePopup"
)

// Response statuses other than the run states.
const (
	StatusSaved   = "saved"
	StatusCleared = "cleared"
)

// ErrUnknownRequest is returned for an action that is not part of the protocol.
var ErrUnknownRequest = errors.New("unknown request")

// Request is a message handled by the controller.
type Request interface {
	// Action returns the wire name of the request.
	Action() string

	// sealed keeps the set of requests closed to this package.
	sealed()
}

// Start enables auto-scan and replaces the stored rules.
type Start struct {
	Rules []model.Rule `json:"rules"`
}

// Stop disables auto-scan.
type Stop struct{}

// SaveRules replaces the stored rules without touching the run state.
type SaveRules struct {
	Rules []model.Rule `json:"rules"`
}

// Clear empties the collected items.
type Clear struct{}

// GetState asks for a snapshot of run state, items and rules.
type GetState struct{}

// ItemsFound carries items discovered by a scan.
type ItemsFound struct {
	Items []string `json:"items"`
}

func (Start) Action() string      { return ActionStart }
func (Stop) Action() string       { return ActionStop }
func (SaveRules) Action() string  { return ActionSaveRules }
func (Clear) Action() string      { return ActionClear }
func (GetState) Action() string   { return ActionGetState }
func (ItemsFound) Action() string { return ActionItemsFound }

func (Start) sealed()      {}
func (Stop) sealed()       {}
func (SaveRules) sealed()  {}
func (Clear) sealed()      {}
func (GetState) sealed()   {}
func (ItemsFound) sealed() {}

// Response is the controller's reply. ItemsFound has no reply; Handle
// returns nil for it.
type Response struct {
	// Status is "running", "stopped", "saved" or "cleared".
	Status string

	// State is set only in reply to GetState.
	State *model.State
}

// MarshalJSON encodes the reply as {"status": ...}, or as the full state
// snapshot for GetState. The snapshot always carries items and rules, as
// empty arrays when there are none.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.State == nil {
		return json.Marshal(struct {
			Status string `json:"status"`
		}{Status: r.Status})
	}

	state := *r.State
	if state.Items == nil {
		state.Items = []string{}
	}
	if state.Rules == nil {
		state.Rules = []model.Rule{}
	}
	return json.Marshal(state)
}

// UpdatePopup is pushed to observers whenever the collection grows.
type UpdatePopup struct {
	Action string   `json:"action"`
	Items  []string `json:"items"`
}

// NewUpdatePopup builds an UpdatePopup carrying the full collection.
func NewUpdatePopup(items []string) UpdatePopup {
	if items == nil {
		items = []string{}
	}
	return UpdatePopup{Action: ActionUpdatePopup, Items: items}
}

// Navigation is a page-load event from the host.
type Navigation struct {
	URL     string `json:"url"`
	FrameID int    `json:"frameId"`
}

// Delivery is the outcome of pushing a notification. Callers record it
// and move on; a failed delivery never affects controller state.
type Delivery struct {
	Err error
}

// OK reports whether the notification was delivered.
func (d Delivery) OK() bool {
	return d.Err == nil
}

// envelope is the wire form of a request.
type envelope struct {
	Action string          `json:"action"`
	Rules  json.RawMessage `json:"rules"`
	Items  []string        `json:"items"`
}

// Decode parses a JSON request into its typed form.
func Decode(data []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	switch env.Action {
	case ActionStart:
		rs, err := decodeRules(env.Rules)
		if err != nil {
			return nil, err
		}
		return Start{Rules: rs}, nil
	case ActionStop:
		return Stop{}, nil
	case ActionSaveRules:
		rs, err := decodeRules(env.Rules)
		if err != nil {
			return nil, err
		}
		return SaveRules{Rules: rs}, nil
	case ActionClear:
		return Clear{}, nil
	case ActionGetState:
		return GetState{}, nil
	case ActionItemsFound:
		return ItemsFound{Items: env.Items}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRequest, env.Action)
	}
}

// decodeRules parses a rule list; a missing list is an empty one.
func decodeRules(raw json.RawMessage) ([]model.Rule, error) {
	rs := []model.Rule{}
	if len(raw) == 0 || string(raw) == "null" {
		return rs, nil
	}
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return rs, nil
}
