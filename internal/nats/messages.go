package nats

import (
	"encoding/json"
	"fmt"

	"github.com/smazurov/lightnode/internal/led"
)

// Subjects served by the light service.
const (
	SubjectPrefix      = "lightnode.lights"
	SubjectSetLight    = SubjectPrefix + ".set"
	SubjectTypes       = SubjectPrefix + ".types"
	SubjectStatePrefix = SubjectPrefix + ".state"

	// QueueGroup lets several daemons share the request subjects.
	QueueGroup = "lightnode"
)

// SubjectState returns the subject applied states of lightType are published on.
func SubjectState(lightType string) string {
	return fmt.Sprintf("%s.%s", SubjectStatePrefix, lightType)
}

// SetLightRequest asks the service to apply a state to a light.
type SetLightRequest struct {
	Type       string `json:"type"`
	Color      uint32 `json:"color"`
	FlashMode  string `json:"flash_mode,omitempty"` // none, timed, hardware
	FlashOnMs  int    `json:"flash_on_ms,omitempty" minimum:"0" maximum:"3600000"`
	FlashOffMs int    `json:"flash_off_ms,omitempty" minimum:"0" maximum:"3600000"`
}

// NewSetLightRequest builds a request from a dispatcher state.
func NewSetLightRequest(lightType string, state led.State) SetLightRequest {
	return SetLightRequest{
		Type:       lightType,
		Color:      state.Color,
		FlashMode:  state.FlashMode.String(),
		FlashOnMs:  state.FlashOnMs,
		FlashOffMs: state.FlashOffMs,
	}
}

// State converts the wire fields to a dispatcher state. Flash durations
// outside 0..led.MaxFlashMs are rejected.
func (r SetLightRequest) State() (led.State, error) {
	flash, err := led.ParseFlash(r.FlashMode)
	if err != nil {
		return led.State{}, err
	}
	state := led.State{
		Color:      r.Color,
		FlashMode:  flash,
		FlashOnMs:  r.FlashOnMs,
		FlashOffMs: r.FlashOffMs,
	}
	if err := state.CheckFlash(); err != nil {
		return led.State{}, err
	}
	return state, nil
}

// Marshal serializes the message to JSON.
func (r SetLightRequest) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// SetLightReply carries the dispatcher status, or Error when the request
// could not be decoded.
type SetLightReply struct {
	Status string `json:"status,omitempty"` // SUCCESS, LIGHT_NOT_SUPPORTED
	Error  string `json:"error,omitempty"`
}

// Marshal serializes the message to JSON.
func (r SetLightReply) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// TypesReply lists supported light types in priority order.
type TypesReply struct {
	Types []string `json:"types"`
}

// Marshal serializes the message to JSON.
func (r TypesReply) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// StateMessage is published after a light state has been applied.
type StateMessage struct {
	Type        string `json:"type"`
	AppliedType string `json:"applied_type"`
	Color       uint32 `json:"color"`
	FlashMode   string `json:"flash_mode"`
	FlashOnMs   int    `json:"flash_on_ms"`
	FlashOffMs  int    `json:"flash_off_ms"`
	Timestamp   string `json:"timestamp"`
}

// Marshal serializes the message to JSON.
func (m StateMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalSetLightRequest deserializes a SetLightRequest from JSON.
func UnmarshalSetLightRequest(data []byte) (SetLightRequest, error) {
	var r SetLightRequest
	err := json.Unmarshal(data, &r)
	return r, err
}

// UnmarshalSetLightReply deserializes a SetLightReply from JSON.
func UnmarshalSetLightReply(data []byte) (SetLightReply, error) {
	var r SetLightReply
	err := json.Unmarshal(data, &r)
	return r, err
}

// UnmarshalTypesReply deserializes a TypesReply from JSON.
func UnmarshalTypesReply(data []byte) (TypesReply, error) {
	var r TypesReply
	err := json.Unmarshal(data, &r)
	return r, err
}

// UnmarshalState deserializes a StateMessage from JSON.
func UnmarshalState(data []byte) (StateMessage, error) {
	var m StateMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
