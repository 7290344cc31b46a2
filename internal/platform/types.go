// Package platform defines the adapter contract the core components use to
// talk to the underlying home-automation bridge, plus an HTTP implementation
// of that contract.
package platform

import "time"

// DeviceID is the opaque, process-unique identifier of the form
// "<platform>:<native-id>". Once assigned it is never mutated or reused.
type DeviceID string

// Capability is a closed enumeration of semantic device abilities. Each
// capability has a registered set of legal command verbs (see
// LegalCommands).
type Capability string

// The fixed capability enumeration.
const (
	CapabilitySwitch                 Capability = "switch"
	CapabilityDimmer                 Capability = "dimmer"
	CapabilityBattery                Capability = "battery"
	CapabilityMotionSensor           Capability = "motionSensor"
	CapabilityContactSensor          Capability = "contactSensor"
	CapabilityTemperatureMeasurement Capability = "temperatureMeasurement"
	CapabilityColorControl           Capability = "colorControl"
	CapabilityLock                   Capability = "lock"
	CapabilityThermostat             Capability = "thermostat"
)

// LegalCommands maps a capability to its legal command verbs.
var LegalCommands = map[Capability][]string{
	CapabilitySwitch:                 {"on", "off"},
	CapabilityDimmer:                 {"on", "off", "setLevel"},
	CapabilityBattery:                {},
	CapabilityMotionSensor:           {},
	CapabilityContactSensor:          {},
	CapabilityTemperatureMeasurement: {},
	CapabilityColorControl:           {"setColor", "setHue", "setSaturation"},
	CapabilityLock:                   {"lock", "unlock"},
	CapabilityThermostat:             {"setHeatingSetpoint", "setCoolingSetpoint", "setThermostatMode"},
}

// Device is a single addressable entity in the automation bridge.
type Device struct {
	ID           DeviceID               `json:"id"`
	Name         string                 `json:"name"`
	Label        string                 `json:"label,omitempty"`
	Room         string                 `json:"room,omitempty"`
	Platform     string                 `json:"platform"`
	Capabilities []Capability           `json:"capabilities"`
	Online       bool                   `json:"online"`
	Manufacturer string                 `json:"manufacturer,omitempty"`
	Model        string                 `json:"model,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	InsertionSeq uint64                 `json:"-"`
}

// HasCapability reports whether the device exposes the given capability.
func (d *Device) HasCapability(c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the device, safe to hand to a caller that
// might mutate it.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Capabilities = append([]Capability(nil), d.Capabilities...)
	if d.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(d.Metadata))
		for k, v := range d.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// DeviceEvent is a single reported attribute transition or reading.
type DeviceEvent struct {
	DeviceID            DeviceID    `json:"deviceId"`
	Time                time.Time   `json:"time"`
	Capability          Capability  `json:"capability"`
	Attribute           string      `json:"attribute"`
	Value               interface{} `json:"value"`
	Unit                string      `json:"unit,omitempty"`
	Component           string      `json:"component"`
	Text                string      `json:"text,omitempty"`
	TranslatedAttribute string      `json:"translatedAttribute,omitempty"`
	TranslatedValue     string      `json:"translatedValue,omitempty"`
	// Source identifies what originated the transition, when the platform
	// reports it (see spec section on the automation-conflict detector).
	Source *string `json:"source,omitempty"`
}

// EventRef is a minimal citation of a DeviceEvent used as pattern evidence.
type EventRef struct {
	Time      time.Time  `json:"time"`
	Attribute string     `json:"attribute"`
	Value     interface{} `json:"value"`
}

// CommandOutcomeStatus is the result of a single command attempt.
type CommandOutcomeStatus string

const (
	OutcomeSuccess CommandOutcomeStatus = "success"
	OutcomeFailure CommandOutcomeStatus = "failure"
)

// CommandResult is what the adapter returns from executeCommand, whether it
// succeeded or failed in a classified way.
type CommandResult struct {
	DeviceID   DeviceID             `json:"deviceId"`
	Capability Capability           `json:"capability"`
	Command    string               `json:"command"`
	Status     CommandOutcomeStatus `json:"status"`
	Message    string               `json:"message,omitempty"`
	Source     *string              `json:"source,omitempty"`
}

// Location is a physical area grouping rooms.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room groups devices within a location.
type Room struct {
	ID         string `json:"id"`
	LocationID string `json:"locationId,omitempty"`
	Name       string `json:"name"`
}

// Scene is an adapter-defined composite action.
type Scene struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeviceFilter narrows listDevices/find results at the adapter or registry.
type DeviceFilter struct {
	Room       string
	Platform   string
	Capability Capability
}
