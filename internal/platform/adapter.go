package platform

import (
	"context"
	"time"
)

// Adapter is the platform collaborator contract consumed by the
// event-history engine, the command tracker, and the status aggregator.
// It is the only source of I/O suspension in the core.
type Adapter interface {
	ListDevices(ctx context.Context, filter *DeviceFilter) ([]Device, error)
	GetDevice(ctx context.Context, id DeviceID) (*Device, error)
	GetDeviceState(ctx context.Context, id DeviceID) (map[Capability]map[string]interface{}, error)
	ExecuteCommand(ctx context.Context, id DeviceID, capability Capability, command string, args map[string]interface{}, deadline time.Duration) (*CommandResult, error)
	ListEvents(ctx context.Context, req ListEventsRequest) ([]DeviceEvent, error)
	ListLocations(ctx context.Context) ([]Location, error)
	ListRooms(ctx context.Context, locationID string) ([]Room, error)
	ListScenes(ctx context.Context, filter string) ([]Scene, error)
	ExecuteScene(ctx context.Context, id string) error
}

// ListEventsRequest bundles the listEvents adapter parameters.
type ListEventsRequest struct {
	DeviceID     DeviceID
	Start        time.Time
	End          time.Time
	Capabilities []Capability
	Attributes   []string
	Limit        int
	OldestFirst  bool
	LocationID   string
}

// SemanticIndex is the optional semantic search collaborator (spec section
// 6, "Optional semantic index collaborator"). Its absence is allowed;
// consumers must fall back to exact/fuzzy registry resolution.
type SemanticIndex interface {
	Search(ctx context.Context, query string, filter *DeviceFilter, limit int, minSimilarity float64) ([]ScoredDeviceID, error)
}

// ScoredDeviceID pairs a device id with a semantic match score.
type ScoredDeviceID struct {
	DeviceID DeviceID
	Score    float64
}
