package tools

import (
	"context"
	"time"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

// fakeAdapter embeds platform.Adapter so a test only needs to override the
// methods its scenario exercises; any unimplemented method panics on a nil
// interface call, which is fine since no test here calls one it didn't set up.
type fakeAdapter struct {
	platform.Adapter

	state     map[platform.Capability]map[string]interface{}
	stateErr  error
	cmdResult *platform.CommandResult
	cmdErr    error
	sceneErr  error
	locations []platform.Location
	locErr    error
	events    []platform.DeviceEvent
	eventsErr error
}

func (f *fakeAdapter) GetDeviceState(ctx context.Context, id platform.DeviceID) (map[platform.Capability]map[string]interface{}, error) {
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeAdapter) ExecuteCommand(ctx context.Context, id platform.DeviceID, capability platform.Capability, command string, args map[string]interface{}, deadline time.Duration) (*platform.CommandResult, error) {
	if f.cmdErr != nil {
		return nil, f.cmdErr
	}
	return f.cmdResult, nil
}

func (f *fakeAdapter) ExecuteScene(ctx context.Context, id string) error {
	return f.sceneErr
}

func (f *fakeAdapter) ListEvents(ctx context.Context, req platform.ListEventsRequest) ([]platform.DeviceEvent, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events, nil
}

func (f *fakeAdapter) ListLocations(ctx context.Context) ([]platform.Location, error) {
	if f.locErr != nil {
		return nil, f.locErr
	}
	return f.locations, nil
}
