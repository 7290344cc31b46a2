package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/diagnostics"
	coreevents "github.com/elidunn/devicecore-mcp/internal/events"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/registry"
	"github.com/elidunn/devicecore-mcp/internal/status"
	"github.com/elidunn/devicecore-mcp/internal/tracker"
)

// testCatalog writes a minimal recommendation catalog with no bound
// entries and loads it, for tools that need a non-nil *diagnostics.Catalog
// but don't exercise recommendation rendering.
func testCatalog(t *testing.T) *diagnostics.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"1","entries":{}}`), 0o644))
	cat, err := diagnostics.LoadCatalog(path)
	require.NoError(t, err)
	return cat
}

func testDevice(id, name, room string, caps ...platform.Capability) *platform.Device {
	return &platform.Device{
		ID:           platform.DeviceID(id),
		Name:         name,
		Room:         room,
		Platform:     "test",
		Capabilities: caps,
		Online:       true,
	}
}

func buildRegistry(t *testing.T, devices ...*platform.Device) *registry.Registry {
	t.Helper()
	reg := registry.New(0.6, zap.NewNop(), nil)
	for _, d := range devices {
		require.NoError(t, reg.Add(d))
	}
	return reg
}

// newDeps assembles a Deps bound to reg and adapter, with a fresh tracker
// and events engine; diagnostics and status are left unset (see
// newDiagnosticsDeps and newStatusDeps).
// Individual tests only exercise the fields their tool under test reads.
func newDeps(t *testing.T, reg *registry.Registry, adapter platform.Adapter) *Deps {
	t.Helper()
	tr := tracker.New(50, zap.NewNop(), nil)
	ev := coreevents.New(adapter, 7, 100, 500, zap.NewNop(), nil)
	return &Deps{
		Registry: reg,
		Events:   ev,
		Tracker:  tr,
		Adapter:  adapter,
		Logger:   zap.NewNop(),
	}
}

// newDiagnosticsDeps additionally wires a diagnostics workflow bound to the
// given catalog, for tools that call t.deps.Diagnostics.
func newDiagnosticsDeps(t *testing.T, reg *registry.Registry, adapter platform.Adapter, catalog *diagnostics.Catalog) *Deps {
	t.Helper()
	d := newDeps(t, reg, adapter)
	d.Diagnostics = diagnostics.New(reg, d.Events, d.Tracker, catalog, zap.NewNop())
	return d
}

// newStatusDeps additionally wires a status aggregator, for system_status.
func newStatusDeps(t *testing.T, reg *registry.Registry, adapter platform.Adapter) *Deps {
	t.Helper()
	d := newDeps(t, reg, adapter)
	d.Status = status.New(reg, d.Events, d.Tracker, zap.NewNop())
	return d
}
