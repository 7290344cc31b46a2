package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elidunn/devicecore-mcp/internal/corerr"
	"github.com/elidunn/devicecore-mcp/internal/platform"
)

func TestDiagnosticReportTool_DegradesOnFetchFailure(t *testing.T) {
	reg := buildRegistry(t, testDevice("d1", "Kitchen Light", "Kitchen", platform.CapabilitySwitch))
	adapter := &fakeAdapter{eventsErr: corerr.New(corerr.AdapterUnavailable, "bridge unreachable", nil)}
	deps := newDiagnosticsDeps(t, reg, adapter, testCatalog(t))
	tool := NewDiagnosticReportTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"device": "Kitchen Light"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "finding(s)")
}

func TestDiagnosticReportTool_UnresolvedDevice(t *testing.T) {
	reg := buildRegistry(t)
	deps := newDiagnosticsDeps(t, reg, &fakeAdapter{}, testCatalog(t))
	tool := NewDiagnosticReportTool(deps)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"device": "nope"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
