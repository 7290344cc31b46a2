package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/corerr"
	"github.com/elidunn/devicecore-mcp/internal/platform"
)

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		err  error
		want FailureKind
	}{
		{corerr.New(corerr.InvalidInput, "x", nil), FailureValidation},
		{corerr.New(corerr.DeviceNotFound, "x", nil), FailureNotFound},
		{corerr.New(corerr.Unauthorized, "x", nil), FailureUnauthorized},
		{corerr.New(corerr.CapabilityUnsupported, "x", nil), FailureCapabilityUnsupported},
		{corerr.New(corerr.RateLimited, "x", nil), FailureRateLimited},
		{corerr.New(corerr.AdapterTimeout, "x", nil), FailureNetwork},
		{corerr.New(corerr.AdapterOther, "x", nil), FailureServer},
		{assert.AnError, FailureUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyFailure(c.err))
	}
}

func TestRecordAssignsIDAndTime(t *testing.T) {
	tr := New(10, zap.NewNop(), nil)
	tr.Record(CommandAttempt{DeviceID: "d1", Success: true})

	recorded := tr.CommandsForDevice("d1", time.Time{})
	require.Len(t, recorded, 1)
	assert.NotEmpty(t, recorded[0].ID)
	assert.False(t, recorded[0].Time.IsZero())

	failures := tr.FailedCommands(0, nil)
	assert.Empty(t, failures)

	stats := tr.Stats(0)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Successes)
	assert.Equal(t, 1.0, stats.SuccessRate)
}

func TestRecordEvictsOldestOnOverflow(t *testing.T) {
	tr := New(2, zap.NewNop(), nil)
	tr.Record(CommandAttempt{DeviceID: "d1", Command: "on"})
	tr.Record(CommandAttempt{DeviceID: "d2", Command: "off"})
	tr.Record(CommandAttempt{DeviceID: "d3", Command: "on"})

	stats := tr.Stats(0)
	assert.Equal(t, 2, stats.Total)

	all := tr.FailedCommands(0, nil)
	deviceIDs := map[platform.DeviceID]bool{}
	for _, a := range all {
		deviceIDs[a.DeviceID] = true
	}
	assert.False(t, deviceIDs["d1"], "oldest entry should have been evicted")
}

func TestFailedCommandsFilterByDeviceAndLimit(t *testing.T) {
	tr := New(10, zap.NewNop(), nil)
	tr.Record(CommandAttempt{DeviceID: "d1", Success: false, Failure: FailureNetwork})
	tr.Record(CommandAttempt{DeviceID: "d2", Success: false, Failure: FailureServer})
	tr.Record(CommandAttempt{DeviceID: "d1", Success: false, Failure: FailureValidation})

	d1 := platform.DeviceID("d1")
	failures := tr.FailedCommands(1, &d1)
	require.Len(t, failures, 1)
	assert.Equal(t, FailureValidation, failures[0].Failure)

	allFailures := tr.FailedCommands(0, nil)
	assert.Len(t, allFailures, 3)
}

func TestStatsWindowFiltering(t *testing.T) {
	tr := New(10, zap.NewNop(), nil)
	tr.Record(CommandAttempt{DeviceID: "d1", Success: true, Time: time.Now().UTC().Add(-48 * time.Hour)})
	tr.Record(CommandAttempt{DeviceID: "d1", Success: true, Time: time.Now().UTC()})

	stats := tr.Stats(24)
	assert.Equal(t, 1, stats.Total)
}

func TestRateLimitStatusAccumulatesHits(t *testing.T) {
	tr := New(10, zap.NewNop(), nil)
	tr.Record(CommandAttempt{DeviceID: "d1", Success: false, Failure: FailureRateLimited, Endpoint: "/v1/devices/d1/commands"})
	tr.Record(CommandAttempt{DeviceID: "d1", Success: false, Failure: FailureRateLimited, Endpoint: "/v1/devices/d1/commands"})

	status := tr.RateLimitStatus(24)
	assert.Equal(t, 2, status.Hits)
	require.NotNil(t, status.LastHit)
	assert.Equal(t, 2, status.ByEndpoint["/v1/devices/d1/commands"])
	assert.True(t, status.RemainingUnknown)
}

func TestTokenStatusExpiringSoon(t *testing.T) {
	now := time.Now().UTC()
	status := TokenStatusFor(TokenInfo{Created: now.Add(-time.Hour), Expiry: now.Add(90 * time.Minute)}, now)
	assert.True(t, status.ExpiringSoon)

	status = TokenStatusFor(TokenInfo{Created: now.Add(-time.Hour), Expiry: now.Add(6 * time.Hour)}, now)
	assert.False(t, status.ExpiringSoon)
}

func TestTokenStatusExpired(t *testing.T) {
	now := time.Now().UTC()
	status := TokenStatusFor(TokenInfo{Created: now.Add(-2 * time.Hour), Expiry: now.Add(-time.Minute)}, now)
	assert.Equal(t, "expired", status.Remaining)
	assert.True(t, status.ExpiringSoon)
}
