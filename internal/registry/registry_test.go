package registry

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/corerr"
	"github.com/elidunn/devicecore-mcp/internal/platform"
)

func newTestRegistry() *Registry {
	return New(0.6, zap.NewNop(), nil)
}

func kitchenLight() *platform.Device {
	return &platform.Device{
		ID:           "zwave:1",
		Name:         "Kitchen Light",
		Room:         "Kitchen",
		Platform:     "zwave",
		Capabilities: []platform.Capability{platform.CapabilitySwitch},
		Online:       true,
	}
}

func TestAddAndGet(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))

	d, ok := r.Get("zwave:1")
	require.True(t, ok)
	assert.Equal(t, "Kitchen Light", d.Name)
}

func TestAddRejectsMissingFields(t *testing.T) {
	r := newTestRegistry()
	err := r.Add(&platform.Device{ID: "", Name: "x"})
	require.Error(t, err)
	assert.Equal(t, corerr.InvalidInput, err.(*corerr.Error).Kind)
}

func TestResolveExactID(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))

	res, err := r.Resolve("zwave:1")
	require.NoError(t, err)
	assert.Equal(t, MatchExactID, res.MatchType)
}

func TestResolveExactNameCaseInsensitive(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))

	res, err := r.Resolve("kitchen light")
	require.NoError(t, err)
	assert.Equal(t, MatchExactName, res.MatchType)
}

func TestResolveAlias(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))
	require.NoError(t, r.SetAliases("zwave:1", []string{"kitchen lamp"}))

	res, err := r.Resolve("Kitchen Lamp")
	require.NoError(t, err)
	assert.Equal(t, MatchAlias, res.MatchType)
}

func TestResolveFuzzyFallback(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))

	res, err := r.Resolve("Kichen Light")
	require.NoError(t, err)
	assert.Equal(t, MatchFuzzy, res.MatchType)
	require.NotNil(t, res.Confidence)
	assert.Greater(t, *res.Confidence, 0.6)
}

func TestResolveNotFound(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))

	_, err := r.Resolve("completely unrelated query text")
	require.Error(t, err)
	assert.Equal(t, corerr.DeviceNotFound, err.(*corerr.Error).Kind)
}

func TestResolveFuzzyTieBreaksOnEarliestInsertion(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(&platform.Device{ID: "z:1", Name: "Office Lamp", Platform: "zwave"}))
	require.NoError(t, r.Add(&platform.Device{ID: "z:2", Name: "Office Lamb", Platform: "zwave"}))

	res, err := r.Resolve("Office Lam")
	require.NoError(t, err)
	assert.Equal(t, MatchFuzzy, res.MatchType)
	assert.Equal(t, platform.DeviceID("z:1"), res.Device.ID, "tied fuzzy candidates resolve to the earliest-inserted device")
}

func TestResolveEmptyQuery(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Resolve("   ")
	require.Error(t, err)
	assert.Equal(t, corerr.InvalidInput, err.(*corerr.Error).Kind)
}

func TestUpdate(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))

	newRoom := "Dining Room"
	updated, err := r.Update("zwave:1", Patch{Room: &newRoom})
	require.NoError(t, err)
	assert.Equal(t, "Dining Room", updated.Room)

	assert.Empty(t, r.DevicesInRoom("Kitchen"))
	assert.Len(t, r.DevicesInRoom("Dining Room"), 1)
}

func TestUpdateRejectsEmptyName(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))

	empty := ""
	_, err := r.Update("zwave:1", Patch{Name: &empty})
	require.Error(t, err)
	assert.Equal(t, corerr.InvalidInput, err.(*corerr.Error).Kind)
}

func TestFindByNamePattern(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))
	require.NoError(t, r.Add(&platform.Device{ID: "z:2", Name: "Garage Door", Platform: "zwave"}))

	re := regexp.MustCompile(`(?i)kitchen`)
	found := r.Find(Filter{NamePattern: re})
	require.Len(t, found, 1)
	assert.Equal(t, platform.DeviceID("zwave:1"), found[0].ID)
}

func TestUpdateNotFound(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Update("missing", Patch{})
	require.Error(t, err)
	assert.Equal(t, corerr.DeviceNotFound, err.(*corerr.Error).Kind)
}

func TestRemove(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))

	assert.True(t, r.Remove("zwave:1"))
	assert.False(t, r.Remove("zwave:1"))
	_, ok := r.Get("zwave:1")
	assert.False(t, ok)
}

func TestFindByRoomPlatformCapability(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))
	require.NoError(t, r.Add(&platform.Device{
		ID: "zigbee:9", Name: "Garage Sensor", Room: "Garage", Platform: "zigbee",
		Capabilities: []platform.Capability{platform.CapabilityContactSensor},
	}))

	found := r.Find(Filter{Room: "Kitchen"})
	require.Len(t, found, 1)
	assert.Equal(t, platform.DeviceID("zwave:1"), found[0].ID)

	found = r.Find(Filter{Capability: platform.CapabilityContactSensor})
	require.Len(t, found, 1)
	assert.Equal(t, platform.DeviceID("zigbee:9"), found[0].ID)

	online := true
	found = r.Find(Filter{Online: &online})
	require.Len(t, found, 1)
}

func TestRoomsListSortedAndDeduped(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))
	require.NoError(t, r.Add(&platform.Device{ID: "z:2", Name: "Kitchen Fan", Room: "Kitchen", Platform: "zwave"}))
	require.NoError(t, r.Add(&platform.Device{ID: "z:3", Name: "Hall Light", Room: "Hall", Platform: "zwave"}))

	assert.Equal(t, []string{"Hall", "Kitchen"}, r.RoomsList())
}

func TestStats(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))
	require.NoError(t, r.Add(&platform.Device{ID: "z:2", Name: "Offline Thing", Platform: "zwave", Online: false}))

	s := r.Stats()
	assert.Equal(t, 2, s.TotalDevices)
	assert.Equal(t, 1, s.Online)
	assert.Equal(t, 1, s.Offline)
	assert.Equal(t, 2, s.ByPlatform["zwave"])
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))
	require.NoError(t, r.SetAliases("zwave:1", []string{"kitchen lamp"}))

	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")
	require.NoError(t, r.Save(path))

	loaded := newTestRegistry()
	require.NoError(t, loaded.Load(path))

	d, ok := loaded.Get("zwave:1")
	require.True(t, ok)
	assert.Equal(t, "Kitchen Light", d.Name)

	res, err := loaded.Resolve("kitchen lamp")
	require.NoError(t, err)
	assert.Equal(t, MatchAlias, res.MatchType)
}

func TestLoadMissingFile(t *testing.T) {
	r := newTestRegistry()
	err := r.Load(filepath.Join(os.TempDir(), "does-not-exist-devicecore.json"))
	require.Error(t, err)
}

func TestAddIsIdempotentOnDuplicateID(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Add(kitchenLight()))
	first, _ := r.Get("zwave:1")

	attempt := kitchenLight()
	attempt.Online = false
	require.NoError(t, r.Add(attempt))

	second, _ := r.Get("zwave:1")
	assert.Equal(t, first.InsertionSeq, second.InsertionSeq)
	assert.True(t, second.Online, "re-adding an existing id must be a no-op")
}
