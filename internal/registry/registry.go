// Package registry implements the device registry: the primary store and
// its five secondary indices, plus exact/alias/fuzzy resolution.
package registry

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	json "github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/elidunn/devicecore-mcp/internal/corerr"
	"github.com/elidunn/devicecore-mcp/internal/metrics"
	"github.com/elidunn/devicecore-mcp/internal/platform"
	"github.com/elidunn/devicecore-mcp/internal/similarity"
)

// MatchType identifies how resolve() found a device.
type MatchType string

const (
	MatchExactID   MatchType = "exact_id"
	MatchExactName MatchType = "exact_name"
	MatchAlias     MatchType = "alias"
	MatchFuzzy     MatchType = "fuzzy"
)

// ResolveResult is the outcome of a successful resolve().
type ResolveResult struct {
	Device     *platform.Device `json:"device"`
	MatchType  MatchType        `json:"matchType"`
	Confidence *float64         `json:"confidence,omitempty"`
}

// Filter narrows find() to devices matching every non-zero field.
type Filter struct {
	Room        string
	Platform    string
	Capability  platform.Capability
	Online      *bool
	NamePattern *regexp.Regexp
}

// Stats is a read-only snapshot of registry size and composition.
type Stats struct {
	TotalDevices int                         `json:"totalDevices"`
	ByRoom       map[string]int              `json:"byRoom"`
	ByPlatform   map[string]int              `json:"byPlatform"`
	ByCapability map[platform.Capability]int `json:"byCapability"`
	Online       int                         `json:"online"`
	Offline      int                         `json:"offline"`
}

type idSet = map[platform.DeviceID]struct{}

// Patch describes a partial update to an existing device. Nil fields are
// left untouched; Capabilities and Metadata, when non-nil, replace the
// device's existing value wholesale.
type Patch struct {
	Name         *string
	Label        *string
	Room         *string
	Capabilities []platform.Capability
	Online       *bool
	Manufacturer *string
	Model        *string
	Metadata     map[string]interface{}
}

// snapshot is the on-disk save()/load() format.
type snapshot struct {
	Version int               `json:"version"`
	Devices []*platform.Device `json:"devices"`
	Aliases map[string]string `json:"aliases"`
}

const snapshotVersion = 1

// Registry is the single source of truth for known devices. Mutations are
// serialized by mu; reads proceed concurrently under the read lock.
type Registry struct {
	mu sync.RWMutex

	primary         map[platform.DeviceID]*platform.Device
	nameIndex       map[string]platform.DeviceID
	aliasIndex      map[string]platform.DeviceID
	aliasesByDevice map[platform.DeviceID][]string
	roomIndex       map[string]idSet
	platformIndex   map[string]idSet
	capabilityIndex map[platform.Capability]idSet

	insertionSeq uint64

	fuzzyThreshold float64
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

// New creates an empty registry using the given fuzzy-match threshold
// (spec default 0.6).
func New(fuzzyThreshold float64, logger *zap.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		primary:         make(map[platform.DeviceID]*platform.Device),
		nameIndex:       make(map[string]platform.DeviceID),
		aliasIndex:      make(map[string]platform.DeviceID),
		aliasesByDevice: make(map[platform.DeviceID][]string),
		roomIndex:       make(map[string]idSet),
		platformIndex:   make(map[string]idSet),
		capabilityIndex: make(map[platform.Capability]idSet),
		fuzzyThreshold:  fuzzyThreshold,
		logger:          logger,
		metrics:         m,
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Add inserts a new device into the primary store and the name, room,
// platform and capability indices (aliases are set with SetAliases), or
// returns InvalidInput if it has no id or name. Re-adding an
// id that is already present is a no-op; use Update to change fields on
// an existing device.
func (r *Registry) Add(d *platform.Device) error {
	if d == nil || d.ID == "" || d.Name == "" {
		return corerr.New(corerr.InvalidInput, "device requires a non-empty id and name", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.primary[d.ID]; ok {
		return nil
	}

	cp := d.Clone()
	r.insertionSeq++
	cp.InsertionSeq = r.insertionSeq

	r.primary[cp.ID] = cp
	r.indexLocked(cp)
	return nil
}

// Remove deletes a device and all of its index entries. Reports whether a
// device was actually present.
func (r *Registry) Remove(id platform.DeviceID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.primary[id]
	if !ok {
		return false
	}
	r.unindexLocked(d)
	delete(r.primary, id)
	delete(r.aliasesByDevice, id)
	return true
}

// Update applies patch to an existing device and re-indexes it. Returns
// DeviceNotFound if id is unknown.
func (r *Registry) Update(id platform.DeviceID, patch Patch) (*platform.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.primary[id]
	if !ok {
		return nil, corerr.New(corerr.DeviceNotFound, fmt.Sprintf("no device with id %q", id), map[string]interface{}{"id": string(id)})
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, corerr.New(corerr.InvalidInput, "name must not be empty", nil)
	}

	r.unindexLocked(existing)
	updated := existing.Clone()
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Label != nil {
		updated.Label = *patch.Label
	}
	if patch.Room != nil {
		updated.Room = *patch.Room
	}
	if patch.Capabilities != nil {
		updated.Capabilities = append([]platform.Capability(nil), patch.Capabilities...)
	}
	if patch.Online != nil {
		updated.Online = *patch.Online
	}
	if patch.Manufacturer != nil {
		updated.Manufacturer = *patch.Manufacturer
	}
	if patch.Model != nil {
		updated.Model = *patch.Model
	}
	if patch.Metadata != nil {
		updated.Metadata = patch.Metadata
	}

	r.primary[id] = updated
	r.indexLocked(updated)
	return updated.Clone(), nil
}

// SetAliases replaces the full alias list for a device, re-keying the
// alias index. Aliases that collide with another device's alias silently
// overwrite the earlier mapping, favoring the most recent assignment.
func (r *Registry) SetAliases(id platform.DeviceID, aliases []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.primary[id]; !ok {
		return corerr.New(corerr.DeviceNotFound, fmt.Sprintf("no device with id %q", id), map[string]interface{}{"id": string(id)})
	}

	for _, a := range r.aliasesByDevice[id] {
		delete(r.aliasIndex, normalizeKey(a))
	}

	clean := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if a == "" {
			continue
		}
		r.aliasIndex[normalizeKey(a)] = id
		clean = append(clean, a)
	}
	r.aliasesByDevice[id] = clean
	return nil
}

// Get returns a copy of the device with the given id.
func (r *Registry) Get(id platform.DeviceID) (*platform.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.primary[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Resolve finds a single device by, in order: exact id, exact normalized
// name, exact normalized alias, then fuzzy match against names and
// aliases. Fuzzy ties at the top score resolve to the earliest-inserted
// candidate; Resolve always yields a single winner or a not-found error,
// never an ambiguity error.
func (r *Registry) Resolve(query string) (*ResolveResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, corerr.New(corerr.InvalidInput, "resolve query must not be empty", nil)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.primary[platform.DeviceID(query)]; ok {
		return &ResolveResult{Device: d.Clone(), MatchType: MatchExactID}, nil
	}

	norm := normalizeKey(query)
	if id, ok := r.nameIndex[norm]; ok {
		return &ResolveResult{Device: r.primary[id].Clone(), MatchType: MatchExactName}, nil
	}
	if id, ok := r.aliasIndex[norm]; ok {
		return &ResolveResult{Device: r.primary[id].Clone(), MatchType: MatchAlias}, nil
	}

	candidates := make([]similarity.Candidate, 0, len(r.primary))
	keyToDevice := make(map[string]platform.DeviceID, len(r.primary))
	for id, d := range r.primary {
		candidates = append(candidates, similarity.Candidate{Key: d.Name, InsertionSeq: d.InsertionSeq})
		keyToDevice[normalizeKey(d.Name)] = id
	}
	for alias, id := range r.aliasIndex {
		candidates = append(candidates, similarity.Candidate{Key: alias, InsertionSeq: r.primary[id].InsertionSeq})
		keyToDevice[alias] = id
	}

	top := similarity.TopMatches(query, candidates, r.fuzzyThreshold, 1)
	if len(top) == 0 {
		return nil, corerr.NotFoundWithCandidates(corerr.DeviceNotFound, query, nil)
	}

	best := top[0]
	score := best.Score
	id := keyToDevice[normalizeKey(best.Candidate.Key)]
	return &ResolveResult{Device: r.primary[id].Clone(), MatchType: MatchFuzzy, Confidence: &score}, nil
}

// Find returns every device matching all non-zero fields of filter, using
// the secondary indices to avoid a full scan where possible.
func (r *Registry) Find(filter Filter) []*platform.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidateIDs idSet
	narrow := func(next idSet) {
		if candidateIDs == nil {
			candidateIDs = next
			return
		}
		merged := make(idSet, len(candidateIDs))
		for id := range candidateIDs {
			if _, ok := next[id]; ok {
				merged[id] = struct{}{}
			}
		}
		candidateIDs = merged
	}

	if filter.Room != "" {
		narrow(r.roomIndex[normalizeKey(filter.Room)])
	}
	if filter.Platform != "" {
		narrow(r.platformIndex[normalizeKey(filter.Platform)])
	}
	if filter.Capability != "" {
		narrow(r.capabilityIndex[filter.Capability])
	}

	var ids []platform.DeviceID
	if candidateIDs == nil {
		ids = make([]platform.DeviceID, 0, len(r.primary))
		for id := range r.primary {
			ids = append(ids, id)
		}
	} else {
		ids = make([]platform.DeviceID, 0, len(candidateIDs))
		for id := range candidateIDs {
			ids = append(ids, id)
		}
	}

	out := make([]*platform.Device, 0, len(ids))
	for _, id := range ids {
		d := r.primary[id]
		if filter.Online != nil && d.Online != *filter.Online {
			continue
		}
		if filter.NamePattern != nil && !filter.NamePattern.MatchString(d.Name) {
			continue
		}
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InsertionSeq < out[j].InsertionSeq })
	return out
}

// RoomsList returns every distinct room name currently indexed, sorted.
func (r *Registry) RoomsList() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make(map[string]struct{})
	for _, d := range r.primary {
		if d.Room != "" {
			rooms[d.Room] = struct{}{}
		}
	}
	out := make([]string, 0, len(rooms))
	for room := range rooms {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// DevicesInRoom is a convenience wrapper over Find for a single room.
func (r *Registry) DevicesInRoom(room string) []*platform.Device {
	return r.Find(Filter{Room: room})
}

// All returns every registered device, ordered by insertion sequence.
func (r *Registry) All() []*platform.Device {
	return r.Find(Filter{})
}

// Stats summarizes registry composition for system-status reporting.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		ByRoom:       make(map[string]int),
		ByPlatform:   make(map[string]int),
		ByCapability: make(map[platform.Capability]int),
	}
	for _, d := range r.primary {
		s.TotalDevices++
		if d.Room != "" {
			s.ByRoom[d.Room]++
		}
		s.ByPlatform[d.Platform]++
		for _, c := range d.Capabilities {
			s.ByCapability[c]++
		}
		if d.Online {
			s.Online++
		} else {
			s.Offline++
		}
	}
	return s
}

// Save writes a JSON snapshot of the registry, including aliases, to path.
func (r *Registry) Save(path string) error {
	r.mu.RLock()
	snap := snapshot{Version: snapshotVersion, Aliases: make(map[string]string)}
	ids := make([]platform.DeviceID, 0, len(r.primary))
	for id := range r.primary {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return r.primary[ids[i]].InsertionSeq < r.primary[ids[j]].InsertionSeq })
	for _, id := range ids {
		snap.Devices = append(snap.Devices, r.primary[id])
	}
	for alias, id := range r.aliasIndex {
		snap.Aliases[alias] = string(id)
	}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return corerr.Wrap(corerr.Internal, "failed to encode registry snapshot", err, nil)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return corerr.Wrap(corerr.Internal, "failed to write registry snapshot", err, map[string]interface{}{"path": path})
	}
	return nil
}

// Load replaces the registry's contents with a previously saved snapshot.
func (r *Registry) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return corerr.Wrap(corerr.Internal, "failed to read registry snapshot", err, map[string]interface{}{"path": path})
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return corerr.Wrap(corerr.Internal, "failed to decode registry snapshot", err, nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.primary = make(map[platform.DeviceID]*platform.Device, len(snap.Devices))
	r.nameIndex = make(map[string]platform.DeviceID)
	r.aliasIndex = make(map[string]platform.DeviceID)
	r.aliasesByDevice = make(map[platform.DeviceID][]string)
	r.roomIndex = make(map[string]idSet)
	r.platformIndex = make(map[string]idSet)
	r.capabilityIndex = make(map[platform.Capability]idSet)
	r.insertionSeq = 0

	for _, d := range snap.Devices {
		// InsertionSeq is not serialized; Save writes devices in insertion
		// order, so renumbering by position restores that order.
		r.insertionSeq++
		d.InsertionSeq = r.insertionSeq
		r.primary[d.ID] = d
		r.indexLocked(d)
	}
	for alias, id := range snap.Aliases {
		did := platform.DeviceID(id)
		r.aliasIndex[alias] = did
		r.aliasesByDevice[did] = append(r.aliasesByDevice[did], alias)
	}
	return nil
}

// indexLocked adds d to every secondary index. Caller must hold mu.
func (r *Registry) indexLocked(d *platform.Device) {
	r.nameIndex[normalizeKey(d.Name)] = d.ID

	if d.Room != "" {
		addToIndex(r.roomIndex, normalizeKey(d.Room), d.ID)
	}
	if d.Platform != "" {
		addToIndex(r.platformIndex, normalizeKey(d.Platform), d.ID)
	}
	for _, c := range d.Capabilities {
		addToIndex(r.capabilityIndex, c, d.ID)
	}
}

// unindexLocked removes d from every secondary index it was inserted
// into. Caller must hold mu.
func (r *Registry) unindexLocked(d *platform.Device) {
	if r.nameIndex[normalizeKey(d.Name)] == d.ID {
		delete(r.nameIndex, normalizeKey(d.Name))
	}
	if d.Room != "" {
		removeFromIndex(r.roomIndex, normalizeKey(d.Room), d.ID)
	}
	if d.Platform != "" {
		removeFromIndex(r.platformIndex, normalizeKey(d.Platform), d.ID)
	}
	for _, c := range d.Capabilities {
		removeFromIndex(r.capabilityIndex, c, d.ID)
	}
}

func addToIndex[K comparable](index map[K]idSet, key K, id platform.DeviceID) {
	set, ok := index[key]
	if !ok {
		set = make(idSet)
		index[key] = set
	}
	set[id] = struct{}{}
}

func removeFromIndex[K comparable](index map[K]idSet, key K, id platform.DeviceID) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(index, key)
	}
}
