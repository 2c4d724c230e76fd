// Package cache provides the three-tier entry cache: complete entities,
// basic list projections, and a single-slot filtered result keyed by a query
// signature.
//
// The manager is not safe for concurrent use. All mutation paths run on a
// single caller goroutine by contract, so the tiers are plain maps with no
// locking; a multi-threaded host must serialize access itself. Getters and
// setters never touch the store and never return errors. A miss is the
// normal "go fetch through the accessor" signal, not a failure.
package cache

import (
	"github.com/potool/potool/internal/model"
)

type Manager struct {
	enabled bool

	complete map[string]*model.Entry
	basic    map[string]model.BasicInfo

	filtered          []*model.Entry
	filteredSignature string
	forceUpdate       bool
}

func NewManager() *Manager {
	m := &Manager{enabled: true}
	m.reset()
	return m
}

func (m *Manager) reset() {
	m.complete = make(map[string]*model.Entry)
	m.basic = make(map[string]model.BasicInfo)
	m.filtered = nil
	m.filteredSignature = ""
	m.forceUpdate = true
}

// GetComplete returns the cached complete entity for key, if present.
func (m *Manager) GetComplete(key string) (*model.Entry, bool) {
	if !m.enabled {
		return nil, false
	}
	entry, ok := m.complete[key]
	return entry, ok
}

// CacheComplete stores the complete entity under its key.
func (m *Manager) CacheComplete(key string, entry *model.Entry) {
	if !m.enabled || entry == nil {
		return
	}
	m.complete[key] = entry
}

// GetBasic returns the cached basic projection for key, if present.
func (m *Manager) GetBasic(key string) (model.BasicInfo, bool) {
	if !m.enabled {
		return model.BasicInfo{}, false
	}
	info, ok := m.basic[key]
	return info, ok
}

func (m *Manager) CacheBasic(key string, info model.BasicInfo) {
	if !m.enabled {
		return
	}
	m.basic[key] = info
}

// CacheBasicAll replaces the basic tier wholesale; the loader warm-up path.
func (m *Manager) CacheBasicAll(infos map[string]model.BasicInfo) {
	if !m.enabled {
		return
	}
	m.basic = make(map[string]model.BasicInfo, len(infos))
	for key, info := range infos {
		m.basic[key] = info
	}
}

// GetFiltered returns the cached filtered result only when the signature
// matches the stored one and no force update is pending. Any other state is
// a miss that obliges the caller to recompute and re-populate.
func (m *Manager) GetFiltered(signature string) ([]*model.Entry, bool) {
	if !m.enabled || m.forceUpdate {
		return nil, false
	}
	if m.filtered == nil || m.filteredSignature != signature {
		return nil, false
	}
	return m.filtered, true
}

// CacheFiltered stores a freshly computed filtered result and clears the
// force-update flag. The filtered tier is a single slot: the latest
// signature wins.
func (m *Manager) CacheFiltered(entries []*model.Entry, signature string) {
	if !m.enabled {
		return
	}
	m.filtered = entries
	m.filteredSignature = signature
	m.forceUpdate = false
}

// InvalidateEntry drops the key from both entity tiers and forces the next
// filtered read to recompute. A single changed entry can change which
// filters it satisfies, so the filtered slot cannot be trusted at any finer
// granularity than "all".
func (m *Manager) InvalidateEntry(key string) {
	delete(m.complete, key)
	delete(m.basic, key)
	m.forceUpdate = true
}

// InvalidateAll clears every tier.
func (m *Manager) InvalidateAll() {
	m.reset()
}

// SetEnabled toggles caching. While disabled every getter misses and every
// setter is a no-op; disabling clears all tiers so a later re-enable starts
// cold rather than stale.
func (m *Manager) SetEnabled(enabled bool) {
	if !enabled {
		m.reset()
	}
	m.enabled = enabled
}

func (m *Manager) Enabled() bool {
	return m.enabled
}

// ForceUpdatePending reports whether the next filtered read is a guaranteed
// miss.
func (m *Manager) ForceUpdatePending() bool {
	return m.forceUpdate
}

// Prefetch populates the complete tier for the subset of keys not already
// cached. fetchMany is invoked only when that subset is non-empty, never
// with an empty key list.
func (m *Manager) Prefetch(keys []string, fetchMany func(missing []string) (map[string]*model.Entry, error)) error {
	if !m.enabled {
		return nil
	}

	var missing []string
	for _, key := range keys {
		if _, ok := m.complete[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	fetched, err := fetchMany(missing)
	if err != nil {
		return err
	}
	for key, entry := range fetched {
		m.CacheComplete(key, entry)
	}
	return nil
}
