package storage

import (
	"log/slog"
	"sync"

	"github.com/ruteri/storage-router/interfaces"
)

// DriverRegistry holds the ordered set of registered storage drivers,
// de-duplicated by name. Registration order is preserved and used as the
// default trial order for router operations. The registry holds drivers by
// reference only; callers own driver lifetime.
type DriverRegistry struct {
	mu      sync.RWMutex
	drivers []interfaces.StorageDriver
	byName  map[string]interfaces.StorageDriver
	log     *slog.Logger
}

// NewDriverRegistry creates an empty registry.
func NewDriverRegistry(log *slog.Logger) *DriverRegistry {
	if log == nil {
		log = slog.Default()
	}
	return &DriverRegistry{
		byName: make(map[string]interfaces.StorageDriver),
		log:    log,
	}
}

// Register appends a driver to the registry. Registration is idempotent by
// driver name. A driver with no capabilities at all is still accepted; the
// missing methods are logged as warnings since such a driver can only ever
// be skipped.
func (r *DriverRegistry) Register(driver interfaces.StorageDriver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := driver.Name()
	if _, ok := r.byName[name]; ok {
		return nil
	}

	r.drivers = append(r.drivers, driver)
	r.byName[name] = driver

	for method, present := range capabilities(driver) {
		if !present {
			r.log.Warn("Storage driver is missing a capability",
				slog.String("driver", name),
				slog.String("capability", method))
		}
	}

	return nil
}

// List returns the registered drivers in registration order.
func (r *DriverRegistry) List() []interfaces.StorageDriver {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]interfaces.StorageDriver, len(r.drivers))
	copy(out, r.drivers)
	return out
}

// Find returns the driver with the given name, or nil.
func (r *DriverRegistry) Find(name string) interfaces.StorageDriver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// DriversForURL filters to drivers that claim the given URL. Drivers without
// the HandlesURL capability are skipped, not treated as non-matching.
func (r *DriverRegistry) DriversForURL(rawURL string) []interfaces.StorageDriver {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []interfaces.StorageDriver
	for _, d := range r.drivers {
		h, ok := d.(interfaces.URLHandler)
		if !ok {
			continue
		}
		if h.HandlesURL(rawURL) {
			out = append(out, d)
		}
	}
	return out
}

// selected resolves a driver whitelist against the registry, preserving the
// whitelist's order. A nil whitelist selects every registered driver in
// registration order.
func (r *DriverRegistry) selected(whitelist []string) []interfaces.StorageDriver {
	if whitelist == nil {
		return r.List()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []interfaces.StorageDriver
	for _, name := range whitelist {
		if d, ok := r.byName[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

// capabilities maps the optional driver methods to their presence.
func capabilities(d interfaces.StorageDriver) map[string]bool {
	_, makeURL := d.(interfaces.MutableURLMaker)
	_, handles := d.(interfaces.URLHandler)
	_, getImm := d.(interfaces.ImmutableGetter)
	_, putImm := d.(interfaces.ImmutablePutter)
	_, delImm := d.(interfaces.ImmutableDeleter)
	_, getMut := d.(interfaces.MutableGetter)
	_, putMut := d.(interfaces.MutablePutter)
	_, delMut := d.(interfaces.MutableDeleter)

	return map[string]bool{
		"make_mutable_url": makeURL,
		"handles_url":      handles,
		"get_immutable":    getImm,
		"put_immutable":    putImm,
		"delete_immutable": delImm,
		"get_mutable":      getMut,
		"put_mutable":      putMut,
		"delete_mutable":   delMut,
	}
}
