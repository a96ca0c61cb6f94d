package driver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	drivers    = make(map[string]Driver) // primary name -> driver
	aliases    = make(map[string]string) // alias -> primary name
)

// Register makes a driver available by its name and aliases.
// It panics if a name is registered twice, like database/sql.Register.
func Register(d Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := strings.ToLower(d.Name())
	if _, dup := drivers[name]; dup {
		panic("driver: Register called twice for " + name)
	}
	drivers[name] = d
	for _, a := range d.Aliases() {
		aliases[strings.ToLower(a)] = name
	}
}

// Get returns the driver registered under name or one of its aliases.
func Get(name string) (Driver, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if primary, ok := aliases[key]; ok {
		key = primary
	}
	d, ok := drivers[key]
	if !ok {
		return nil, fmt.Errorf("unknown database type %q (available: %s)", name, strings.Join(available(), ", "))
	}
	return d, nil
}

// GetDialect returns the dialect for a database type, or nil if unknown.
func GetDialect(name string) Dialect {
	d, err := Get(name)
	if err != nil {
		return nil
	}
	return d.Dialect()
}

// Canonical resolves an alias to the primary driver name.
// Unknown names are returned lower-cased.
func Canonical(name string) string {
	if d, err := Get(name); err == nil {
		return d.Name()
	}
	return strings.ToLower(name)
}

// Available returns the sorted primary names of all registered drivers.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return available()
}

func available() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
