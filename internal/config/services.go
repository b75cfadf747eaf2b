package config

import (
	"fmt"
	"sort"
	"strings"
)

// ServiceEntry describes a service that raises ledgers
type ServiceEntry struct {
	Name           string `yaml:"name"` // enterprise service name
	Code           string `yaml:"code"`
	OrganisationID string `yaml:"organisation_id"`
	LegacyPBA      bool   `yaml:"legacy_pba"` // payments skip the account check and stay pending
}

// ServiceCatalog maps enterprise service names to their settings. It is built once
// from configuration and never modified afterwards.
type ServiceCatalog struct {
	byName map[string]ServiceEntry
}

// NewServiceCatalog indexes entries by case-insensitive name
func NewServiceCatalog(entries []ServiceEntry) (*ServiceCatalog, error) {
	byName := make(map[string]ServiceEntry, len(entries))
	for _, e := range entries {
		key := normalizeServiceName(e.Name)
		if key == "" {
			return nil, fmt.Errorf("service name is required in payment.services")
		}
		if _, dup := byName[key]; dup {
			return nil, fmt.Errorf("duplicate service in payment.services: %s", e.Name)
		}
		byName[key] = e
	}
	return &ServiceCatalog{byName: byName}, nil
}

func normalizeServiceName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup returns the entry for the named service
func (c *ServiceCatalog) Lookup(name string) (ServiceEntry, bool) {
	if c == nil {
		return ServiceEntry{}, false
	}
	e, ok := c.byName[normalizeServiceName(name)]
	return e, ok
}

// IsLegacyPBA reports whether the service still uses the legacy PBA journey
func (c *ServiceCatalog) IsLegacyPBA(name string) bool {
	e, ok := c.Lookup(name)
	return ok && e.LegacyPBA
}

// Names returns the configured service names in sorted order
func (c *ServiceCatalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.byName))
	for _, e := range c.byName {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}
