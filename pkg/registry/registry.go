// pkg/registry/registry.go

// Package registry loads and persists the activity catalog at
// configs/activity-registry.json. The catalog is the source of truth the
// registry-updater and worker-generator tools work from: one entry per
// Camunda service task the fleet serves.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LoadRegistry reads and parses the catalog at path. The raw os error is
// returned unwrapped so callers can distinguish a missing file from a
// corrupt one.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Find returns the activity with the given ID, or nil.
func (r *ActivityRegistry) Find(id string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i]
		}
	}
	return nil
}

// Save writes the catalog back to path, stamping LastUpdated and creating
// the parent directory if needed.
func (r *ActivityRegistry) Save(path string) error {
	r.LastUpdated = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
