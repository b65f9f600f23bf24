// Package migrate upgrades on-disk documents through a chain of versioned
// transforms. Each document kind keeps its own [Registry], so version numbers
// of different kinds never interact.
package migrate

import (
	"fmt"
	"log/slog"
	"sort"
)

// Migration upgrades a document to Version from the version before it.
type Migration struct {
	// Version is the schema version the migration produces.
	Version int
	// Description is a short label for log output.
	Description string
	// Upgrade transforms the document.
	Upgrade func(data []byte) ([]byte, error)
}

// Registry holds the migrations for one document kind.
type Registry struct {
	// CurrentVersion is the schema version this build writes.
	CurrentVersion int
	// Migrations are applied in Version order.
	Migrations []Migration
}

// Register adds m. It panics on a duplicate version, since registrations
// happen at init time.
func (r *Registry) Register(m Migration) {
	for _, existing := range r.Migrations {
		if existing.Version == m.Version {
			panic(fmt.Sprintf("migrate: duplicate migration version %d (%q)", m.Version, m.Description))
		}
	}
	r.Migrations = append(r.Migrations, m)
}

// Needs reports whether a document at fromVersion is behind the registry.
func (r *Registry) Needs(fromVersion int) bool {
	if fromVersion < r.CurrentVersion {
		return true
	}
	for _, m := range r.Migrations {
		if fromVersion < m.Version {
			return true
		}
	}
	return false
}

// Run applies every migration newer than fromVersion in order and returns
// the upgraded document with the version it reached. On failure the version
// is the last one applied successfully.
func (r *Registry) Run(data []byte, fromVersion int, log *slog.Logger) ([]byte, int, error) {
	if log == nil {
		log = slog.Default()
	}
	sorted := make([]Migration, len(r.Migrations))
	copy(sorted, r.Migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	version := fromVersion
	for _, m := range sorted {
		if version >= m.Version {
			continue
		}
		log.Info("applying migration", "version", m.Version, "description", m.Description)
		out, err := m.Upgrade(data)
		if err != nil {
			return nil, version, fmt.Errorf("migration to v%d failed: %w", m.Version, err)
		}
		data, version = out, m.Version
	}
	return data, version, nil
}
