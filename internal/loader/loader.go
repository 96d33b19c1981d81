// Package loader populates the record stores from validated snapshot
// files. A TOML registry names which snapshot feeds which record set; the
// snapshots themselves are YAML. Upstream scraping and validation happen
// elsewhere; the loader assumes clean input and bulk-inserts each set in
// one transaction.
package loader

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"mplads/internal/logging"
	"mplads/internal/storage"
)

// Record set names accepted in the registry.
const (
	SetMPs              = "mps"
	SetTermSummaries    = "mp_term_summaries"
	SetAllocations      = "allocations"
	SetExpenditures     = "expenditures"
	SetCompletedWorks   = "works_completed"
	SetRecommendedWorks = "works_recommended"
)

// Registry is the TOML source registry.
type Registry struct {
	Sources []Source `toml:"source"`
}

// Source maps one snapshot file to a record set.
type Source struct {
	Set  string `toml:"set"`
	Path string `toml:"path"`
}

// Report summarizes a load run.
type Report struct {
	LoadedBySet map[string]int `json:"loadedBySet"`
}

// Loader reads snapshots into the record stores.
type Loader struct {
	stores *storage.Stores
	logger *logging.Logger
}

// New creates a loader over the given stores.
func New(stores *storage.Stores, logger *logging.Logger) *Loader {
	return &Loader{stores: stores, logger: logger}
}

// LoadRegistry parses the TOML source registry.
func LoadRegistry(path string) (*Registry, error) {
	var reg Registry
	if _, err := toml.DecodeFile(path, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse source registry %s: %w", path, err)
	}
	for _, src := range reg.Sources {
		switch src.Set {
		case SetMPs, SetTermSummaries, SetAllocations, SetExpenditures, SetCompletedWorks, SetRecommendedWorks:
		default:
			return nil, fmt.Errorf("unknown record set %q in source registry", src.Set)
		}
		if src.Path == "" {
			return nil, fmt.Errorf("source for set %q has no path", src.Set)
		}
	}
	return &reg, nil
}

// Run loads every source in the registry. Snapshot paths are resolved
// relative to the registry file unless absolute.
func (l *Loader) Run(registryPath string) (*Report, error) {
	reg, err := LoadRegistry(registryPath)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(registryPath)
	report := &Report{LoadedBySet: make(map[string]int)}

	for _, src := range reg.Sources {
		path := src.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}

		n, err := l.loadSet(src.Set, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s from %s: %w", src.Set, path, err)
		}

		report.LoadedBySet[src.Set] += n
		l.logger.Info("Loaded snapshot", map[string]interface{}{
			"set":     src.Set,
			"path":    path,
			"records": n,
		})
	}

	return report, nil
}

func (l *Loader) loadSet(set, path string) (int, error) {
	switch set {
	case SetMPs:
		mps, err := readMPSnapshot(path)
		if err != nil {
			return 0, err
		}
		return len(mps), l.stores.InsertMPs(mps)

	case SetTermSummaries:
		mps, terms, err := readTermSummarySnapshot(path)
		if err != nil {
			return 0, err
		}
		return len(mps), l.stores.InsertTermSummaryMPs(mps, terms)

	case SetAllocations:
		records, err := readAllocationSnapshot(path)
		if err != nil {
			return 0, err
		}
		return len(records), l.replaceAllocations(records)

	case SetExpenditures:
		records, err := readExpenditureSnapshot(path)
		if err != nil {
			return 0, err
		}
		return len(records), l.stores.InsertExpenditures(records)

	case SetCompletedWorks:
		records, err := readWorkSnapshot(path)
		if err != nil {
			return 0, err
		}
		return len(records), l.stores.InsertCompletedWorks(records)

	case SetRecommendedWorks:
		records, err := readWorkSnapshot(path)
		if err != nil {
			return 0, err
		}
		return len(records), l.stores.InsertRecommendedWorks(records)
	}
	return 0, fmt.Errorf("unknown record set %q", set)
}
