// Package integration assembles the holder rewards runtime: database
// presets, the engine wired to its backends and a block simulator driving it.
//
// Presets bundle storage settings into named profiles (lite, full, archive)
// so operators don't have to tune each flag:
//
//	cfg := integration.LitePreset()    // in-memory, for development
//	cfg := integration.FullPreset()    // on-disk, pruned history
//	cfg := integration.ArchivePreset() // on-disk, full history
package integration

import (
	"fmt"

	"github.com/rony4d/opera-holder-rewards/opera"
)

// GC modes map onto history retention.
const (
	GCModeFull    = "full"
	GCModeArchive = "archive"
)

// DB presets select the database backend.
const (
	DBPresetMemory  = "memory"
	DBPresetLevelDB = "ldb-1"
)

// PresetConfig captures the tunable parameters that vary across preset profiles.
// It intentionally excludes consensus settings (rules, network IDs) so presets
// focus on resource trade-offs.
type PresetConfig struct {
	Name          string // human-readable identifier (e.g., "lite", "full")
	CacheMB       int    // memory allocated to database caches
	Handles       int    // open file handles for the database
	GCMode        string // history retention: "full" prunes, "archive" keeps everything
	DBPreset      string // database backend: "memory" or "ldb-1"
	EnableMetrics bool   // whether to expose Prometheus metrics
}

func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:          "default",
		CacheMB:       1024,            // 1GB cache: enough for moderate account counts
		Handles:       512,             // matches the launcher default
		GCMode:        GCModeFull,      // prune history no future cycle can read
		DBPreset:      DBPresetLevelDB, // LevelDB keeps schedule and history across restarts
		EnableMetrics: false,           // metrics disabled by default
	}
}

// LitePreset returns a lightweight configuration for development and tests.
// Nothing is written to disk and the whole history is kept for inspection.
func LitePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "lite"
	cfg.CacheMB = 256
	cfg.Handles = 64
	cfg.GCMode = GCModeArchive
	cfg.DBPreset = DBPresetMemory
	cfg.EnableMetrics = true
	return cfg
}

// FullPreset returns the production configuration: on-disk storage with
// history pruned after every minting block.
func FullPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "full"
	cfg.CacheMB = 4096
	cfg.GCMode = GCModeFull
	cfg.DBPreset = DBPresetLevelDB
	cfg.EnableMetrics = true
	return cfg
}

// ArchivePreset returns a configuration for auditing past distributions:
// history is never pruned, so disk usage grows with every snapshot.
func ArchivePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "archive"
	cfg.CacheMB = 8192
	cfg.GCMode = GCModeArchive
	cfg.DBPreset = DBPresetLevelDB
	cfg.EnableMetrics = true
	return cfg
}

// GetPresetByName looks up a preset by its string identifier.
//
// Example:
//
//	preset, err := integration.GetPresetByName("lite")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "lite":
		return LitePreset(), nil
	case "full":
		return FullPreset(), nil
	case "archive":
		return ArchivePreset(), nil
	case "default":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: lite, full, archive, default)", name)
	}
}

// ApplyPreset merges a preset configuration into an existing config struct.
// Non-zero fields of the preset override the target.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.CacheMB > 0 {
		target.CacheMB = preset.CacheMB
	}
	if preset.Handles > 0 {
		target.Handles = preset.Handles
	}
	if preset.GCMode != "" {
		target.GCMode = preset.GCMode
	}
	if preset.DBPreset != "" {
		target.DBPreset = preset.DBPreset
	}
	// boolean flags are always applied (no zero-value check needed)
	target.EnableMetrics = preset.EnableMetrics
	if preset.Name != "" {
		target.Name = preset.Name
	}
}

// Retention maps the GC mode onto a history retention mode.
func (p PresetConfig) Retention() (opera.RetentionMode, error) {
	switch p.GCMode {
	case GCModeFull:
		return opera.RetainWindow, nil
	case GCModeArchive:
		return opera.RetainAll, nil
	default:
		return 0, fmt.Errorf("unknown gcmode: %q (valid: full, archive)", p.GCMode)
	}
}

// ApplyTo sets the retention of rules according to the preset.
func (p PresetConfig) ApplyTo(rules *opera.RewardsRules) error {
	mode, err := p.Retention()
	if err != nil {
		return err
	}
	rules.Retention = mode
	return nil
}
