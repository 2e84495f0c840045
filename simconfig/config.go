package simconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/e7canasta/simcore"
)

// File is the on-disk representation of simcore.Settings. Field names
// are chosen independently of simcore.Settings so the YAML schema is
// stable even if the in-memory struct is reshaped.
type File struct {
	Hz               float64 `yaml:"hz"`
	MaxFrames        int64   `yaml:"max_frames"`
	Adaptive         bool    `yaml:"adaptive"`
	MaxCatchUp       int     `yaml:"max_catch_up"`
	Threads          int     `yaml:"threads"`
	MainHelps        bool    `yaml:"main_helps"`
	ChunkSize        int     `yaml:"chunk_size"`
	DriftLogInterval int     `yaml:"drift_log_interval"`
	SpinMicros       int     `yaml:"spin_micros"`
	LogPhases        bool    `yaml:"log_phases"`
	LogRangeTasks    bool    `yaml:"log_range_tasks"`
}

// ToSettings converts a File into simcore.Settings. The result is not
// yet normalized; ApplySettings does that.
func (f File) ToSettings() simcore.Settings {
	return simcore.Settings{
		Hz:               f.Hz,
		MaxFrames:        f.MaxFrames,
		Adaptive:         f.Adaptive,
		MaxCatchUp:       f.MaxCatchUp,
		Threads:          f.Threads,
		MainHelps:        f.MainHelps,
		ChunkSize:        f.ChunkSize,
		DriftLogInterval: f.DriftLogInterval,
		SpinMicros:       f.SpinMicros,
		LogPhases:        f.LogPhases,
		LogRangeTasks:    f.LogRangeTasks,
	}
}

// FromSettings converts simcore.Settings into its on-disk File form.
func FromSettings(s simcore.Settings) File {
	return File{
		Hz:               s.Hz,
		MaxFrames:        s.MaxFrames,
		Adaptive:         s.Adaptive,
		MaxCatchUp:       s.MaxCatchUp,
		Threads:          s.Threads,
		MainHelps:        s.MainHelps,
		ChunkSize:        s.ChunkSize,
		DriftLogInterval: s.DriftLogInterval,
		SpinMicros:       s.SpinMicros,
		LogPhases:        s.LogPhases,
		LogRangeTasks:    s.LogRangeTasks,
	}
}

// Load reads and parses a YAML settings file.
func Load(path string) (simcore.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return simcore.Settings{}, fmt.Errorf("simconfig: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return simcore.Settings{}, fmt.Errorf("simconfig: parse %s: %w", path, err)
	}
	return f.ToSettings(), nil
}

// Save marshals s and writes it to path, creating or truncating the
// file.
func Save(path string, s simcore.Settings) error {
	data, err := yaml.Marshal(FromSettings(s))
	if err != nil {
		return fmt.Errorf("simconfig: marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("simconfig: write %s: %w", path, err)
	}
	return nil
}
