package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scheduler defaults
const (
	DefaultBatchSize        = 5
	DefaultBatchDelay       = 2 * time.Second
	DefaultCandidateLimit   = 20
	DefaultStaleAfter       = 24 * time.Hour
	DefaultHourlySpec       = "0 * * * *"
	DefaultDailySpec        = "0 2 * * *"
	DefaultMaxTokens        = 1000
	DefaultTemperature      = 0.3
	DefaultModel            = "claude-sonnet-4-20250514"
	DefaultDescriptionLimit = 500
)

// SchedulerSettings tunes the case priority scheduler and its scoring calls
type SchedulerSettings struct {
	BatchSize        int           `yaml:"batchSize"`
	BatchDelay       time.Duration `yaml:"batchDelay"`
	CandidateLimit   int           `yaml:"candidateLimit"`
	StaleAfter       time.Duration `yaml:"staleAfter"`
	HourlySpec       string        `yaml:"hourlySpec"`
	DailySpec        string        `yaml:"dailySpec"`
	MaxTokens        int64         `yaml:"maxTokens"`
	Temperature      float64       `yaml:"temperature"`
	Model            string        `yaml:"model"`
	DescriptionLimit int           `yaml:"descriptionLimit"`
}

// DefaultSchedulerSettings returns the settings used when no file is configured
func DefaultSchedulerSettings() SchedulerSettings {
	return SchedulerSettings{
		BatchSize:        DefaultBatchSize,
		BatchDelay:       DefaultBatchDelay,
		CandidateLimit:   DefaultCandidateLimit,
		StaleAfter:       DefaultStaleAfter,
		HourlySpec:       DefaultHourlySpec,
		DailySpec:        DefaultDailySpec,
		MaxTokens:        DefaultMaxTokens,
		Temperature:      DefaultTemperature,
		Model:            DefaultModel,
		DescriptionLimit: DefaultDescriptionLimit,
	}
}

// LoadSchedulerSettings reads a YAML settings file on top of the defaults.
// An empty path returns the defaults. Out of range values are reset to their
// default so a bad file never disables batching or throttling.
func LoadSchedulerSettings(path string) (SchedulerSettings, error) {
	s := DefaultSchedulerSettings()
	if path == "" {
		return s, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read scheduler config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return DefaultSchedulerSettings(), fmt.Errorf("failed to parse scheduler config %s: %w", path, err)
	}
	return s.withDefaults(), nil
}

func (s SchedulerSettings) withDefaults() SchedulerSettings {
	d := DefaultSchedulerSettings()
	if s.BatchSize < 1 {
		s.BatchSize = d.BatchSize
	}
	if s.BatchDelay < 0 {
		s.BatchDelay = d.BatchDelay
	}
	if s.CandidateLimit < 1 {
		s.CandidateLimit = d.CandidateLimit
	}
	if s.StaleAfter <= 0 {
		s.StaleAfter = d.StaleAfter
	}
	if s.HourlySpec == "" {
		s.HourlySpec = d.HourlySpec
	}
	if s.DailySpec == "" {
		s.DailySpec = d.DailySpec
	}
	if s.MaxTokens < 1 {
		s.MaxTokens = d.MaxTokens
	}
	if s.Temperature < 0 || s.Temperature > 1 {
		s.Temperature = d.Temperature
	}
	if s.Model == "" {
		s.Model = d.Model
	}
	if s.DescriptionLimit < 1 {
		s.DescriptionLimit = d.DescriptionLimit
	}
	return s
}
