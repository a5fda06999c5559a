package analysis

import "errors"

// Default tuning. All of these are configuration, not constants baked into
// the pipeline.
const (
	DefaultWindowSize            = 10
	DefaultHyperThreshold        = 180
	DefaultHypoThreshold         = 70
	DefaultSampleIntervalMinutes = 5
	DefaultMaxDelta15Min         = 40
)

// Settings holds the physiological tuning for prediction and classification.
type Settings struct {
	WindowSize            int     `yaml:"window_size"`
	HyperThreshold        float64 `yaml:"hyper_threshold"`
	HypoThreshold         float64 `yaml:"hypo_threshold"`
	SampleIntervalMinutes float64 `yaml:"sample_interval_minutes"`
	MaxDelta15Min         float64 `yaml:"max_delta_15_min"`
}

// DefaultSettings returns the standard tuning.
func DefaultSettings() Settings {
	return Settings{
		WindowSize:            DefaultWindowSize,
		HyperThreshold:        DefaultHyperThreshold,
		HypoThreshold:         DefaultHypoThreshold,
		SampleIntervalMinutes: DefaultSampleIntervalMinutes,
		MaxDelta15Min:         DefaultMaxDelta15Min,
	}
}

// Validate checks settings invariants.
func (s Settings) Validate() error {
	if s.WindowSize <= 0 {
		return errors.New("analysis settings: window size must be positive")
	}
	if s.HyperThreshold <= s.HypoThreshold {
		return errors.New("analysis settings: hyper threshold must exceed hypo threshold")
	}
	if s.SampleIntervalMinutes <= 0 {
		return errors.New("analysis settings: sample interval must be positive")
	}
	if s.MaxDelta15Min <= 0 {
		return errors.New("analysis settings: max delta must be positive")
	}
	return nil
}

// MaxDelta is the extrapolation bound scaled from the 15-minute limit to the
// actual sampling interval.
func (s Settings) MaxDelta() float64 {
	return s.MaxDelta15Min * (s.SampleIntervalMinutes / 15)
}
