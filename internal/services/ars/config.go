package ars

import (
	"fmt"
	"math"
)

// Config holds every tunable of the adaptive risk stabilizer. Values are
// fixed at construction; presets derive from Default by scaling, never by
// branching.
type Config struct {
	// Noise filtering
	OutlierStdThreshold float64 `yaml:"outlier_std_threshold"`
	MinSampleSize       int     `yaml:"min_sample_size"`

	// Consistency scoring
	ConsistencyLookbackDays int     `yaml:"consistency_lookback_days"`
	MinTradesForConsistency int     `yaml:"min_trades_for_consistency"`
	ConsistencyDecayRate    float64 `yaml:"consistency_decay_rate"`

	// Position sizing
	BasePositionSize  float64 `yaml:"base_position_size"`
	MaxPositionSize   float64 `yaml:"max_position_size"`
	MinPositionSize   float64 `yaml:"min_position_size"`
	ConvictionScaling float64 `yaml:"conviction_scaling"`

	// Risk management
	MaxDailyDrawdown      float64 `yaml:"max_daily_drawdown"`
	MaxTotalDrawdown      float64 `yaml:"max_total_drawdown"`
	DrawdownReductionRate float64 `yaml:"drawdown_reduction_rate"`

	// Market regime
	VolatilityLookbackPeriods int     `yaml:"volatility_lookback_periods"`
	HighVolatilityThreshold   float64 `yaml:"high_volatility_threshold"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		OutlierStdThreshold:       2.0,
		MinSampleSize:             5,
		ConsistencyLookbackDays:   90,
		MinTradesForConsistency:   20,
		ConsistencyDecayRate:      0.95,
		BasePositionSize:          0.05,
		MaxPositionSize:           0.15,
		MinPositionSize:           0.01,
		ConvictionScaling:         2.0,
		MaxDailyDrawdown:          0.10,
		MaxTotalDrawdown:          0.25,
		DrawdownReductionRate:     0.5,
		VolatilityLookbackPeriods: 20,
		HighVolatilityThreshold:   0.3,
	}
}

// ConservativeConfig scales the default toward smaller sizes, tighter
// outlier rejection, and tighter drawdown limits.
func ConservativeConfig() Config {
	c := DefaultConfig()
	c.BasePositionSize *= 0.6
	c.MaxPositionSize *= 2.0 / 3.0
	c.OutlierStdThreshold *= 0.75
	c.MinSampleSize = int(math.Round(float64(c.MinSampleSize) * 1.4))
	c.ConvictionScaling *= 0.75
	c.MaxDailyDrawdown *= 0.5
	c.MaxTotalDrawdown *= 0.6
	return c
}

// AggressiveConfig scales the default toward larger sizes and stronger
// conviction response.
func AggressiveConfig() Config {
	c := DefaultConfig()
	c.BasePositionSize *= 1.6
	c.MaxPositionSize *= 4.0 / 3.0
	c.ConvictionScaling *= 1.25
	c.MaxDailyDrawdown *= 1.5
	c.MaxTotalDrawdown *= 1.4
	return c
}

// ConfigForPreset maps a named preset to its configuration.
func ConfigForPreset(preset string) (Config, error) {
	switch preset {
	case "", "default":
		return DefaultConfig(), nil
	case "conservative":
		return ConservativeConfig(), nil
	case "aggressive":
		return AggressiveConfig(), nil
	default:
		return Config{}, fmt.Errorf("unknown ars preset %q: %w", preset, ErrInvalidConfig)
	}
}

// Validate rejects inconsistent configurations. Called once at stabilizer
// construction; violations are never silently clamped.
func (c Config) Validate() error {
	if c.MinPositionSize <= 0 {
		return fmt.Errorf("min_position_size must be > 0: %w", ErrInvalidConfig)
	}
	if c.MinPositionSize > c.BasePositionSize {
		return fmt.Errorf("min_position_size %.4f > base_position_size %.4f: %w", c.MinPositionSize, c.BasePositionSize, ErrInvalidConfig)
	}
	if c.BasePositionSize > c.MaxPositionSize {
		return fmt.Errorf("base_position_size %.4f > max_position_size %.4f: %w", c.BasePositionSize, c.MaxPositionSize, ErrInvalidConfig)
	}
	if c.MaxPositionSize > 1 {
		return fmt.Errorf("max_position_size %.4f > 1: %w", c.MaxPositionSize, ErrInvalidConfig)
	}
	if c.OutlierStdThreshold <= 0 {
		return fmt.Errorf("outlier_std_threshold must be > 0: %w", ErrInvalidConfig)
	}
	if c.MinSampleSize < 2 {
		return fmt.Errorf("min_sample_size must be >= 2: %w", ErrInvalidConfig)
	}
	if c.MinTradesForConsistency < 1 {
		return fmt.Errorf("min_trades_for_consistency must be >= 1: %w", ErrInvalidConfig)
	}
	if c.ConsistencyDecayRate <= 0 || c.ConsistencyDecayRate > 1 {
		return fmt.Errorf("consistency_decay_rate must be in (0,1]: %w", ErrInvalidConfig)
	}
	if c.ConvictionScaling < 0 {
		return fmt.Errorf("conviction_scaling must be >= 0: %w", ErrInvalidConfig)
	}
	if c.MaxDailyDrawdown <= 0 || c.MaxTotalDrawdown <= 0 {
		return fmt.Errorf("drawdown limits must be > 0: %w", ErrInvalidConfig)
	}
	if c.DrawdownReductionRate <= 0 || c.DrawdownReductionRate > 1 {
		return fmt.Errorf("drawdown_reduction_rate must be in (0,1]: %w", ErrInvalidConfig)
	}
	if c.VolatilityLookbackPeriods < 2 {
		return fmt.Errorf("volatility_lookback_periods must be >= 2: %w", ErrInvalidConfig)
	}
	if c.HighVolatilityThreshold <= 0 {
		return fmt.Errorf("high_volatility_threshold must be > 0: %w", ErrInvalidConfig)
	}
	return nil
}
