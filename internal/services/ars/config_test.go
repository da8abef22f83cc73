package ars

import (
	"errors"
	"testing"
)

func TestPresetConfigsValidate(t *testing.T) {
	for _, preset := range []string{"default", "conservative", "aggressive"} {
		cfg, err := ConfigForPreset(preset)
		if err != nil {
			t.Fatalf("ConfigForPreset(%q): %v", preset, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s preset fails validation: %v", preset, err)
		}
	}
}

func TestConfigForPresetDefaults(t *testing.T) {
	cfg, err := ConfigForPreset("")
	if err != nil {
		t.Fatalf("ConfigForPreset(\"\"): %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("empty preset = %+v, want the default config", cfg)
	}
}

func TestConfigForPresetUnknown(t *testing.T) {
	if _, err := ConfigForPreset("yolo"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestConservativePresetTightens(t *testing.T) {
	base := DefaultConfig()
	c := ConservativeConfig()

	if c.BasePositionSize >= base.BasePositionSize {
		t.Fatalf("conservative base size %v not below default %v", c.BasePositionSize, base.BasePositionSize)
	}
	if c.OutlierStdThreshold >= base.OutlierStdThreshold {
		t.Fatalf("conservative outlier threshold %v not below default %v", c.OutlierStdThreshold, base.OutlierStdThreshold)
	}
	if c.MinSampleSize <= base.MinSampleSize {
		t.Fatalf("conservative min sample %d not above default %d", c.MinSampleSize, base.MinSampleSize)
	}
	if c.MaxDailyDrawdown >= base.MaxDailyDrawdown || c.MaxTotalDrawdown >= base.MaxTotalDrawdown {
		t.Fatalf("conservative drawdown limits %v/%v not tighter than default %v/%v",
			c.MaxDailyDrawdown, c.MaxTotalDrawdown, base.MaxDailyDrawdown, base.MaxTotalDrawdown)
	}
}

func TestAggressivePresetLoosens(t *testing.T) {
	base := DefaultConfig()
	a := AggressiveConfig()

	if a.BasePositionSize <= base.BasePositionSize || a.MaxPositionSize <= base.MaxPositionSize {
		t.Fatalf("aggressive sizes %v/%v not above default %v/%v",
			a.BasePositionSize, a.MaxPositionSize, base.BasePositionSize, base.MaxPositionSize)
	}
	if a.ConvictionScaling <= base.ConvictionScaling {
		t.Fatalf("aggressive conviction scaling %v not above default %v", a.ConvictionScaling, base.ConvictionScaling)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero min size", func(c *Config) { c.MinPositionSize = 0 }},
		{"min above base", func(c *Config) { c.MinPositionSize = c.BasePositionSize * 2 }},
		{"base above max", func(c *Config) { c.BasePositionSize = c.MaxPositionSize * 2 }},
		{"max above one", func(c *Config) { c.MaxPositionSize = 1.5 }},
		{"zero outlier threshold", func(c *Config) { c.OutlierStdThreshold = 0 }},
		{"min sample below two", func(c *Config) { c.MinSampleSize = 1 }},
		{"zero decay", func(c *Config) { c.ConsistencyDecayRate = 0 }},
		{"decay above one", func(c *Config) { c.ConsistencyDecayRate = 1.1 }},
		{"negative scaling", func(c *Config) { c.ConvictionScaling = -1 }},
		{"zero daily limit", func(c *Config) { c.MaxDailyDrawdown = 0 }},
		{"reduction above one", func(c *Config) { c.DrawdownReductionRate = 2 }},
		{"lookback below two", func(c *Config) { c.VolatilityLookbackPeriods = 1 }},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
