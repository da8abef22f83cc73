package ars

// PositionSizer combines conviction, regime multiplier, and drawdown state
// into a bounded recommended allocation.
type PositionSizer struct {
	base    float64
	min     float64
	max     float64
	scaling float64
}

// NewPositionSizer builds a sizer from the stabilizer config.
func NewPositionSizer(cfg Config) *PositionSizer {
	return &PositionSizer{
		base:    cfg.BasePositionSize,
		min:     cfg.MinPositionSize,
		max:     cfg.MaxPositionSize,
		scaling: cfg.ConvictionScaling,
	}
}

// Size returns the recommended portfolio fraction. Conviction above the
// 0.5 midpoint scales size up, below scales down; the result is clamped
// to the configured bounds and then capped by remaining capacity.
func (s *PositionSizer) Size(arsConviction, regimeMultiplier, drawdownFactor, currentExposure float64) float64 {
	convictionFactor := 1 + s.scaling*(arsConviction-0.5)
	if convictionFactor < 0 {
		convictionFactor = 0
	}

	size := s.base * convictionFactor * regimeMultiplier * drawdownFactor
	if size < s.min {
		size = s.min
	}
	if size > s.max {
		size = s.max
	}

	capacity := 1 - currentExposure
	if capacity < 0 {
		capacity = 0
	}
	if size > capacity {
		size = capacity
	}
	return size
}
