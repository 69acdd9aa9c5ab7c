package models

import "fmt"

// IBMode selects how the introducing-broker commission is computed.
type IBMode string

const (
	IBModeNone        IBMode = "none"
	IBModeFixedPerLot IBMode = "fixed_per_lot"
	IBModePointWise   IBMode = "point_wise"
)

// Settings carries the per-run scalar inputs of the cost engine. All values are
// user supplied and validated before any row is computed.
type Settings struct {
	Lots                  float64 `json:"lots"`
	MarkupPoints          float64 `json:"markup_points"`
	LPRatePerMillion      float64 `json:"lp_rate_per_million_per_side"`
	LPSides               int     `json:"lp_sides"`
	IBMode                IBMode  `json:"ib_mode"`
	IBFixedPerLot         float64 `json:"ib_fixed_per_lot"`
	IBPoints              float64 `json:"ib_points"`
	BreakevenBufferPoints float64 `json:"breakeven_buffer_points"`
}

// DefaultSettings mirrors the defaults of the original sidebar controls.
func DefaultSettings() Settings {
	return Settings{
		Lots:                  1.0,
		MarkupPoints:          20.0,
		LPRatePerMillion:      7.0,
		LPSides:               2,
		IBMode:                IBModeNone,
		IBFixedPerLot:         0,
		IBPoints:              0,
		BreakevenBufferPoints: 0,
	}
}

// Validate checks every field against its documented range. The returned error
// names the offending field so the caller can surface an actionable message.
func (s Settings) Validate() error {
	if s.Lots <= 0 {
		return fmt.Errorf("lots must be greater than 0, got %g", s.Lots)
	}
	if s.MarkupPoints < 0 {
		return fmt.Errorf("markup_points must not be negative, got %g", s.MarkupPoints)
	}
	if s.LPRatePerMillion < 0 {
		return fmt.Errorf("lp_rate_per_million_per_side must not be negative, got %g", s.LPRatePerMillion)
	}
	if s.LPSides != 1 && s.LPSides != 2 {
		return fmt.Errorf("lp_sides must be 1 or 2, got %d", s.LPSides)
	}
	switch s.IBMode {
	case IBModeNone, IBModeFixedPerLot, IBModePointWise:
	default:
		return fmt.Errorf("ib_mode must be one of none, fixed_per_lot, point_wise, got %q", s.IBMode)
	}
	if s.IBFixedPerLot < 0 {
		return fmt.Errorf("ib_fixed_per_lot must not be negative, got %g", s.IBFixedPerLot)
	}
	if s.IBPoints < 0 {
		return fmt.Errorf("ib_points must not be negative, got %g", s.IBPoints)
	}
	if s.BreakevenBufferPoints < 0 {
		return fmt.Errorf("breakeven_buffer_points must not be negative, got %g", s.BreakevenBufferPoints)
	}
	return nil
}
