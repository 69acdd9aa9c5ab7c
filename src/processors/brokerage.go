package processors

import "math"

// roundingEpsilon keeps breakeven values that already sit on a step boundary
// from being pushed up a full extra step by float noise.
const roundingEpsilon = 1e-9

// BreakevenResult holds the inverse calculation: the markup in points needed
// to cover both commissions, rounded up to the instrument's step.
type BreakevenResult struct {
	Points        float64 // raw breakeven markup in points
	PointsRounded float64 // rounded up to the step
	Suggested     float64 // max(current markup, rounded + buffer)
	Undefined     bool    // point value per lot is zero, breakeven has no meaning
}

// ComputeBrokerage is the net P&L figure: markup revenue minus both
// commission costs.
func ComputeBrokerage(markupUSD, lpUSD, ibUSD float64) float64 {
	return markupUSD - lpUSD - ibUSD
}

// breakevenStep picks the rounding granularity: coarse instruments (indices,
// Digits <= 1) step by 0.1 points, fine instruments (FX) by a whole point.
func breakevenStep(digits int) float64 {
	if digits <= 1 {
		return 0.1
	}
	return 1.0
}

// ComputeBreakeven inverts the brokerage formula: how many markup points are
// needed so commissions are covered. The suggestion never lowers the current
// markup, only raises it, plus an optional safety buffer in points.
func ComputeBreakeven(lpUSD, ibUSD, pointValueUSDPerLot, lots float64, digits int, currentMarkupPoints, bufferPoints float64) BreakevenResult {
	var res BreakevenResult

	breakevenUSD := lpUSD + ibUSD
	denom := pointValueUSDPerLot * lots
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		res.Undefined = true
		res.Suggested = currentMarkupPoints
		return res
	}

	res.Points = breakevenUSD / denom

	step := breakevenStep(digits)
	res.PointsRounded = math.Ceil(res.Points/step-roundingEpsilon) * step

	res.Suggested = math.Max(currentMarkupPoints, res.PointsRounded+bufferPoints)
	return res
}
