package processors

import "github.com/username/markupx/backend/src/models"

// ComputeCommissions returns the LP and IB commissions in USD for one row.
//
// LP commission is charged per $1M of notional, per side; sides is 1 for
// one-way and 2 for round-trip charging. IB commission never multiplies by
// sides: the asymmetry is a business rule, not an oversight.
func ComputeCommissions(notionalUSD, pointValueUSDPerLot, lots float64, s models.Settings) (lpUSD, ibUSD float64) {
	lpUSD = (notionalUSD / 1_000_000.0) * s.LPRatePerMillion * float64(s.LPSides)

	switch s.IBMode {
	case models.IBModeFixedPerLot:
		ibUSD = s.IBFixedPerLot * lots
	case models.IBModePointWise:
		ibUSD = pointValueUSDPerLot * s.IBPoints * lots
	default:
		ibUSD = 0
	}
	return lpUSD, ibUSD
}
