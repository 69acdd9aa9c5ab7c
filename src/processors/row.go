package processors

import "github.com/username/markupx/backend/src/models"

// ComputeRow evaluates the full cost pipeline for one instrument. It is a pure
// function of its inputs: no state is held between calls, so rows can be
// computed in parallel and recomputed idempotently.
func ComputeRow(
	spec models.InstrumentSpec,
	cls models.Classification,
	price models.PriceRecord,
	rates models.RateTable,
	settings models.Settings,
) models.ReportRow {
	lots := settings.Lots
	if spec.LotsOverride != nil && *spec.LotsOverride > 0 {
		lots = *spec.LotsOverride
	}
	markupPoints := settings.MarkupPoints
	if spec.MarkupPointsOverride != nil && *spec.MarkupPointsOverride >= 0 {
		markupPoints = *spec.MarkupPointsOverride
	}

	pv, warnings := computePointAndNotional(spec, cls, price.Price, rates, lots, markupPoints, nil)

	lpUSD, ibUSD := ComputeCommissions(pv.NotionalUSD, pv.PointValueUSD, lots, settings)
	brokerageUSD := ComputeBrokerage(pv.MarkupUSD, lpUSD, ibUSD)

	be := ComputeBreakeven(lpUSD, ibUSD, pv.PointValueUSD, lots, spec.Digits, markupPoints, settings.BreakevenBufferPoints)

	// Re-run the revenue side with the suggested markup to detect rows whose
	// commissions cannot be covered even after the suggested fix.
	suggestedMarkupUSD := pv.PointValueUSD * be.Suggested * lots
	suggestedLoss := ComputeBrokerage(suggestedMarkupUSD, lpUSD, ibUSD) < 0

	return models.ReportRow{
		SymbolName:     spec.SymbolName,
		ProfitCurrency: spec.ProfitCurrency,
		Digits:         spec.Digits,
		ContractSize:   spec.ContractSize,
		IsFX:           cls.IsFX,
		BaseCurrency:   cls.BaseCurrency,
		QuoteCurrency:  cls.QuoteCurrency,
		Price:          price.Price,
		PriceSource:    price.Source,
		Cost: models.CostRecord{
			PointSize:                 pv.PointSize,
			PointValueProfitCcyPerLot: pv.PointValueProfit,
			PointValueUSDPerLot:       pv.PointValueUSD,
			MarkupUSD:                 pv.MarkupUSD,
			NotionalUSD:               pv.NotionalUSD,
			LPCommissionUSD:           lpUSD,
			IBCommissionUSD:           ibUSD,
			BrokerageUSD:              brokerageUSD,
			BreakevenPoints:           be.Points,
			BreakevenPointsRounded:    be.PointsRounded,
			SuggestedMarkupPoints:     be.Suggested,
		},
		LossFlag:              brokerageUSD < 0,
		SuggestedLossFlag:     suggestedLoss,
		BreakevenUndefined:    be.Undefined,
		EffectiveLots:         lots,
		EffectiveMarkupPoints: markupPoints,
		Warnings:              warnings,
	}
}
