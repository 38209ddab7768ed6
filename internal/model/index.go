package model

import "github.com/shopspring/decimal"

// IndexConstituent is one member of the tracked index with its target
// weight. Weights are percentages at four decimal places.
type IndexConstituent struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Weight decimal.Decimal `json:"weight"`
	Sector string          `json:"sector"`
}

// TargetAllocation compares one constituent's target value against the
// currently held value.
type TargetAllocation struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	TargetWeight  decimal.Decimal `json:"targetWeight"`
	TargetValue   decimal.Decimal `json:"targetValue"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	Difference    decimal.Decimal `json:"difference"`
	DifferencePct decimal.Decimal `json:"differencePct"`
}

// SectorSummary aggregates constituent weights by sector.
type SectorSummary struct {
	Sector string          `json:"sector"`
	Weight decimal.Decimal `json:"weight"`
	Count  int             `json:"count"`
}
