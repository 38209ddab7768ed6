package request

import "github.com/shopspring/decimal"

type ConstituentInput struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Weight decimal.Decimal `json:"weight"`
	Sector string          `json:"sector"`
}

type UpdateConstituentsRequest struct {
	Constituents []ConstituentInput `json:"constituents"`
}
