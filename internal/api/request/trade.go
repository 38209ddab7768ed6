package request

import "github.com/shopspring/decimal"

type AddTradeRequest struct {
	TradeType       string           `json:"tradeType"`
	Action          string           `json:"action"`
	Symbol          string           `json:"symbol"`
	Name            string           `json:"name"`
	Shares          decimal.Decimal  `json:"shares"`
	CurrentPrice    decimal.Decimal  `json:"currentPrice"`
	Reason          string           `json:"reason"`
	TaxImpact       *decimal.Decimal `json:"taxImpact,omitempty"`
	SwapTarget      string           `json:"swapTarget,omitempty"`
	WashSaleBlocked bool             `json:"washSaleBlocked"`
	SourceID        string           `json:"sourceId,omitempty"`
}

type BulkTradeRequest struct {
	TradeType string `json:"tradeType,omitempty"`
}
