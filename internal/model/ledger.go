package model

import "github.com/shopspring/decimal"

// LossLedgerYear accumulates realized losses for one tax year. Mutated
// additively on every realized loss; the carryforward and offset fields are
// bookkeeping the operator maintains at filing time.
type LossLedgerYear struct {
	Year             int             `json:"year"`
	ShortTermLosses  decimal.Decimal `json:"shortTermLosses"`
	LongTermLosses   decimal.Decimal `json:"longTermLosses"`
	UsedAgainstGains decimal.Decimal `json:"usedAgainstGains"`
	Carryforward     decimal.Decimal `json:"carryforward"`
}

// Total returns short-term plus long-term losses for the year.
func (l LossLedgerYear) Total() decimal.Decimal {
	return l.ShortTermLosses.Add(l.LongTermLosses)
}
