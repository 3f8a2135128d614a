package journal

import (
	"github.com/shopspring/decimal"

	"trade-journal/models"
)

// Summary holds the performance figures shown above the trade list.
type Summary struct {
	TotalPnL        decimal.Decimal `json:"total_pnl"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	ClosedTrades    int             `json:"closed_trades"`
	WinningTrades   int             `json:"winning_trades"`
	WinRate         float64         `json:"win_rate"`
	BestPerformer   *models.Trade   `json:"best_performer"`
	NetWorth        decimal.Decimal `json:"net_worth"`
}

// Summarize computes the statistics over trades in their given order.
//
// TotalPnL counts every trade with a recorded pnl whatever its status, while
// the win rate and best performer only look at closed trades. A pnl of zero
// is not a win. Ties for best performer go to the first trade in order.
func Summarize(trades []models.Trade, portfolio *models.Portfolio) Summary {
	s := Summary{
		TotalPnL:        decimal.Zero,
		TotalInvestment: decimal.Zero,
		NetWorth:        decimal.Zero,
	}

	for i := range trades {
		tr := &trades[i]
		if tr.PnL != nil {
			s.TotalPnL = s.TotalPnL.Add(*tr.PnL)
		}
		s.TotalInvestment = s.TotalInvestment.Add(tr.Investment())

		if !tr.IsClosed() {
			continue
		}
		s.ClosedTrades++
		if tr.PnL == nil {
			continue
		}
		if tr.PnL.IsPositive() {
			s.WinningTrades++
		}
		if s.BestPerformer == nil || tr.PnL.GreaterThan(*s.BestPerformer.PnL) {
			s.BestPerformer = tr
		}
	}

	if s.ClosedTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.ClosedTrades) * 100
	}
	if portfolio != nil {
		s.NetWorth = portfolio.CurrentBalance
	}
	return s
}
