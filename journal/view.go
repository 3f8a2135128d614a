package journal

import (
	"context"

	"trade-journal/models"
)

// TradeListView is everything the trade list page renders.
type TradeListView struct {
	Trades       []models.Trade `json:"trades"`
	CurrentSort  string         `json:"current_sort"`
	CurrentOrder string         `json:"current_order"`
	Summary
}

// TradeList loads the user's trades in the requested order and summarizes them.
// The portfolio is looked up once; a user without one has a net worth of zero.
func (s *Store) TradeList(ctx context.Context, userID uint, opts ListOptions) (*TradeListView, error) {
	trades, err := s.ListTrades(ctx, userID, opts.Resolve())
	if err != nil {
		return nil, err
	}

	portfolio, err := s.FindPortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &TradeListView{
		Trades:       trades,
		CurrentSort:  opts.SortBy,
		CurrentOrder: opts.Order,
		Summary:      Summarize(trades, portfolio),
	}, nil
}
