package inventory

import (
	"context"
	"fmt"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Reader is the query side of the stock ledger.
type Reader interface {
	Balances(ctx context.Context, companyID int64, page shared.PageRequest, filter BalanceFilter) ([]Balance, int, error)
	Card(ctx context.Context, companyID int64, filter StockCardFilter) ([]StockCardEntry, error)
}

// Service answers stock queries.
type Service struct {
	reader Reader
}

func NewService(reader Reader) *Service {
	return &Service{reader: reader}
}

func (s *Service) Balances(ctx context.Context, companyID int64, page shared.PageRequest, filter BalanceFilter) (shared.Page[Balance], error) {
	items, total, err := s.reader.Balances(ctx, companyID, page, filter)
	if err != nil {
		return shared.Page[Balance]{}, fmt.Errorf("list stock balances: %w", err)
	}
	return shared.NewPage(items, page, total), nil
}

func (s *Service) Card(ctx context.Context, companyID int64, filter StockCardFilter) ([]StockCardEntry, error) {
	if filter.WarehouseID <= 0 || filter.ProductID <= 0 {
		return nil, ErrCardScope
	}
	return s.reader.Card(ctx, companyID, filter)
}
