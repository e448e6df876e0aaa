package services

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/diewo77/ecotrim/internal/billing"
	"github.com/diewo77/ecotrim/internal/models"
	"github.com/diewo77/ecotrim/internal/repository"
)

// RecentInvoices is how many invoices the dashboard lists.
const RecentInvoices = 5

// DocumentStats are the aggregate queries the dashboard runs.
type DocumentStats interface {
	SumTotals(ctx context.Context, kind billing.Kind, status billing.Status, p repository.Period) (decimal.Decimal, error)
	Count(ctx context.Context, kind billing.Kind, status billing.Status, p repository.Period) (int64, error)
	List(ctx context.Context, q repository.DocumentQuery) ([]models.Document, int64, error)
}

// ExpenseStats sums expenses.
type ExpenseStats interface {
	Totals(ctx context.Context, p repository.Period) (decimal.Decimal, map[models.ExpenseCategory]decimal.Decimal, error)
}

// Summary is the dashboard for one period.
type Summary struct {
	Period       repository.Period `json:"-"`
	Revenue      decimal.Decimal   `json:"revenue"`
	Pending      decimal.Decimal   `json:"pending"`
	Expenses     decimal.Decimal   `json:"expenses"`
	NetProfit    decimal.Decimal   `json:"net_profit"`
	PaidCount    int64             `json:"paid_count"`
	UnpaidCount  int64             `json:"unpaid_count"`
	ActiveQuotes int64             `json:"active_quotes"`

	ExpensesByCategory map[models.ExpenseCategory]decimal.Decimal `json:"expenses_by_category"`
	Recent             []models.Document                          `json:"recent_invoices"`
}

type DashboardService struct {
	docs     DocumentStats
	expenses ExpenseStats
}

func NewDashboardService(docs DocumentStats, expenses ExpenseStats) *DashboardService {
	return &DashboardService{docs: docs, expenses: expenses}
}

// Summary runs the aggregates concurrently. Revenue counts paid invoices,
// pending counts unpaid ones, and net profit is revenue minus expenses.
func (s *DashboardService) Summary(ctx context.Context, p repository.Period) (*Summary, error) {
	out := &Summary{Period: p}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Revenue, err = s.docs.SumTotals(ctx, billing.KindInvoice, billing.StatusPaid, p)
		return err
	})
	g.Go(func() (err error) {
		out.Pending, err = s.docs.SumTotals(ctx, billing.KindInvoice, billing.StatusUnpaid, p)
		return err
	})
	g.Go(func() (err error) {
		out.PaidCount, err = s.docs.Count(ctx, billing.KindInvoice, billing.StatusPaid, p)
		return err
	})
	g.Go(func() (err error) {
		out.UnpaidCount, err = s.docs.Count(ctx, billing.KindInvoice, billing.StatusUnpaid, p)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveQuotes, err = s.docs.Count(ctx, billing.KindQuote, billing.StatusPending, p)
		return err
	})
	g.Go(func() (err error) {
		out.Expenses, out.ExpensesByCategory, err = s.expenses.Totals(ctx, p)
		return err
	})
	g.Go(func() (err error) {
		out.Recent, _, err = s.docs.List(ctx, repository.DocumentQuery{
			Kind:   billing.KindInvoice,
			Period: p,
			Limit:  RecentInvoices,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.NetProfit = out.Revenue.Sub(out.Expenses)
	return out, nil
}
