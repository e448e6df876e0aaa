package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/models"
	"github.com/diewo77/ecotrim/internal/repository"
	"github.com/diewo77/ecotrim/validation"
)

// ExpenseInput is the payload of the expense form.
type ExpenseInput struct {
	Date        string          `json:"date" schema:"date" validate:"omitempty,datetime=2006-01-02"`
	Description string          `json:"description" schema:"description" validate:"required,max=255"`
	Category    string          `json:"category" schema:"category"`
	Amount      decimal.Decimal `json:"amount" schema:"amount"`
}

// ExpenseStore is the persistence ExpenseService needs.
type ExpenseStore interface {
	List(ctx context.Context, category models.ExpenseCategory, p repository.Period) ([]models.Expense, error)
	Create(ctx context.Context, e *models.Expense) error
	Delete(ctx context.Context, id uint) error
	Totals(ctx context.Context, p repository.Period) (decimal.Decimal, map[models.ExpenseCategory]decimal.Decimal, error)
}

type ExpenseService struct {
	store ExpenseStore
	log   *zap.Logger
	now   func() time.Time
}

func NewExpenseService(store ExpenseStore, log *zap.Logger) *ExpenseService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExpenseService{store: store, log: log, now: time.Now}
}

func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	v := validation.Struct(in)
	validation.Required("category", in.Category, v)
	validation.NonNegative("amount", in.Amount, v)
	cat := models.ExpenseCategory(strings.TrimSpace(in.Category))
	if _, ok := v["category"]; !ok && !cat.IsValid() {
		v["category"] = "invalid_choice"
	}
	if err := apperr.NewValidation(v); err != nil {
		return nil, err
	}
	date := s.now().UTC().Truncate(24 * time.Hour)
	if in.Date != "" {
		date, _ = time.Parse(dateLayout, in.Date)
	}
	e := &models.Expense{
		Date:        date,
		Description: strings.TrimSpace(in.Description),
		Category:    cat,
		Amount:      in.Amount,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	s.log.Info("expense recorded", zap.String("category", cat.String()), zap.String("amount", e.Amount.StringFixed(2)))
	return e, nil
}

// List filters by category when one is given; an unknown category is an error.
func (s *ExpenseService) List(ctx context.Context, category string, p repository.Period) ([]models.Expense, error) {
	cat := models.ExpenseCategory(category)
	if cat != "" && !cat.IsValid() {
		return nil, apperr.NewValidation(map[string]string{"category": "invalid_choice"})
	}
	return s.store.List(ctx, cat, p)
}

func (s *ExpenseService) Delete(ctx context.Context, id uint) error {
	return s.store.Delete(ctx, id)
}

func (s *ExpenseService) Totals(ctx context.Context, p repository.Period) (decimal.Decimal, map[models.ExpenseCategory]decimal.Decimal, error) {
	return s.store.Totals(ctx, p)
}
