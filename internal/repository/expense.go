package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/models"
)

// ExpenseRepository stores expenses.
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// List returns expenses newest first, optionally restricted to a category.
func (r *ExpenseRepository) List(ctx context.Context, category models.ExpenseCategory, p Period) ([]models.Expense, error) {
	dbq := r.db.WithContext(ctx)
	if category != "" {
		dbq = dbq.Where("category = ?", category)
	}
	var out []models.Expense
	err := p.apply(dbq, "date").Order("date DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *ExpenseRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Expense{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("expense", id)
	}
	return nil
}

// Get loads an expense by id.
func (r *ExpenseRepository) Get(ctx context.Context, id uint) (*models.Expense, error) {
	var e models.Expense
	err := r.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("expense", id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Totals sums expense amounts in the period, overall and per category.
func (r *ExpenseRepository) Totals(ctx context.Context, p Period) (decimal.Decimal, map[models.ExpenseCategory]decimal.Decimal, error) {
	var rows []models.Expense
	if err := p.apply(r.db.WithContext(ctx).Select("category", "amount"), "date").Find(&rows).Error; err != nil {
		return decimal.Zero, nil, err
	}
	total := decimal.Zero
	byCategory := make(map[models.ExpenseCategory]decimal.Decimal)
	for _, e := range rows {
		total = total.Add(e.Amount)
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}
	return total, byCategory, nil
}
