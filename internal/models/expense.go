package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory is the fixed list of expense buckets.
type ExpenseCategory string

const (
	ExpenseFuel      ExpenseCategory = "Fuel"
	ExpenseWages     ExpenseCategory = "Wages"
	ExpenseMaterials ExpenseCategory = "Materials"
	ExpenseTools     ExpenseCategory = "Tools"
	ExpenseFood      ExpenseCategory = "Food"
	ExpenseDisposal  ExpenseCategory = "Disposal"
	ExpenseOther     ExpenseCategory = "Other"
)

// ExpenseCategories lists every category in display order.
func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		ExpenseFuel, ExpenseWages, ExpenseMaterials, ExpenseTools,
		ExpenseFood, ExpenseDisposal, ExpenseOther,
	}
}

// IsValid reports whether c is one of the known categories.
func (c ExpenseCategory) IsValid() bool {
	for _, known := range ExpenseCategories() {
		if c == known {
			return true
		}
	}
	return false
}

func (c ExpenseCategory) String() string { return string(c) }

// Expense is money spent by the business, independent of documents.
type Expense struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Date        time.Time       `gorm:"not null;index" json:"date"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Category    ExpenseCategory `gorm:"size:20;not null;index" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
}
