package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/ecotrim/internal/billing"
)

// Column bounds of the money fields. Inputs outside them cannot be stored
// without rounding or overflow, so drafts are checked against them first.
const (
	QuantityPlaces = 3
	PricePlaces    = 2
	TaxRatePlaces  = 4
)

var (
	MaxQuantity  = decimal.RequireFromString("999999.999")
	MaxUnitPrice = decimal.RequireFromString("99999999.99")
	MaxDiscount  = decimal.RequireFromString("9999999999.99")
	MaxSubtotal  = decimal.RequireFromString("99999999999999.99999")
)

// Document is a quote or an invoice. Both kinds share one table and are told
// apart by Kind; numbers are unique per kind.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind   billing.Kind `gorm:"size:20;not null;uniqueIndex:idx_documents_kind_number,priority:1" json:"kind"`
	Number string       `gorm:"size:50;not null;uniqueIndex:idx_documents_kind_number,priority:2" json:"number"`

	IssueDate  time.Time  `gorm:"not null;index" json:"date"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`

	ProjectTitle string `gorm:"size:255" json:"project_title,omitempty"`
	Notes        string `gorm:"type:text" json:"notes,omitempty"`
	Terms        string `gorm:"type:text" json:"terms,omitempty"`

	TaxRate  decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0" json:"tax_rate"`
	Discount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	Subtotal decimal.Decimal `gorm:"type:decimal(20,5);not null;default:0" json:"subtotal"`
	Tax      decimal.Decimal `gorm:"type:decimal(24,9);not null;default:0" json:"tax"`
	Total    decimal.Decimal `gorm:"type:decimal(17,2);not null;default:0" json:"total"`

	Status billing.Status `gorm:"size:20;not null;index" json:"status"`

	Items []DocumentItem `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"items"`
}

// DocumentItem is one line of a document. It has no life of its own.
type DocumentItem struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	DocumentID uint `gorm:"index;not null" json:"-"`
	Position   int  `gorm:"not null;default:0" json:"position"`

	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(20,5);not null" json:"line_total"`
}

// Lines returns the quantity / price pairs in item order.
func (d *Document) Lines() []billing.Line {
	lines := make([]billing.Line, len(d.Items))
	for i, it := range d.Items {
		lines[i] = billing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return lines
}

// ApplyTotals recomputes line totals and the document totals from the items.
func (d *Document) ApplyTotals() billing.Totals {
	for i := range d.Items {
		d.Items[i].Position = i
		d.Items[i].LineTotal = billing.LineTotal(d.Items[i].Quantity, d.Items[i].UnitPrice)
	}
	t := billing.DocumentTotals(d.Lines(), d.TaxRate, d.Discount)
	d.Subtotal, d.Tax, d.Total = t.Subtotal, t.Tax, t.Total
	return t
}

// IsInvoice reports whether the document is an invoice.
func (d *Document) IsInvoice() bool { return d.Kind == billing.KindInvoice }

// ClientName is safe to call when Client was not preloaded.
func (d *Document) ClientName() string {
	if d.Client == nil {
		return ""
	}
	return d.Client.Name
}
