package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/billing"
	"github.com/diewo77/ecotrim/internal/metrics"
	"github.com/diewo77/ecotrim/internal/models"
	"github.com/diewo77/ecotrim/internal/repository"
	"github.com/diewo77/ecotrim/internal/settings"
	"github.com/diewo77/ecotrim/validation"
)

const dateLayout = "2006-01-02"

// DraftItem is one requested line.
type DraftItem struct {
	Description string          `json:"description" schema:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" schema:"quantity" validate:"gte=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" schema:"unit_price" validate:"gte=0"`
}

// Draft is the payload used to create a quote or an invoice. Number, totals
// and status are never taken from it.
type Draft struct {
	ClientID     uint            `json:"client_id" schema:"client_id" validate:"required"`
	Date         string          `json:"date" schema:"date" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil   string          `json:"valid_until" schema:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	ProjectTitle string          `json:"project_title" schema:"project_title" validate:"max=255"`
	Notes        string          `json:"notes" schema:"notes" validate:"max=4000"`
	Terms        string          `json:"terms" schema:"terms" validate:"max=4000"`
	Discount     decimal.Decimal `json:"discount" schema:"discount" validate:"gte=0"`
	TaxRate      decimal.Decimal `json:"tax_rate" schema:"tax_rate"`
	Items        []DraftItem     `json:"items" schema:"items" validate:"dive"`
}

// DocumentStore is the persistence DocumentService needs.
type DocumentStore interface {
	CreateNumbered(ctx context.Context, kind billing.Kind, build repository.BuildFunc) (*models.Document, error)
	Get(ctx context.Context, kind billing.Kind, id uint) (*models.Document, error)
	List(ctx context.Context, q repository.DocumentQuery) ([]models.Document, int64, error)
	UpdateStatus(ctx context.Context, kind billing.Kind, id uint, next func(billing.Status) (billing.Status, error)) (*models.Document, error)
	Delete(ctx context.Context, kind billing.Kind, id uint) error
}

// ClientLookup tells whether a client exists.
type ClientLookup interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// Profile supplies the default terms.
type Profile interface {
	Current() settings.Settings
}

type DocumentService struct {
	docs    DocumentStore
	clients ClientLookup
	profile Profile
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewDocumentService(docs DocumentStore, clients ClientLookup, profile Profile, m *metrics.Metrics, log *zap.Logger) *DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentService{docs: docs, clients: clients, profile: profile, metrics: m, log: log, now: time.Now}
}

// Create validates d, numbers it and stores it. A numbering conflict is
// retried once with a freshly read latest number; a second conflict is
// returned to the caller.
func (s *DocumentService) Create(ctx context.Context, kind billing.Kind, d Draft) (*models.Document, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	issue, validUntil, err := s.checkDraft(ctx, d)
	if err != nil {
		return nil, err
	}
	terms := strings.TrimSpace(d.Terms)
	if terms == "" && s.profile != nil {
		terms = s.profile.Current().Terms
	}

	build := func(last *billing.Latest) (*models.Document, error) {
		number, err := billing.NextNumber(kind, last)
		if err != nil {
			return nil, err
		}
		doc := &models.Document{
			Kind:         kind,
			Number:       number,
			IssueDate:    issue,
			ValidUntil:   validUntil,
			ClientID:     d.ClientID,
			ProjectTitle: strings.TrimSpace(d.ProjectTitle),
			Notes:        d.Notes,
			Terms:        terms,
			TaxRate:      d.TaxRate,
			Discount:     d.Discount,
			Status:       billing.InitialStatus(kind),
			Items:        make([]models.DocumentItem, len(d.Items)),
		}
		for i, it := range d.Items {
			doc.Items[i] = models.DocumentItem{
				Description: strings.TrimSpace(it.Description),
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
			}
		}
		doc.ApplyTotals()
		return doc, nil
	}

	doc, err := s.docs.CreateNumbered(ctx, kind, build)
	var conflict *apperr.ConstraintViolation
	if errors.As(err, &conflict) {
		s.metrics.NumberingConflict(string(kind))
		s.log.Warn("number taken, retrying", zap.String("kind", string(kind)), zap.String("number", conflict.Number))
		doc, err = s.docs.CreateNumbered(ctx, kind, build)
		if errors.As(err, &conflict) {
			s.metrics.NumberingConflict(string(kind))
		}
	}
	if err != nil {
		return nil, err
	}
	s.metrics.DocumentCreated(string(kind))
	s.log.Info("document created",
		zap.String("kind", string(kind)),
		zap.String("number", doc.Number),
		zap.String("total", doc.Total.StringFixed(billing.MoneyPlaces)),
	)
	// the document is committed; a failed reload must not report it as lost
	full, err := s.docs.Get(ctx, kind, doc.ID)
	if err != nil {
		s.log.Warn("reload after create failed", zap.String("number", doc.Number), zap.Error(err))
		return doc, nil
	}
	return full, nil
}

func (s *DocumentService) checkDraft(ctx context.Context, d Draft) (time.Time, *time.Time, error) {
	v := validation.Struct(d)
	validation.RangeDecimal("tax_rate", d.TaxRate, decimal.Zero, decimal.NewFromInt(1), v)
	validation.Fits("tax_rate", d.TaxRate, models.TaxRatePlaces, decimal.NewFromInt(1), v)
	validation.Fits("discount", d.Discount, models.PricePlaces, models.MaxDiscount, v)
	lines := make([]billing.Line, len(d.Items))
	for i, it := range d.Items {
		validation.Fits(fmt.Sprintf("items.%d.quantity", i), it.Quantity, models.QuantityPlaces, models.MaxQuantity, v)
		validation.Fits(fmt.Sprintf("items.%d.unit_price", i), it.UnitPrice, models.PricePlaces, models.MaxUnitPrice, v)
		lines[i] = billing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	if v.Empty() && billing.DocumentTotals(lines, d.TaxRate, d.Discount).Subtotal.GreaterThan(models.MaxSubtotal) {
		v["items"] = "out_of_range"
	}
	if !v.Empty() {
		return time.Time{}, nil, &apperr.ValidationError{Violations: v}
	}
	issue := s.now().UTC().Truncate(24 * time.Hour)
	if d.Date != "" {
		issue, _ = time.Parse(dateLayout, d.Date)
	}
	var validUntil *time.Time
	if d.ValidUntil != "" {
		t, _ := time.Parse(dateLayout, d.ValidUntil)
		if t.Before(issue) {
			return time.Time{}, nil, apperr.NewValidation(map[string]string{"valid_until": "out_of_range"})
		}
		validUntil = &t
	}
	ok, err := s.clients.Exists(ctx, d.ClientID)
	if err != nil {
		return time.Time{}, nil, err
	}
	if !ok {
		return time.Time{}, nil, apperr.NotFound("client", d.ClientID)
	}
	return issue, validUntil, nil
}

func (s *DocumentService) Get(ctx context.Context, kind billing.Kind, id uint) (*models.Document, error) {
	return s.docs.Get(ctx, kind, id)
}

func (s *DocumentService) List(ctx context.Context, q repository.DocumentQuery) ([]models.Document, int64, error) {
	return s.docs.List(ctx, q)
}

func (s *DocumentService) Delete(ctx context.Context, kind billing.Kind, id uint) error {
	if err := s.docs.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.log.Info("document deleted", zap.String("kind", string(kind)), zap.Uint("id", id))
	return nil
}

// ToggleStatus flips an invoice between Unpaid and Paid.
func (s *DocumentService) ToggleStatus(ctx context.Context, id uint) (*models.Document, error) {
	doc, err := s.docs.UpdateStatus(ctx, billing.KindInvoice, id, billing.ToggleStatus)
	if err != nil {
		return nil, err
	}
	s.log.Info("invoice status changed", zap.String("number", doc.Number), zap.String("status", string(doc.Status)))
	return doc, nil
}
