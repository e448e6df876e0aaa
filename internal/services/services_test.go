package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/billing"
	"github.com/diewo77/ecotrim/internal/metrics"
	"github.com/diewo77/ecotrim/internal/models"
	"github.com/diewo77/ecotrim/internal/repository"
	"github.com/diewo77/ecotrim/internal/settings"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Client{}, &models.Document{}, &models.DocumentItem{}, &models.Expense{}))
	return db
}

type staticProfile settings.Settings

func (p staticProfile) Current() settings.Settings { return settings.Settings(p) }

type fixture struct {
	db       *gorm.DB
	docs     *DocumentService
	clients  *ClientService
	expenses *ExpenseService
	client   models.Client
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	clientRepo := repository.NewClientRepository(db)
	f := &fixture{
		db:       db,
		docs:     NewDocumentService(repository.NewDocumentRepository(db), clientRepo, staticProfile(settings.Defaults()), metrics.New(), nil),
		clients:  NewClientService(clientRepo, nil),
		expenses: NewExpenseService(repository.NewExpenseRepository(db), nil),
		client:   models.Client{Name: "Gitabayu Property Services Sdn Bhd", CustID: "93385"},
	}
	require.NoError(t, f.clients.Create(context.Background(), &f.client))
	return f
}

func gitabayuDraft(clientID uint) Draft {
	return Draft{
		ClientID:     clientID,
		Date:         "2025-03-01",
		ProjectTitle: "Monthly grounds maintenance",
		Items: []DraftItem{
			{Description: "Grass cutting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1500)},
			{Description: "Hedge trimming", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000)},
		},
	}
}

func TestCreateInvoice_FirstNumberAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.docs.Create(ctx, billing.KindInvoice, gitabayuDraft(f.client.ID))
	require.NoError(t, err)
	assert.Equal(t, "ECX-792", inv.Number)
	assert.Equal(t, billing.StatusUnpaid, inv.Status)
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(2500)), inv.Total.String())
	assert.Equal(t, settings.Defaults().Terms, inv.Terms, "terms default to the business profile")
	require.NotNil(t, inv.Client)
	assert.Equal(t, f.client.Name, inv.Client.Name)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Grass cutting", inv.Items[0].Description)

	next, err := f.docs.Create(ctx, billing.KindInvoice, gitabayuDraft(f.client.ID))
	require.NoError(t, err)
	assert.Equal(t, "ECX-793", next.Number)
}

func TestCreateQuote_SeedAndPending(t *testing.T) {
	f := newFixture(t)
	d := gitabayuDraft(f.client.ID)
	d.ValidUntil = "2025-03-31"
	d.Terms = "Net 7"
	q, err := f.docs.Create(context.Background(), billing.KindQuote, d)
	require.NoError(t, err)
	assert.Equal(t, "8499", q.Number)
	assert.Equal(t, billing.StatusPending, q.Status)
	assert.Equal(t, "Net 7", q.Terms)
	require.NotNil(t, q.ValidUntil)
}

func TestCreate_ValidationAndMissingClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := gitabayuDraft(f.client.ID)
	bad.Items[1].Description = ""
	bad.Items[0].Quantity = decimal.NewFromInt(-1)
	_, err := f.docs.Create(ctx, billing.KindInvoice, bad)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Violations["items.1.description"])
	assert.Equal(t, "must_not_be_negative", verr.Violations["items.0.quantity"])

	_, err = f.docs.Create(ctx, billing.KindInvoice, gitabayuDraft(9999))
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)

	var n int64
	require.NoError(t, f.db.Model(&models.Document{}).Count(&n).Error)
	assert.Zero(t, n, "rejected drafts store nothing")
}

func TestCreate_ValidUntilBeforeDate(t *testing.T) {
	f := newFixture(t)
	d := gitabayuDraft(f.client.ID)
	d.ValidUntil = "2025-02-01"
	_, err := f.docs.Create(context.Background(), billing.KindQuote, d)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "out_of_range", verr.Violations["valid_until"])
}

func TestCreate_TaxRateOutOfRange(t *testing.T) {
	f := newFixture(t)
	for _, rate := range []string{"-0.06", "1.5"} {
		d := gitabayuDraft(f.client.ID)
		d.TaxRate = decimal.RequireFromString(rate)
		_, err := f.docs.Create(context.Background(), billing.KindInvoice, d)
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr, rate)
		assert.Equal(t, "out_of_range", verr.Violations["tax_rate"], rate)
	}
}

func TestCreate_ValuesMustFitStoredPrecision(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name  string
		edit  func(*Draft)
		field string
		code  string
	}{
		{"sub-cent price", func(d *Draft) { d.Items[0].UnitPrice = decimal.RequireFromString("0.005") }, "items.0.unit_price", "too_precise"},
		{"sub-cent discount", func(d *Draft) { d.Discount = decimal.RequireFromString("0.005") }, "discount", "too_precise"},
		{"quantity scale", func(d *Draft) { d.Items[1].Quantity = decimal.RequireFromString("1.2345") }, "items.1.quantity", "too_precise"},
		{"oversized quantity", func(d *Draft) { d.Items[0].Quantity = decimal.RequireFromString("1000000") }, "items.0.quantity", "out_of_range"},
		{"oversized price", func(d *Draft) { d.Items[0].UnitPrice = decimal.RequireFromString("100000000") }, "items.0.unit_price", "out_of_range"},
		{"oversized discount", func(d *Draft) { d.Discount = decimal.RequireFromString("99999999999999.999") }, "discount", "out_of_range"},
		{"tax rate scale", func(d *Draft) { d.TaxRate = decimal.RequireFromString("0.06125") }, "tax_rate", "too_precise"},
		{"subtotal overflow", func(d *Draft) {
			d.Items = nil
			for i := 0; i < 11; i++ {
				d.Items = append(d.Items, DraftItem{Description: "Land clearing", Quantity: models.MaxQuantity, UnitPrice: models.MaxUnitPrice})
			}
		}, "items", "out_of_range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := gitabayuDraft(f.client.ID)
			tc.edit(&d)
			_, err := f.docs.Create(context.Background(), billing.KindInvoice, d)
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.code, verr.Violations[tc.field], "%v", verr.Violations)
		})
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Document{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreate_StoredTotalsMatchItems(t *testing.T) {
	f := newFixture(t)
	d := gitabayuDraft(f.client.ID)
	d.Items[0].Quantity = decimal.RequireFromString("2.125")
	d.Items[0].UnitPrice = decimal.RequireFromString("19.99")
	d.TaxRate = decimal.RequireFromString("0.0625")
	d.Discount = decimal.RequireFromString("0.05")

	doc, err := f.docs.Create(context.Background(), billing.KindInvoice, d)
	require.NoError(t, err)
	subtotal := decimal.Zero
	for _, it := range doc.Items {
		assert.True(t, it.Quantity.Mul(it.UnitPrice).Equal(it.LineTotal), "line %s", it.Description)
		subtotal = subtotal.Add(it.LineTotal)
	}
	assert.True(t, subtotal.Equal(doc.Subtotal))
	want := doc.Subtotal.Add(doc.Subtotal.Mul(doc.TaxRate)).Sub(doc.Discount).Round(billing.MoneyPlaces)
	assert.True(t, want.Equal(doc.Total), "want %s got %s", want, doc.Total)
}

func TestCreate_EmptyItemsYieldsNegativeDiscount(t *testing.T) {
	f := newFixture(t)
	d := Draft{ClientID: f.client.ID, Discount: decimal.NewFromInt(5)}
	doc, err := f.docs.Create(context.Background(), billing.KindQuote, d)
	require.NoError(t, err)
	assert.True(t, doc.Total.Equal(decimal.NewFromInt(-5)), doc.Total.String())
	assert.Empty(t, doc.Items)
}

// conflictStore reports a numbering conflict on the first `conflicts` calls.
type conflictStore struct {
	DocumentStore
	conflicts int
	calls     int
	latest    *billing.Latest
}

func (s *conflictStore) CreateNumbered(_ context.Context, kind billing.Kind, build repository.BuildFunc) (*models.Document, error) {
	s.calls++
	doc, err := build(s.latest)
	if err != nil {
		return nil, err
	}
	if s.calls <= s.conflicts {
		s.latest = &billing.Latest{Number: doc.Number, CreatedAt: time.Now()}
		return nil, &apperr.ConstraintViolation{Kind: string(kind), Number: doc.Number}
	}
	doc.ID = uint(s.calls)
	return doc, nil
}

func (s *conflictStore) Get(_ context.Context, _ billing.Kind, id uint) (*models.Document, error) {
	return &models.Document{ID: id, Number: s.latest.Number}, nil
}

type allClients struct{}

func (allClients) Exists(context.Context, uint) (bool, error) { return true, nil }

func TestCreate_RetriesOnceOnConflict(t *testing.T) {
	store := &conflictStore{conflicts: 1}
	svc := NewDocumentService(store, allClients{}, nil, nil, nil)
	_, err := svc.Create(context.Background(), billing.KindInvoice, gitabayuDraft(1))
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestCreate_SecondConflictIsReturned(t *testing.T) {
	store := &conflictStore{conflicts: 2}
	svc := NewDocumentService(store, allClients{}, nil, nil, nil)
	_, err := svc.Create(context.Background(), billing.KindInvoice, gitabayuDraft(1))
	var cv *apperr.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "ECX-793", cv.Number)
	assert.Equal(t, 2, store.calls)
}

func TestCreate_MalformedLatestIsNotRetried(t *testing.T) {
	store := &conflictStore{latest: &billing.Latest{Number: "INV8491"}}
	svc := NewDocumentService(store, allClients{}, nil, nil, nil)
	_, err := svc.Create(context.Background(), billing.KindInvoice, gitabayuDraft(1))
	var pe *apperr.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, store.calls)
}

// reloadFailStore commits like conflictStore but cannot read documents back.
type reloadFailStore struct {
	conflictStore
}

func (reloadFailStore) Get(context.Context, billing.Kind, uint) (*models.Document, error) {
	return nil, errors.New("connection reset")
}

func TestCreate_ReloadFailureStillReturnsDocument(t *testing.T) {
	store := &reloadFailStore{}
	svc := NewDocumentService(store, allClients{}, nil, nil, nil)
	doc, err := svc.Create(context.Background(), billing.KindInvoice, gitabayuDraft(1))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "ECX-792", doc.Number)
	assert.Equal(t, "2500", doc.Total.String())
	assert.Len(t, doc.Items, 2)
}

func TestToggleStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.docs.Create(ctx, billing.KindInvoice, gitabayuDraft(f.client.ID))
	require.NoError(t, err)

	paid, err := f.docs.ToggleStatus(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, paid.Status)
	back, err := f.docs.ToggleStatus(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusUnpaid, back.Status)

	q, err := f.docs.Create(ctx, billing.KindQuote, gitabayuDraft(f.client.ID))
	require.NoError(t, err)
	_, err = f.docs.ToggleStatus(ctx, q.ID)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf, "quotes have no paid state")
}

func TestClientDelete_RestrictedWhileReferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.docs.Create(ctx, billing.KindInvoice, gitabayuDraft(f.client.ID))
	require.NoError(t, err)

	err = f.clients.Delete(ctx, f.client.ID)
	assert.True(t, errors.Is(err, apperr.ErrClientInUse), "got %v", err)

	require.NoError(t, f.docs.Delete(ctx, billing.KindInvoice, inv.ID))
	require.NoError(t, f.clients.Delete(ctx, f.client.ID))
}

func TestClientCreate_Validation(t *testing.T) {
	f := newFixture(t)
	err := f.clients.Create(context.Background(), &models.Client{Name: "   "})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Violations["name"])
}

func TestExpenseCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.expenses.Create(ctx, ExpenseInput{Date: "2025-03-02", Description: "Petrol", Category: "Fuel", Amount: decimal.RequireFromString("85.50")})
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseFuel, e.Category)

	_, err = f.expenses.Create(ctx, ExpenseInput{Description: "Boat", Category: "Yacht", Amount: decimal.NewFromInt(1)})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid_choice", verr.Violations["category"])

	_, err = f.expenses.Create(ctx, ExpenseInput{Description: "Refund", Amount: decimal.NewFromInt(-3)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Violations["category"])
	assert.Equal(t, "must_not_be_negative", verr.Violations["amount"])

	_, err = f.expenses.List(ctx, "Yacht", repository.Period{})
	assert.ErrorAs(t, err, &verr)
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid, err := f.docs.Create(ctx, billing.KindInvoice, gitabayuDraft(f.client.ID))
	require.NoError(t, err)
	_, err = f.docs.ToggleStatus(ctx, paid.ID)
	require.NoError(t, err)
	_, err = f.docs.Create(ctx, billing.KindInvoice, gitabayuDraft(f.client.ID))
	require.NoError(t, err)
	_, err = f.docs.Create(ctx, billing.KindQuote, gitabayuDraft(f.client.ID))
	require.NoError(t, err)
	_, err = f.expenses.Create(ctx, ExpenseInput{Date: "2025-03-02", Description: "Wages", Category: "Wages", Amount: decimal.NewFromInt(800)})
	require.NoError(t, err)

	dash := NewDashboardService(repository.NewDocumentRepository(f.db), repository.NewExpenseRepository(f.db))
	s, err := dash.Summary(ctx, repository.Period{})
	require.NoError(t, err)
	assert.True(t, s.Revenue.Equal(decimal.NewFromInt(2500)), s.Revenue.String())
	assert.True(t, s.Pending.Equal(decimal.NewFromInt(2500)), s.Pending.String())
	assert.True(t, s.Expenses.Equal(decimal.NewFromInt(800)), s.Expenses.String())
	assert.True(t, s.NetProfit.Equal(decimal.NewFromInt(1700)), s.NetProfit.String())
	assert.EqualValues(t, 1, s.PaidCount)
	assert.EqualValues(t, 1, s.UnpaidCount)
	assert.EqualValues(t, 1, s.ActiveQuotes)
	assert.Len(t, s.Recent, 2)
}
