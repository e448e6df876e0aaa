// Package repository persists clients, documents and expenses with gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/billing"
	"github.com/diewo77/ecotrim/internal/models"
)

// BuildFunc assembles a new document given the latest one of the same kind.
// It runs inside the numbering scope and must not touch the database.
type BuildFunc func(last *billing.Latest) (*models.Document, error)

// DocumentRepository stores quotes and invoices.
type DocumentRepository struct {
	db    *gorm.DB
	mu    sync.Mutex
	locks map[billing.Kind]*semaphore.Weighted
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db, locks: map[billing.Kind]*semaphore.Weighted{}}
}

// DocumentQuery filters a document listing.
type DocumentQuery struct {
	Kind   billing.Kind
	Search string
	Status billing.Status
	Period Period
	Limit  int
	Offset int
}

// FindLatest returns the most recently created document of kind, or nil.
func (r *DocumentRepository) FindLatest(ctx context.Context, kind billing.Kind) (*billing.Latest, error) {
	return findLatest(r.db.WithContext(ctx), kind)
}

func findLatest(tx *gorm.DB, kind billing.Kind) (*billing.Latest, error) {
	var d models.Document
	err := tx.Select("number", "created_at").
		Where("kind = ?", kind).
		Order("created_at DESC").Order("id DESC").
		Take(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest %s: %w", kind, err)
	}
	return &billing.Latest{Number: d.Number, CreatedAt: d.CreatedAt}, nil
}

// Create inserts doc and its items. A number already used for the kind
// yields *apperr.ConstraintViolation.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertDocument(tx, doc)
	})
}

func insertDocument(tx *gorm.DB, doc *models.Document) error {
	if err := tx.Omit("Client").Create(doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &apperr.ConstraintViolation{Kind: string(doc.Kind), Number: doc.Number, Err: err}
		}
		return fmt.Errorf("insert %s: %w", doc.Kind, err)
	}
	return nil
}

// CreateNumbered reads the latest document, lets build derive the new one and
// inserts it, with no other writer of the same kind in between. Writers in
// this process queue on a per-kind semaphore and give up when ctx is done;
// on PostgreSQL a transaction scoped advisory lock extends that to other
// processes.
func (r *DocumentRepository) CreateNumbered(ctx context.Context, kind billing.Kind, build BuildFunc) (*models.Document, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	lock := r.lockFor(kind)
	if err := lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer lock.Release(1)

	var created *models.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey(kind)).Error; err != nil {
				return fmt.Errorf("lock %s sequence: %w", kind, err)
			}
		}
		last, err := findLatest(tx, kind)
		if err != nil {
			return err
		}
		doc, err := build(last)
		if err != nil {
			return err
		}
		doc.Kind = kind
		if err := insertDocument(tx, doc); err != nil {
			return err
		}
		created = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *DocumentRepository) lockFor(kind billing.Kind) *semaphore.Weighted {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[kind]
	if !ok {
		l = semaphore.NewWeighted(1)
		r.locks[kind] = l
	}
	return l
}

func advisoryKey(kind billing.Kind) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("ecotrim.documents." + string(kind)))
	return int64(h.Sum64() >> 1)
}

// Get loads one document with its client and ordered items.
func (r *DocumentRepository) Get(ctx context.Context, kind billing.Kind, id uint) (*models.Document, error) {
	var d models.Document
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("kind = ?", kind).
		First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(string(kind), id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns one page of documents, newest first, and the total count.
func (r *DocumentRepository) List(ctx context.Context, q DocumentQuery) ([]models.Document, int64, error) {
	dbq := r.db.WithContext(ctx).Model(&models.Document{}).Where("kind = ?", q.Kind)
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		like := "%" + s + "%"
		dbq = dbq.Where(
			"lower(number) LIKE ? OR lower(project_title) LIKE ? OR client_id IN (?)",
			like, like, r.db.Model(&models.Client{}).Select("id").Where("lower(name) LIKE ?", like),
		)
	}
	if q.Status != "" {
		dbq = dbq.Where("status = ?", q.Status)
	}
	dbq = q.Period.apply(dbq, "issue_date").Session(&gorm.Session{})

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var docs []models.Document
	err := dbq.
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("issue_date DESC").Order("id DESC").
		Limit(limit).Offset(q.Offset).
		Find(&docs).Error
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// UpdateStatus applies next to the current status of the document under a row lock.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, kind billing.Kind, id uint, next func(billing.Status) (billing.Status, error)) (*models.Document, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("kind = ?", kind).First(&d, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(string(kind), id)
		}
		if err != nil {
			return err
		}
		status, err := next(d.Status)
		if err != nil {
			return err
		}
		return tx.Model(&d).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, kind, id)
}

// Delete removes a document and its items.
func (r *DocumentRepository) Delete(ctx context.Context, kind billing.Kind, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Document
		err := tx.Select("id").Where("kind = ?", kind).First(&d, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(string(kind), id)
		}
		if err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", d.ID).Delete(&models.DocumentItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&d).Error
	})
}

// SumTotals adds up document totals matching kind and status in the period.
func (r *DocumentRepository) SumTotals(ctx context.Context, kind billing.Kind, status billing.Status, p Period) (decimal.Decimal, error) {
	var docs []models.Document
	dbq := r.db.WithContext(ctx).Select("total").Where("kind = ? AND status = ?", kind, status)
	if err := p.apply(dbq, "issue_date").Find(&docs).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, d := range docs {
		sum = sum.Add(d.Total)
	}
	return sum, nil
}

// Count returns the number of documents of kind with status in the period.
func (r *DocumentRepository) Count(ctx context.Context, kind billing.Kind, status billing.Status, p Period) (int64, error) {
	var n int64
	dbq := r.db.WithContext(ctx).Model(&models.Document{}).Where("kind = ? AND status = ?", kind, status)
	err := p.apply(dbq, "issue_date").Count(&n).Error
	return n, err
}

// CountByClient returns how many documents reference the client.
func (r *DocumentRepository) CountByClient(ctx context.Context, clientID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Document{}).Where("client_id = ?", clientID).Count(&n).Error
	return n, err
}
