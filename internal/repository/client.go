package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/models"
)

// ClientRepository stores clients.
type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// List returns clients ordered by name, filtered by q on name, customer id or phone.
func (r *ClientRepository) List(ctx context.Context, q string, limit, offset int) ([]models.Client, int64, error) {
	dbq := r.db.WithContext(ctx).Model(&models.Client{})
	if s := strings.ToLower(strings.TrimSpace(q)); s != "" {
		like := "%" + s + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(cust_id) LIKE ? OR phone LIKE ?", like, like, like)
	}
	dbq = dbq.Session(&gorm.Session{})
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = -1
	}
	var clients []models.Client
	if err := dbq.Order("name").Order("id").Limit(limit).Offset(offset).Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

// Get loads a client by id.
func (r *ClientRepository) Get(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("client", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Update overwrites the editable fields of an existing client.
func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	res := r.db.WithContext(ctx).Model(&models.Client{ID: c.ID}).
		Select("name", "cust_id", "address", "phone").
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("client", c.ID)
	}
	return nil
}

// Delete removes a client that no document references. Otherwise it returns
// apperr.ErrClientInUse and leaves the client in place.
func (r *ClientRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.Document{}).Where("client_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("client %d is referenced by %d document(s): %w", id, refs, apperr.ErrClientInUse)
		}
		res := tx.Delete(&models.Client{}, id)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
				return fmt.Errorf("client %d: %w", id, apperr.ErrClientInUse)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("client", id)
		}
		return nil
	})
}

// Exists reports whether a client with id exists.
func (r *ClientRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// All returns every client ordered by name, for select inputs.
func (r *ClientRepository) All(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.WithContext(ctx).Order("name").Find(&clients).Error
	return clients, err
}
