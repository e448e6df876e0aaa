package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/diewo77/ecotrim/internal/apperr"
	"github.com/diewo77/ecotrim/internal/models"
	"github.com/diewo77/ecotrim/validation"
)

// ClientStore is the persistence ClientService needs.
type ClientStore interface {
	List(ctx context.Context, q string, limit, offset int) ([]models.Client, int64, error)
	All(ctx context.Context) ([]models.Client, error)
	Get(ctx context.Context, id uint) (*models.Client, error)
	Create(ctx context.Context, c *models.Client) error
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id uint) error
}

type ClientService struct {
	store ClientStore
	log   *zap.Logger
}

func NewClientService(store ClientStore, log *zap.Logger) *ClientService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClientService{store: store, log: log}
}

func normalizeClient(c *models.Client) {
	c.Name = strings.TrimSpace(c.Name)
	c.CustID = strings.TrimSpace(c.CustID)
	c.Address = strings.TrimSpace(c.Address)
	c.Phone = strings.TrimSpace(c.Phone)
}

func (s *ClientService) Create(ctx context.Context, c *models.Client) error {
	normalizeClient(c)
	if err := apperr.NewValidation(validation.Struct(c)); err != nil {
		return err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return err
	}
	s.log.Info("client created", zap.Uint("id", c.ID), zap.String("name", c.Name))
	return nil
}

func (s *ClientService) Update(ctx context.Context, c *models.Client) error {
	normalizeClient(c)
	if err := apperr.NewValidation(validation.Struct(c)); err != nil {
		return err
	}
	return s.store.Update(ctx, c)
}

// Delete refuses to remove a client that documents still point at.
func (s *ClientService) Delete(ctx context.Context, id uint) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("client deleted", zap.Uint("id", id))
	return nil
}

func (s *ClientService) Get(ctx context.Context, id uint) (*models.Client, error) {
	return s.store.Get(ctx, id)
}

func (s *ClientService) List(ctx context.Context, q string, limit, offset int) ([]models.Client, int64, error) {
	return s.store.List(ctx, q, limit, offset)
}

func (s *ClientService) All(ctx context.Context) ([]models.Client, error) {
	return s.store.All(ctx)
}
