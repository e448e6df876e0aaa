package db

import (
	"errors"

	"gorm.io/gorm"

	"github.com/diewo77/ecotrim/internal/models"
)

var baseClients = []models.Client{
	{
		Name:    "Gitabayu Property Services Sdn Bhd",
		CustID:  "93385",
		Address: "2, Jalan Bayu 1, Bukit Gita Bayu, 43300 Seri Kembangan",
		Phone:   "+60 3-1234 5678",
	},
}

// Seed inserts reference data. Running it twice changes nothing.
func Seed(gdb *gorm.DB) error {
	for _, c := range baseClients {
		var existing models.Client
		err := gdb.Where("name = ?", c.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := gdb.Create(&c).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
