package models

import (
	"strings"
	"time"
)

// Client is a customer that quotes and invoices are addressed to.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"size:255;not null;index" json:"name" schema:"name" validate:"required,max=255"`
	CustID  string `gorm:"size:50" json:"cust_id,omitempty" schema:"cust_id" validate:"max=50"`
	Address string `gorm:"size:500" json:"address,omitempty" schema:"address" validate:"max=500"`
	Phone   string `gorm:"size:50" json:"phone,omitempty" schema:"phone" validate:"max=50"`
}

// Details is the multi-line block printed under the client name on documents.
func (c *Client) Details() string {
	var parts []string
	if c.CustID != "" {
		parts = append(parts, "Cust ID: "+c.CustID)
	}
	if c.Address != "" {
		parts = append(parts, c.Address)
	}
	if c.Phone != "" {
		parts = append(parts, "Tel: "+c.Phone)
	}
	return strings.Join(parts, "\n")
}
