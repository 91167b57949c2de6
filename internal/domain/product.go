package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID        string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name      string          `json:"name" gorm:"type:varchar(255);not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;index"`
	Category  string          `json:"category" gorm:"type:varchar(50);not null;index"`
	Stock     int             `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	CreatedAt time.Time       `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
