package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email      string          `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Name       string          `json:"name" gorm:"type:varchar(100);not null"`
	Preference *UserPreference `json:"userPreference,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	SavedItems []Product       `json:"savedItems,omitempty" gorm:"many2many:user_saved_items;constraint:OnDelete:CASCADE"`
	Orders     []Order         `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time       `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type UserPreference struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       string    `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex"`
	ReceiveEmail bool      `json:"receiveEmail" gorm:"not null;default:false"`
	Theme        string    `json:"theme" gorm:"type:varchar(20);not null;default:'light'"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (p *UserPreference) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
