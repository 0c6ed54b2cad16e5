package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Shop is a persisted seller storefront. Each owner has at most one shop and
// the name is unique within a community (checked before insert, see storage).
type Shop struct {
	gorm.Model
	ShopID      string `gorm:"unique;not null"`
	OwnerPhone  string `gorm:"index;not null"`
	Community   string `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Description string
	Category    string
	EscrowRef   string
	Active      bool `gorm:"default:true"`
}

// BeforeCreate generates ShopID
func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ShopID == "" {
		var count int64
		tx.Model(&Shop{}).Count(&count)
		s.ShopID = fmt.Sprintf("SHP%05d", count+1)
	}
	return nil
}

// ShopDraft accumulates shop fields across the creation wizard. It only
// becomes a Shop on final confirmation.
type ShopDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}
