package models

import (
	"fmt"

	"gorm.io/gorm"
)

// User roles as stored on the durable record.
const (
	RoleUnset  = ""
	RoleSeller = "seller"
	RoleBuyer  = "buyer"
)

// User is the durable record for a conversation participant.
type User struct {
	gorm.Model
	UserID         string `gorm:"unique;not null"`
	Phone          string `gorm:"uniqueIndex;not null"`
	DisplayName    string
	Role           string `gorm:"default:''"`
	Community      string
	VoucherBalance int  `gorm:"default:0"`
	Active         bool `gorm:"default:true"`
}

// BeforeCreate generates UserID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == "" {
		var count int64
		tx.Model(&User{}).Count(&count)
		u.UserID = fmt.Sprintf("USR%05d", count+1)
	}
	return nil
}
