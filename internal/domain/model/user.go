package model

import "time"

type Role string

const (
	RoleUser     Role = "USER"
	RoleAdmin    Role = "ADMIN"
	RoleDelivery Role = "DELIVERY"
)

type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Email     string `gorm:"uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(255);not null"`
	Role      Role   `gorm:"type:varchar(20);not null;default:'USER'"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
