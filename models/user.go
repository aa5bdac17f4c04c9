package models

import "time"

// User is migrated for a future checkout flow. Nothing reads or writes it yet.
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Email        string  `gorm:"unique;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Name         string  `json:"name"`
	Role         string  `gorm:"type:varchar(20);default:'customer'" json:"role"`
	Address      Address `gorm:"embedded" json:"address"`
	Orders       []Order `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"orders,omitempty"`
	CreatedAt    time.Time
}

// Address model embedded in User
type Address struct {
	Country    string `json:"country"`
	State      string `json:"state"`
	City       string `json:"city"`
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
}
