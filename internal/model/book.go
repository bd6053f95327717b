package model

import "time"

type Book struct {
	ID        string    `gorm:"primaryKey;size:36"`
	SellerUID string    `gorm:"column:seller_uid;size:128;index;not null"`
	Title     string    `gorm:"size:200;not null"`
	Author    string    `gorm:"size:200"`
	Price     int64     `gorm:"not null"`
	Available bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Book) TableName() string {
	return "books"
}
