package model

import "time"

// UserWallet tracks released payouts (revenue) and the listing-activation
// deposit that platform fees are charged against. A negative deposit is an
// outstanding fee.
type UserWallet struct {
	UID           string    `gorm:"column:uid;primaryKey;size:128"`
	RevenueAmount int64     `gorm:"column:revenue_amount;not null;default:0"`
	DepositAmount int64     `gorm:"column:deposit_amount;not null;default:0"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (UserWallet) TableName() string {
	return "user_wallets"
}
