package model

import "time"

type Conversation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	BookID    string    `gorm:"column:book_id;size:36;index:idx_book_buyer,unique" json:"bookId"`
	SellerUID string    `gorm:"column:seller_uid;size:128;index" json:"sellerUid"`
	BuyerUID  string    `gorm:"column:buyer_uid;size:128;index:idx_book_buyer,unique" json:"buyerUid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}
