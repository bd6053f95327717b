package model

import "time"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCompleted RequestStatus = "completed"
)

// CanTransitionTo reports whether next is a legal successor of s.
// Rejected and completed are terminal.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case RequestStatusPending:
		return next == RequestStatusAccepted || next == RequestStatusRejected
	case RequestStatusAccepted:
		return next == RequestStatusCompleted
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusRejected || s == RequestStatusCompleted
}

type TransferMode string

const (
	TransferModeSelf     TransferMode = "self_transfer"
	TransferModeShipping TransferMode = "shipping"
	TransferModePickup   TransferMode = "pickup"
)

func (m TransferMode) Valid() bool {
	switch m {
	case TransferModeSelf, TransferModeShipping, TransferModePickup:
		return true
	}
	return false
}

type PurchaseRequest struct {
	ID                   string        `gorm:"primaryKey;size:36"`
	BookID               string        `gorm:"column:book_id;size:36;index;not null"`
	BuyerUID             string        `gorm:"column:buyer_uid;size:128;index;not null"`
	SellerUID            string        `gorm:"column:seller_uid;size:128;index;not null"`
	OfferedPrice         int64         `gorm:"column:offered_price;not null"`
	TransferMode         TransferMode  `gorm:"column:transfer_mode;size:32;not null"`
	Message              *string       `gorm:"column:message;type:text"`
	ExpectedDeliveryDate *time.Time    `gorm:"column:expected_delivery_date;type:date"`
	Status               RequestStatus `gorm:"column:status;size:32;index;not null"`
	CreatedAt            time.Time     `gorm:"column:created_at;not null"`
	UpdatedAt            time.Time     `gorm:"column:updated_at;not null"`
}

func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// IsParty reports whether uid is the buyer or the seller of the request.
func (r *PurchaseRequest) IsParty(uid string) bool {
	return uid != "" && (uid == r.BuyerUID || uid == r.SellerUID)
}
