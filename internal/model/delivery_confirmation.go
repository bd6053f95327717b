package model

import "time"

type Party string

const (
	PartyBuyer  Party = "buyer"
	PartySeller Party = "seller"
)

func (p Party) Valid() bool {
	return p == PartyBuyer || p == PartySeller
}

// DeliveryConfirmation is the per-request confirmation aggregate. It is created
// once a request is accepted and never deleted.
type DeliveryConfirmation struct {
	ID                      string     `gorm:"primaryKey;size:36"`
	PurchaseRequestID       string     `gorm:"column:purchase_request_id;size:36;uniqueIndex;not null"`
	BuyerUID                string     `gorm:"column:buyer_uid;size:128;not null"`
	SellerUID               string     `gorm:"column:seller_uid;size:128;not null"`
	OTPCode                 string     `gorm:"column:otp_code;size:6;not null"`
	OTPSentAt               time.Time  `gorm:"column:otp_sent_at;not null"`
	OTPVerifiedAt           *time.Time `gorm:"column:otp_verified_at"`
	BuyerConfirmedDelivery  bool       `gorm:"column:buyer_confirmed_delivery;not null;default:false"`
	SellerConfirmedDelivery bool       `gorm:"column:seller_confirmed_delivery;not null;default:false"`
	BuyerConfirmedPayment   bool       `gorm:"column:buyer_confirmed_payment;not null;default:false"`
	SellerConfirmedPayment  bool       `gorm:"column:seller_confirmed_payment;not null;default:false"`
	PaymentMethod           *string    `gorm:"column:payment_method;size:64"`
	FinalPayoutProcessed    bool       `gorm:"column:final_payout_processed;not null;default:false"`
	CreatedAt               time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt               time.Time  `gorm:"column:updated_at;not null"`
}

func (DeliveryConfirmation) TableName() string {
	return "delivery_confirmations"
}

func (d *DeliveryConfirmation) DeliveryConfirmedByBoth() bool {
	return d.BuyerConfirmedDelivery && d.SellerConfirmedDelivery
}

func (d *DeliveryConfirmation) PaymentConfirmedByBoth() bool {
	return d.BuyerConfirmedPayment && d.SellerConfirmedPayment
}

// DeliveryColumn returns the delivery flag column owned by p.
func DeliveryColumn(p Party) string {
	if p == PartyBuyer {
		return "buyer_confirmed_delivery"
	}
	return "seller_confirmed_delivery"
}

// PaymentColumn returns the payment flag column owned by p.
func PaymentColumn(p Party) string {
	if p == PartyBuyer {
		return "buyer_confirmed_payment"
	}
	return "seller_confirmed_payment"
}
