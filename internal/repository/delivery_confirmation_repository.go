package repository

import (
	"context"
	"time"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryConfirmationRepository persists the confirmation aggregate. Every
// mutating method is a single conditional UPDATE and reports RowsAffected; a
// zero count means the guard did not hold and nothing was written.
type DeliveryConfirmationRepository interface {
	FindByRequest(ctx context.Context, requestID string) (*model.DeliveryConfirmation, error)
	// CreateIfAbsent inserts d unless a row for the same request exists.
	CreateIfAbsent(ctx context.Context, d *model.DeliveryConfirmation) (bool, error)
	ReplacePendingOTP(ctx context.Context, requestID, code string, sentAt time.Time) (int64, error)
	MarkOTPVerified(ctx context.Context, requestID, code string, verifiedAt time.Time) (int64, error)
	SetDeliveryConfirmed(ctx context.Context, requestID string, party model.Party, now time.Time) (int64, error)
	SetPaymentConfirmed(ctx context.Context, requestID string, party model.Party, paymentMethod *string, now time.Time) (int64, error)
	MarkPayoutProcessed(ctx context.Context, requestID string, now time.Time) (int64, error)
}

type deliveryConfirmationRepository struct {
	db *gorm.DB
}

func NewDeliveryConfirmationRepository(db *gorm.DB) DeliveryConfirmationRepository {
	return &deliveryConfirmationRepository{db: db}
}

func (r *deliveryConfirmationRepository) FindByRequest(ctx context.Context, requestID string) (*model.DeliveryConfirmation, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var d model.DeliveryConfirmation
	if err := db.Where("purchase_request_id = ?", requestID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryConfirmationRepository) CreateIfAbsent(ctx context.Context, d *model.DeliveryConfirmation) (bool, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return false, err
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(d)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *deliveryConfirmationRepository) ReplacePendingOTP(ctx context.Context, requestID, code string, sentAt time.Time) (int64, error) {
	return r.update(ctx,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("purchase_request_id = ? AND otp_verified_at IS NULL", requestID)
		},
		map[string]interface{}{
			"otp_code":    code,
			"otp_sent_at": sentAt,
			"updated_at":  sentAt,
		})
}

func (r *deliveryConfirmationRepository) MarkOTPVerified(ctx context.Context, requestID, code string, verifiedAt time.Time) (int64, error) {
	return r.update(ctx,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("purchase_request_id = ? AND otp_verified_at IS NULL AND otp_code = ?", requestID, code)
		},
		map[string]interface{}{
			"otp_verified_at": verifiedAt,
			"updated_at":      verifiedAt,
		})
}

func (r *deliveryConfirmationRepository) SetDeliveryConfirmed(ctx context.Context, requestID string, party model.Party, now time.Time) (int64, error) {
	col := model.DeliveryColumn(party)
	return r.update(ctx,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("purchase_request_id = ? AND otp_verified_at IS NOT NULL", requestID).
				Where(col+" = ?", false)
		},
		map[string]interface{}{
			col:          true,
			"updated_at": now,
		})
}

func (r *deliveryConfirmationRepository) SetPaymentConfirmed(ctx context.Context, requestID string, party model.Party, paymentMethod *string, now time.Time) (int64, error) {
	col := model.PaymentColumn(party)
	values := map[string]interface{}{
		col:          true,
		"updated_at": now,
	}
	if party == model.PartyBuyer {
		values["payment_method"] = paymentMethod
	}
	return r.update(ctx,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("purchase_request_id = ?", requestID).
				Where("buyer_confirmed_delivery = ? AND seller_confirmed_delivery = ?", true, true).
				Where(col+" = ?", false)
		},
		values)
}

func (r *deliveryConfirmationRepository) MarkPayoutProcessed(ctx context.Context, requestID string, now time.Time) (int64, error) {
	return r.update(ctx,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("purchase_request_id = ? AND final_payout_processed = ?", requestID, false).
				Where("buyer_confirmed_payment = ? AND seller_confirmed_payment = ?", true, true)
		},
		map[string]interface{}{
			"final_payout_processed": true,
			"updated_at":             now,
		})
}

func (r *deliveryConfirmationRepository) update(ctx context.Context, guard func(*gorm.DB) *gorm.DB, values map[string]interface{}) (int64, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return 0, err
	}
	res := guard(db.Model(&model.DeliveryConfirmation{})).Updates(values)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
