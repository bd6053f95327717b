package repository

import (
	"context"
	"time"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"gorm.io/gorm"
)

type PurchaseRequestRepository interface {
	Create(ctx context.Context, r *model.PurchaseRequest) error
	FindByID(ctx context.Context, id string) (*model.PurchaseRequest, error)
	// TransitionStatus moves the request from one status to another only if it
	// is currently in from (and, when sellerUID is set, owned by that seller).
	// It returns the number of rows changed.
	TransitionStatus(ctx context.Context, id, sellerUID string, from, to model.RequestStatus, now time.Time) (int64, error)
	SetExpectedDeliveryDateIfUnset(ctx context.Context, id string, date, now time.Time) (int64, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.PurchaseRequest, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.PurchaseRequest, error)
}

type purchaseRequestRepository struct {
	db *gorm.DB
}

func NewPurchaseRequestRepository(db *gorm.DB) PurchaseRequestRepository {
	return &purchaseRequestRepository{db: db}
}

func (r *purchaseRequestRepository) Create(ctx context.Context, p *model.PurchaseRequest) error {
	db, err := conn(ctx, r.db)
	if err != nil {
		return err
	}
	return db.Create(p).Error
}

func (r *purchaseRequestRepository) FindByID(ctx context.Context, id string) (*model.PurchaseRequest, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var p model.PurchaseRequest
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRequestRepository) TransitionStatus(ctx context.Context, id, sellerUID string, from, to model.RequestStatus, now time.Time) (int64, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return 0, err
	}
	q := db.Model(&model.PurchaseRequest{}).Where("id = ? AND status = ?", id, from)
	if sellerUID != "" {
		q = q.Where("seller_uid = ?", sellerUID)
	}
	res := q.Updates(map[string]interface{}{
		"status":     to,
		"updated_at": now,
	})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *purchaseRequestRepository) SetExpectedDeliveryDateIfUnset(ctx context.Context, id string, date, now time.Time) (int64, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return 0, err
	}
	res := db.Model(&model.PurchaseRequest{}).
		Where("id = ? AND status = ? AND expected_delivery_date IS NULL", id, model.RequestStatusAccepted).
		Updates(map[string]interface{}{
			"expected_delivery_date": date,
			"updated_at":             now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *purchaseRequestRepository) ListByBuyer(ctx context.Context, buyerUID string) ([]model.PurchaseRequest, error) {
	return r.list(ctx, "buyer_uid = ?", buyerUID)
}

func (r *purchaseRequestRepository) ListBySeller(ctx context.Context, sellerUID string) ([]model.PurchaseRequest, error) {
	return r.list(ctx, "seller_uid = ?", sellerUID)
}

func (r *purchaseRequestRepository) list(ctx context.Context, cond string, uid string) ([]model.PurchaseRequest, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var list []model.PurchaseRequest
	if err := db.Where(cond, uid).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
