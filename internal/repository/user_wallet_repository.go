package repository

import (
	"context"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserWalletRepository interface {
	AddRevenue(ctx context.Context, uid string, amount int64) error
	AddDeposit(ctx context.Context, uid string, amount int64) error
	WithdrawRevenue(ctx context.Context, uid string, amount int64) error
	Get(ctx context.Context, uid string) (*model.UserWallet, error)
}

type userWalletRepository struct {
	db *gorm.DB
}

func NewUserWalletRepository(db *gorm.DB) UserWalletRepository {
	return &userWalletRepository{db: db}
}

func (r *userWalletRepository) AddRevenue(ctx context.Context, uid string, amount int64) error {
	return r.upsertAdd(ctx, uid, "revenue_amount", amount, &model.UserWallet{UID: uid, RevenueAmount: amount})
}

// AddDeposit adjusts the deposit by amount; a negative amount charges a fee.
func (r *userWalletRepository) AddDeposit(ctx context.Context, uid string, amount int64) error {
	return r.upsertAdd(ctx, uid, "deposit_amount", amount, &model.UserWallet{UID: uid, DepositAmount: amount})
}

func (r *userWalletRepository) upsertAdd(ctx context.Context, uid, col string, amount int64, seed *model.UserWallet) error {
	db, err := conn(ctx, r.db)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{col: gorm.Expr(col+" + ?", amount)}),
	}).Create(seed).Error
}

func (r *userWalletRepository) WithdrawRevenue(ctx context.Context, uid string, amount int64) error {
	db, err := conn(ctx, r.db)
	if err != nil {
		return err
	}
	res := db.Model(&model.UserWallet{}).
		Where("uid = ? AND revenue_amount >= ?", uid, amount).
		Update("revenue_amount", gorm.Expr("revenue_amount - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userWalletRepository) Get(ctx context.Context, uid string) (*model.UserWallet, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var w model.UserWallet
	if err := db.Where("uid = ?", uid).FirstOrCreate(&w, &model.UserWallet{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &w, nil
}
