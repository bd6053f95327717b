package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.PurchaseRequest{}, &model.DeliveryConfirmation{}, &model.UserWallet{}))
	return db
}

func TestConnWithoutDB(t *testing.T) {
	_, err := NewBookRepository(nil).FindByID(context.Background(), "x")
	require.ErrorIs(t, err, ErrDBNotReady)
}

func TestTransitionStatusGuard(t *testing.T) {
	db := openTestDB(t)
	repo := NewPurchaseRequestRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	req := &model.PurchaseRequest{ID: uuid.NewString(), BookID: "b", BuyerUID: "buyer", SellerUID: "seller",
		OfferedPrice: 10, TransferMode: model.TransferModeSelf, Status: model.RequestStatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, req))

	n, err := repo.TransitionStatus(ctx, req.ID, "buyer", model.RequestStatusPending, model.RequestStatusAccepted, now)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = repo.TransitionStatus(ctx, req.ID, "seller", model.RequestStatusPending, model.RequestStatusAccepted, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = repo.TransitionStatus(ctx, req.ID, "seller", model.RequestStatusPending, model.RequestStatusRejected, now)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestDeliveryConfirmationGuards(t *testing.T) {
	db := openTestDB(t)
	repo := NewDeliveryConfirmationRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	d := &model.DeliveryConfirmation{ID: uuid.NewString(), PurchaseRequestID: "r1", BuyerUID: "b", SellerUID: "s",
		OTPCode: "123456", OTPSentAt: now, CreatedAt: now, UpdatedAt: now}
	created, err := repo.CreateIfAbsent(ctx, d)
	require.NoError(t, err)
	require.True(t, created)

	dup := *d
	dup.ID = uuid.NewString()
	created, err = repo.CreateIfAbsent(ctx, &dup)
	require.NoError(t, err)
	require.False(t, created)

	n, err := repo.SetDeliveryConfirmed(ctx, "r1", model.PartyBuyer, now)
	require.NoError(t, err)
	require.Zero(t, n, "delivery before verification")

	n, err = repo.MarkOTPVerified(ctx, "r1", "000000", now)
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = repo.MarkOTPVerified(ctx, "r1", "123456", now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	n, err = repo.ReplacePendingOTP(ctx, "r1", "654321", now)
	require.NoError(t, err)
	require.Zero(t, n)

	for _, p := range []model.Party{model.PartyBuyer, model.PartySeller} {
		n, err = repo.SetDeliveryConfirmed(ctx, "r1", p, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	}
	n, err = repo.MarkPayoutProcessed(ctx, "r1", now)
	require.NoError(t, err)
	require.Zero(t, n, "payout before payment")

	method := "cash"
	_, err = repo.SetPaymentConfirmed(ctx, "r1", model.PartyBuyer, &method, now)
	require.NoError(t, err)
	_, err = repo.SetPaymentConfirmed(ctx, "r1", model.PartySeller, nil, now)
	require.NoError(t, err)

	n, err = repo.MarkPayoutProcessed(ctx, "r1", now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	n, err = repo.MarkPayoutProcessed(ctx, "r1", now)
	require.NoError(t, err)
	require.Zero(t, n)

	got, err := repo.FindByRequest(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "cash", *got.PaymentMethod)
	require.True(t, got.FinalPayoutProcessed)
}

func TestWalletUpsertAndRollback(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserWalletRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddRevenue(ctx, "u1", 80))
	require.NoError(t, repo.AddRevenue(ctx, "u1", 20))
	require.NoError(t, repo.AddDeposit(ctx, "u1", -20))

	boom := errors.New("boom")
	err := NewTransactor(db).InTx(ctx, func(ctx context.Context) error {
		if err := repo.AddRevenue(ctx, "u1", 1000); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	w, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 100, w.RevenueAmount)
	require.EqualValues(t, -20, w.DepositAmount)

	require.ErrorIs(t, repo.WithdrawRevenue(ctx, "u1", 101), gorm.ErrRecordNotFound)
	require.NoError(t, repo.WithdrawRevenue(ctx, "u1", 100))
}
