package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/stretchr/testify/require"
)

func TestComputePayout(t *testing.T) {
	p := PayoutPolicy{SellerBonus: 30, PlatformFee: 20}
	payout, fee := p.ComputePayout(50)
	require.EqualValues(t, 80, payout)
	require.EqualValues(t, 20, fee)
}

func TestHappyPathReleasesPayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.deliveredRequest(t, 50)

	first, err := f.confirm.ConfirmPayment(ctx, req.ID, buyerUID, model.PartyBuyer, "bank_transfer")
	require.NoError(t, err)
	require.Nil(t, first.Payout)

	second, err := f.confirm.ConfirmPayment(ctx, req.ID, sellerUID, model.PartySeller, "")
	require.NoError(t, err)
	require.NotNil(t, second.Payout)
	require.EqualValues(t, 80, second.Payout.SellerPayout)
	require.EqualValues(t, 20, second.Payout.PlatformFee)
	require.Equal(t, "bank_transfer", second.Payout.PaymentMethod)
	require.True(t, second.Status.FinalPayoutProcessed)

	got, err := f.requests.Get(ctx, req.ID, buyerUID)
	require.NoError(t, err)
	require.Equal(t, model.RequestStatusCompleted, got.Status)

	seller, err := f.wallets.Get(ctx, sellerUID)
	require.NoError(t, err)
	require.EqualValues(t, 80, seller.RevenueAmount)
	buyer, err := f.wallets.Get(ctx, buyerUID)
	require.NoError(t, err)
	require.EqualValues(t, -20, buyer.DepositAmount)

	book, err := f.books.FindByID(ctx, req.BookID)
	require.NoError(t, err)
	require.False(t, book.Available)

	require.Len(t, f.archiver.receipts, 1)
	require.Equal(t, req.ID, f.archiver.receipts[0].RequestID)
	require.Equal(t, 2, f.notifier.count(NotifyTransactionComplete))
	for _, n := range f.notifier.sent {
		if n.Type != NotifyTransactionComplete {
			continue
		}
		require.Contains(t, n.Message, "80")
		if n.UserID == buyerUID {
			require.Contains(t, n.Message, "20")
		}
	}

	// repeated confirmation is a no-op
	again, err := f.confirm.ConfirmPayment(ctx, req.ID, sellerUID, model.PartySeller, "")
	require.NoError(t, err)
	require.Nil(t, again.Payout)
	seller, err = f.wallets.Get(ctx, sellerUID)
	require.NoError(t, err)
	require.EqualValues(t, 80, seller.RevenueAmount)
}

func TestTryFinalizeNotReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.deliveredRequest(t, 50)

	_, err := f.payouts.TryFinalize(ctx, req.ID)
	require.ErrorIs(t, err, ErrNotReady)
	_, err = f.payouts.TryFinalize(ctx, "missing")
	require.ErrorIs(t, err, ErrNotReady)
}

func TestConcurrentFinalizePaysOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.deliveredRequest(t, 50)

	method := "cash"
	_, err := f.confirmations.SetPaymentConfirmed(ctx, req.ID, model.PartyBuyer, &method, f.clock.Now())
	require.NoError(t, err)
	_, err = f.confirmations.SetPaymentConfirmed(ctx, req.ID, model.PartySeller, nil, f.clock.Now())
	require.NoError(t, err)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		payouts  int
		notReady int
		others   []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.payouts.TryFinalize(ctx, req.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				payouts++
			case errors.Is(err, ErrNotReady):
				notReady++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, others)
	require.Equal(t, 1, payouts)
	require.Equal(t, workers-1, notReady)

	seller, err := f.wallets.Get(ctx, sellerUID)
	require.NoError(t, err)
	require.EqualValues(t, 80, seller.RevenueAmount)
	require.Equal(t, 2, f.notifier.count(NotifyTransactionComplete))
}

func TestConcurrentPaymentConfirmationsPayOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.deliveredRequest(t, 50)

	var (
		wg      sync.WaitGroup
		results [2]*PaymentConfirmation
		errs    [2]error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = f.confirm.ConfirmPayment(ctx, req.ID, buyerUID, model.PartyBuyer, "cash")
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = f.confirm.ConfirmPayment(ctx, req.ID, sellerUID, model.PartySeller, "")
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	paid := 0
	for _, r := range results {
		if r.Payout != nil {
			paid++
		}
	}
	require.Equal(t, 1, paid)
	require.Len(t, f.archiver.receipts, 1)
}

func TestFinalizeRollsBackWhenRequestNotAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.deliveredRequest(t, 50)

	// force an inconsistent request status
	require.NoError(t, f.db.Model(&model.PurchaseRequest{}).Where("id = ?", req.ID).
		Update("status", model.RequestStatusRejected).Error)

	method := "cash"
	_, err := f.confirmations.SetPaymentConfirmed(ctx, req.ID, model.PartyBuyer, &method, f.clock.Now())
	require.NoError(t, err)
	_, err = f.confirmations.SetPaymentConfirmed(ctx, req.ID, model.PartySeller, nil, f.clock.Now())
	require.NoError(t, err)

	_, err = f.payouts.TryFinalize(ctx, req.ID)
	require.ErrorIs(t, err, ErrIllegalTransition)

	d, err := f.confirmations.FindByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.False(t, d.FinalPayoutProcessed)
	seller, err := f.wallets.Get(ctx, sellerUID)
	require.NoError(t, err)
	require.Zero(t, seller.RevenueAmount)
}
