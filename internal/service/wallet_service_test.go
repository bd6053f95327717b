package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalletWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.wallets.Get(ctx, sellerUID)
	require.NoError(t, err)
	require.Zero(t, w.RevenueAmount)

	require.NoError(t, f.walletRepo.AddRevenue(ctx, sellerUID, 80))

	_, err = f.wallets.Withdraw(ctx, sellerUID, 100)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	_, err = f.wallets.Withdraw(ctx, sellerUID, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	w, err = f.wallets.Withdraw(ctx, sellerUID, 50)
	require.NoError(t, err)
	require.EqualValues(t, 30, w.RevenueAmount)

	_, err = f.wallets.Withdraw(ctx, "", 10)
	require.ErrorIs(t, err, ErrForbidden)
}
