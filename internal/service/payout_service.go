package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/receipt"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"github.com/shinyyama/bookswap-backend/internal/reqctx"
)

type PayoutResult struct {
	RequestID     string
	BookID        string
	BuyerUID      string
	SellerUID     string
	OfferedPrice  int64
	SellerBonus   int64
	SellerPayout  int64
	PlatformFee   int64
	PaymentMethod string
	ProcessedAt   time.Time
}

// PayoutCalculator releases the seller payout once both parties confirmed
// payment. TryFinalize returns ErrNotReady when there is nothing to do.
type PayoutCalculator interface {
	TryFinalize(ctx context.Context, requestID string) (*PayoutResult, error)
}

type PayoutPolicy struct {
	SellerBonus int64
	PlatformFee int64
}

// ComputePayout returns what the seller is credited and what the buyer is charged.
func (p PayoutPolicy) ComputePayout(offeredPrice int64) (sellerPayout, platformFee int64) {
	return offeredPrice + p.SellerBonus, p.PlatformFee
}

type payoutService struct {
	tx            repository.Transactor
	confirmations repository.DeliveryConfirmationRepository
	wallets       repository.UserWalletRepository
	books         repository.BookRepository
	lifecycle     RequestService
	notifier      NotificationPort
	archiver      receipt.Archiver
	policy        PayoutPolicy
	now           func() time.Time
}

func NewPayoutService(tx repository.Transactor, confirmations repository.DeliveryConfirmationRepository, wallets repository.UserWalletRepository, books repository.BookRepository, lifecycle RequestService, notifier NotificationPort, archiver receipt.Archiver, policy PayoutPolicy, opts ...Option) PayoutCalculator {
	st := newSettings(opts)
	if archiver == nil {
		archiver = receipt.NewNopArchiver()
	}
	return &payoutService{
		tx:            tx,
		confirmations: confirmations,
		wallets:       wallets,
		books:         books,
		lifecycle:     lifecycle,
		notifier:      notifier,
		archiver:      archiver,
		policy:        policy,
		now:           st.now,
	}
}

func (s *payoutService) TryFinalize(ctx context.Context, requestID string) (*PayoutResult, error) {
	var result *PayoutResult
	err := s.tx.InTx(ctx, func(txCtx context.Context) error {
		now := s.now()
		n, err := s.confirmations.MarkPayoutProcessed(txCtx, requestID, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotReady
		}
		d, err := s.confirmations.FindByRequest(txCtx, requestID)
		if err != nil {
			return err
		}
		req, err := s.lifecycle.Complete(txCtx, requestID)
		if err != nil {
			return err
		}
		payout, fee := s.policy.ComputePayout(req.OfferedPrice)
		if err := s.wallets.AddRevenue(txCtx, req.SellerUID, payout); err != nil {
			return fmt.Errorf("credit seller: %w", err)
		}
		if fee != 0 {
			if err := s.wallets.AddDeposit(txCtx, req.BuyerUID, -fee); err != nil {
				return fmt.Errorf("charge fee: %w", err)
			}
		}
		if err := s.books.MarkSold(txCtx, req.BookID); err != nil {
			return fmt.Errorf("mark book sold: %w", err)
		}
		result = &PayoutResult{
			RequestID:    req.ID,
			BookID:       req.BookID,
			BuyerUID:     req.BuyerUID,
			SellerUID:    req.SellerUID,
			OfferedPrice: req.OfferedPrice,
			SellerBonus:  s.policy.SellerBonus,
			SellerPayout: payout,
			PlatformFee:  fee,
			ProcessedAt:  now,
		}
		if d.PaymentMethod != nil {
			result.PaymentMethod = *d.PaymentMethod
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rid := reqctx.RID(ctx)
	log.Printf("[payout] rid=%s request=%s seller=%s payout=%d fee=%d", rid, result.RequestID, result.SellerUID, result.SellerPayout, result.PlatformFee)
	if s.notifier != nil {
		s.notifier.Notify(ctx, result.SellerUID, NotifyTransactionComplete, "Transaction complete",
			fmt.Sprintf("%d has been added to your revenue.", result.SellerPayout), result.RequestID, model.PriorityHigh)
		s.notifier.Notify(ctx, result.BuyerUID, NotifyTransactionComplete, "Transaction complete",
			fmt.Sprintf("Thanks for your purchase. The seller received %d and a platform fee of %d was charged to your deposit.", result.SellerPayout, result.PlatformFee), result.RequestID, model.PriorityNormal)
	}
	if err := s.archiver.Archive(ctx, receipt.Receipt{
		RequestID:     result.RequestID,
		BookID:        result.BookID,
		BuyerID:       result.BuyerUID,
		SellerID:      result.SellerUID,
		OfferedPrice:  result.OfferedPrice,
		SellerBonus:   result.SellerBonus,
		SellerPayout:  result.SellerPayout,
		PlatformFee:   result.PlatformFee,
		PaymentMethod: result.PaymentMethod,
		ProcessedAt:   result.ProcessedAt,
	}); err != nil {
		log.Printf("[payout] rid=%s request=%s stage=archive err=%v", rid, result.RequestID, err)
	}
	return result, nil
}
