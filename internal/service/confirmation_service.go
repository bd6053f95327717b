package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"gorm.io/gorm"
)

type ConfirmationStatus struct {
	RequestID               string
	OTPIssued               bool
	OTPSentAt               *time.Time
	OTPVerifiedAt           *time.Time
	BuyerConfirmedDelivery  bool
	SellerConfirmedDelivery bool
	BuyerConfirmedPayment   bool
	SellerConfirmedPayment  bool
	PaymentMethod           *string
	FinalPayoutProcessed    bool
}

type PaymentConfirmation struct {
	Status *ConfirmationStatus
	// Payout is set only on the call that released the payout.
	Payout *PayoutResult
}

// ConfirmationService records the two-party delivery and payment handshake.
type ConfirmationService interface {
	ConfirmDelivery(ctx context.Context, requestID, actorUID string, party model.Party) (*ConfirmationStatus, error)
	ConfirmPayment(ctx context.Context, requestID, actorUID string, party model.Party, paymentMethod string) (*PaymentConfirmation, error)
	GetStatus(ctx context.Context, requestID, actorUID string) (*ConfirmationStatus, error)
}

type confirmationService struct {
	requests      repository.PurchaseRequestRepository
	confirmations repository.DeliveryConfirmationRepository
	payouts       PayoutCalculator
	notifier      NotificationPort
	now           func() time.Time
}

func NewConfirmationService(requests repository.PurchaseRequestRepository, confirmations repository.DeliveryConfirmationRepository, payouts PayoutCalculator, notifier NotificationPort, opts ...Option) ConfirmationService {
	st := newSettings(opts)
	return &confirmationService{
		requests:      requests,
		confirmations: confirmations,
		payouts:       payouts,
		notifier:      notifier,
		now:           st.now,
	}
}

func (s *confirmationService) ConfirmDelivery(ctx context.Context, requestID, actorUID string, party model.Party) (*ConfirmationStatus, error) {
	req, err := s.authorizeParty(ctx, requestID, actorUID, party)
	if err != nil {
		return nil, err
	}
	n, err := s.confirmations.SetDeliveryConfirmed(ctx, req.ID, party, s.now())
	if err != nil {
		return nil, err
	}
	d, err := s.confirmations.FindByRequest(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOtpNotVerified
		}
		return nil, err
	}
	if n == 0 && d.OTPVerifiedAt == nil {
		return nil, ErrOtpNotVerified
	}
	if n > 0 {
		s.notifyCounterpart(ctx, req, party, NotifyDeliveryConfirmed, "Delivery confirmed",
			fmt.Sprintf("The %s confirmed the delivery.", party))
	}
	return toStatus(req.ID, d), nil
}

func (s *confirmationService) ConfirmPayment(ctx context.Context, requestID, actorUID string, party model.Party, paymentMethod string) (*PaymentConfirmation, error) {
	req, err := s.authorizeParty(ctx, requestID, actorUID, party)
	if err != nil {
		return nil, err
	}
	var method *string
	if party == model.PartyBuyer {
		m := strings.TrimSpace(paymentMethod)
		if m == "" {
			return nil, ErrPaymentMethodRequired
		}
		method = &m
	}
	n, err := s.confirmations.SetPaymentConfirmed(ctx, req.ID, party, method, s.now())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		d, err := s.confirmations.FindByRequest(ctx, req.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDeliveryNotConfirmed
			}
			return nil, err
		}
		if !d.DeliveryConfirmedByBoth() {
			return nil, ErrDeliveryNotConfirmed
		}
	} else {
		s.notifyCounterpart(ctx, req, party, NotifyPaymentConfirmed, "Payment confirmed",
			fmt.Sprintf("The %s confirmed the payment.", party))
	}

	out := &PaymentConfirmation{}
	payout, err := s.payouts.TryFinalize(ctx, req.ID)
	switch {
	case err == nil:
		out.Payout = payout
	case errors.Is(err, ErrNotReady):
	default:
		return nil, fmt.Errorf("finalize payout: %w", err)
	}

	d, err := s.confirmations.FindByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	out.Status = toStatus(req.ID, d)
	return out, nil
}

func (s *confirmationService) GetStatus(ctx context.Context, requestID, actorUID string) (*ConfirmationStatus, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParty(actorUID) {
		return nil, ErrForbidden
	}
	d, err := s.confirmations.FindByRequest(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ConfirmationStatus{RequestID: req.ID}, nil
		}
		return nil, err
	}
	return toStatus(req.ID, d), nil
}

// authorizeParty checks that actorUID is the claimed side of the request.
func (s *confirmationService) authorizeParty(ctx context.Context, requestID, actorUID string, party model.Party) (*model.PurchaseRequest, error) {
	if !party.Valid() {
		return nil, ErrInvalidInput
	}
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	owner := req.BuyerUID
	if party == model.PartySeller {
		owner = req.SellerUID
	}
	if actorUID == "" || actorUID != owner {
		return nil, ErrForbidden
	}
	return req, nil
}

func (s *confirmationService) loadRequest(ctx context.Context, requestID string) (*model.PurchaseRequest, error) {
	if requestID == "" {
		return nil, ErrNotFound
	}
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *confirmationService) notifyCounterpart(ctx context.Context, req *model.PurchaseRequest, party model.Party, typ, title, message string) {
	if s.notifier == nil {
		return
	}
	to := req.SellerUID
	if party == model.PartySeller {
		to = req.BuyerUID
	}
	s.notifier.Notify(ctx, to, typ, title, message, req.ID, model.PriorityNormal)
}

func toStatus(requestID string, d *model.DeliveryConfirmation) *ConfirmationStatus {
	st := &ConfirmationStatus{
		RequestID:               requestID,
		OTPIssued:               true,
		OTPVerifiedAt:           d.OTPVerifiedAt,
		BuyerConfirmedDelivery:  d.BuyerConfirmedDelivery,
		SellerConfirmedDelivery: d.SellerConfirmedDelivery,
		BuyerConfirmedPayment:   d.BuyerConfirmedPayment,
		SellerConfirmedPayment:  d.SellerConfirmedPayment,
		PaymentMethod:           d.PaymentMethod,
		FinalPayoutProcessed:    d.FinalPayoutProcessed,
	}
	sent := d.OTPSentAt
	st.OTPSentAt = &sent
	return st
}
