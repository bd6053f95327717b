package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"github.com/shinyyama/bookswap-backend/internal/reqctx"
	"gorm.io/gorm"
)

type CreateRequestInput struct {
	BookID       string
	BuyerUID     string
	SellerUID    string
	OfferedPrice int64
	TransferMode model.TransferMode
	Message      string
}

// RequestService owns the purchase request status machine:
// pending -> accepted|rejected, accepted -> completed.
type RequestService interface {
	Create(ctx context.Context, in CreateRequestInput) (*model.PurchaseRequest, error)
	Get(ctx context.Context, requestID, actorUID string) (*model.PurchaseRequest, error)
	List(ctx context.Context, actorUID string, role model.Party) ([]model.PurchaseRequest, error)
	Accept(ctx context.Context, requestID, actorUID string) (*model.PurchaseRequest, error)
	Reject(ctx context.Context, requestID, actorUID string) (*model.PurchaseRequest, error)
	SetExpectedDeliveryDate(ctx context.Context, requestID, actorUID string, date time.Time) (*model.PurchaseRequest, error)
	// Complete moves an accepted request to completed. Completing an already
	// completed request is a no-op.
	Complete(ctx context.Context, requestID string) (*model.PurchaseRequest, error)
}

type requestService struct {
	requests        repository.PurchaseRequestRepository
	books           repository.BookRepository
	messenger       DirectMessenger
	notifier        NotificationPort
	deliveryHorizon time.Duration
	now             func() time.Time
}

func NewRequestService(requests repository.PurchaseRequestRepository, books repository.BookRepository, messenger DirectMessenger, notifier NotificationPort, deliveryHorizon time.Duration, opts ...Option) RequestService {
	st := newSettings(opts)
	if deliveryHorizon <= 0 {
		deliveryHorizon = 30 * 24 * time.Hour
	}
	return &requestService{
		requests:        requests,
		books:           books,
		messenger:       messenger,
		notifier:        notifier,
		deliveryHorizon: deliveryHorizon,
		now:             st.now,
	}
}

func (s *requestService) Create(ctx context.Context, in CreateRequestInput) (*model.PurchaseRequest, error) {
	if in.BookID == "" || in.BuyerUID == "" || in.SellerUID == "" {
		return nil, ErrInvalidInput
	}
	if in.BuyerUID == in.SellerUID {
		return nil, ErrSelfPurchase
	}
	if !in.TransferMode.Valid() {
		return nil, ErrInvalidInput
	}
	if in.OfferedPrice <= 0 {
		return nil, ErrInvalidOffer
	}
	book, err := s.books.FindByID(ctx, in.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !book.Available || book.SellerUID != in.SellerUID {
		return nil, ErrNotFound
	}
	if in.OfferedPrice > book.Price {
		return nil, ErrInvalidOffer
	}

	now := s.now()
	req := &model.PurchaseRequest{
		ID:           uuid.NewString(),
		BookID:       in.BookID,
		BuyerUID:     in.BuyerUID,
		SellerUID:    in.SellerUID,
		OfferedPrice: in.OfferedPrice,
		TransferMode: in.TransferMode,
		Status:       model.RequestStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if msg := strings.TrimSpace(in.Message); msg != "" {
		req.Message = &msg
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	if req.Message != nil && s.messenger != nil {
		if err := s.messenger.Send(ctx, req, req.BuyerUID, "Buyer", *req.Message); err != nil {
			log.Printf("[request] rid=%s request=%s stage=message err=%v", reqctx.RID(ctx), req.ID, err)
		}
	}
	s.notify(ctx, req.SellerUID, NotifyRequestCreated, "New purchase request",
		fmt.Sprintf("You received an offer of %d for %q.", req.OfferedPrice, book.Title), req.ID, model.PriorityHigh)
	return req, nil
}

func (s *requestService) Get(ctx context.Context, requestID, actorUID string) (*model.PurchaseRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParty(actorUID) {
		return nil, ErrForbidden
	}
	return req, nil
}

func (s *requestService) List(ctx context.Context, actorUID string, role model.Party) ([]model.PurchaseRequest, error) {
	if actorUID == "" {
		return nil, ErrForbidden
	}
	switch role {
	case model.PartyBuyer:
		return s.requests.ListByBuyer(ctx, actorUID)
	case model.PartySeller:
		return s.requests.ListBySeller(ctx, actorUID)
	}
	return nil, ErrInvalidInput
}

func (s *requestService) Accept(ctx context.Context, requestID, actorUID string) (*model.PurchaseRequest, error) {
	req, err := s.decide(ctx, requestID, actorUID, model.RequestStatusAccepted)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, req.BuyerUID, NotifyRequestAccepted, "Request accepted",
		"The seller accepted your purchase request. Agree on a delivery date next.", req.ID, model.PriorityHigh)
	return req, nil
}

func (s *requestService) Reject(ctx context.Context, requestID, actorUID string) (*model.PurchaseRequest, error) {
	req, err := s.decide(ctx, requestID, actorUID, model.RequestStatusRejected)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, req.BuyerUID, NotifyRequestRejected, "Request declined",
		"The seller declined your purchase request.", req.ID, model.PriorityNormal)
	return req, nil
}

// decide applies a seller decision on a pending request.
func (s *requestService) decide(ctx context.Context, requestID, actorUID string, to model.RequestStatus) (*model.PurchaseRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actorUID == "" || req.SellerUID != actorUID {
		return nil, ErrForbidden
	}
	if !req.Status.CanTransitionTo(to) {
		return nil, ErrIllegalTransition
	}
	n, err := s.requests.TransitionStatus(ctx, requestID, actorUID, model.RequestStatusPending, to, s.now())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// lost a race with a concurrent decision
		return nil, ErrIllegalTransition
	}
	return s.load(ctx, requestID)
}

func (s *requestService) SetExpectedDeliveryDate(ctx context.Context, requestID, actorUID string, date time.Time) (*model.PurchaseRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParty(actorUID) {
		return nil, ErrForbidden
	}
	if req.Status != model.RequestStatusAccepted || req.ExpectedDeliveryDate != nil {
		return nil, ErrIllegalTransition
	}
	day := truncateDay(date)
	today := truncateDay(s.now())
	if !day.After(today) || day.After(today.Add(s.deliveryHorizon)) {
		return nil, ErrInvalidDate
	}
	n, err := s.requests.SetExpectedDeliveryDateIfUnset(ctx, requestID, day, s.now())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrIllegalTransition
	}
	updated, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	counterpart := updated.SellerUID
	if actorUID == updated.SellerUID {
		counterpart = updated.BuyerUID
	}
	s.notify(ctx, counterpart, NotifyDeliveryDateSet, "Delivery date set",
		fmt.Sprintf("Expected delivery date: %s.", day.Format("2006-01-02")), updated.ID, model.PriorityNormal)
	return updated, nil
}

func (s *requestService) Complete(ctx context.Context, requestID string) (*model.PurchaseRequest, error) {
	n, err := s.requests.TransitionStatus(ctx, requestID, "", model.RequestStatusAccepted, model.RequestStatusCompleted, s.now())
	if err != nil {
		return nil, err
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if n == 0 && req.Status != model.RequestStatusCompleted {
		return nil, ErrIllegalTransition
	}
	return req, nil
}

func (s *requestService) load(ctx context.Context, requestID string) (*model.PurchaseRequest, error) {
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

func (s *requestService) notify(ctx context.Context, userID, typ, title, message, relatedID string, priority model.NotificationPriority) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, typ, title, message, relatedID, priority)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
