package service

import (
	"context"
	"log"
	"time"

	"github.com/shinyyama/bookswap-backend/internal/events"
	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"github.com/shinyyama/bookswap-backend/internal/reqctx"
)

const (
	NotifyRequestCreated      = "request_created"
	NotifyRequestAccepted     = "request_accepted"
	NotifyRequestRejected     = "request_rejected"
	NotifyDeliveryDateSet     = "delivery_date_set"
	NotifyOTPIssued           = "delivery_otp"
	NotifyOTPVerified         = "delivery_otp_verified"
	NotifyDeliveryConfirmed   = "delivery_confirmed"
	NotifyPaymentConfirmed    = "payment_confirmed"
	NotifyTransactionComplete = "transaction_complete"
	NotifyMessage             = "message"
)

// NotificationPort is the outbound channel the workflow uses to inform users.
// Implementations never fail the caller.
type NotificationPort interface {
	Notify(ctx context.Context, userID, typ, title, message, relatedID string, priority model.NotificationPriority)
}

type NotificationService interface {
	NotificationPort
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userUID string) error
	MarkByRelated(ctx context.Context, userUID, relatedID string) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	publisher events.Publisher
}

func NewNotificationService(repo repository.NotificationRepository, publisher events.Publisher) NotificationService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &notificationService{repo: repo, publisher: publisher}
}

// Notify is best-effort; it logs errors but does not return them to avoid breaking main flows.
// The in-app row and the fan-out event are independent deliveries.
func (s *notificationService) Notify(ctx context.Context, userID, typ, title, message, relatedID string, priority model.NotificationPriority) {
	if userID == "" || typ == "" {
		return
	}
	if priority == "" {
		priority = model.PriorityNormal
	}
	rid := reqctx.RID(ctx)

	n := &model.Notification{
		UserUID:  userID,
		Type:     typ,
		Title:    title,
		Body:     message,
		Priority: priority,
	}
	if relatedID != "" {
		n.RelatedID = &relatedID
	}
	storeCtx, cancel := withShortDeadline(ctx)
	if err := s.repo.Create(storeCtx, n); err != nil {
		log.Printf("[notify] rid=%s user=%s type=%s stage=store err=%v", rid, userID, typ, err)
	}
	cancel()

	pubCtx, cancel := withShortDeadline(ctx)
	defer cancel()
	err := s.publisher.Publish(pubCtx, events.NotificationEvent{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
		Priority:  string(priority),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[notify] rid=%s user=%s type=%s stage=publish err=%v", rid, userID, typ, err)
	}
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) error {
	if userUID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userUID)
}

func (s *notificationService) MarkByRelated(ctx context.Context, userUID, relatedID string) error {
	if userUID == "" || relatedID == "" {
		return nil
	}
	return s.repo.MarkByRelated(ctx, userUID, relatedID)
}

// withShortDeadline wraps context with a short deadline to avoid blocking main flow.
func withShortDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 2*time.Second)
}
