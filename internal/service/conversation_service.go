package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"gorm.io/gorm"
)

// ConversationService exposes the buyer/seller thread of a request. Delivery
// codes are posted into the same thread by the system sender.
type ConversationService interface {
	Messages(ctx context.Context, requestID, actorUID string) ([]model.Message, error)
	Post(ctx context.Context, requestID, actorUID, senderName, body string) (*model.Message, error)
}

type conversationService struct {
	requests repository.PurchaseRequestRepository
	convRepo repository.ConversationRepository
	notifier NotificationPort
}

func NewConversationService(requests repository.PurchaseRequestRepository, convRepo repository.ConversationRepository, notifier NotificationPort) ConversationService {
	return &conversationService{requests: requests, convRepo: convRepo, notifier: notifier}
}

func (s *conversationService) Messages(ctx context.Context, requestID, actorUID string) ([]model.Message, error) {
	cv, _, err := s.thread(ctx, requestID, actorUID)
	if err != nil {
		return nil, err
	}
	return s.convRepo.ListMessages(ctx, cv.ID)
}

func (s *conversationService) Post(ctx context.Context, requestID, actorUID, senderName, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrInvalidInput
	}
	cv, req, err := s.thread(ctx, requestID, actorUID)
	if err != nil {
		return nil, err
	}
	if senderName == "" {
		senderName = "Seller"
		if actorUID == req.BuyerUID {
			senderName = "Buyer"
		}
	}
	msg := &model.Message{
		ConversationID: cv.ID,
		SenderUID:      actorUID,
		SenderName:     senderName,
		Body:           body,
	}
	if err := s.convRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		to := req.SellerUID
		if actorUID == req.SellerUID {
			to = req.BuyerUID
		}
		s.notifier.Notify(ctx, to, NotifyMessage, "New message", body, req.ID, model.PriorityLow)
	}
	return msg, nil
}

func (s *conversationService) thread(ctx context.Context, requestID, actorUID string) (*model.Conversation, *model.PurchaseRequest, error) {
	if requestID == "" {
		return nil, nil, ErrNotFound
	}
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if !req.IsParty(actorUID) {
		return nil, nil, ErrForbidden
	}
	cv, err := s.convRepo.FindOrCreate(ctx, req.BookID, req.SellerUID, req.BuyerUID)
	if err != nil {
		return nil, nil, err
	}
	return cv, req, nil
}
