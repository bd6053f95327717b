package service

import (
	"context"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/repository"
)

// DirectMessenger posts into the buyer/seller conversation of a request.
type DirectMessenger interface {
	Send(ctx context.Context, req *model.PurchaseRequest, senderUID, senderName, body string) error
}

type conversationMessenger struct {
	convRepo repository.ConversationRepository
}

func NewDirectMessenger(convRepo repository.ConversationRepository) DirectMessenger {
	return &conversationMessenger{convRepo: convRepo}
}

func (m *conversationMessenger) Send(ctx context.Context, req *model.PurchaseRequest, senderUID, senderName, body string) error {
	cv, err := m.convRepo.FindOrCreate(ctx, req.BookID, req.SellerUID, req.BuyerUID)
	if err != nil {
		return err
	}
	return m.convRepo.CreateMessage(ctx, &model.Message{
		ConversationID: cv.ID,
		SenderUID:      senderUID,
		SenderName:     senderName,
		Body:           body,
	})
}
