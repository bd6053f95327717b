package repository

import (
	"context"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	FindOrCreate(ctx context.Context, bookID, sellerUID, buyerUID string) (*model.Conversation, error)
	CreateMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, convID uint64) ([]model.Message, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindOrCreate(ctx context.Context, bookID, sellerUID, buyerUID string) (*model.Conversation, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return nil, err
	}
	cv := model.Conversation{BookID: bookID, SellerUID: sellerUID, BuyerUID: buyerUID}
	if err := db.
		Where("book_id = ? AND buyer_uid = ?", bookID, buyerUID).
		FirstOrCreate(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	db, err := conn(ctx, r.db)
	if err != nil {
		return err
	}
	return db.Create(msg).Error
}

func (r *conversationRepository) ListMessages(ctx context.Context, convID uint64) ([]model.Message, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var msgs []model.Message
	if err := db.
		Where("conversation_id = ?", convID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
