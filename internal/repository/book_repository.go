package repository

import (
	"context"
	"time"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"gorm.io/gorm"
)

type BookRepository interface {
	Create(ctx context.Context, b *model.Book) error
	FindByID(ctx context.Context, id string) (*model.Book, error)
	MarkSold(ctx context.Context, id string) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, b *model.Book) error {
	db, err := conn(ctx, r.db)
	if err != nil {
		return err
	}
	return db.Create(b).Error
}

func (r *bookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	db, err := conn(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var b model.Book
	if err := db.Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) MarkSold(ctx context.Context, id string) error {
	db, err := conn(ctx, r.db)
	if err != nil {
		return err
	}
	return db.Model(&model.Book{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"available":  false,
			"updated_at": time.Now().UTC(),
		}).Error
}
