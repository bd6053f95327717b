package service

import (
	"context"
	"errors"

	"github.com/shinyyama/bookswap-backend/internal/model"
	"github.com/shinyyama/bookswap-backend/internal/repository"
	"gorm.io/gorm"
)

type WalletService interface {
	Get(ctx context.Context, uid string) (*model.UserWallet, error)
	Withdraw(ctx context.Context, uid string, amount int64) (*model.UserWallet, error)
}

type walletService struct {
	repo repository.UserWalletRepository
}

func NewWalletService(repo repository.UserWalletRepository) WalletService {
	return &walletService{repo: repo}
}

func (s *walletService) Get(ctx context.Context, uid string) (*model.UserWallet, error) {
	if uid == "" {
		return nil, ErrForbidden
	}
	return s.repo.Get(ctx, uid)
}

func (s *walletService) Withdraw(ctx context.Context, uid string, amount int64) (*model.UserWallet, error) {
	if uid == "" {
		return nil, ErrForbidden
	}
	if amount <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.repo.WithdrawRevenue(ctx, uid, amount); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}
	return s.repo.Get(ctx, uid)
}
