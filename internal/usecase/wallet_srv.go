package usecase

import (
	"context"
	"fmt"

	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WalletService interface {
	GetWallet(ctx context.Context, userID string) (*response.WalletResponse, error)
}

type walletService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewWalletService(repo *repository.Repository, log *zap.Logger) WalletService {
	return &walletService{
		repo: repo,
		log:  log.With(zap.String("service", "wallet")),
	}
}

func (s *walletService) GetWallet(ctx context.Context, userID string) (*response.WalletResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user ID %s", ErrInvalidInput, userID)
	}

	wallet, err := s.repo.Wallet.FindByUserID(ctx, userUUID)
	if err != nil {
		s.log.Error("Failed to load wallet", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	// A user without a wallet row has a zero balance.
	resp := &response.WalletResponse{UserID: userID}
	if wallet != nil {
		resp.Balance = wallet.Balance
	}
	return resp, nil
}
