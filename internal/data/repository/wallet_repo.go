package repository

import (
	"context"
	"fmt"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type WalletRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)
	Credit(ctx context.Context, userID uuid.UUID, amount float64) error
	Debit(ctx context.Context, userID uuid.UUID, amount float64) (bool, error)
}

type walletRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewWalletRepository(db database.PgxIface, log *zap.Logger) WalletRepository {
	return &walletRepository{
		db:  db,
		log: log.With(zap.String("repository", "wallet")),
	}
}

func (r *walletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	var wallet entity.Wallet
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&wallet.ID,
		&wallet.UserID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find wallet by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find wallet by user ID %s: %w", userID.String(), err)
	}

	return &wallet, nil
}

// Credit adds to the user's balance, creating the wallet row on first use.
func (r *walletRepository) Credit(ctx context.Context, userID uuid.UUID, amount float64) error {
	query := `
		INSERT INTO wallets (id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, uuid.New(), userID, amount, time.Now())
	if err != nil {
		r.log.Error("Failed to credit wallet",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Float64("amount", amount),
		)
		return fmt.Errorf("credit wallet for user %s: %w", userID.String(), err)
	}

	r.log.Info("Wallet credited",
		zap.String("user_id", userID.String()),
		zap.Float64("amount", amount),
	)
	return nil
}

// Debit subtracts from the balance. The balance >= amount guard keeps
// the write atomic; false means insufficient funds.
func (r *walletRepository) Debit(ctx context.Context, userID uuid.UUID, amount float64) (bool, error) {
	query := `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
	`

	result, err := r.db.Exec(ctx, query, userID, amount)
	if err != nil {
		r.log.Error("Failed to debit wallet",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Float64("amount", amount),
		)
		return false, fmt.Errorf("debit wallet for user %s: %w", userID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
