package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/repository"
)

type WalletService struct {
	db         *pgxpool.Pool
	walletRepo *repository.WalletRepository
	userRepo   userReader
	log        zerolog.Logger
}

func NewWalletService(
	db *pgxpool.Pool,
	walletRepo *repository.WalletRepository,
	userRepo userReader,
	log zerolog.Logger,
) *WalletService {
	return &WalletService{
		db:         db,
		walletRepo: walletRepo,
		userRepo:   userRepo,
		log:        log,
	}
}

// CreateWallet provisions the single wallet an account may own. A second
// create for the same owner is a conflict, not a silent no-op.
func (s *WalletService) CreateWallet(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	if ownerID <= 0 {
		return nil, ErrInvalidInput
	}
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}

	wallet, err := s.walletRepo.Create(ctx, ownerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrWalletExists
		}
		return nil, err
	}
	return wallet, nil
}

func (s *WalletService) GetWallet(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}

func (s *WalletService) ListTransactions(
	ctx context.Context,
	ownerID int64,
	limit int,
	offset int,
) ([]models.WalletTransaction, int, error) {
	wallet, err := s.GetWallet(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	transactions, err := s.walletRepo.ListTransactions(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.walletRepo.CountTransactions(ctx, wallet.ID)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}
