package postgres

import (
	"context"
	"credit-ledger/internal/domain/shopkeeper"
	"credit-ledger/internal/infrastructure/monitoring"
	"credit-ledger/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

type ShopkeeperRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ shopkeeper.Repository = (*ShopkeeperRepository)(nil)

func NewShopkeeperRepository(db DBPool, logger *slog.Logger) *ShopkeeperRepository {
	return &ShopkeeperRepository{db: db, logger: logger.With("component", "ShopkeeperRepository")}
}

func (r *ShopkeeperRepository) Create(ctx context.Context, sk *shopkeeper.Shopkeeper) error {
	query := `
        INSERT INTO shopkeepers (name, email, password_hash, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, created_at`
	status := "success"
	startTime := time.Now()

	err := r.db.QueryRow(ctx, query, sk.Name, sk.Email, sk.PasswordHash).Scan(&sk.ID, &sk.CreatedAt)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("CreateShopkeeper", status, time.Since(startTime))

	if err != nil {
		// A duplicate email trips the unique constraint and surfaces as
		// ErrAlreadyExists via translation.
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Shopkeeper created in DB", "shopkeeper_id", sk.ID)
	return nil
}

func (r *ShopkeeperRepository) FindByEmail(ctx context.Context, email string) (*shopkeeper.Shopkeeper, error) {
	query := `
        SELECT id, name, email, password_hash, created_at
        FROM shopkeepers
        WHERE email = $1`

	var sk shopkeeper.Shopkeeper
	err := r.db.QueryRow(ctx, query, email).Scan(&sk.ID, &sk.Name, &sk.Email, &sk.PasswordHash, &sk.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get shopkeeper by email", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &sk, nil
}

func (r *ShopkeeperRepository) FindByID(ctx context.Context, shopkeeperID int64) (*shopkeeper.Shopkeeper, error) {
	query := `
        SELECT id, name, email, password_hash, created_at
        FROM shopkeepers
        WHERE id = $1`

	var sk shopkeeper.Shopkeeper
	err := r.db.QueryRow(ctx, query, shopkeeperID).Scan(&sk.ID, &sk.Name, &sk.Email, &sk.PasswordHash, &sk.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Shopkeeper not found", "shopkeeper_id", shopkeeperID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get shopkeeper by ID", "shopkeeper_id", shopkeeperID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &sk, nil
}

func (r *ShopkeeperRepository) ListIDs(ctx context.Context) ([]int64, error) {
	logCtx := r.logger.With(slog.String("operation", "ListIDs"))
	logCtx.DebugContext(ctx, "Attempting to list all shopkeeper IDs")

	query := `SELECT id FROM shopkeepers ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query shopkeeper IDs", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query shopkeepers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			logCtx.ErrorContext(ctx, "Failed to scan shopkeeper ID row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning shopkeeper ID: %w", apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		logCtx.ErrorContext(ctx, "Error iterating shopkeeper ID rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating shopkeeper IDs: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished listing shopkeeper IDs", slog.Int("count", len(ids)))
	return ids, nil
}
