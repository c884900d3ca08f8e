package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nishiko/matsuri-backend/internal/domain"
)

// WalletRepository implements domain.WalletRepository using PostgreSQL
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Create creates a new wallet under an event
func (r *WalletRepository) Create(wallet *domain.Wallet) (*domain.Wallet, error) {
	ctx := context.Background()

	budget, err := decimalToPgNumeric(wallet.BudgetLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid budget limit: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO wallets (id, event_id, name, budget_limit)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, event_id, name, budget_limit, created_at`,
		wallet.EventID, wallet.Name, budget)
	return scanWallet(row)
}

// GetByID retrieves a wallet by its ID
func (r *WalletRepository) GetByID(id uuid.UUID) (*domain.Wallet, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT id, event_id, name, budget_limit, created_at
		FROM wallets WHERE id = $1`, id)
	wallet, err := scanWallet(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}

// GetWithParts retrieves a wallet together with its child parts and their
// member counts
func (r *WalletRepository) GetWithParts(id uuid.UUID) (*domain.WalletWithParts, error) {
	wallet, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.wallet_id, p.name, p.budget_limit,
		       (SELECT COUNT(*) FROM part_members m WHERE m.part_id = p.id),
		       p.created_at
		FROM parts p
		WHERE p.wallet_id = $1
		ORDER BY p.created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &domain.WalletWithParts{Wallet: *wallet}
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		result.Parts = append(result.Parts, part)
	}
	return result, rows.Err()
}

// ListByEvent retrieves all wallets of an event
func (r *WalletRepository) ListByEvent(eventID uuid.UUID) ([]*domain.Wallet, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, name, budget_limit, created_at
		FROM wallets WHERE event_id = $1
		ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	return wallets, rows.Err()
}

// IsTeacher reports whether the teacher is assigned to the wallet
func (r *WalletRepository) IsTeacher(walletID, teacherID uuid.UUID) (bool, error) {
	ctx := context.Background()

	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM wallet_teachers
			WHERE wallet_id = $1 AND teacher_id = $2
		)`, walletID, teacherID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// AddTeacher assigns a teacher as an approver for the wallet
func (r *WalletRepository) AddTeacher(walletID, teacherID uuid.UUID) error {
	ctx := context.Background()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO wallet_teachers (wallet_id, teacher_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, walletID, teacherID)
	return err
}

// AddAccountantStudent attaches a student as a wallet-level accountant
func (r *WalletRepository) AddAccountantStudent(walletID, studentID uuid.UUID) error {
	ctx := context.Background()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO wallet_accountant_students (wallet_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, walletID, studentID)
	return err
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var wallet domain.Wallet
	var budget pgtype.Numeric
	if err := row.Scan(&wallet.ID, &wallet.EventID, &wallet.Name, &budget, &wallet.CreatedAt); err != nil {
		return nil, err
	}
	wallet.BudgetLimit = pgNumericToDecimal(budget)
	return &wallet, nil
}
