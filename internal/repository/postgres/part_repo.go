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

// PartRepository implements domain.PartRepository using PostgreSQL
type PartRepository struct {
	pool *pgxpool.Pool
}

// NewPartRepository creates a new PartRepository
func NewPartRepository(pool *pgxpool.Pool) *PartRepository {
	return &PartRepository{pool: pool}
}

// Create creates a new part under a wallet
func (r *PartRepository) Create(part *domain.Part) (*domain.Part, error) {
	ctx := context.Background()

	budget, err := decimalToPgNumeric(part.BudgetLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid budget limit: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO parts (id, wallet_id, name, budget_limit)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, wallet_id, name, budget_limit, 0, created_at`,
		part.WalletID, part.Name, budget)
	return scanPart(row)
}

// GetByID retrieves a part by its ID
func (r *PartRepository) GetByID(id uuid.UUID) (*domain.Part, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.wallet_id, p.name, p.budget_limit,
		       (SELECT COUNT(*) FROM part_members m WHERE m.part_id = p.id),
		       p.created_at
		FROM parts p WHERE p.id = $1`, id)
	part, err := scanPart(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPartNotFound
		}
		return nil, err
	}
	return part, nil
}

// GetWithBudgetContext loads the part with all purchases, items, products
// and certificates attached, the shape the budget calculator reads.
func (r *PartRepository) GetWithBudgetContext(id uuid.UUID) (*domain.PartWithPurchases, error) {
	part, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	purchaseRepo := &PurchaseRepository{pool: r.pool}
	purchases, err := purchaseRepo.ListByPart(id)
	if err != nil {
		return nil, err
	}

	return &domain.PartWithPurchases{Part: *part, Purchases: purchases}, nil
}

// GetByWallet retrieves all parts of a wallet
func (r *PartRepository) GetByWallet(walletID uuid.UUID) ([]*domain.Part, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.wallet_id, p.name, p.budget_limit,
		       (SELECT COUNT(*) FROM part_members m WHERE m.part_id = p.id),
		       p.created_at
		FROM parts p
		WHERE p.wallet_id = $1
		ORDER BY p.created_at`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []*domain.Part
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, rows.Err()
}

// MemberRole returns the student's role in the part
func (r *PartRepository) MemberRole(partID, studentID uuid.UUID) (domain.Role, error) {
	ctx := context.Background()

	var role domain.Role
	err := r.pool.QueryRow(ctx, `
		SELECT role FROM part_members
		WHERE part_id = $1 AND student_id = $2`,
		partID, studentID).Scan(&role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, domain.ErrNotPartMember
		}
		return 0, err
	}
	return role, nil
}

// AddMember adds a student to a part with a role
func (r *PartRepository) AddMember(partID, studentID uuid.UUID, role domain.Role, isLeader bool) error {
	ctx := context.Background()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO part_members (part_id, student_id, role, is_leader)
		VALUES ($1, $2, $3, $4)`,
		partID, studentID, role, isLeader)
	return err
}

// UpdateMemberRole changes an existing member's role
func (r *PartRepository) UpdateMemberRole(partID, studentID uuid.UUID, role domain.Role) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE part_members SET role = $3
		WHERE part_id = $1 AND student_id = $2`,
		partID, studentID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotPartMember
	}
	return nil
}

// Members lists the part's members with their roles
func (r *PartRepository) Members(partID uuid.UUID) ([]*domain.PartMember, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT m.part_id, m.role, m.is_leader, m.joined_at,
		       s.id, s.auth_id, s.name, s.email, s.created_at
		FROM part_members m
		JOIN students s ON s.id = m.student_id
		WHERE m.part_id = $1
		ORDER BY m.role, s.name`, partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.PartMember
	for rows.Next() {
		member := &domain.PartMember{Student: &domain.Student{}}
		if err := rows.Scan(
			&member.PartID, &member.Role, &member.IsLeader, &member.JoinedAt,
			&member.Student.ID, &member.Student.AuthID, &member.Student.Name,
			&member.Student.Email, &member.Student.CreatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func scanPart(row pgx.Row) (*domain.Part, error) {
	var part domain.Part
	var budget pgtype.Numeric
	if err := row.Scan(&part.ID, &part.WalletID, &part.Name, &budget, &part.MemberCount, &part.CreatedAt); err != nil {
		return nil, err
	}
	part.BudgetLimit = pgNumericToDecimal(budget)
	return &part, nil
}
