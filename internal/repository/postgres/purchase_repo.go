package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// certificate stages in purchase_certificates
const (
	stageRequest    = "request"
	stageAccountant = "accountant"
	stageTeacher    = "teacher"
)

// PurchaseRepository implements domain.PurchaseRepository using PostgreSQL.
// The unique (purchase_id, stage) constraint on purchase_certificates
// serializes concurrent certificate writes: the second insert affects zero
// rows and surfaces ErrInvalidTransition instead of double-applying.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepository creates a new PurchaseRepository
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Create creates a purchase with its items and a pre-approved request
// certificate in one transaction. New (non-catalog) products are created
// alongside their items.
func (r *PurchaseRepository) Create(partID, requesterID uuid.UUID, items []domain.PurchaseItemInput, note string) (*domain.Purchase, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var purchaseID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO purchases (id, part_id, note, requested_by)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id`,
		partID, note, requesterID).Scan(&purchaseID)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO purchase_certificates (purchase_id, stage, signer_id, signer_name, approved)
		SELECT $1, $2, s.id, s.name, TRUE FROM students s WHERE s.id = $3`,
		purchaseID, stageRequest, requesterID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrStudentNotFound
	}

	for _, item := range items {
		productID, err := resolveItemProduct(ctx, tx, item)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO purchase_items (id, purchase_id, product_id, quantity)
			VALUES (gen_random_uuid(), $1, $2, $3)`,
			purchaseID, productID, item.Quantity)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return r.GetByID(purchaseID)
}

func resolveItemProduct(ctx context.Context, tx pgx.Tx, item domain.PurchaseItemInput) (uuid.UUID, error) {
	if item.ProductID != nil {
		return *item.ProductID, nil
	}

	price, err := decimalToPgNumeric(item.NewProduct.Price)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid price: %w", err)
	}

	var productID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO products (id, name, price, does_share)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id`,
		item.NewProduct.Name, price, item.NewProduct.DoesShare).Scan(&productID)
	if err != nil {
		return uuid.Nil, err
	}
	return productID, nil
}

// GetByID retrieves a purchase with its part, items, products and
// certificates
func (r *PurchaseRepository) GetByID(id uuid.UUID) (*domain.Purchase, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT id, part_id, note, requested_by, actual_usage, returned_at, completed_at, created_at
		FROM purchases WHERE id = $1`, id)
	purchase, err := scanPurchase(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}

	if err := r.loadItems(ctx, []*domain.Purchase{purchase}); err != nil {
		return nil, err
	}
	if err := r.loadCertificates(ctx, []*domain.Purchase{purchase}); err != nil {
		return nil, err
	}
	return purchase, nil
}

// ListByPart retrieves all purchases of a part, newest first
func (r *PurchaseRepository) ListByPart(partID uuid.UUID) ([]*domain.Purchase, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT id, part_id, note, requested_by, actual_usage, returned_at, completed_at, created_at
		FROM purchases WHERE part_id = $1
		ORDER BY created_at DESC`, partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []*domain.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, purchases); err != nil {
		return nil, err
	}
	if err := r.loadCertificates(ctx, purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

// SetAccountantCert records the accountant stage decision. The signer must
// be a student; a second write for the same stage affects no rows.
func (r *PurchaseRepository) SetAccountantCert(purchaseID, signerID uuid.UUID, approved bool) error {
	return r.insertCert(purchaseID, stageAccountant, "students", signerID, approved)
}

// SetTeacherCert records the teacher stage decision. The signer must be a
// teacher.
func (r *PurchaseRepository) SetTeacherCert(purchaseID, signerID uuid.UUID, approved bool) error {
	return r.insertCert(purchaseID, stageTeacher, "teachers", signerID, approved)
}

func (r *PurchaseRepository) insertCert(purchaseID uuid.UUID, stage, signerTable string, signerID uuid.UUID, approved bool) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO purchase_certificates (purchase_id, stage, signer_id, signer_name, approved)
		SELECT $1, $2, t.id, t.name, $4 FROM %s t WHERE t.id = $3
		ON CONFLICT (purchase_id, stage) DO NOTHING`, signerTable),
		purchaseID, stage, signerID, approved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// SetRequestApproved flips the request certificate, used for withdrawal
func (r *PurchaseRepository) SetRequestApproved(purchaseID uuid.UUID, approved bool) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE purchase_certificates SET approved = $2
		WHERE purchase_id = $1 AND stage = $3`,
		purchaseID, approved, stageRequest)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPurchaseNotFound
	}
	return nil
}

// SetActualUsage records the settled amount. The guard on NULL serializes
// concurrent completion attempts.
func (r *PurchaseRepository) SetActualUsage(purchaseID uuid.UUID, amount decimal.Decimal) error {
	ctx := context.Background()

	usage, err := decimalToPgNumeric(amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE purchases SET actual_usage = $2
		WHERE id = $1 AND actual_usage IS NULL`,
		purchaseID, usage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// SetReturned stamps the change return, finishing the purchase
func (r *PurchaseRepository) SetReturned(purchaseID uuid.UUID, returnedAt time.Time) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE purchases SET returned_at = $2, completed_at = $2
		WHERE id = $1 AND actual_usage IS NOT NULL AND returned_at IS NULL`,
		purchaseID, returnedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// DeleteCascade removes the purchase, its certificates and items, and any
// private products left without references, in a single transaction.
func (r *PurchaseRepository) DeleteCascade(id uuid.UUID) error {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM purchase_certificates WHERE purchase_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM purchase_items WHERE purchase_id = $1`, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPurchaseNotFound
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM products p
		WHERE p.does_share = FALSE
		  AND NOT EXISTS (
			SELECT 1 FROM purchase_items i WHERE i.product_id = p.id
		  )`)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PurchaseRepository) loadItems(ctx context.Context, purchases []*domain.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Purchase, len(purchases))
	ids := make([]uuid.UUID, len(purchases))
	for i, purchase := range purchases {
		byID[purchase.ID] = purchase
		ids[i] = purchase.ID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT i.purchase_id, i.id, i.quantity,
		       pr.id, pr.name, pr.price, pr.does_share, pr.created_at
		FROM purchase_items i
		JOIN products pr ON pr.id = i.product_id
		WHERE i.purchase_id = ANY($1)
		ORDER BY i.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var purchaseID uuid.UUID
		item := &domain.PurchaseItem{Product: &domain.Product{}}
		var price pgtype.Numeric
		if err := rows.Scan(
			&purchaseID, &item.ID, &item.Quantity,
			&item.Product.ID, &item.Product.Name, &price,
			&item.Product.DoesShare, &item.Product.CreatedAt,
		); err != nil {
			return err
		}
		item.Product.Price = pgNumericToDecimal(price)
		byID[purchaseID].Items = append(byID[purchaseID].Items, item)
	}
	return rows.Err()
}

func (r *PurchaseRepository) loadCertificates(ctx context.Context, purchases []*domain.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Purchase, len(purchases))
	ids := make([]uuid.UUID, len(purchases))
	for i, purchase := range purchases {
		byID[purchase.ID] = purchase
		ids[i] = purchase.ID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT purchase_id, stage, signer_id, signer_name, approved, created_at
		FROM purchase_certificates
		WHERE purchase_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var purchaseID uuid.UUID
		var stage string
		var cert domain.Certificate
		if err := rows.Scan(&purchaseID, &stage, &cert.SignedByID, &cert.SignedByName, &cert.Approved, &cert.CreatedAt); err != nil {
			return err
		}
		purchase := byID[purchaseID]
		switch stage {
		case stageRequest:
			purchase.RequestCert = cert
		case stageAccountant:
			purchase.AccountantCert = &cert
		case stageTeacher:
			purchase.TeacherCert = &cert
		}
	}
	return rows.Err()
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var purchase domain.Purchase
	var usage pgtype.Numeric
	var returnedAt, completedAt pgtype.Timestamptz
	if err := row.Scan(
		&purchase.ID, &purchase.PartID, &purchase.Note, &purchase.RequestedByID,
		&usage, &returnedAt, &completedAt, &purchase.CreatedAt,
	); err != nil {
		return nil, err
	}
	if usage.Valid {
		value := pgNumericToDecimal(usage)
		purchase.ActualUsage = &value
	}
	if returnedAt.Valid {
		purchase.ReturnedAt = &returnedAt.Time
	}
	if completedAt.Valid {
		purchase.CompletedAt = &completedAt.Time
	}
	return &purchase, nil
}
