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

// EventRepository implements domain.EventRepository using PostgreSQL
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Create creates a new event
func (r *EventRepository) Create(event *domain.Event) (*domain.Event, error) {
	ctx := context.Background()

	budget, err := decimalToPgNumeric(event.BudgetLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid budget limit: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (id, name, budget_limit)
		VALUES (gen_random_uuid(), $1, $2)
		RETURNING id, name, budget_limit, created_at`,
		event.Name, budget)
	return scanEvent(row)
}

// GetByID retrieves an event by its ID
func (r *EventRepository) GetByID(id uuid.UUID) (*domain.Event, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, budget_limit, created_at
		FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// List retrieves all events, newest first
func (r *EventRepository) List() ([]*domain.Event, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, budget_limit, created_at
		FROM events ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var event domain.Event
	var budget pgtype.Numeric
	if err := row.Scan(&event.ID, &event.Name, &budget, &event.CreatedAt); err != nil {
		return nil, err
	}
	event.BudgetLimit = pgNumericToDecimal(budget)
	return &event, nil
}
