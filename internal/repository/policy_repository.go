package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PolicyRepository handles data access for policies.
type PolicyRepository struct {
	db *pgxpool.Pool
}

// NewPolicyRepository creates a new policy repository.
func NewPolicyRepository(db *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// Count returns the number of stored policies.
func (r *PolicyRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM policies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count policies: %w", err)
	}

	return count, nil
}
