package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// LegalPrecedentRepository handles data access for legal precedents.
type LegalPrecedentRepository struct {
	db *pgxpool.Pool
}

// NewLegalPrecedentRepository creates a new legal precedent repository.
func NewLegalPrecedentRepository(db *pgxpool.Pool) *LegalPrecedentRepository {
	return &LegalPrecedentRepository{db: db}
}

// All returns every precedent, oldest first.
func (r *LegalPrecedentRepository) All(ctx context.Context) ([]models.LegalPrecedent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, case_name, jurisdiction, year, keywords, summary, relevance, created_at
		FROM legal_precedents
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query legal precedents: %w", err)
	}

	precedents, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LegalPrecedent, error) {
		var p models.LegalPrecedent

		err := row.Scan(&p.ID, &p.CaseName, &p.Jurisdiction, &p.Year, &p.Keywords, &p.Summary, &p.Relevance, &p.CreatedAt)

		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan legal precedents: %w", err)
	}

	return precedents, nil
}
