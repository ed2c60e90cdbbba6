// Package repository provides Postgres data access for feedback and policies.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RonitKhanna333/sih-final-2/internal/apperrors"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

const feedbackColumns = `id, text, sentiment, language, nuances, is_spam,
			legal_risk_score, compliance_difficulty_score, business_growth_score,
			stakeholder_type, sector, summary, edge_case_match, edge_case_flags,
			policy_id, created_at, updated_at`

// FeedbackRepository handles data access for feedback.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func scanFeedback(row pgx.Row) (*models.Feedback, error) {
	var (
		fb        models.Feedback
		sentiment string
		language  string
	)

	err := row.Scan(
		&fb.ID, &fb.Text, &sentiment, &language, &fb.Nuances, &fb.IsSpam,
		&fb.LegalRiskScore, &fb.ComplianceDifficultyScore, &fb.BusinessGrowthScore,
		&fb.StakeholderType, &fb.Sector, &fb.Summary, &fb.EdgeCaseMatch, &fb.EdgeCaseFlags,
		&fb.PolicyID, &fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fb.Sentiment = models.Sentiment(sentiment)
	fb.Language = models.Language(language)

	if fb.Nuances == nil {
		fb.Nuances = []string{}
	}

	if fb.EdgeCaseFlags == nil {
		fb.EdgeCaseFlags = []string{}
	}

	return &fb, nil
}

func (r *FeedbackRepository) queryFeedback(ctx context.Context, query string, args ...any) ([]models.Feedback, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	items := []models.Feedback{}

	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		items = append(items, *fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return items, nil
}

// Create inserts a scored feedback item.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) (*models.Feedback, error) {
	query := `
		INSERT INTO feedback (` + feedbackColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + feedbackColumns

	row := r.db.QueryRow(ctx, query,
		fb.ID, fb.Text, string(fb.Sentiment), string(fb.Language), nonNil(fb.Nuances), fb.IsSpam,
		fb.LegalRiskScore, fb.ComplianceDifficultyScore, fb.BusinessGrowthScore,
		fb.StakeholderType, fb.Sector, fb.Summary, fb.EdgeCaseMatch, nonNil(fb.EdgeCaseFlags),
		fb.PolicyID, fb.CreatedAt, fb.UpdatedAt,
	)

	created, err := scanFeedback(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	return created, nil
}

// GetByID retrieves a single feedback item by ID.
func (r *FeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE id = $1`

	fb, err := scanFeedback(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("feedback", "feedback not found")
		}

		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return fb, nil
}

// buildFilterConditions builds WHERE clause conditions and arguments from filters.
// Returns the WHERE clause (including " WHERE " prefix if conditions exist) and the args slice.
func buildFilterConditions(filters *models.ListFeedbackFilters) (whereClause string, args []any) {
	var conditions []string

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filters.Sentiment != nil {
		add("sentiment = $%d", string(*filters.Sentiment))
	}

	if filters.Language != nil {
		add("language = $%d", string(*filters.Language))
	}

	if filters.IsSpam != nil {
		add("is_spam = $%d", *filters.IsSpam)
	}

	if filters.StakeholderType != nil {
		add("stakeholder_type = $%d", *filters.StakeholderType)
	}

	if filters.PolicyID != nil {
		add("policy_id = $%d", *filters.PolicyID)
	}

	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		add("text ILIKE $%d", "%"+escapeLike(strings.TrimSpace(*filters.Search))+"%")
	}

	if filters.Since != nil {
		add("created_at >= $%d", *filters.Since)
	}

	if filters.Until != nil {
		add("created_at <= $%d", *filters.Until)
	}

	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	return whereClause, args
}

// escapeLike escapes the ILIKE wildcards in a user search term.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List retrieves feedback with optional filters, newest first.
func (r *FeedbackRepository) List(ctx context.Context, filters *models.ListFeedbackFilters) ([]models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback`

	whereClause, args := buildFilterConditions(filters)
	query += whereClause
	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.queryFeedback(ctx, query, args...)
}

// Count returns the number of feedback items matching the filters.
func (r *FeedbackRepository) Count(ctx context.Context, filters *models.ListFeedbackFilters) (int64, error) {
	whereClause, args := buildFilterConditions(filters)

	var count int64

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM feedback`+whereClause, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	return count, nil
}

// CountAll returns the number of stored feedback items.
func (r *FeedbackRepository) CountAll(ctx context.Context) (int64, error) {
	return r.Count(ctx, &models.ListFeedbackFilters{})
}

// CountWhere returns the number of feedback items with the given sentiment.
func (r *FeedbackRepository) CountWhere(ctx context.Context, sentiment models.Sentiment) (int64, error) {
	return r.Count(ctx, &models.ListFeedbackFilters{Sentiment: &sentiment})
}

// FindRecent returns the newest limit feedback items.
func (r *FeedbackRepository) FindRecent(ctx context.Context, limit int) ([]models.Feedback, error) {
	return r.FindAll(ctx, limit, 0)
}

// FindAll returns feedback newest first in a limit/offset window.
func (r *FeedbackRepository) FindAll(ctx context.Context, limit, offset int) ([]models.Feedback, error) {
	return r.List(ctx, &models.ListFeedbackFilters{Limit: limit, Offset: offset})
}

// buildFindQuery builds the document selection query.
func buildFindQuery(q models.FeedbackQuery) (query string, args []any) {
	var conditions []string

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if len(q.Sentiments) > 0 {
		values := make([]string, len(q.Sentiments))
		for i, s := range q.Sentiments {
			values[i] = string(s)
		}

		add("sentiment = ANY($%d)", values)
	}

	if q.Language != nil {
		add("language = $%d", string(*q.Language))
	}

	if len(q.StakeholderTypes) > 0 {
		add("stakeholder_type = ANY($%d)", q.StakeholderTypes)
	}

	if q.Since != nil {
		add("created_at >= $%d", *q.Since)
	}

	if q.Until != nil {
		add("created_at <= $%d", *q.Until)
	}

	if q.PolicyID != nil {
		add("policy_id = $%d", *q.PolicyID)
	}

	query = `SELECT ` + feedbackColumns + ` FROM feedback`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return query, args
}

// Find selects feedback matching q, newest first.
func (r *FeedbackRepository) Find(ctx context.Context, q models.FeedbackQuery) ([]models.Feedback, error) {
	query, args := buildFindQuery(q)

	return r.queryFeedback(ctx, query, args...)
}

// buildTextsQuery builds the corpus text query.
func buildTextsQuery(q models.TextQuery) (query string, args []any) {
	var conditions []string

	if q.Language != nil {
		args = append(args, string(*q.Language))
		conditions = append(conditions, fmt.Sprintf("language = $%d", len(args)))
	}

	if q.ExcludeSpam {
		conditions = append(conditions, "is_spam = FALSE")
	}

	query = `SELECT text FROM feedback`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC"

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return query, args
}

// Texts returns raw feedback texts, newest first.
func (r *FeedbackRepository) Texts(ctx context.Context, q models.TextQuery) ([]string, error) {
	query, args := buildTextsQuery(q)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback texts: %w", err)
	}

	texts, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect feedback texts: %w", err)
	}

	return texts, nil
}

// Stats computes the aggregate counters of the analytics endpoint.
func (r *FeedbackRepository) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{SentimentDistribution: map[models.Sentiment]int64{}}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_spam),
			COALESCE(AVG(legal_risk_score), 0)::float8,
			COALESCE(AVG(compliance_difficulty_score), 0)::float8,
			COALESCE(AVG(business_growth_score), 0)::float8
		FROM feedback
	`).Scan(
		&stats.Total, &stats.SpamCount,
		&stats.AverageLegalRisk, &stats.AverageComplianceDifficulty, &stats.AverageBusinessGrowth,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute feedback stats: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT sentiment, COUNT(*) FROM feedback GROUP BY sentiment`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sentiments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sentiment string
			count     int64
		)

		if err := rows.Scan(&sentiment, &count); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment count: %w", err)
		}

		stats.SentimentDistribution[models.Sentiment(sentiment)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sentiment counts: %w", err)
	}

	return stats, nil
}

// KPIs returns the raw counters of the KPI endpoint.
func (r *FeedbackRepository) KPIs(ctx context.Context) (*models.KPIStats, error) {
	var k models.KPIStats

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE sentiment = 'Positive'),
			COUNT(*) FILTER (WHERE sentiment = 'Negative'),
			COUNT(*) FILTER (WHERE sentiment = 'Neutral'),
			COUNT(DISTINCT language),
			COUNT(DISTINCT stakeholder_type),
			MIN(created_at)
		FROM feedback
	`).Scan(&k.Total, &k.Positive, &k.Negative, &k.Neutral, &k.Languages, &k.StakeholderTypes, &k.FirstSubmission)
	if err != nil {
		return nil, fmt.Errorf("failed to compute feedback kpis: %w", err)
	}

	return &k, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
