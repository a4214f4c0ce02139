package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medisim/internal/platform/database"
)

// Repository persists learner profiles. Every mutating method must apply
// its change as one atomic update and return the row as stored.
type Repository interface {
	Create(ctx context.Context, p *UserProfile) error
	Get(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	ApplyCaseResult(ctx context.Context, id uuid.UUID, score, xp int) (*UserProfile, error)
	AddExperience(ctx context.Context, id uuid.UUID, xp int) (*UserProfile, error)
}

type sqlRepo struct {
	db *database.DB
}

// NewRepository returns the SQL-backed repository, or the in-memory one
// when db is nil.
func NewRepository(db *database.DB) Repository {
	if db == nil {
		return NewMemoryRepository()
	}
	return &sqlRepo{db: db}
}

func (r *sqlRepo) Create(ctx context.Context, p *UserProfile) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO learners (id, name, experience, cases_completed, average_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		p.ID, p.Name, p.ExperiencePoints, p.CasesCompleted, p.AverageScore, now, now)
	if err != nil {
		return fmt.Errorf("inserting learner: %w", err)
	}
	p.derive()
	return nil
}

func (r *sqlRepo) Get(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	query := `SELECT id, name, experience, cases_completed, average_score FROM learners WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, r.db.Rebind(query), id))
}

// ApplyCaseResult folds score into the running mean, bumps the completed
// count and adds xp in a single statement. All right-hand sides see the
// pre-update row, so the mean uses the old count.
func (r *sqlRepo) ApplyCaseResult(ctx context.Context, id uuid.UUID, score, xp int) (*UserProfile, error) {
	query := `
		UPDATE learners SET
			experience = experience + $2,
			average_score = ((average_score * cases_completed) + $3) / (cases_completed + 1),
			cases_completed = cases_completed + 1,
			updated_at = $4
		WHERE id = $1
		RETURNING id, name, experience, cases_completed, average_score
	`
	return r.scanOne(r.db.QueryRowContext(ctx, r.db.Rebind(query), id, xp, float64(score), time.Now().UTC()))
}

func (r *sqlRepo) AddExperience(ctx context.Context, id uuid.UUID, xp int) (*UserProfile, error) {
	query := `
		UPDATE learners SET
			experience = experience + $2,
			updated_at = $3
		WHERE id = $1
		RETURNING id, name, experience, cases_completed, average_score
	`
	return r.scanOne(r.db.QueryRowContext(ctx, r.db.Rebind(query), id, xp, time.Now().UTC()))
}

func (r *sqlRepo) scanOne(row *sql.Row) (*UserProfile, error) {
	var p UserProfile
	err := row.Scan(&p.ID, &p.Name, &p.ExperiencePoints, &p.CasesCompleted, &p.AverageScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p.derive(), nil
}
