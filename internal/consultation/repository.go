package consultation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"medisim/internal/platform/database"
)

// Repository archives finished attempts.
type Repository interface {
	Save(ctx context.Context, a *Attempt) error
	ListByLearner(ctx context.Context, learnerID uuid.UUID, limit int) ([]Attempt, error)
}

type sqlRepo struct {
	db *database.DB
}

// NewRepository returns the SQL archive, or an in-memory one when db is nil.
func NewRepository(db *database.DB) Repository {
	if db == nil {
		return NewMemoryRepository()
	}
	return &sqlRepo{db: db}
}

func (r *sqlRepo) Save(ctx context.Context, a *Attempt) error {
	transcriptJSON, err := json.Marshal(a.Transcript)
	if err != nil {
		return err
	}
	submissionJSON, err := json.Marshal(a.Submission)
	if err != nil {
		return err
	}
	feedbackJSON, err := json.Marshal(a.Feedback)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO attempts (id, learner_id, case_id, case_title, specialty, diagnosis, transcript, submission, feedback, score, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, r.db.Rebind(query),
		a.ID, a.LearnerID, a.CaseID, a.CaseTitle, a.Specialty, a.CorrectDiagnosis,
		string(transcriptJSON), string(submissionJSON), string(feedbackJSON),
		a.Feedback.Score, a.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting attempt: %w", err)
	}
	return nil
}

func (r *sqlRepo) ListByLearner(ctx context.Context, learnerID uuid.UUID, limit int) ([]Attempt, error) {
	query := `
		SELECT id, learner_id, case_id, case_title, specialty, diagnosis, transcript, submission, feedback, completed_at
		FROM attempts WHERE learner_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		var transcriptJSON, submissionJSON, feedbackJSON []byte
		if err := rows.Scan(
			&a.ID,
			&a.LearnerID,
			&a.CaseID,
			&a.CaseTitle,
			&a.Specialty,
			&a.CorrectDiagnosis,
			&transcriptJSON,
			&submissionJSON,
			&feedbackJSON,
			&a.CompletedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(transcriptJSON, &a.Transcript); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
		}
		if err := json.Unmarshal(submissionJSON, &a.Submission); err != nil {
			return nil, fmt.Errorf("failed to unmarshal submission: %w", err)
		}
		if err := json.Unmarshal(feedbackJSON, &a.Feedback); err != nil {
			return nil, fmt.Errorf("failed to unmarshal feedback: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type memoryRepo struct {
	mu       sync.RWMutex
	attempts map[uuid.UUID][]Attempt
}

func NewMemoryRepository() Repository {
	return &memoryRepo{attempts: make(map[uuid.UUID][]Attempt)}
}

func (r *memoryRepo) Save(_ context.Context, a *Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.attempts[a.LearnerID] {
		if existing.ID == a.ID {
			return nil
		}
	}
	r.attempts[a.LearnerID] = append(r.attempts[a.LearnerID], *a)
	return nil
}

func (r *memoryRepo) ListByLearner(_ context.Context, learnerID uuid.UUID, limit int) ([]Attempt, error) {
	r.mu.RLock()
	list := append([]Attempt(nil), r.attempts[learnerID]...)
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CompletedAt.After(list[j].CompletedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	if list == nil {
		list = []Attempt{}
	}
	return list, nil
}
