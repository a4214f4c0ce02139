package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"medisim/pkg/progression"
)

type Service interface {
	Create(ctx context.Context, name string) (*UserProfile, error)
	Read(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	ApplyCaseResult(ctx context.Context, id uuid.UUID, score int) (*UserProfile, error)
	ApplyQuizResult(ctx context.Context, id uuid.UUID, correct, total int) (int, *UserProfile, error)
}

type service struct {
	repo   Repository
	logger logrus.FieldLogger
}

func NewService(repo Repository, logger logrus.FieldLogger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) Create(ctx context.Context, name string) (*UserProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	p := &UserProfile{ID: uuid.New(), Name: name}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.WithField("learner_id", p.ID).Info("Learner created")
	return p, nil
}

func (s *service) Read(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	return s.repo.Get(ctx, id)
}

// ApplyCaseResult records one finished case. The returned profile is the
// stored row after the update.
func (s *service) ApplyCaseResult(ctx context.Context, id uuid.UUID, score int) (*UserProfile, error) {
	score = progression.ClampScore(score)
	xp := progression.CaseExperience(score)

	p, err := s.repo.ApplyCaseResult(ctx, id, score, xp)
	if err != nil {
		return nil, fmt.Errorf("applying case result: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"learner_id": id,
		"score":      score,
		"xp_gain":    xp,
		"rank":       p.Rank,
	}).Info("Case result applied")
	return p, nil
}

func (s *service) ApplyQuizResult(ctx context.Context, id uuid.UUID, correct, total int) (int, *UserProfile, error) {
	if total <= 0 || correct < 0 || correct > total {
		return 0, nil, ErrInvalidQuizTally
	}
	xp := progression.QuizExperience(correct, total)

	p, err := s.repo.AddExperience(ctx, id, xp)
	if err != nil {
		return 0, nil, fmt.Errorf("applying quiz result: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"learner_id": id,
		"correct":    correct,
		"total":      total,
		"xp_gain":    xp,
	}).Info("Quiz result applied")
	return xp, p, nil
}
