package profile

import (
	"errors"

	"github.com/google/uuid"

	"medisim/pkg/progression"
)

var (
	ErrNotFound         = errors.New("learner not found")
	ErrInvalidName      = errors.New("learner name is required")
	ErrInvalidQuizTally = errors.New("quiz result must satisfy 0 <= correct <= total and total > 0")
)

// UserProfile is the persisted progression record of one learner. Rank,
// Level and NextRankAt are derived from ExperiencePoints on read.
type UserProfile struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	ExperiencePoints int       `json:"experiencePoints"`
	Rank             string    `json:"rank"`
	Level            int       `json:"level"`
	NextRankAt       int       `json:"nextRankAt"`
	CasesCompleted   int       `json:"casesCompleted"`
	AverageScore     float64   `json:"averageScore"`
}

// derive fills the rank fields from the stored experience.
func (p *UserProfile) derive() *UserProfile {
	r := progression.RankFor(p.ExperiencePoints)
	p.Rank = r.Name
	p.Level = r.Level
	p.NextRankAt = r.NextAt
	return p
}

// CurrentRank returns the rank for the profile's experience.
func (p *UserProfile) CurrentRank() progression.Rank {
	return progression.RankFor(p.ExperiencePoints)
}
