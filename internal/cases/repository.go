package cases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"medisim/internal/platform/metrics"
	"medisim/pkg/progression"
)

// Generator produces raw case JSON for a difficulty. Decoding and
// validation happen here, not in the adapter.
type Generator interface {
	GenerateCases(ctx context.Context, difficulty Difficulty, count int) ([]byte, error)
}

type Repository interface {
	ListStatic() []ClinicalCase
	Generate(ctx context.Context, difficulty Difficulty, count int) ([]ClinicalCase, error)
	ForRank(ctx context.Context, rank progression.Rank) ([]ClinicalCase, error)
}

type Options struct {
	Generate bool
	Count    int
	Timeout  time.Duration
}

type repository struct {
	generator Generator
	cache     Cache
	opts      Options
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
}

// NewRepository returns a repository backed by the static catalog. gen and
// cache may be nil; without a generator ForRank only serves static cases.
func NewRepository(gen Generator, cache Cache, opts Options, logger logrus.FieldLogger, m *metrics.Metrics) Repository {
	if opts.Count <= 0 {
		opts.Count = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &repository{
		generator: gen,
		cache:     cache,
		opts:      opts,
		logger:    logger,
		metrics:   m,
	}
}

func (r *repository) ListStatic() []ClinicalCase {
	return Static()
}

func (r *repository) Generate(ctx context.Context, difficulty Difficulty, count int) ([]ClinicalCase, error) {
	if r.generator == nil {
		return nil, errors.New("case generation is not configured")
	}
	if !difficulty.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q", difficulty)
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	raw, err := r.generator.GenerateCases(ctx, difficulty, count)
	if err != nil {
		return nil, fmt.Errorf("generating cases: %w", err)
	}

	list, dropped, err := DecodeGenerated(raw, difficulty)
	for _, reason := range dropped {
		r.logger.WithError(reason).Warn("Dropped generated case")
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ForRank returns the case list offered to a learner of the given rank.
// It never returns an empty list while the static catalog is non-empty.
func (r *repository) ForRank(ctx context.Context, rank progression.Rank) ([]ClinicalCase, error) {
	difficulty := DifficultyForRank(rank)
	log := r.logger.WithFields(logrus.Fields{"rank": rank.Name, "difficulty": difficulty})

	if r.opts.Generate && r.generator != nil {
		if r.cache != nil {
			if list, ok := r.cache.Get(ctx, difficulty); ok && len(list) > 0 {
				return list, nil
			}
		}

		list, err := r.Generate(ctx, difficulty, r.opts.Count)
		if err == nil {
			if r.cache != nil {
				r.cache.Set(ctx, difficulty, list)
			}
			log.WithField("count", len(list)).Info("Generated cases")
			return list, nil
		}
		log.WithError(err).Warn("Case generation failed, serving static catalog")
		r.metrics.Fallback("cases")
	}

	if list := StaticFor(difficulty); len(list) > 0 {
		return list, nil
	}
	if list := Static(); len(list) > 0 {
		return list, nil
	}
	return nil, errors.New("no cases available")
}
