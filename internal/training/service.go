package training

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"medisim/internal/platform/metrics"
	"medisim/internal/profile"
)

// Generator returns raw JSON for quizzes and course modules.
type Generator interface {
	GenerateQuiz(ctx context.Context, count int) ([]byte, error)
	GenerateCourses(ctx context.Context, count int) ([]byte, error)
}

type Profiles interface {
	Read(ctx context.Context, id uuid.UUID) (*profile.UserProfile, error)
	ApplyQuizResult(ctx context.Context, id uuid.UUID, correct, total int) (int, *profile.UserProfile, error)
}

type Service interface {
	Quiz(ctx context.Context, learnerID uuid.UUID) (*QuizView, error)
	GradeQuiz(ctx context.Context, quizID uuid.UUID, answers []int) (*QuizResult, error)
	Courses(ctx context.Context) ([]CourseModule, error)
}

type Options struct {
	Timeout   time.Duration
	QuizCache int
}

type service struct {
	generator Generator
	profiles  Profiles
	opts      Options
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	issued *lru.Cache[uuid.UUID, *Quiz]
}

// NewService returns the quiz and course service. gen may be nil, in which
// case only the built-in content is served.
func NewService(gen Generator, profiles Profiles, opts Options, logger logrus.FieldLogger, m *metrics.Metrics) (Service, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.QuizCache <= 0 {
		opts.QuizCache = 1024
	}
	issued, err := lru.New[uuid.UUID, *Quiz](opts.QuizCache)
	if err != nil {
		return nil, fmt.Errorf("creating quiz cache: %w", err)
	}
	return &service{
		generator: gen,
		profiles:  profiles,
		opts:      opts,
		logger:    logger,
		metrics:   m,
		issued:    issued,
	}, nil
}

func (s *service) Quiz(ctx context.Context, learnerID uuid.UUID) (*QuizView, error) {
	if _, err := s.profiles.Read(ctx, learnerID); err != nil {
		return nil, err
	}

	questions, generated := s.questions(ctx)
	q := &Quiz{
		ID:        uuid.New(),
		LearnerID: learnerID,
		Questions: questions,
		Generated: generated,
		IssuedAt:  time.Now(),
	}
	s.issued.Add(q.ID, q)

	v := q.View()
	return &v, nil
}

func (s *service) questions(ctx context.Context) ([]QuizQuestion, bool) {
	if s.generator == nil {
		return StaticQuiz(), false
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	raw, err := s.generator.GenerateQuiz(ctx, QuizSize)
	if err == nil {
		var questions []QuizQuestion
		if questions, err = DecodeQuiz(raw, QuizSize); err == nil {
			return questions, true
		}
	}
	s.logger.WithError(err).Warn("Quiz generation failed, serving built-in quiz")
	s.metrics.Fallback("quiz")
	return StaticQuiz(), false
}

func (s *service) GradeQuiz(ctx context.Context, quizID uuid.UUID, answers []int) (*QuizResult, error) {
	s.mu.Lock()
	q, ok := s.issued.Get(quizID)
	if !ok {
		s.mu.Unlock()
		return nil, ErrQuizNotFound
	}
	if q.graded {
		s.mu.Unlock()
		return nil, ErrAlreadyGraded
	}
	if len(answers) != len(q.Questions) {
		s.mu.Unlock()
		return nil, ErrAnswerCount
	}
	q.graded = true
	s.mu.Unlock()

	res := &QuizResult{QuizID: q.ID, Total: len(q.Questions), Results: make([]QuestionResult, 0, len(q.Questions))}
	for i, item := range q.Questions {
		correct := answers[i] == item.CorrectIndex
		if correct {
			res.Correct++
		}
		res.Results = append(res.Results, QuestionResult{
			Correct:      correct,
			CorrectIndex: item.CorrectIndex,
			Explanation:  item.Explanation,
		})
	}

	gain, p, err := s.profiles.ApplyQuizResult(ctx, q.LearnerID, res.Correct, res.Total)
	if err != nil {
		s.mu.Lock()
		q.graded = false
		s.mu.Unlock()
		return nil, fmt.Errorf("recording quiz result: %w", err)
	}
	res.ExperienceGain = gain
	res.Profile = p

	s.logger.WithFields(logrus.Fields{
		"quiz_id":    q.ID,
		"learner_id": q.LearnerID,
		"correct":    res.Correct,
		"generated":  q.Generated,
	}).Info("Quiz graded")
	return res, nil
}

func (s *service) Courses(ctx context.Context) ([]CourseModule, error) {
	if s.generator == nil {
		return StaticCourses(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	raw, err := s.generator.GenerateCourses(ctx, CourseCount)
	if err == nil {
		var modules []CourseModule
		if modules, err = DecodeCourses(raw, CourseCount); err == nil {
			return modules, nil
		}
	}
	s.logger.WithError(err).Warn("Course generation failed, serving built-in modules")
	s.metrics.Fallback("courses")
	return StaticCourses(), nil
}
