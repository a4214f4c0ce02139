package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"medisim/internal/platform/metrics"
	"medisim/pkg/progression"
)

// Evaluator returns the tutor's raw JSON verdict.
type Evaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) ([]byte, error)
}

// Advisor returns a free-text second opinion on a consultation.
type Advisor interface {
	Advise(ctx context.Context, conversation string) (string, error)
}

type Synthesizer interface {
	// Synthesize always returns a complete feedback; failures degrade to a
	// neutral fallback with Fallback set.
	Synthesize(ctx context.Context, in Input) TutorFeedback
}

type Options struct {
	EvaluateTimeout time.Duration
	ExpertTimeout   time.Duration
}

type synthesizer struct {
	evaluator Evaluator
	advisor   Advisor
	opts      Options
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
}

// NewSynthesizer wires the tutor and the optional expert. advisor may be nil.
func NewSynthesizer(evaluator Evaluator, advisor Advisor, opts Options, logger logrus.FieldLogger, m *metrics.Metrics) Synthesizer {
	if opts.EvaluateTimeout <= 0 {
		opts.EvaluateTimeout = 45 * time.Second
	}
	if opts.ExpertTimeout <= 0 {
		opts.ExpertTimeout = 8 * time.Second
	}
	return &synthesizer{
		evaluator: evaluator,
		advisor:   advisor,
		opts:      opts,
		logger:    logger,
		metrics:   m,
	}
}

func (s *synthesizer) Synthesize(ctx context.Context, in Input) TutorFeedback {
	dialogue := in.Transcript.Dialogue()
	opinion := s.expertOpinion(ctx, dialogue.Format())

	req := EvaluationRequest{
		CaseTitle:        in.CaseTitle,
		Specialty:        in.Specialty,
		CorrectDiagnosis: in.CorrectDiagnosis,
		Dialogue:         dialogue,
		Submission:       in.Submission.Normalize(),
		ExpertOpinion:    opinion,
	}

	fb, err := s.evaluate(ctx, req)
	if err != nil {
		s.logger.WithError(err).WithField("case", in.CaseTitle).Warn("Evaluation failed, using neutral feedback")
		s.metrics.Fallback("feedback")
		fb = Fallback(err)
	}
	fb.ExpertOpinionUsed = opinion != ExpertUnavailable
	fb.ExperienceGain = progression.CaseExperience(fb.Score)
	return fb
}

func (s *synthesizer) expertOpinion(ctx context.Context, conversation string) string {
	if s.advisor == nil {
		return ExpertUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ExpertTimeout)
	defer cancel()

	opinion, err := s.advisor.Advise(ctx, conversation)
	if err != nil {
		s.logger.WithError(err).Info("Expert opinion unavailable")
		s.metrics.Fallback("expert")
		return ExpertUnavailable
	}
	opinion = strings.TrimSpace(opinion)
	if opinion == "" {
		return ExpertUnavailable
	}
	return opinion
}

func (s *synthesizer) evaluate(ctx context.Context, req EvaluationRequest) (TutorFeedback, error) {
	if s.evaluator == nil {
		return TutorFeedback{}, errors.New("no evaluator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.EvaluateTimeout)
	defer cancel()

	raw, err := s.evaluator.Evaluate(ctx, req)
	if err != nil {
		return TutorFeedback{}, err
	}
	return Decode(raw)
}

// verdict mirrors the evaluator schema. Pointers detect missing fields.
type verdict struct {
	Score           *int      `json:"score"`
	Strengths       *[]string `json:"strengths"`
	Weaknesses      *[]string `json:"weaknesses"`
	MissedQuestions *[]string `json:"missedQuestions"`
	FinalComment    *string   `json:"finalComment"`
}

// Decode parses an evaluator response. The payload must carry exactly the
// five verdict fields with a score in 0..100.
func Decode(raw []byte) (TutorFeedback, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var v verdict
	if err := dec.Decode(&v); err != nil {
		return TutorFeedback{}, fmt.Errorf("decoding evaluation: %w", err)
	}

	var missing []string
	if v.Score == nil {
		missing = append(missing, "score")
	}
	if v.Strengths == nil {
		missing = append(missing, "strengths")
	}
	if v.Weaknesses == nil {
		missing = append(missing, "weaknesses")
	}
	if v.MissedQuestions == nil {
		missing = append(missing, "missedQuestions")
	}
	if v.FinalComment == nil {
		missing = append(missing, "finalComment")
	}
	if len(missing) > 0 {
		return TutorFeedback{}, fmt.Errorf("evaluation is missing %s", strings.Join(missing, ", "))
	}
	if *v.Score < progression.MinScore || *v.Score > progression.MaxScore {
		return TutorFeedback{}, fmt.Errorf("evaluation score %d is out of range", *v.Score)
	}

	return TutorFeedback{
		Score:           *v.Score,
		Strengths:       nonNil(*v.Strengths),
		Weaknesses:      nonNil(*v.Weaknesses),
		MissedQuestions: nonNil(*v.MissedQuestions),
		FinalComment:    *v.FinalComment,
	}, nil
}

// Fallback is the neutral feedback used when evaluation fails.
func Fallback(reason error) TutorFeedback {
	msg := "unknown error"
	if reason != nil {
		msg = reason.Error()
	}
	if errors.Is(reason, context.DeadlineExceeded) {
		msg = "the tutor did not answer in time"
	}
	return TutorFeedback{
		Score:           NeutralScore,
		Strengths:       []string{},
		Weaknesses:      []string{"The automated evaluation could not be completed: " + msg},
		MissedQuestions: []string{},
		FinalComment:    "Your diagnosis was recorded, but the evaluation could not be completed. A neutral score was awarded.",
		Fallback:        true,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
